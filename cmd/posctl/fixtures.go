/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/collab"
	"github.com/posedge/order-engine/internal/model"
)

// fixtureData is the on-disk shape of --catalog: a small JSON file standing
// in for the real catalog/marketing services so posctl is runnable
// standalone, the way the teacher's cmd/order can run against a local .env
// with no real Prime credentials in preview mode.
type fixtureData struct {
	Products []struct {
		Id           string  `json:"id"`
		Name         string  `json:"name"`
		CategoryId   string  `json:"category_id"`
		CategoryName string  `json:"category_name"`
		TaxRate      float64 `json:"tax_rate"`
	} `json:"products"`
	Rules   []model.PriceRule `json:"rules"`
	Zones   map[string]string `json:"zones"`
	Members map[string]struct {
		MarketingGroupId string            `json:"marketing_group_id"`
		Rules            []model.PriceRule `json:"rules"`
		Stamps           map[string]int    `json:"stamps,omitempty"` // stamp_activity_id -> current_stamps
	} `json:"members"`
	StampActivities map[string]struct {
		Name             string   `json:"name"`
		RewardProductId  string   `json:"reward_product_id"`
		StampsRequired   int      `json:"stamps_required"`
		TargetProductIds []string `json:"target_product_ids"`
	} `json:"stamp_activities"`
}

// loadFixtures reads path, or returns an empty fixture set if path is "".
func loadFixtures(path string) (*fixtureData, error) {
	fx := &fixtureData{}
	if path == "" {
		return fx, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	if err := json.Unmarshal(b, fx); err != nil {
		return nil, fmt.Errorf("parse fixture file: %w", err)
	}
	return fx, nil
}

// fixtureCatalog implements collab.CatalogLookup over a static fixtureData,
// standing in for a real CatalogLookup service implementation.
type fixtureCatalog struct {
	data *fixtureData
}

var _ collab.CatalogLookup = (*fixtureCatalog)(nil)

func (c *fixtureCatalog) Products(_ context.Context, productIds []string) (map[string]model.ProductMeta, error) {
	wanted := make(map[string]bool, len(productIds))
	for _, id := range productIds {
		wanted[id] = true
	}
	out := make(map[string]model.ProductMeta, len(productIds))
	for _, p := range c.data.Products {
		if !wanted[p.Id] {
			continue
		}
		meta := model.ProductMeta{Name: p.Name, CategoryId: p.CategoryId, CategoryName: p.CategoryName}
		meta.TaxRate = decimal.NewFromFloat(p.TaxRate)
		out[p.Id] = meta
	}
	return out, nil
}

func (c *fixtureCatalog) ActiveRules(_ context.Context) ([]model.PriceRule, error) {
	active := make([]model.PriceRule, 0, len(c.data.Rules))
	for _, r := range c.data.Rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

func (c *fixtureCatalog) Zone(_ context.Context, zoneId string) (string, error) {
	if name, ok := c.data.Zones[zoneId]; ok {
		return name, nil
	}
	return zoneId, nil
}

// fixtureMarketing implements collab.MarketingLookup over the same static set.
type fixtureMarketing struct {
	data *fixtureData
}

var _ collab.MarketingLookup = (*fixtureMarketing)(nil)

func (m *fixtureMarketing) Member(_ context.Context, memberId string) (string, []model.PriceRule, error) {
	rec, ok := m.data.Members[memberId]
	if !ok {
		return "", nil, fmt.Errorf("fixture: unknown member %q", memberId)
	}
	return rec.MarketingGroupId, rec.Rules, nil
}

func (m *fixtureMarketing) StampActivity(_ context.Context, stampActivityId, memberId string) (model.StampActivityInfo, error) {
	act, ok := m.data.StampActivities[stampActivityId]
	if !ok {
		return model.StampActivityInfo{}, fmt.Errorf("fixture: unknown stamp activity %q", stampActivityId)
	}
	var current int
	if rec, ok := m.data.Members[memberId]; ok {
		current = rec.Stamps[stampActivityId]
	}
	return model.StampActivityInfo{
		StampActivityId:       stampActivityId,
		StampActivityName:     act.Name,
		RewardProductId:       act.RewardProductId,
		StampsRequired:        act.StampsRequired,
		CurrentStamps:         current,
		StampTargetProductIds: act.TargetProductIds,
	}, nil
}

func (m *fixtureMarketing) ActiveStampActivities(_ context.Context, _ string) ([]model.StampActivityInfo, error) {
	out := make([]model.StampActivityInfo, 0, len(m.data.StampActivities))
	for id, act := range m.data.StampActivities {
		out = append(out, model.StampActivityInfo{
			StampActivityId:       id,
			StampActivityName:     act.Name,
			RewardProductId:       act.RewardProductId,
			StampsRequired:        act.StampsRequired,
			StampTargetProductIds: act.TargetProductIds,
		})
	}
	return out, nil
}

// SettleStamps logs the settlement rather than persisting it: posctl's
// fixture file is a read-only stand-in loaded fresh on every invocation, so
// there is nowhere durable to write an updated stamp balance back to.
func (m *fixtureMarketing) SettleStamps(_ context.Context, memberId string, earned map[string]int, consumed []string) error {
	fmt.Fprintf(os.Stderr, "fixture: settle stamps for member %s: earned=%v consumed=%v\n", memberId, earned, consumed)
	return nil
}

// noopArchiveNotifier discards completion notices; posctl has no external
// archiver to wake up.
type noopArchiveNotifier struct{}

var _ collab.ArchiveNotifier = noopArchiveNotifier{}

func (noopArchiveNotifier) NotifyCompleted(context.Context, string) error { return nil }
