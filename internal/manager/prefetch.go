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

package manager

import (
	"context"

	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
)

// prefetch is everything Phase A resolves from collaborators before any
// storage write lock is taken. Its fields feed directly into the
// actions.CommandContext Phase B builds.
type prefetch struct {
	rules                []model.PriceRule
	zoneName             string
	productMeta          map[string]model.ProductMeta
	marketingGroupId     string
	marketingRules       []model.PriceRule
	stampActivity        *model.StampActivityInfo
	mergeSourceItems     []model.CartItemSnapshot
}

// runPhaseA inspects cmd's payload and resolves whatever external data the
// matching action needs. It never touches storage's write path; a failure
// here fails the command without a transaction ever opening. existingMemberId
// is the order's currently linked member, used to resolve a stamp activity.
func (m *Manager) runPhaseA(ctx context.Context, cmd *model.OrderCommand, existingMemberId string) (*prefetch, error) {
	pf := &prefetch{}

	switch p := cmd.Payload.(type) {
	case model.OpenTablePayload:
		if p.ZoneId != "" {
			name, err := m.catalog.Zone(ctx, p.ZoneId)
			if err != nil {
				return nil, ordererr.Wrap(ordererr.InternalError, err)
			}
			pf.zoneName = name
		} else {
			pf.zoneName = p.ZoneName
		}
		active, err := m.catalog.ActiveRules(ctx)
		if err != nil {
			return nil, ordererr.Wrap(ordererr.InternalError, err)
		}
		pf.rules = active

	case model.AddItemsPayload:
		ids := make([]string, 0, len(p.Items))
		seen := make(map[string]bool, len(p.Items))
		for _, in := range p.Items {
			if !seen[in.ProductId] {
				seen[in.ProductId] = true
				ids = append(ids, in.ProductId)
			}
		}
		meta, err := m.catalog.Products(ctx, ids)
		if err != nil {
			return nil, ordererr.Wrap(ordererr.InternalError, err)
		}
		pf.productMeta = meta

	case model.LinkMemberPayload:
		groupId, rules, err := m.marketing.Member(ctx, p.MemberId)
		if err != nil {
			return nil, ordererr.Wrap(ordererr.InternalError, err)
		}
		pf.marketingGroupId = groupId
		pf.marketingRules = rules

	case model.RedeemStampPayload:
		info, err := m.marketing.StampActivity(ctx, p.StampActivityId, existingMemberId)
		if err != nil {
			return nil, ordererr.Wrap(ordererr.InternalError, err)
		}
		pf.stampActivity = &info
		if p.CompExistingInstance == "" && info.RewardProductId != "" {
			meta, err := m.catalog.Products(ctx, []string{info.RewardProductId})
			if err != nil {
				return nil, ordererr.Wrap(ordererr.InternalError, err)
			}
			pf.productMeta = meta
		}

	case model.MoveOrderPayload:
		if p.ZoneId != "" && p.ZoneName == "" {
			name, err := m.catalog.Zone(ctx, p.ZoneId)
			if err != nil {
				return nil, ordererr.Wrap(ordererr.InternalError, err)
			}
			pf.zoneName = name
		}

	case model.MergeOrdersPayload:
		src, err := m.store.GetSnapshot(p.SourceOrderId)
		if err != nil {
			return nil, ordererr.Wrap(ordererr.InternalError, err)
		}
		if src == nil {
			return nil, ordererr.New(ordererr.OrderNotFound)
		}
		pf.mergeSourceItems = src.Items
	}

	return pf, nil
}
