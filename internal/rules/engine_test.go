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

package rules

import (
	"testing"
	"time"

	"github.com/posedge/order-engine/internal/model"
)

func TestEngine_MatchItem_ScopeAndZone(t *testing.T) {
	e := New()
	at := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC).UnixMilli() // Monday

	rules := []model.PriceRule{
		{RuleId: "global", IsActive: true, ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeAll},
		{RuleId: "cat-match", IsActive: true, ProductScope: model.ProductScopeCategory, TargetId: "cat1", ZoneScope: model.ZoneScopeAll},
		{RuleId: "cat-miss", IsActive: true, ProductScope: model.ProductScopeCategory, TargetId: "cat2", ZoneScope: model.ZoneScopeAll},
		{RuleId: "zone-match", IsActive: true, ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeZone, ZoneId: "z1"},
		{RuleId: "zone-miss", IsActive: true, ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeZone, ZoneId: "z9"},
		{RuleId: "inactive", IsActive: false, ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeAll},
	}

	matched := e.MatchItem(rules, "z1", ItemContext{CategoryId: "cat1"}, at)

	ids := map[string]bool{}
	for _, r := range matched {
		ids[r.RuleId] = true
	}
	for _, want := range []string{"global", "cat-match", "zone-match"} {
		if !ids[want] {
			t.Errorf("expected rule %q to match, matched=%v", want, ids)
		}
	}
	for _, notWant := range []string{"cat-miss", "zone-miss", "inactive"} {
		if ids[notWant] {
			t.Errorf("expected rule %q not to match", notWant)
		}
	}
}

func TestEngine_MatchItem_TimeWindowWrapsMidnight(t *testing.T) {
	e := New()
	rule := model.PriceRule{
		RuleId: "happy-hour", IsActive: true,
		ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeAll,
		ActiveStartTime: "22:00", ActiveEndTime: "02:00",
	}

	insideLate := time.Date(2026, 1, 5, 23, 30, 0, 0, time.UTC).UnixMilli()
	insideEarly := time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC).UnixMilli()
	outside := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC).UnixMilli()

	if len(e.MatchItem([]model.PriceRule{rule}, "", ItemContext{}, insideLate)) != 1 {
		t.Error("expected match at 23:30")
	}
	if len(e.MatchItem([]model.PriceRule{rule}, "", ItemContext{}, insideEarly)) != 1 {
		t.Error("expected match at 01:00")
	}
	if len(e.MatchItem([]model.PriceRule{rule}, "", ItemContext{}, outside)) != 0 {
		t.Error("expected no match at 12:00")
	}
}

func TestEngine_MatchItem_ActiveDaysMask(t *testing.T) {
	e := New()
	monday := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC) // Weekday() == Monday == 1
	rule := model.PriceRule{
		RuleId: "weekend-only", IsActive: true,
		ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeAll,
		ActiveDays: 1<<0 | 1<<6, // Sunday + Saturday
	}

	if len(e.MatchItem([]model.PriceRule{rule}, "", ItemContext{}, monday.UnixMilli())) != 0 {
		t.Error("expected no match on Monday for a weekend-only rule")
	}

	sunday := monday.AddDate(0, 0, -1)
	if len(e.MatchItem([]model.PriceRule{rule}, "", ItemContext{}, sunday.UnixMilli())) != 1 {
		t.Error("expected match on Sunday for a weekend-only rule")
	}
}

func TestEngine_MatchItem_ValidFromUntil(t *testing.T) {
	e := New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	until := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC).UnixMilli()
	rule := model.PriceRule{
		RuleId: "january-promo", IsActive: true,
		ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeAll,
		ValidFrom: &from, ValidUntil: &until,
	}

	before := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC).UnixMilli()
	during := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC).UnixMilli()
	after := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

	if len(e.MatchItem([]model.PriceRule{rule}, "", ItemContext{}, before)) != 0 {
		t.Error("expected no match before valid_from")
	}
	if len(e.MatchItem([]model.PriceRule{rule}, "", ItemContext{}, during)) != 1 {
		t.Error("expected match within validity window")
	}
	if len(e.MatchItem([]model.PriceRule{rule}, "", ItemContext{}, after)) != 0 {
		t.Error("expected no match after valid_until")
	}
}

func TestEngine_MatchItem_SortedByEffectivePriority(t *testing.T) {
	e := New()
	at := time.Now().UnixMilli()
	rules := []model.PriceRule{
		{RuleId: "low", IsActive: true, ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeAll, CreatedAt: 1},
		{RuleId: "high", IsActive: true, ProductScope: model.ProductScopeProduct, TargetId: "p1", ZoneScope: model.ZoneScopeZone, ZoneId: "z1", CreatedAt: 2},
		{RuleId: "mid", IsActive: true, ProductScope: model.ProductScopeCategory, TargetId: "c1", ZoneScope: model.ZoneScopeAll, CreatedAt: 3},
	}

	matched := e.MatchItem(rules, "z1", ItemContext{ProductId: "p1", CategoryId: "c1"}, at)

	if len(matched) != 3 {
		t.Fatalf("expected all 3 rules to match, got %d", len(matched))
	}
	if matched[0].RuleId != "high" || matched[1].RuleId != "mid" || matched[2].RuleId != "low" {
		t.Errorf("expected order [high mid low], got %v", []string{matched[0].RuleId, matched[1].RuleId, matched[2].RuleId})
	}
}

func TestSelect_ExclusiveWinsAlone(t *testing.T) {
	rules := []model.PriceRule{
		{RuleId: "stackable", IsStackable: true},
		{RuleId: "exclusive", IsExclusive: true},
		{RuleId: "normal"},
	}

	selected := Select(rules)

	if len(selected) != 1 || selected[0].RuleId != "exclusive" {
		t.Errorf("expected only the exclusive rule to be selected, got %v", selected)
	}
}

func TestSelect_HighestNonStackablePlusAllStackable(t *testing.T) {
	rules := []model.PriceRule{
		{RuleId: "non-stackable-1"},
		{RuleId: "non-stackable-2"},
		{RuleId: "stackable-1", IsStackable: true},
		{RuleId: "stackable-2", IsStackable: true},
	}

	selected := Select(rules)

	var ids []string
	for _, r := range selected {
		ids = append(ids, r.RuleId)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 selected rules, got %v", ids)
	}
	if ids[0] != "non-stackable-1" {
		t.Errorf("expected first non-stackable rule encountered to win, got %v", ids)
	}
}
