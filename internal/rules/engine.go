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

// Package rules implements PriceRuleEngine: matching a catalog item and zone
// against a snapshot of PriceRule definitions that were captured on an order
// at open-table time, and selecting which matched rules actually fire.
package rules

import (
	"sort"
	"time"

	"github.com/posedge/order-engine/internal/model"
)

// ItemContext is what the engine needs to know about a cart line to match rules against it.
type ItemContext struct {
	ProductId  string
	CategoryId string
	TagIds     []string
}

// Engine matches and selects PriceRule records against a point in time, a zone, and an item.
type Engine struct {
	clock func() time.Time
}

// New builds an Engine using wall-clock time for validity checks.
func New() *Engine {
	return &Engine{clock: time.Now}
}

// NewWithClock builds an Engine that reads the current time from clock, for deterministic tests.
func NewWithClock(clock func() time.Time) *Engine {
	return &Engine{clock: clock}
}

// MatchItem returns every rule in scope for the given item and zone at the given
// evaluation time, sorted by descending effective priority then by CreatedAt
// descending (the newer rule wins ties).
func (e *Engine) MatchItem(rules []model.PriceRule, zoneId string, item ItemContext, at int64) []model.PriceRule {
	var matched []model.PriceRule
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		if !e.validAt(r, at) {
			continue
		}
		if !zoneMatches(r, zoneId) {
			continue
		}
		if !productMatches(r, item) {
			continue
		}
		matched = append(matched, r)
	}
	sortByPriority(matched)
	return matched
}

// MatchOrder returns every order-scoped rule (ProductScope global, order-level
// discounts/surcharges configured without a product target) in scope for the
// zone at the given evaluation time.
func (e *Engine) MatchOrder(rules []model.PriceRule, zoneId string, at int64) []model.PriceRule {
	return e.MatchItem(rules, zoneId, ItemContext{}, at)
}

func (e *Engine) validAt(r model.PriceRule, at int64) bool {
	if r.ValidFrom != nil && at < *r.ValidFrom {
		return false
	}
	if r.ValidUntil != nil && at > *r.ValidUntil {
		return false
	}
	if r.ActiveDays != 0 || r.ActiveStartTime != "" || r.ActiveEndTime != "" {
		t := time.UnixMilli(at)
		if r.ActiveDays != 0 {
			dayBit := uint8(1) << uint(t.Weekday())
			if r.ActiveDays&dayBit == 0 {
				return false
			}
		}
		if r.ActiveStartTime != "" && r.ActiveEndTime != "" {
			if !timeOfDayInWindow(t, r.ActiveStartTime, r.ActiveEndTime) {
				return false
			}
		}
	}
	return true
}

// timeOfDayInWindow checks t's local HH:MM against [start, end), wrapping past
// midnight when end < start (e.g. a happy hour from 22:00 to 02:00).
func timeOfDayInWindow(t time.Time, start, end string) bool {
	nowMin := t.Hour()*60 + t.Minute()
	startMin, okS := parseHHMM(start)
	endMin, okE := parseHHMM(end)
	if !okS || !okE {
		return true
	}
	if startMin == endMin {
		return true
	}
	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin
	}
	return nowMin >= startMin || nowMin < endMin
}

func parseHHMM(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func zoneMatches(r model.PriceRule, zoneId string) bool {
	if r.ZoneScope == model.ZoneScopeAll {
		return true
	}
	return r.ZoneId == zoneId
}

func productMatches(r model.PriceRule, item ItemContext) bool {
	switch r.ProductScope {
	case model.ProductScopeGlobal:
		return true
	case model.ProductScopeCategory:
		return r.TargetId == item.CategoryId
	case model.ProductScopeProduct:
		return r.TargetId == item.ProductId
	case model.ProductScopeTag:
		for _, t := range item.TagIds {
			if t == r.TargetId {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func sortByPriority(rules []model.PriceRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		pi, pj := rules[i].EffectivePriority(), rules[j].EffectivePriority()
		if pi != pj {
			return pi > pj
		}
		return rules[i].CreatedAt > rules[j].CreatedAt
	})
}

// Select reduces a priority-sorted match list down to the rules that actually
// apply: an exclusive rule wins alone; otherwise the highest-priority
// non-stackable rule fires together with every stackable rule; if no
// non-stackable rule matched, all stackable rules fire together.
func Select(matched []model.PriceRule) []model.PriceRule {
	for _, r := range matched {
		if r.IsExclusive {
			return []model.PriceRule{r}
		}
	}

	var selected []model.PriceRule
	tookNonStackable := false
	for _, r := range matched {
		if r.IsStackable {
			selected = append(selected, r)
			continue
		}
		if !tookNonStackable {
			selected = append(selected, r)
			tookNonStackable = true
		}
	}
	return selected
}
