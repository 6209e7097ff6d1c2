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

package model

import "github.com/shopspring/decimal"

// PriceRule is a pricing rule captured into an order's rule snapshot at open-table time.
type PriceRule struct {
	RuleId          string          `json:"rule_id"`
	RuleName        string          `json:"rule_name"`
	DisplayName     string          `json:"display_name"`
	ReceiptName     string          `json:"receipt_name,omitempty"`
	RuleType        RuleType        `json:"rule_type"`
	AdjustmentType  AdjustmentType  `json:"adjustment_type"`
	AdjustmentValue decimal.Decimal `json:"adjustment_value"`
	IsExclusive     bool            `json:"is_exclusive"`
	IsStackable     bool            `json:"is_stackable"`
	IsActive        bool            `json:"is_active"`

	ProductScope ProductScope `json:"product_scope"`
	TargetId     string       `json:"target_id,omitempty"` // category id, tag id, or product id depending on ProductScope

	ZoneScope ZoneScope `json:"zone_scope"`
	ZoneId    string    `json:"zone_id,omitempty"`

	// ActiveDays is a 7-bit mask, bit 0 = Sunday .. bit 6 = Saturday.
	ActiveDays      uint8  `json:"active_days"`
	ActiveStartTime string `json:"active_start_time"` // "HH:MM", local
	ActiveEndTime   string `json:"active_end_time"`   // "HH:MM", local; wraps past midnight when < start

	ValidFrom  *int64 `json:"valid_from,omitempty"`  // ms since epoch
	ValidUntil *int64 `json:"valid_until,omitempty"` // ms since epoch

	CreatedAt int64 `json:"created_at"` // ms since epoch, used as a priority tiebreaker
}

// EffectivePriority is zone_weight*10 + product_weight, used to choose among competing rules.
func (r PriceRule) EffectivePriority() int {
	return r.ZoneScope.Weight()*10 + r.ProductScope.Weight()
}

// AppliedRule is a trace entry attached to an item or order recording that a PriceRule fired.
type AppliedRule struct {
	RuleId           string          `json:"rule_id"`
	RuleName         string          `json:"rule_name"`
	DisplayName      string          `json:"display_name"`
	ReceiptName      string          `json:"receipt_name,omitempty"`
	RuleType         RuleType        `json:"rule_type"`
	AdjustmentType   AdjustmentType  `json:"adjustment_type"`
	AdjustmentValue  decimal.Decimal `json:"adjustment_value"`
	IsExclusive      bool            `json:"is_exclusive"`
	IsStackable      bool            `json:"is_stackable"`
	AppliedAmount    decimal.Decimal `json:"applied_amount"`
	EffectivePriority int            `json:"effective_priority"`
}

func cloneAppliedRules(rules []AppliedRule) []AppliedRule {
	if rules == nil {
		return nil
	}
	out := make([]AppliedRule, len(rules))
	copy(out, rules)
	return out
}
