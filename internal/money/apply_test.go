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

package money

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/model"
)

func pct(r model.PriceRule, v string) model.PriceRule {
	r.AdjustmentType = model.AdjustmentPercentage
	r.AdjustmentValue = decimal.RequireFromString(v)
	return r
}

func TestApplyRules_StackedPercentageDiscounts(t *testing.T) {
	base := decimal.RequireFromString("100.00")
	rules := []model.PriceRule{
		pct(model.PriceRule{RuleId: "r1", RuleType: model.RuleTypeDiscount, IsStackable: true}, "0.10"),
		pct(model.PriceRule{RuleId: "r2", RuleType: model.RuleTypeDiscount, IsStackable: true}, "0.10"),
		pct(model.PriceRule{RuleId: "r3", RuleType: model.RuleTypeDiscount, IsStackable: true}, "0.10"),
	}

	discount, surcharge, applied := ApplyRules(base, rules)

	// 100 -> 90 -> 81 -> 72.90: total discount 27.10, not 30.00 flat.
	if !discount.Equal(decimal.RequireFromString("27.10")) {
		t.Errorf("expected stacked discount 27.10, got %s", discount)
	}
	if !surcharge.IsZero() {
		t.Errorf("expected zero surcharge, got %s", surcharge)
	}
	if len(applied) != 3 {
		t.Fatalf("expected 3 applied rule traces, got %d", len(applied))
	}
}

func TestApplyRules_DiscountThenSurcharge(t *testing.T) {
	base := decimal.RequireFromString("100.00")
	rules := []model.PriceRule{
		pct(model.PriceRule{RuleId: "d1", RuleType: model.RuleTypeDiscount}, "0.20"),
		pct(model.PriceRule{RuleId: "s1", RuleType: model.RuleTypeSurcharge}, "0.10"),
	}

	discount, surcharge, _ := ApplyRules(base, rules)

	if !discount.Equal(decimal.RequireFromString("20.00")) {
		t.Errorf("expected discount 20.00, got %s", discount)
	}
	// surcharge computed on base (100.00), not the post-discount amount.
	if !surcharge.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected surcharge 10.00, got %s", surcharge)
	}
}

func TestApplyRules_FixedDiscountClampedToBase(t *testing.T) {
	base := decimal.RequireFromString("10.00")
	rules := []model.PriceRule{
		{RuleId: "d1", RuleType: model.RuleTypeDiscount, AdjustmentType: model.AdjustmentFixed, AdjustmentValue: decimal.RequireFromString("25.00")},
	}

	discount, _, _ := ApplyRules(base, rules)

	if !discount.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("expected discount clamped to base 10.00, got %s", discount)
	}
}

func TestApplyManualDiscount(t *testing.T) {
	base := decimal.RequireFromString("50.00")
	percent := decimal.RequireFromString("15")

	got := ApplyManualDiscount(base, percent)

	if !got.Equal(decimal.RequireFromString("7.50")) {
		t.Errorf("expected 7.50, got %s", got)
	}
}
