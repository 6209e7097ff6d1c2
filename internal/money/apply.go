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
	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/model"
)

// ApplyRules applies a priority-ordered, already-selected set of PriceRule
// records against a base amount. Discounts are applied first, each against
// what the previous discount left behind ("capitalist mode": three 10%
// stacked discounts yield 27.1% off, not 30%); surcharges are then computed
// independently against the original base, not the discounted amount.
// Returns the total discount, the total surcharge, and one AppliedRule trace
// entry per firing rule in application order.
func ApplyRules(base decimal.Decimal, selected []model.PriceRule) (discountTotal, surchargeTotal decimal.Decimal, applied []model.AppliedRule) {
	running := base

	apply := func(r model.PriceRule, clampToRunning bool) decimal.Decimal {
		var amt decimal.Decimal
		switch r.AdjustmentType {
		case model.AdjustmentPercentage:
			amt = NewPercentageAdjuster(r.AdjustmentValue).Compute(running)
		default:
			amt = NewFixedAdjuster(r.AdjustmentValue).Compute(running)
		}
		amt = Round2(ClampNonNegative(amt))
		if clampToRunning && amt.GreaterThan(running) {
			amt = running
		}
		return amt
	}

	for _, r := range selected {
		if r.RuleType != model.RuleTypeDiscount {
			continue
		}
		amt := apply(r, true)
		running = running.Sub(amt)
		discountTotal = discountTotal.Add(amt)
		applied = append(applied, traceOf(r, amt))
	}

	// Surcharges are computed on base, not on the discounted amount
	// (spec.md §4.3 step 5), so running is reset before this loop.
	running = base
	for _, r := range selected {
		if r.RuleType != model.RuleTypeSurcharge {
			continue
		}
		amt := apply(r, false)
		running = running.Add(amt)
		surchargeTotal = surchargeTotal.Add(amt)
		applied = append(applied, traceOf(r, amt))
	}

	return discountTotal, surchargeTotal, applied
}

func traceOf(r model.PriceRule, amt decimal.Decimal) model.AppliedRule {
	return model.AppliedRule{
		RuleId:            r.RuleId,
		RuleName:          r.RuleName,
		DisplayName:       r.DisplayName,
		ReceiptName:       r.ReceiptName,
		RuleType:          r.RuleType,
		AdjustmentType:    r.AdjustmentType,
		AdjustmentValue:   r.AdjustmentValue,
		IsExclusive:       r.IsExclusive,
		IsStackable:       r.IsStackable,
		AppliedAmount:     amt,
		EffectivePriority: r.EffectivePriority(),
	}
}

// ApplyManualDiscount computes the manual per-item or per-order discount
// amount from a percent override (10 means 10%), rounded to the cent.
func ApplyManualDiscount(base decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return Round2(ClampNonNegative(NewPercentageAdjuster(FromPercentageDisplay(percent)).Compute(base)))
}

// ApplyFixedOverride returns a manual fixed discount or surcharge, clamped so
// a discount never exceeds the base it is taken from.
func ApplyFixedOverride(base, amount decimal.Decimal, isDiscount bool) decimal.Decimal {
	amount = Round2(ClampNonNegative(amount))
	if isDiscount && amount.GreaterThan(base) {
		return base
	}
	return amount
}
