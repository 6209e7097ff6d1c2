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

import "github.com/shopspring/decimal"

// Adjuster computes the amount a single rule or manual override contributes
// against a base value. Discounts and surcharges share this shape; the sign
// of the result is determined by the caller based on rule type.
type Adjuster interface {
	// Compute returns the unsigned magnitude of the adjustment against base.
	Compute(base decimal.Decimal) decimal.Decimal
	Name() string
}

// PercentageAdjuster computes a ratio of the base amount, e.g. 0.10 for 10%.
type PercentageAdjuster struct {
	Ratio decimal.Decimal
}

func NewPercentageAdjuster(ratio decimal.Decimal) *PercentageAdjuster {
	return &PercentageAdjuster{Ratio: ratio}
}

func (a *PercentageAdjuster) Compute(base decimal.Decimal) decimal.Decimal {
	return base.Mul(a.Ratio)
}

func (a *PercentageAdjuster) Name() string { return "Percentage" }

// FixedAdjuster applies a flat amount regardless of base, clamped so it never
// exceeds the base it is being subtracted from.
type FixedAdjuster struct {
	Amount decimal.Decimal
}

func NewFixedAdjuster(amount decimal.Decimal) *FixedAdjuster {
	return &FixedAdjuster{Amount: amount}
}

func (a *FixedAdjuster) Compute(base decimal.Decimal) decimal.Decimal {
	if a.Amount.GreaterThan(base) {
		return base
	}
	return a.Amount
}

func (a *FixedAdjuster) Name() string { return "Fixed" }

// StackPercentages combines a sequence of discount ratios the way a retailer
// stacks coupons: each ratio applies to what is left after the previous one,
// not to the original base. Three 10% stacked discounts yield 27.1%, not 30%.
func StackPercentages(ratios []decimal.Decimal) decimal.Decimal {
	remaining := decimal.NewFromInt(1)
	for _, r := range ratios {
		remaining = remaining.Mul(decimal.NewFromInt(1).Sub(r))
	}
	return decimal.NewFromInt(1).Sub(remaining)
}
