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

// Package money implements the engine's fixed-point decimal arithmetic:
// rounding, rule-driven adjustments, and per-order total aggregation.
package money

import "github.com/shopspring/decimal"

// Scale is the number of decimal places all money values are rounded to.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round2 rounds to Scale decimal places, half-away-from-zero, matching how a
// cash register totals a receipt rather than banker's rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// ClampNonNegative floors a value at zero; discounts and remaining balances
// never go negative.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ToPercentageDisplay converts a ratio to a percentage for display (0.005 -> 0.5).
func ToPercentageDisplay(ratio decimal.Decimal) decimal.Decimal {
	return ratio.Mul(hundred)
}

// FromPercentageDisplay converts a percentage to a ratio (0.5 -> 0.005).
func FromPercentageDisplay(percent decimal.Decimal) decimal.Decimal {
	return percent.Div(hundred)
}

// EqualWithinCent reports whether two amounts differ by at most one cent,
// the tolerance used when reconciling a remaining balance against zero.
func EqualWithinCent(a, b decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThan(decimal.NewFromFloat(0.01)) || diff.Equal(decimal.NewFromFloat(0.01))
}
