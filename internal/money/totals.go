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

// RecomputeOrderTotals derives every order-level money field from the
// current items and payments. The reducer calls this after every mutation so
// a snapshot is always internally consistent; it is pure and idempotent over
// repeated calls on the same inputs.
func RecomputeOrderTotals(s *model.OrderSnapshot) {
	var originalTotal, subtotal, tax, compTotal decimal.Decimal

	for _, it := range s.Items {
		lineBase := it.OriginalPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		if it.IsComped {
			compTotal = compTotal.Add(lineBase)
			continue
		}
		originalTotal = originalTotal.Add(lineBase)
		subtotal = subtotal.Add(it.LineTotal)
		tax = tax.Add(it.Tax)
	}

	manualDiscount := manualAmount(subtotal, s.OrderManualDiscountPercent, s.OrderManualDiscountFixed)
	manualSurcharge := manualAmount(subtotal, s.OrderManualSurchargePercent, s.OrderManualSurchargeFixed)

	totalDiscount := Round2(manualDiscount.Add(s.OrderRuleDiscountAmount))
	totalSurcharge := Round2(manualSurcharge.Add(s.OrderRuleSurchargeAmount))

	// Total excludes tax: it is subtotal net of order-level discount/surcharge
	// only (item-level rule discount/surcharge is already folded into subtotal
	// via each item's LineTotal).
	total := ClampNonNegative(Round2(subtotal.Sub(manualDiscount).Sub(s.OrderRuleDiscountAmount).
		Add(manualSurcharge).Add(s.OrderRuleSurchargeAmount)))

	var paid decimal.Decimal
	for _, p := range s.Payments {
		if p.Cancelled {
			continue
		}
		paid = paid.Add(p.Amount)
	}
	paid = Round2(paid)

	s.OriginalTotal = Round2(originalTotal)
	s.Subtotal = Round2(subtotal)
	s.TotalDiscount = totalDiscount
	s.TotalSurcharge = totalSurcharge
	s.Tax = Round2(tax)
	s.Discount = totalDiscount
	s.CompTotalAmount = Round2(compTotal)
	s.OrderManualDiscountAmount = Round2(manualDiscount)
	s.OrderManualSurchargeAmount = Round2(manualSurcharge)
	s.Total = total
	s.PaidAmount = paid
	s.RemainingAmount = ClampNonNegative(Round2(total.Sub(paid)))
}

func manualAmount(base decimal.Decimal, percent, fixed *decimal.Decimal) decimal.Decimal {
	if percent != nil {
		return ApplyManualDiscount(base, *percent)
	}
	if fixed != nil {
		return ApplyFixedOverride(base, *fixed, true)
	}
	return decimal.Zero
}
