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

package reducer

import (
	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/money"
	"github.com/posedge/order-engine/internal/ordererr"
)

func applyTableOpened(s *model.OrderSnapshot, evt *model.OrderEvent, p model.TableOpenedPayload) {
	s.Status = model.OrderStatusActive
	s.TableId = p.TableId
	s.TableName = p.TableName
	s.ZoneId = p.ZoneId
	s.ZoneName = p.ZoneName
	s.IsRetail = p.IsRetail
	s.ReceiptNumber = p.ReceiptNumber
	s.QueueNumber = p.QueueNumber
	s.StartTime = evt.Timestamp
	s.Items = nil
	s.Payments = nil
}

func applyItemsAdded(s *model.OrderSnapshot, p model.ItemsAddedPayload) {
	for _, it := range p.Items {
		it.UnpaidQuantity = it.Quantity
		s.Items = append(s.Items, it)
	}
}

func applyItemModified(s *model.OrderSnapshot, p model.ItemModifiedPayload) {
	original := s.FindItem(p.OriginalInstanceId)

	var kept []model.CartItemSnapshot
	for i := range s.Items {
		if s.Items[i].InstanceId != p.OriginalInstanceId {
			kept = append(kept, s.Items[i])
		}
	}
	s.Items = kept

	for _, r := range p.Results {
		if r.Action == model.ItemModUnchanged {
			if original != nil {
				s.Items = append(s.Items, *original)
			}
			continue
		}

		base := model.CartItemSnapshot{}
		if original != nil {
			base = original.Clone()
		}
		base.InstanceId = r.InstanceId
		base.Quantity = r.Quantity
		base.UnpaidQuantity = r.Quantity
		base.Price = r.Price
		base.UnitPrice = r.Price
		base.OriginalPrice = r.OriginalPrice
		base.ManualDiscountPercent = r.ManualDiscountPercent
		base.RuleDiscountAmount = r.RuleDiscountAmount
		base.RuleSurchargeAmount = r.RuleSurchargeAmount
		base.AppliedRules = r.AppliedRules
		base.Tax = r.Tax
		base.TaxRate = r.TaxRate
		if r.Note != nil {
			base.Note = *r.Note
		}
		if r.SelectedOptions != nil {
			base.SelectedOptions = r.SelectedOptions
		}
		if r.SelectedSpecification != nil {
			base.SelectedSpecification = *r.SelectedSpecification
		}
		base.LineTotal = base.Price.Mul(decimalFromInt(base.Quantity)).Sub(base.RuleDiscountAmount).Add(base.RuleSurchargeAmount)

		s.Items = append(s.Items, base)
	}
}

func applyItemRemoved(s *model.OrderSnapshot, p model.ItemRemovedPayload) error {
	idx := -1
	for i := range s.Items {
		if s.Items[i].InstanceId == p.InstanceId {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ordererr.New(ordererr.OrderItemNotFound)
	}
	item := &s.Items[idx]
	if p.Quantity >= item.Quantity {
		s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
		return nil
	}
	previousQuantity := item.Quantity
	item.Quantity -= p.Quantity
	item.UnpaidQuantity -= p.Quantity
	if item.UnpaidQuantity < 0 {
		item.UnpaidQuantity = 0
	}
	recomputeLineTotal(item, previousQuantity)
	return nil
}

func applyItemRestored(s *model.OrderSnapshot, p model.ItemRestoredPayload) error {
	item := s.FindItem(p.InstanceId)
	if item == nil {
		return ordererr.New(ordererr.OrderItemNotFound)
	}
	item.UnpaidQuantity = item.Quantity
	return nil
}

func applyItemCompedFull(s *model.OrderSnapshot, p model.ItemCompedFullPayload) error {
	item := s.FindItem(p.InstanceId)
	if item == nil {
		return ordererr.New(ordererr.OrderItemNotFound)
	}
	item.IsComped = true
	return nil
}

func applyItemCompedPartial(s *model.OrderSnapshot, p model.ItemCompedPartialPayload) error {
	idx := -1
	for i := range s.Items {
		if s.Items[i].InstanceId == p.InstanceId {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ordererr.New(ordererr.OrderItemNotFound)
	}
	previousQuantity := s.Items[idx].Quantity
	comped := s.Items[idx].Clone()

	remaining := s.Items[idx]
	remaining.Quantity -= p.CompQuantity
	remaining.UnpaidQuantity -= p.CompQuantity
	if remaining.UnpaidQuantity < 0 {
		remaining.UnpaidQuantity = 0
	}
	recomputeLineTotal(&remaining, previousQuantity)
	s.Items[idx] = remaining

	comped.InstanceId = p.NewInstanceId
	comped.Quantity = p.CompQuantity
	comped.UnpaidQuantity = 0
	comped.IsComped = true
	recomputeLineTotal(&comped, previousQuantity)

	s.Items = append(s.Items, comped)
	return nil
}

func applyItemUncomped(s *model.OrderSnapshot, p model.ItemUncompedPayload) error {
	item := s.FindItem(p.InstanceId)
	if item == nil {
		return ordererr.New(ordererr.OrderItemNotFound)
	}
	item.IsComped = false
	item.UnpaidQuantity = item.Quantity
	return nil
}

// recomputeLineTotal rescales the rule discount/surcharge carried on item
// proportionally to the quantity split off from previousQuantity, then
// derives LineTotal from the rescaled amounts.
func recomputeLineTotal(item *model.CartItemSnapshot, previousQuantity int) {
	if previousQuantity > 0 && item.Quantity != previousQuantity {
		ratio := decimal.NewFromInt(int64(item.Quantity)).Div(decimal.NewFromInt(int64(previousQuantity)))
		item.RuleDiscountAmount = money.Round2(item.RuleDiscountAmount.Mul(ratio))
		item.RuleSurchargeAmount = money.Round2(item.RuleSurchargeAmount.Mul(ratio))
	}
	item.LineTotal = item.Price.Mul(decimalFromInt(item.Quantity)).Sub(item.RuleDiscountAmount).Add(item.RuleSurchargeAmount)
}
