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

package actions

import (
	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/money"
	"github.com/posedge/order-engine/internal/ordererr"
	"github.com/posedge/order-engine/internal/rules"
)

// ModifyItem changes price, quantity, manual discount, note, or selected
// options/specification on an existing line, splitting off the affected
// quantity when the change applies to fewer units than the line holds.
type ModifyItem struct {
	Engine *rules.Engine
}

func (m ModifyItem) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.ModifyItemPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "modify_item: unexpected payload type")
	}
	c := p.Changes
	if c.Price == nil && c.Quantity == nil && c.ManualDiscountPercent == nil && c.Note == nil && c.SelectedOptions == nil && c.SelectedSpecification == nil {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "modify_item: no changes given")
	}

	item := ctx.Snapshot.FindItem(p.InstanceId)
	if item == nil {
		return nil, ordererr.New(ordererr.OrderItemNotFound)
	}
	if item.IsComped {
		return nil, ordererr.New(ordererr.OrderItemComped)
	}

	affectedQty := item.Quantity
	if p.AffectedQuantity != nil {
		affectedQty = *p.AffectedQuantity
	}
	if affectedQty <= 0 || affectedQty > item.Quantity {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "modify_item: affected quantity %d out of range for line of %d", affectedQty, item.Quantity)
	}

	paidQty := item.Quantity - item.UnpaidQuantity
	if paidQty > 0 && affectedQty > item.UnpaidQuantity {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "modify_item: cannot modify quantity already paid for")
	}

	if !hasActualChanges(item, c) {
		return nil, ordererr.New(ordererr.OrderItemNoChange)
	}

	// newPrice is the catalog/override base rules are computed against, so it
	// comes from OriginalPrice rather than the already rule-adjusted Price.
	newPrice := item.OriginalPrice
	if c.Price != nil {
		newPrice = *c.Price
	}
	newManualDiscount := item.ManualDiscountPercent
	if c.ManualDiscountPercent != nil {
		newManualDiscount = c.ManualDiscountPercent
	}
	newOptions := item.SelectedOptions
	if c.SelectedOptions != nil {
		newOptions = c.SelectedOptions
	}
	newSpec := item.SelectedSpecification
	if c.SelectedSpecification != nil {
		newSpec = *c.SelectedSpecification
	}
	newNote := item.Note
	if c.Note != nil {
		newNote = *c.Note
	}
	modQty := affectedQty
	if c.Quantity != nil {
		modQty = *c.Quantity
	}
	if modQty <= 0 {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "modify_item: resulting quantity must be positive")
	}

	remainderQty := item.Quantity - affectedQty

	var results []model.ItemModificationResult
	if remainderQty > 0 {
		results = append(results, model.ItemModificationResult{
			InstanceId: item.InstanceId, Quantity: remainderQty, Price: item.Price, OriginalPrice: item.OriginalPrice,
			ManualDiscountPercent: item.ManualDiscountPercent, Action: model.ItemModUnchanged,
			SourceInstanceId: item.InstanceId,
		})
	}

	manualDiscountStr := ""
	if newManualDiscount != nil {
		manualDiscountStr = newManualDiscount.String()
	}
	key := contentKey(item.Id, newOptions, newSpec, newPrice.String(), manualDiscountStr)
	existingIds := existingInstanceIDs(ctx.Snapshot.Items, item.InstanceId)

	newInstanceId := item.InstanceId
	action := model.ItemModUpdated
	if remainderQty > 0 {
		action = model.ItemModCreated
		newInstanceId = resolveInstanceID(ctx, key, existingIds, "mod")
	} else if key != originalContentKey(item) {
		newInstanceId = resolveInstanceID(ctx, key, existingIds, "mod")
	}

	matched := m.Engine.MatchItem(unskippedRules(ctx), ctx.Snapshot.ZoneId, rules.ItemContext{
		ProductId: item.Id, CategoryId: item.CategoryId,
	}, ctx.Now)
	selected := rules.Select(matched)

	base := newPrice.Mul(decimal.NewFromInt(int64(modQty)))
	if newManualDiscount != nil {
		manualAmt := money.ApplyManualDiscount(base, *newManualDiscount)
		base = money.ClampNonNegative(base.Sub(manualAmt))
	}
	discount, surcharge, applied := money.ApplyRules(base, selected)
	lineTotal := money.Round2(base.Sub(discount).Add(surcharge))
	tax := money.Round2(lineTotal.Mul(item.TaxRate))
	perUnit := money.Round2(lineTotal.Div(decimal.NewFromInt(int64(modQty))))

	results = append(results, model.ItemModificationResult{
		InstanceId: newInstanceId, Quantity: modQty, Price: perUnit, OriginalPrice: newPrice,
		ManualDiscountPercent: newManualDiscount, Action: action, SourceInstanceId: item.InstanceId,
		Note: &newNote, SelectedOptions: newOptions, SelectedSpecification: &newSpec,
		RuleDiscountAmount: discount, RuleSurchargeAmount: surcharge, AppliedRules: applied,
		Tax: tax, TaxRate: item.TaxRate,
	})

	evt := newEvent(ctx, model.EvtItemModified, model.ItemModifiedPayload{
		OriginalInstanceId: item.InstanceId, Results: results,
	})
	return []*model.OrderEvent{evt}, nil
}

func hasActualChanges(item *model.CartItemSnapshot, c model.ItemChanges) bool {
	if c.Price != nil && !c.Price.Equal(item.Price) {
		return true
	}
	if c.Quantity != nil && *c.Quantity != item.Quantity {
		return true
	}
	if c.ManualDiscountPercent != nil && (item.ManualDiscountPercent == nil || !c.ManualDiscountPercent.Equal(*item.ManualDiscountPercent)) {
		return true
	}
	if c.Note != nil && *c.Note != item.Note {
		return true
	}
	if c.SelectedSpecification != nil && *c.SelectedSpecification != item.SelectedSpecification {
		return true
	}
	if c.SelectedOptions != nil {
		return true
	}
	return false
}

func originalContentKey(item *model.CartItemSnapshot) string {
	discountStr := ""
	if item.ManualDiscountPercent != nil {
		discountStr = item.ManualDiscountPercent.String()
	}
	return contentKey(item.Id, item.SelectedOptions, item.SelectedSpecification, item.Price.String(), discountStr)
}
