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

// hasActivePayment reports whether any non-cancelled payment has been
// recorded against the order; order-level discount/surcharge is locked once
// the customer has started paying.
func hasActivePayment(s *model.OrderSnapshot) bool {
	for _, p := range s.Payments {
		if !p.Cancelled {
			return true
		}
	}
	return false
}

type ApplyOrderDiscount struct{}

func (ApplyOrderDiscount) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.ApplyOrderDiscountPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "apply_order_discount: unexpected payload type")
	}
	if p.Percent == nil && p.Fixed == nil {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "apply_order_discount: must specify percent or fixed")
	}
	if hasActivePayment(ctx.Snapshot) {
		return nil, ordererr.New(ordererr.OrderHasPayments)
	}
	evt := newEvent(ctx, model.EvtOrderDiscountApplied, model.OrderDiscountAppliedPayload{Percent: p.Percent, Fixed: p.Fixed})
	return []*model.OrderEvent{evt}, nil
}

type ApplyOrderSurcharge struct{}

func (ApplyOrderSurcharge) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.ApplyOrderSurchargePayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "apply_order_surcharge: unexpected payload type")
	}
	if p.Percent == nil && p.Fixed == nil {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "apply_order_surcharge: must specify percent or fixed")
	}
	if hasActivePayment(ctx.Snapshot) {
		return nil, ordererr.New(ordererr.OrderHasPayments)
	}
	evt := newEvent(ctx, model.EvtOrderSurchargeApplied, model.OrderSurchargeAppliedPayload{Percent: p.Percent, Fixed: p.Fixed})
	return []*model.OrderEvent{evt}, nil
}

// ToggleRuleSkip flips whether a single PriceRule fires for this order and
// immediately reprices every still-fully-unpaid line against the new rule
// set, so the operator sees the effect before taking another payment. Lines
// with any paid quantity are left untouched; splitting a partially paid line
// here would require the same paid/unpaid split ModifyItem performs, which
// this toggle deliberately stays out of.
type ToggleRuleSkip struct {
	Engine *rules.Engine
}

func (t ToggleRuleSkip) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.ToggleRuleSkipPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "toggle_rule_skip: unexpected payload type")
	}
	found := false
	for _, r := range ctx.Rules {
		if r.RuleId == p.RuleId {
			found = true
			break
		}
	}
	if !found {
		return nil, ordererr.New(ordererr.PriceRuleNotFound)
	}

	events := []*model.OrderEvent{
		newEvent(ctx, model.EvtRuleSkipToggled, model.RuleSkipToggledPayload{RuleId: p.RuleId, Skip: p.Skip}),
	}

	nextSkipped := make(map[string]bool, len(ctx.Snapshot.SkippedRuleIds)+1)
	for id, v := range ctx.Snapshot.SkippedRuleIds {
		nextSkipped[id] = v
	}
	if p.Skip {
		nextSkipped[p.RuleId] = true
	} else {
		delete(nextSkipped, p.RuleId)
	}
	available := filterSkipped(ctx.Rules, nextSkipped)

	for i := range ctx.Snapshot.Items {
		item := ctx.Snapshot.Items[i]
		if item.IsComped || item.UnpaidQuantity != item.Quantity {
			continue
		}
		if evt := t.repriceItem(ctx, item, available); evt != nil {
			events = append(events, evt)
		}
	}

	return events, nil
}

// repriceItem recomputes rule effects for a fully-unpaid line against
// available (the rule set already filtered for the pending skip state) and
// returns an ItemModified event when the line's pricing actually changed.
func (t ToggleRuleSkip) repriceItem(ctx *CommandContext, item model.CartItemSnapshot, available []model.PriceRule) *model.OrderEvent {
	matched := t.Engine.MatchItem(available, ctx.Snapshot.ZoneId, rules.ItemContext{
		ProductId: item.Id, CategoryId: item.CategoryId,
	}, ctx.Now)
	selected := rules.Select(matched)

	base := item.OriginalPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	if item.ManualDiscountPercent != nil {
		manualAmt := money.ApplyManualDiscount(base, *item.ManualDiscountPercent)
		base = money.ClampNonNegative(base.Sub(manualAmt))
	}
	discount, surcharge, applied := money.ApplyRules(base, selected)
	if discount.Equal(item.RuleDiscountAmount) && surcharge.Equal(item.RuleSurchargeAmount) {
		return nil
	}

	lineTotal := money.Round2(base.Sub(discount).Add(surcharge))
	tax := money.Round2(lineTotal.Mul(item.TaxRate))
	perUnit := money.Round2(lineTotal.Div(decimal.NewFromInt(int64(item.Quantity))))

	result := model.ItemModificationResult{
		InstanceId: item.InstanceId, Quantity: item.Quantity, Price: perUnit, OriginalPrice: item.OriginalPrice,
		ManualDiscountPercent: item.ManualDiscountPercent, Action: model.ItemModUpdated, SourceInstanceId: item.InstanceId,
		Note: &item.Note, SelectedOptions: item.SelectedOptions, SelectedSpecification: &item.SelectedSpecification,
		RuleDiscountAmount: discount, RuleSurchargeAmount: surcharge, AppliedRules: applied,
		Tax: tax, TaxRate: item.TaxRate,
	}
	return newEvent(ctx, model.EvtItemModified, model.ItemModifiedPayload{
		OriginalInstanceId: item.InstanceId, Results: []model.ItemModificationResult{result},
	})
}
