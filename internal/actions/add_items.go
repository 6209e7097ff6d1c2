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

type AddItems struct {
	Engine *rules.Engine
}

func (a AddItems) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.AddItemsPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "add_items: unexpected payload type")
	}
	if len(p.Items) == 0 {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "add_items: no items given")
	}

	existing := existingInstanceIDs(ctx.Snapshot.Items, "")
	var built []model.CartItemSnapshot

	for _, in := range p.Items {
		if in.Quantity <= 0 {
			return nil, ordererr.Newf(ordererr.InvalidRequest, "add_items: quantity must be positive")
		}
		meta, ok := ctx.ProductMeta[in.ProductId]
		if !ok {
			return nil, ordererr.New(ordererr.ProductNotFound)
		}

		manualDiscountStr := ""
		if in.ManualDiscountPercent != nil {
			manualDiscountStr = in.ManualDiscountPercent.String()
		}
		key := contentKey(in.ProductId, in.SelectedOptions, in.SelectedSpecification, in.Price.String(), manualDiscountStr)
		instanceId := resolveInstanceID(ctx, key, existing, "mod")
		existing[instanceId] = true

		item := model.CartItemSnapshot{
			Id:                     in.ProductId,
			InstanceId:             instanceId,
			Name:                   meta.Name,
			Price:                  in.Price,
			OriginalPrice:          in.Price,
			UnitPrice:              in.Price,
			Quantity:               in.Quantity,
			SelectedOptions:        in.SelectedOptions,
			SelectedSpecification:  in.SelectedSpecification,
			ManualDiscountPercent:  in.ManualDiscountPercent,
			Note:                   in.Note,
			CategoryId:             meta.CategoryId,
			CategoryName:           meta.CategoryName,
			TaxRate:                meta.TaxRate,
		}

		matched := a.Engine.MatchItem(unskippedRules(ctx), ctx.Snapshot.ZoneId, rules.ItemContext{
			ProductId: in.ProductId, CategoryId: meta.CategoryId, TagIds: meta.TagIds,
		}, ctx.Now)
		selected := rules.Select(matched)

		base := in.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		if item.ManualDiscountPercent != nil {
			manualAmt := money.ApplyManualDiscount(base, *item.ManualDiscountPercent)
			base = money.ClampNonNegative(base.Sub(manualAmt))
		}

		discount, surcharge, applied := money.ApplyRules(base, selected)
		item.RuleDiscountAmount = discount
		item.RuleSurchargeAmount = surcharge
		item.AppliedRules = applied
		item.LineTotal = money.Round2(base.Sub(discount).Add(surcharge))
		item.Tax = money.Round2(item.LineTotal.Mul(meta.TaxRate))

		perUnit := money.Round2(item.LineTotal.Div(decimal.NewFromInt(int64(in.Quantity))))
		item.Price = perUnit
		item.UnitPrice = perUnit

		built = append(built, item)
	}

	evt := newEvent(ctx, model.EvtItemsAdded, model.ItemsAddedPayload{Items: built})
	return []*model.OrderEvent{evt}, nil
}
