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
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
)

type CompItem struct{}

func (CompItem) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.CompItemPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "comp_item: unexpected payload type")
	}
	item := ctx.Snapshot.FindItem(p.InstanceId)
	if item == nil {
		return nil, ordererr.New(ordererr.OrderItemNotFound)
	}
	if item.IsComped {
		return nil, ordererr.New(ordererr.OrderItemComped)
	}

	qty := item.Quantity
	if p.Quantity != nil {
		qty = *p.Quantity
	}
	if qty <= 0 || qty > item.UnpaidQuantity {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "comp_item: cannot comp paid or nonexistent quantity")
	}

	if qty == item.Quantity {
		evt := newEvent(ctx, model.EvtItemCompedFull, model.ItemCompedFullPayload{
			InstanceId: p.InstanceId, Reason: p.Reason,
		})
		return []*model.OrderEvent{evt}, nil
	}

	existing := existingInstanceIDs(ctx.Snapshot.Items, "")
	discountStr := ""
	if item.ManualDiscountPercent != nil {
		discountStr = item.ManualDiscountPercent.String()
	}
	key := contentKey(item.Id, item.SelectedOptions, item.SelectedSpecification, item.Price.String(), discountStr)
	newInstanceId := resolveInstanceID(ctx, key, existing, "comp")

	evt := newEvent(ctx, model.EvtItemCompedPartial, model.ItemCompedPartialPayload{
		InstanceId: p.InstanceId, CompQuantity: qty, NewInstanceId: newInstanceId, Reason: p.Reason,
	})
	return []*model.OrderEvent{evt}, nil
}

type UncompItem struct{}

func (UncompItem) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	p, ok := ctx.Command.Payload.(model.UncompItemPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "uncomp_item: unexpected payload type")
	}
	item := ctx.Snapshot.FindItem(p.InstanceId)
	if item == nil {
		return nil, ordererr.New(ordererr.OrderItemNotFound)
	}
	if !item.IsComped {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "uncomp_item: item is not comped")
	}
	evt := newEvent(ctx, model.EvtItemUncomped, model.ItemUncompedPayload{InstanceId: p.InstanceId})
	return []*model.OrderEvent{evt}, nil
}
