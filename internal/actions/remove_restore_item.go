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

type RemoveItem struct{}

func (RemoveItem) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.RemoveItemPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "remove_item: unexpected payload type")
	}
	item := ctx.Snapshot.FindItem(p.InstanceId)
	if item == nil {
		return nil, ordererr.New(ordererr.OrderItemNotFound)
	}
	qty := item.Quantity
	if p.Quantity != nil {
		qty = *p.Quantity
	}
	if qty <= 0 || qty > item.UnpaidQuantity {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "remove_item: cannot remove paid or nonexistent quantity")
	}

	evt := newEvent(ctx, model.EvtItemRemoved, model.ItemRemovedPayload{
		InstanceId: p.InstanceId, Quantity: qty, Reason: p.Reason,
	})
	return []*model.OrderEvent{evt}, nil
}

type RestoreItem struct{}

func (RestoreItem) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	p, ok := ctx.Command.Payload.(model.RestoreItemPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "restore_item: unexpected payload type")
	}
	item := ctx.Snapshot.FindItem(p.InstanceId)
	if item == nil {
		return nil, ordererr.New(ordererr.OrderItemNotFound)
	}
	evt := newEvent(ctx, model.EvtItemRestored, model.ItemRestoredPayload{InstanceId: p.InstanceId})
	return []*model.OrderEvent{evt}, nil
}
