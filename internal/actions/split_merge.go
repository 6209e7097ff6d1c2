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

// SplitOrder carves either a named set of lines (split-by-items) or an
// unspecified remainder (split-by-amount, reconciled downstream once the new
// order's own totals are recomputed) off of an active order into a new one.
// The new order's id is minted here since nothing else needs to agree on it
// before the event is durably recorded.
type SplitOrder struct{}

func (SplitOrder) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.SplitOrderPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "split_order: unexpected payload type")
	}
	if len(p.InstanceIds) == 0 && p.Amount == nil {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "split_order: must specify instance_ids or amount")
	}
	if len(p.InstanceIds) > 0 && len(p.InstanceIds) >= len(ctx.Snapshot.Items) {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "split_order: cannot split every line off the order")
	}
	for _, id := range p.InstanceIds {
		item := ctx.Snapshot.FindItem(id)
		if item == nil {
			return nil, ordererr.New(ordererr.OrderItemNotFound)
		}
		if item.UnpaidQuantity < item.Quantity {
			return nil, ordererr.Newf(ordererr.InvalidRequest, "split_order: cannot split a partially paid line")
		}
	}
	if p.Amount != nil && p.Amount.GreaterThan(ctx.Snapshot.Total) {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "split_order: amount exceeds order total")
	}

	evt := newEvent(ctx, model.EvtOrderSplit, model.OrderSplitPayload{
		NewOrderId:    ctx.Random.NewID(),
		InstanceIds:   p.InstanceIds,
		Amount:        p.Amount,
		TableId:       p.TableId,
		TableName:     p.TableName,
		ReceiptNumber: ctx.Random.NewID(),
	})
	return []*model.OrderEvent{evt}, nil
}

// MergeOrders folds a source order's items into the current (target) order.
// The manager is responsible for also appending the paired OrderMergedOut
// event onto the source order's own stream, within the same write
// transaction, since a single action only emits events for ctx.OrderId.
type MergeOrders struct{}

func (MergeOrders) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.MergeOrdersPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "merge_orders: unexpected payload type")
	}
	if p.SourceOrderId == "" || p.SourceOrderId == ctx.OrderId {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "merge_orders: invalid source order id")
	}

	evt := newEvent(ctx, model.EvtOrderMerged, model.OrderMergedPayload{
		SourceOrderId: p.SourceOrderId,
		MergedItems:   mergeItemsPayload(ctx),
	})
	return []*model.OrderEvent{evt}, nil
}

// mergeItemsPayload is populated by the manager before Execute runs, via the
// prefetched source-order snapshot stashed on the command context's
// ProductMeta-style side channel; plain actions never read another order's
// storage directly.
func mergeItemsPayload(ctx *CommandContext) []model.CartItemSnapshot {
	return ctx.MergeSourceItems
}
