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
	"github.com/posedge/order-engine/internal/money"
	"github.com/posedge/order-engine/internal/ordererr"
)

// CompleteOrder closes out an order once its balance is reconciled; the
// receipt number was already assigned at open-table time, so completion just
// stamps the terminal status.
type CompleteOrder struct{}

func (CompleteOrder) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	if len(ctx.Snapshot.Items) == 0 {
		return nil, ordererr.New(ordererr.OrderEmpty)
	}
	if !money.EqualWithinCent(ctx.Snapshot.PaidAmount, ctx.Snapshot.Total) {
		return nil, ordererr.New(ordererr.OrderHasPayments)
	}
	evt := newEvent(ctx, model.EvtOrderCompleted, model.OrderCompletedPayload{
		ReceiptNumber: ctx.Snapshot.ReceiptNumber,
	})
	return []*model.OrderEvent{evt}, nil
}

// VoidOrder cancels an order outright (VoidTypeClean) or marks it as an
// accepted loss after payment has already been taken (VoidTypeLossSettled).
type VoidOrder struct{}

func (VoidOrder) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.VoidOrderPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "void_order: unexpected payload type")
	}
	if p.VoidType == "" {
		p.VoidType = model.VoidTypeClean
	}
	if p.VoidType == model.VoidTypeClean && !ctx.Snapshot.PaidAmount.IsZero() {
		return nil, ordererr.New(ordererr.OrderHasPayments)
	}
	evt := newEvent(ctx, model.EvtOrderVoided, model.OrderVoidedPayload{
		VoidType: p.VoidType, LossReason: p.LossReason, LossAmount: p.LossAmount, VoidNote: p.VoidNote,
	})
	return []*model.OrderEvent{evt}, nil
}

// RestoreOrder reverses a void, returning the order to active service.
type RestoreOrder struct{}

func (RestoreOrder) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status != model.OrderStatusVoid {
		return nil, ordererr.New(ordererr.OrderNotVoided)
	}
	evt := newEvent(ctx, model.EvtOrderRestored, model.OrderRestoredPayload{})
	return []*model.OrderEvent{evt}, nil
}

// MoveOrder reassigns an active order to a different table/zone.
type MoveOrder struct{}

func (MoveOrder) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.MoveOrderPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "move_order: unexpected payload type")
	}
	if p.TableId == "" {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "move_order: table_id is required")
	}
	zoneName := p.ZoneName
	if zoneName == "" {
		zoneName = ctx.ZoneName
	}
	evt := newEvent(ctx, model.EvtOrderMoved, model.OrderMovedPayload{
		TableId: p.TableId, TableName: p.TableName, ZoneId: p.ZoneId, ZoneName: zoneName,
	})
	return []*model.OrderEvent{evt}, nil
}
