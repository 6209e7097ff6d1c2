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
	"github.com/posedge/order-engine/internal/ordererr"
)

type AddPayment struct{}

func (AddPayment) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.AddPaymentPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "add_payment: unexpected payload type")
	}
	if p.Method == "" {
		return nil, ordererr.New(ordererr.PaymentInvalidMethod)
	}
	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ordererr.New(ordererr.PaymentInsufficientAmount)
	}
	if p.Amount.GreaterThan(ctx.Snapshot.RemainingAmount) {
		return nil, ordererr.New(ordererr.PaymentInsufficientAmount)
	}

	for _, split := range p.SplitByItems {
		item := ctx.Snapshot.FindItem(split.InstanceId)
		if item == nil {
			return nil, ordererr.New(ordererr.OrderItemNotFound)
		}
		if split.Quantity <= 0 || split.Quantity > item.UnpaidQuantity {
			return nil, ordererr.Newf(ordererr.InvalidRequest, "add_payment: split quantity exceeds unpaid quantity for %s", split.InstanceId)
		}
	}

	var change *decimal.Decimal
	if p.Tendered != nil {
		if p.Tendered.LessThan(p.Amount) {
			return nil, ordererr.New(ordererr.PaymentInsufficientAmount)
		}
		c := p.Tendered.Sub(p.Amount)
		change = &c
	}

	payment := model.Payment{
		PaymentId:    ctx.Random.NewID(),
		Method:       p.Method,
		Amount:       p.Amount,
		Tendered:     p.Tendered,
		Change:       change,
		Note:         p.Note,
		SplitByItems: p.SplitByItems,
		AuthorizerId: &ctx.Command.OperatorId,
		AuthorizerName: ctx.Command.OperatorName,
		CreatedAt:    ctx.Now,
	}

	evt := newEvent(ctx, model.EvtPaymentAdded, model.PaymentAddedPayload{Payment: payment})
	return []*model.OrderEvent{evt}, nil
}

type CancelPayment struct{}

func (CancelPayment) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	p, ok := ctx.Command.Payload.(model.CancelPaymentPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "cancel_payment: unexpected payload type")
	}
	payment := ctx.Snapshot.FindPayment(p.PaymentId)
	if payment == nil {
		return nil, ordererr.New(ordererr.PaymentNotFound)
	}
	if payment.Cancelled {
		return nil, ordererr.New(ordererr.PaymentAlreadyRefunded)
	}
	evt := newEvent(ctx, model.EvtPaymentCancelled, model.PaymentCancelledPayload{
		PaymentId: p.PaymentId, Reason: p.Reason,
	})
	return []*model.OrderEvent{evt}, nil
}
