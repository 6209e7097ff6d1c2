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

// Package actions implements one command handler per CommandType. Each
// action is pure given its CommandContext: all catalog/marketing lookups
// happen in Phase A and are handed in already resolved, so Execute never
// performs I/O and never blocks. An action validates the command against the
// current snapshot and, on success, returns the OrderEvents that record its
// effect; it never mutates the snapshot itself, leaving that to the reducer.
package actions

import (
	"github.com/posedge/order-engine/internal/collab"
	"github.com/posedge/order-engine/internal/model"
)

// CommandContext is everything an action needs besides the command payload
// itself: the order's current snapshot, prefetched collaborator data, and
// deterministic-injectable clock/random sources.
type CommandContext struct {
	// OrderId identifies the order being acted on, even before it exists
	// (OpenTable runs with Snapshot == nil).
	OrderId  string
	Snapshot *model.OrderSnapshot
	Command  *model.OrderCommand
	Now      int64

	// Rules is the PriceRule snapshot captured for this order at open-table
	// time (or, for OpenTable itself, the full active set from the catalog).
	Rules []model.PriceRule

	// ProductMeta is keyed by product id, prefetched for AddItems.
	ProductMeta map[string]model.ProductMeta

	// ZoneName resolves a zone id for OpenTable/MoveOrder.
	ZoneName string

	// MarketingGroupId/MarketingRules are prefetched for LinkMember.
	MarketingGroupId string
	MarketingRules   []model.PriceRule

	// StampActivity is prefetched for RedeemStamp: its current progress,
	// threshold and target products as of Phase A.
	StampActivity *model.StampActivityInfo

	// MergeSourceItems is the source order's current item snapshot,
	// prefetched for MergeOrders so the target-side event can carry them
	// without the action reaching into another order's storage.
	MergeSourceItems []model.CartItemSnapshot

	Clock  collab.Clock
	Random collab.RandomSource
}

// Action is the interface every command handler implements.
type Action interface {
	Execute(ctx *CommandContext) ([]*model.OrderEvent, error)
}

// newEvent builds an OrderEvent skeleton common to every action; the manager
// assigns Sequence and EventId when it appends the event inside the storage
// transaction, so both are left zero here.
func newEvent(ctx *CommandContext, evtType model.EventType, payload model.EventPayload) *model.OrderEvent {
	return &model.OrderEvent{
		OrderId:      ctx.OrderId,
		Timestamp:    ctx.Now,
		OperatorId:   ctx.Command.OperatorId,
		OperatorName: ctx.Command.OperatorName,
		CommandId:    ctx.Command.CommandId,
		Type:         evtType,
		Payload:      payload,
	}
}
