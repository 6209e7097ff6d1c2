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

// Package reducer implements the engine's single EventApplier: a pure,
// total, deterministic fold from (snapshot, event) to the next snapshot.
// Replaying every event for an order from scratch through Apply must
// reproduce the live snapshot byte-for-byte; Apply never performs I/O, never
// reads the clock, and never consults the catalog or rule engine directly —
// every value an applier needs must already be resolved on the event.
package reducer

import (
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/money"
	"github.com/posedge/order-engine/internal/ordererr"
)

// Apply folds one event onto a snapshot. s is nil only for the first event of
// an order (TableOpened); every other event requires a non-nil prior
// snapshot. The input snapshot is never mutated; Apply always returns a new
// value.
func Apply(s *model.OrderSnapshot, evt *model.OrderEvent) (*model.OrderSnapshot, error) {
	if evt == nil || evt.Payload == nil {
		return nil, ordererr.Newf(ordererr.InternalError, "reducer: nil event or payload")
	}

	var out *model.OrderSnapshot
	if evt.Type == model.EvtTableOpened {
		out = &model.OrderSnapshot{SchemaVersion: model.SchemaVersion, OrderId: evt.OrderId, CreatedAt: evt.Timestamp}
	} else {
		if s == nil {
			return nil, ordererr.New(ordererr.OrderNotFound)
		}
		out = s.Clone()
	}
	out.LastSequence = evt.Sequence
	out.UpdatedAt = evt.Timestamp

	var err error
	switch p := evt.Payload.(type) {
	case model.TableOpenedPayload:
		applyTableOpened(out, evt, p)
	case model.ItemsAddedPayload:
		applyItemsAdded(out, p)
	case model.ItemModifiedPayload:
		applyItemModified(out, p)
	case model.ItemRemovedPayload:
		err = applyItemRemoved(out, p)
	case model.ItemRestoredPayload:
		err = applyItemRestored(out, p)
	case model.ItemCompedFullPayload:
		err = applyItemCompedFull(out, p)
	case model.ItemCompedPartialPayload:
		err = applyItemCompedPartial(out, p)
	case model.ItemUncompedPayload:
		err = applyItemUncomped(out, p)
	case model.OrderDiscountAppliedPayload:
		applyOrderDiscount(out, p)
	case model.OrderSurchargeAppliedPayload:
		applyOrderSurcharge(out, p)
	case model.RuleSkipToggledPayload:
		applyRuleSkipToggled(out, p)
	case model.PaymentAddedPayload:
		applyPaymentAdded(out, p)
	case model.PaymentCancelledPayload:
		err = applyPaymentCancelled(out, p)
	case model.MemberLinkedPayload:
		applyMemberLinked(out, p)
	case model.StampRedeemedPayload:
		applyStampRedeemed(out, p)
	case model.StampRedemptionCancelledPayload:
		applyStampRedemptionCancelled(out, p)
	case model.OrderCompletedPayload:
		applyOrderCompleted(out, p)
	case model.OrderVoidedPayload:
		applyOrderVoided(out, p)
	case model.OrderRestoredPayload:
		applyOrderRestored(out)
	case model.OrderSplitPayload:
		err = applyOrderSplit(out, p)
	case model.OrderMovedPayload:
		applyOrderMoved(out, p)
	case model.OrderMergedPayload:
		applyOrderMerged(out, p)
	case model.OrderMergedOutPayload:
		applyOrderMergedOut(out, p)
	default:
		return nil, ordererr.Newf(ordererr.InternalError, "reducer: unhandled event type %s", evt.Type)
	}
	if err != nil {
		return nil, err
	}

	money.RecomputeOrderTotals(out)
	return out, nil
}

// Replay folds a full ordered event history into a snapshot from scratch.
// Used by rebuild_snapshot to verify the live snapshot is reproducible.
func Replay(events []*model.OrderEvent) (*model.OrderSnapshot, error) {
	var s *model.OrderSnapshot
	for _, evt := range events {
		var err error
		s, err = Apply(s, evt)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
