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

package reducer

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/model"
)

func openTableEvent() *model.OrderEvent {
	return &model.OrderEvent{
		Sequence: 1, OrderId: "order-1", Timestamp: 1000,
		Type: model.EvtTableOpened,
		Payload: model.TableOpenedPayload{
			TableId: "t1", TableName: "Table 1", ReceiptNumber: "R-0001",
		},
	}
}

func itemsAddedEvent(seq uint64, ts int64) *model.OrderEvent {
	return &model.OrderEvent{
		Sequence: seq, OrderId: "order-1", Timestamp: ts,
		Type: model.EvtItemsAdded,
		Payload: model.ItemsAddedPayload{
			Items: []model.CartItemSnapshot{
				{
					Id: "p1", InstanceId: "inst-1", Name: "Burger",
					Price: decimal.RequireFromString("10.00"), OriginalPrice: decimal.RequireFromString("10.00"),
					UnitPrice: decimal.RequireFromString("10.00"), LineTotal: decimal.RequireFromString("20.00"),
					Quantity: 2,
				},
			},
		},
	}
}

func TestApply_TableOpenedThenItemsAdded(t *testing.T) {
	s, err := Apply(nil, openTableEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != model.OrderStatusActive {
		t.Errorf("expected status ACTIVE, got %s", s.Status)
	}

	s, err = Apply(s, itemsAddedEvent(2, 1001))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(s.Items))
	}
	if s.Items[0].UnpaidQuantity != 2 {
		t.Errorf("expected unpaid quantity 2, got %d", s.Items[0].UnpaidQuantity)
	}
	if s.Subtotal.String() != "20" {
		t.Errorf("expected subtotal 20, got %s", s.Subtotal)
	}
}

func TestApply_EventBeforeTableOpenedFails(t *testing.T) {
	_, err := Apply(nil, itemsAddedEvent(1, 1000))
	if err == nil {
		t.Fatal("expected an error applying an event to a nonexistent order")
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s1, _ := Apply(nil, openTableEvent())
	s2, _ := Apply(s1, itemsAddedEvent(2, 1001))

	if len(s1.Items) != 0 {
		t.Error("expected the original snapshot to be unmodified after Apply")
	}
	if len(s2.Items) != 1 {
		t.Error("expected the new snapshot to carry the added item")
	}
}

func TestReplay_MatchesIncrementalApplication(t *testing.T) {
	events := []*model.OrderEvent{openTableEvent(), itemsAddedEvent(2, 1001)}

	replayed, err := Replay(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var incremental *model.OrderSnapshot
	for _, evt := range events {
		incremental, err = Apply(incremental, evt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if replayed.Subtotal.String() != incremental.Subtotal.String() {
		t.Errorf("replay diverged from incremental application: %s vs %s", replayed.Subtotal, incremental.Subtotal)
	}
	if len(replayed.Items) != len(incremental.Items) {
		t.Errorf("replay item count %d != incremental %d", len(replayed.Items), len(incremental.Items))
	}
}

func TestApply_ItemRemovedPartialQuantity(t *testing.T) {
	s, _ := Apply(nil, openTableEvent())
	s, _ = Apply(s, itemsAddedEvent(2, 1001))

	s, err := Apply(s, &model.OrderEvent{
		Sequence: 3, OrderId: "order-1", Timestamp: 1002,
		Type:    model.EvtItemRemoved,
		Payload: model.ItemRemovedPayload{InstanceId: "inst-1", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 1 || s.Items[0].Quantity != 1 {
		t.Fatalf("expected 1 item remaining with quantity 1, got %+v", s.Items)
	}
}

func TestApply_PaymentThenCancelRestoresUnpaidQuantity(t *testing.T) {
	s, _ := Apply(nil, openTableEvent())
	s, _ = Apply(s, itemsAddedEvent(2, 1001))

	s, err := Apply(s, &model.OrderEvent{
		Sequence: 3, OrderId: "order-1", Timestamp: 1002,
		Type: model.EvtPaymentAdded,
		Payload: model.PaymentAddedPayload{Payment: model.Payment{
			PaymentId: "pay-1", Method: "cash", Amount: decimal.RequireFromString("20.00"),
			SplitByItems: []model.PaymentSplitItem{{InstanceId: "inst-1", Quantity: 2}},
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Items[0].UnpaidQuantity != 0 {
		t.Fatalf("expected unpaid quantity 0 after full payment, got %d", s.Items[0].UnpaidQuantity)
	}

	s, err = Apply(s, &model.OrderEvent{
		Sequence: 4, OrderId: "order-1", Timestamp: 1003,
		Type:    model.EvtPaymentCancelled,
		Payload: model.PaymentCancelledPayload{PaymentId: "pay-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Items[0].UnpaidQuantity != 2 {
		t.Fatalf("expected unpaid quantity restored to 2, got %d", s.Items[0].UnpaidQuantity)
	}
	if s.PaidAmount.String() != "0" {
		t.Errorf("expected paid amount 0 after cancellation, got %s", s.PaidAmount)
	}
}

func TestApply_StampRedeemedAndCancelled_CompExisting(t *testing.T) {
	s, err := Apply(nil, openTableEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err = Apply(s, itemsAddedEvent(2, 1001))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s, err = Apply(s, &model.OrderEvent{
		Sequence: 3, OrderId: "order-1", Timestamp: 1002,
		Type: model.EvtStampRedeemed,
		Payload: model.StampRedeemedPayload{Redemption: model.StampRedemption{
			StampActivityId: "act-1", IsCompExisting: true, CompSourceInstanceId: "inst-1",
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Items[0].IsComped {
		t.Fatalf("expected inst-1 comped after a comp-existing redemption")
	}
	if len(s.StampRedemptions) != 1 {
		t.Fatalf("expected 1 stamp redemption, got %d", len(s.StampRedemptions))
	}

	s, err = Apply(s, &model.OrderEvent{
		Sequence: 4, OrderId: "order-1", Timestamp: 1003,
		Type:    model.EvtStampRedemptionCancelled,
		Payload: model.StampRedemptionCancelledPayload{StampActivityId: "act-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Items[0].IsComped {
		t.Fatalf("expected inst-1 un-comped after redemption cancellation")
	}
	if len(s.StampRedemptions) != 0 {
		t.Fatalf("expected 0 stamp redemptions after cancellation, got %d", len(s.StampRedemptions))
	}
}

func TestApply_StampRedeemedFreshReward_CancelRemovesRewardItem(t *testing.T) {
	s, err := Apply(nil, openTableEvent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reward := model.CartItemSnapshot{
		Id: "reward-1", InstanceId: "reward-inst-1", Name: "Free Coffee",
		Price: decimal.Zero, OriginalPrice: decimal.Zero, UnitPrice: decimal.Zero,
		Quantity: 1, UnpaidQuantity: 1, IsComped: true,
	}
	s, err = Apply(s, &model.OrderEvent{
		Sequence: 2, OrderId: "order-1", Timestamp: 1001,
		Type: model.EvtStampRedeemed,
		Payload: model.StampRedeemedPayload{Redemption: model.StampRedemption{
			StampActivityId: "act-1", RewardInstanceId: "reward-inst-1", RewardItem: &reward,
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 1 || s.Items[0].InstanceId != "reward-inst-1" {
		t.Fatalf("expected the reward item appended to the order, got %+v", s.Items)
	}

	s, err = Apply(s, &model.OrderEvent{
		Sequence: 3, OrderId: "order-1", Timestamp: 1002,
		Type:    model.EvtStampRedemptionCancelled,
		Payload: model.StampRedemptionCancelledPayload{StampActivityId: "act-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Items) != 0 {
		t.Fatalf("expected the reward item removed after cancellation, got %+v", s.Items)
	}
}
