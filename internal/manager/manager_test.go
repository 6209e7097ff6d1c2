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

package manager

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/broadcast"
	"github.com/posedge/order-engine/internal/collab"
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
	"github.com/posedge/order-engine/internal/storage"
)

// stubCatalog is a minimal collab.CatalogLookup backed by an in-memory map,
// standing in for cmd/posctl's fixture-backed implementation in tests.
type stubCatalog struct {
	products map[string]model.ProductMeta
	rules    []model.PriceRule
	zones    map[string]string
}

var _ collab.CatalogLookup = (*stubCatalog)(nil)

func (c *stubCatalog) Products(_ context.Context, ids []string) (map[string]model.ProductMeta, error) {
	out := make(map[string]model.ProductMeta, len(ids))
	for _, id := range ids {
		if m, ok := c.products[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (c *stubCatalog) ActiveRules(_ context.Context) ([]model.PriceRule, error) {
	return c.rules, nil
}

func (c *stubCatalog) Zone(_ context.Context, zoneId string) (string, error) {
	if n, ok := c.zones[zoneId]; ok {
		return n, nil
	}
	return zoneId, nil
}

// stubMarketing is a minimal collab.MarketingLookup for tests that never
// exercise member/stamp commands.
type stubMarketing struct{}

var _ collab.MarketingLookup = stubMarketing{}

func (stubMarketing) Member(context.Context, string) (string, []model.PriceRule, error) {
	return "", nil, nil
}
func (stubMarketing) StampActivity(context.Context, string, string) (model.StampActivityInfo, error) {
	return model.StampActivityInfo{}, nil
}
func (stubMarketing) ActiveStampActivities(context.Context, string) ([]model.StampActivityInfo, error) {
	return nil, nil
}
func (stubMarketing) SettleStamps(context.Context, string, map[string]int, []string) error {
	return nil
}

// fixedClock and a sequential RandomSource make test outcomes deterministic.
type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqRandom struct{ n int }

func (r *seqRandom) NewID() string {
	r.n++
	return "id-" + string(rune('a'-1+r.n))
}

func newTestManager(t *testing.T) (*Manager, *stubCatalog) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "orders.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	catalog := &stubCatalog{
		products: map[string]model.ProductMeta{
			"coffee": {Name: "Coffee", TaxRate: decimal.Zero},
			"steak":  {Name: "Steak", TaxRate: decimal.Zero},
		},
		zones: map[string]string{},
	}

	m, err := New(Deps{
		Store:       store,
		Hub:         broadcast.New(16),
		Catalog:     catalog,
		Marketing:   stubMarketing{},
		Clock:       fixedClock{t: time.UnixMilli(1_772_000_000_000)},
		Random:      &seqRandom{},
		StoreNumber: 1,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m, catalog
}

func mustSucceed(t *testing.T, resp *model.CommandResponse) *model.CommandResponse {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("command %s failed: %s", resp.CommandId, resp.Error.Message)
	}
	return resp
}

func openTable(t *testing.T, m *Manager, cmdId, tableId string) *model.CommandResponse {
	t.Helper()
	return mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: cmdId,
		Payload:   model.OpenTablePayload{TableId: tableId, GuestCount: 2},
	}))
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestHappyPath reproduces spec.md §8 scenario 1: open a table, add two
// coffees at 10.00, pay the full amount in cash, and complete the order.
func TestHappyPath(t *testing.T) {
	m, _ := newTestManager(t)

	opened := openTable(t, m, "c1", "t1")
	orderId := opened.OrderId

	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c2",
		OrderId:   orderId,
		Payload: model.AddItemsPayload{Items: []model.AddItemInput{
			{ProductId: "coffee", Price: dec("10.00"), Quantity: 2},
		}},
	}))

	tendered := dec("20.00")
	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c3",
		OrderId:   orderId,
		Payload:   model.AddPaymentPayload{Method: "CASH", Amount: dec("20.00"), Tendered: &tendered},
	}))

	completed := mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c4",
		OrderId:   orderId,
		Payload:   model.CompleteOrderPayload{},
	}))
	if completed.Error != nil {
		t.Fatalf("complete order: %s", completed.Error.Message)
	}

	snap, err := m.Query().GetSnapshot(orderId)
	if err != nil || snap == nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snap.Status != model.OrderStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", snap.Status)
	}
	if !snap.Total.Equal(dec("20.00")) {
		t.Fatalf("total = %s, want 20.00", snap.Total)
	}
	if !snap.PaidAmount.Equal(dec("20.00")) {
		t.Fatalf("paid = %s, want 20.00", snap.PaidAmount)
	}
	if !snap.RemainingAmount.IsZero() {
		t.Fatalf("remaining = %s, want 0", snap.RemainingAmount)
	}
	if len(snap.Payments) != 1 || snap.Payments[0].Change == nil || !snap.Payments[0].Change.IsZero() {
		t.Fatalf("payment change not zero: %+v", snap.Payments)
	}

	rebuilt, err := m.Query().RebuildSnapshot(orderId)
	if err != nil {
		t.Fatalf("rebuild snapshot: %v", err)
	}
	if !rebuilt.Total.Equal(snap.Total) || !rebuilt.PaidAmount.Equal(snap.PaidAmount) || rebuilt.Status != snap.Status {
		t.Fatalf("rebuilt snapshot diverges from live: %+v vs %+v", rebuilt, snap)
	}
}

// TestOverpaymentRejected reproduces spec.md §8 scenario 3.
func TestOverpaymentRejected(t *testing.T) {
	m, _ := newTestManager(t)
	orderId := openTable(t, m, "c1", "t1").OrderId

	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c2",
		OrderId:   orderId,
		Payload: model.AddItemsPayload{Items: []model.AddItemInput{
			{ProductId: "coffee", Price: dec("10.00"), Quantity: 1},
		}},
	}))

	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c3",
		OrderId:   orderId,
		Payload:   model.AddPaymentPayload{Method: "CARD", Amount: dec("10.00")},
	}))

	resp := m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c4",
		OrderId:   orderId,
		Payload:   model.AddPaymentPayload{Method: "CARD", Amount: dec("0.02")},
	})
	if resp.Error == nil {
		t.Fatalf("expected overpayment to be rejected, got success")
	}
}

// TestIdempotentReplay reproduces spec.md §8 scenario 4: the same command_id
// submitted twice yields exactly one TableOpened event and a duplicate
// response the second time.
func TestIdempotentReplay(t *testing.T) {
	m, _ := newTestManager(t)

	first := m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "dup-1",
		Payload:   model.OpenTablePayload{TableId: "t9"},
	})
	if first.Error != nil || first.Duplicate {
		t.Fatalf("first submission unexpected: %+v", first)
	}

	second := m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "dup-1",
		Payload:   model.OpenTablePayload{TableId: "t9"},
	})
	if second.Error != nil {
		t.Fatalf("second submission errored: %s", second.Error.Message)
	}
	if !second.Duplicate {
		t.Fatalf("second submission should be a duplicate")
	}
	if second.OrderId != first.OrderId {
		t.Fatalf("duplicate order id = %s, want %s", second.OrderId, first.OrderId)
	}

	events, err := m.Query().GetEventsForOrder(first.OrderId)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	count := 0
	for _, e := range events {
		if e.Type == model.EvtTableOpened {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one TableOpened event, got %d", count)
	}
}

// TestVoidWithLoss reproduces spec.md §8 scenario 5.
func TestVoidWithLoss(t *testing.T) {
	m, _ := newTestManager(t)
	orderId := openTable(t, m, "c1", "t1").OrderId

	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c2",
		OrderId:   orderId,
		Payload: model.AddItemsPayload{Items: []model.AddItemInput{
			{ProductId: "steak", Price: dec("30.00"), Quantity: 2},
		}},
	}))
	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c3",
		OrderId:   orderId,
		Payload:   model.AddPaymentPayload{Method: "CARD", Amount: dec("30.00")},
	}))
	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c4",
		OrderId:   orderId,
		Payload:   model.VoidOrderPayload{VoidType: model.VoidTypeLossSettled},
	}))

	snap, err := m.Query().GetSnapshot(orderId)
	if err != nil || snap == nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snap.Status != model.OrderStatusVoid {
		t.Fatalf("status = %s, want VOID", snap.Status)
	}
	if snap.LossAmount == nil || !snap.LossAmount.Equal(dec("30.00")) {
		t.Fatalf("loss amount = %v, want 30.00", snap.LossAmount)
	}
	if !snap.RemainingAmount.IsZero() {
		t.Fatalf("remaining = %s, want 0", snap.RemainingAmount)
	}
}

// TestDiscountLockedAfterPayment reproduces spec.md §8's order-discount-lock
// property: ApplyOrderDiscount must fail once any non-cancelled payment
// exists, and succeed again once every payment on the order is cancelled.
func TestDiscountLockedAfterPayment(t *testing.T) {
	m, _ := newTestManager(t)
	orderId := openTable(t, m, "c1", "t1").OrderId

	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c2",
		OrderId:   orderId,
		Payload: model.AddItemsPayload{Items: []model.AddItemInput{
			{ProductId: "coffee", Price: dec("10.00"), Quantity: 1},
		}},
	}))
	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c3",
		OrderId:   orderId,
		Payload:   model.AddPaymentPayload{Method: "CASH", Amount: dec("10.00")},
	}))

	pct := dec("10")
	resp := m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c4",
		OrderId:   orderId,
		Payload:   model.ApplyOrderDiscountPayload{Percent: &pct},
	})
	if resp.Error == nil {
		t.Fatalf("expected discount to be locked after payment")
	}

	snap, _ := m.Query().GetSnapshot(orderId)
	payment := snap.Payments[0]
	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c5",
		OrderId:   orderId,
		Payload:   model.CancelPaymentPayload{PaymentId: payment.PaymentId},
	}))

	mustSucceed(t, m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c6",
		OrderId:   orderId,
		Payload:   model.ApplyOrderDiscountPayload{Percent: &pct},
	}))
}

// TestTableOccupied exercises the pre-txn and in-txn table-occupancy check.
func TestTableOccupied(t *testing.T) {
	m, _ := newTestManager(t)
	openTable(t, m, "c1", "t1")

	resp := m.ExecuteCommand(context.Background(), &model.OrderCommand{
		CommandId: "c2",
		Payload:   model.OpenTablePayload{TableId: "t1"},
	})
	if resp.Error == nil || resp.Error.Code != ordererr.TableOccupied.String() {
		t.Fatalf("expected TableOccupied, got %+v", resp.Error)
	}
}
