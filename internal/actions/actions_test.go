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
	"testing"

	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
	"github.com/posedge/order-engine/internal/rules"
)

type fixedRandom struct{ ids []string }

func (f *fixedRandom) NewID() string {
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id
}

func baseSnapshot() *model.OrderSnapshot {
	return &model.OrderSnapshot{
		OrderId: "order-1", Status: model.OrderStatusActive, ZoneId: "zone-1",
		Items: []model.CartItemSnapshot{
			{
				Id: "p1", InstanceId: "inst-1", Name: "Burger",
				Price: decimal.RequireFromString("10.00"), OriginalPrice: decimal.RequireFromString("10.00"),
				Quantity: 2, UnpaidQuantity: 2, TaxRate: decimal.Zero,
			},
		},
		PaidAmount: decimal.Zero, RemainingAmount: decimal.RequireFromString("20.00"),
		Total: decimal.RequireFromString("20.00"),
	}
}

func baseCtx(cmd *model.OrderCommand) *CommandContext {
	return &CommandContext{
		OrderId:  "order-1",
		Snapshot: baseSnapshot(),
		Command:  cmd,
		Now:      1000,
		Random:   &fixedRandom{ids: []string{"id-1", "id-2", "id-3"}},
	}
}

func TestAddItems_ProductNotFound(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.AddItemsPayload{
		Items: []model.AddItemInput{{ProductId: "unknown", Price: decimal.RequireFromString("5.00"), Quantity: 1}},
	}})
	ctx.ProductMeta = map[string]model.ProductMeta{}

	_, err := AddItems{Engine: rules.New()}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.ProductNotFound {
		t.Fatalf("expected ProductNotFound, got %v", err)
	}
}

func TestAddItems_AppliesStackedRules(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.AddItemsPayload{
		Items: []model.AddItemInput{{ProductId: "p1", Price: decimal.RequireFromString("10.00"), Quantity: 1}},
	}})
	ctx.ProductMeta = map[string]model.ProductMeta{"p1": {Name: "Burger", TaxRate: decimal.Zero}}
	ctx.Rules = []model.PriceRule{
		{RuleId: "r1", RuleType: model.RuleTypeDiscount, AdjustmentType: model.AdjustmentPercentage,
			AdjustmentValue: decimal.RequireFromString("0.10"), IsStackable: true, IsActive: true,
			ProductScope: model.ProductScopeGlobal, ZoneScope: model.ZoneScopeAll},
	}

	events, err := AddItems{Engine: rules.New()}.Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := events[0].Payload.(model.ItemsAddedPayload)
	if got := payload.Items[0].LineTotal.String(); got != "9" {
		t.Errorf("expected line total 9, got %s", got)
	}
}

func TestModifyItem_RejectsComped(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.ModifyItemPayload{
		InstanceId: "inst-1", Changes: model.ItemChanges{Note: strPtr("no pickles")},
	}})
	ctx.Snapshot.Items[0].IsComped = true

	_, err := ModifyItem{Engine: rules.New()}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.OrderItemComped {
		t.Fatalf("expected OrderItemComped, got %v", err)
	}
}

func TestModifyItem_RejectsNoOpChange(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.ModifyItemPayload{
		InstanceId: "inst-1", Changes: model.ItemChanges{Price: decPtr("10.00")},
	}})

	_, err := ModifyItem{Engine: rules.New()}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.OrderItemNoChange {
		t.Fatalf("expected OrderItemNoChange, got %v", err)
	}
}

func TestModifyItem_PartialQuantitySplitsRemainder(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.ModifyItemPayload{
		InstanceId: "inst-1", AffectedQuantity: intPtr(1),
		Changes: model.ItemChanges{Price: decPtr("8.00")},
	}})

	events, err := ModifyItem{Engine: rules.New()}.Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := events[0].Payload.(model.ItemModifiedPayload)
	if len(payload.Results) != 2 {
		t.Fatalf("expected 2 results (remainder + modified), got %d", len(payload.Results))
	}
	if payload.Results[0].Action != model.ItemModUnchanged || payload.Results[0].Quantity != 1 {
		t.Errorf("expected unchanged remainder of quantity 1, got %+v", payload.Results[0])
	}
	if payload.Results[1].Action != model.ItemModCreated || payload.Results[1].Quantity != 1 {
		t.Errorf("expected a new created line of quantity 1, got %+v", payload.Results[1])
	}
}

func TestCompItem_PartialCompGetsNewInstanceId(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.CompItemPayload{
		InstanceId: "inst-1", Quantity: intPtr(1), Reason: "manager comp",
	}})

	events, err := CompItem{}.Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := events[0].Payload.(model.ItemCompedPartialPayload)
	if payload.NewInstanceId == "" || payload.NewInstanceId == "inst-1" {
		t.Errorf("expected a distinct new instance id, got %q", payload.NewInstanceId)
	}
}

func TestCompItem_RejectsAlreadyComped(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.CompItemPayload{InstanceId: "inst-1"}})
	ctx.Snapshot.Items[0].IsComped = true

	_, err := CompItem{}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.OrderItemComped {
		t.Fatalf("expected OrderItemComped, got %v", err)
	}
}

func TestAddPayment_RejectsOverpayment(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.AddPaymentPayload{
		Method: "cash", Amount: decimal.RequireFromString("100.00"),
	}})

	_, err := AddPayment{}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.PaymentInsufficientAmount {
		t.Fatalf("expected PaymentInsufficientAmount, got %v", err)
	}
}

func TestAddPayment_ComputesChange(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.AddPaymentPayload{
		Method: "cash", Amount: decimal.RequireFromString("20.00"),
		Tendered: decPtr("25.00"),
	}})

	events, err := AddPayment{}.Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := events[0].Payload.(model.PaymentAddedPayload)
	if payload.Payment.Change == nil || payload.Payment.Change.String() != "5" {
		t.Fatalf("expected change of 5, got %v", payload.Payment.Change)
	}
}

func TestCompleteOrder_RejectsUnbalancedOrder(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.CompleteOrderPayload{}})

	_, err := CompleteOrder{}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.OrderHasPayments {
		t.Fatalf("expected OrderHasPayments, got %v", err)
	}
}

func TestCompleteOrder_SucceedsWhenPaidInFull(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.CompleteOrderPayload{}})
	ctx.Snapshot.PaidAmount = decimal.RequireFromString("20.00")

	events, err := CompleteOrder{}.Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].Type != model.EvtOrderCompleted {
		t.Errorf("expected EvtOrderCompleted, got %s", events[0].Type)
	}
}

func TestVoidOrder_RejectsCleanVoidWithPayments(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.VoidOrderPayload{VoidType: model.VoidTypeClean}})
	ctx.Snapshot.PaidAmount = decimal.RequireFromString("5.00")

	_, err := VoidOrder{}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.OrderHasPayments {
		t.Fatalf("expected OrderHasPayments, got %v", err)
	}
}

func TestToggleRuleSkip_RejectsUnknownRule(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.ToggleRuleSkipPayload{RuleId: "missing", Skip: true}})

	_, err := ToggleRuleSkip{}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.PriceRuleNotFound {
		t.Fatalf("expected PriceRuleNotFound, got %v", err)
	}
}

func TestRedeemStamp_FailsBelowThreshold(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.RedeemStampPayload{StampActivityId: "act-1"}})
	ctx.StampActivity = &model.StampActivityInfo{
		StampActivityId: "act-1", RewardProductId: "reward-1",
		StampsRequired: 5, CurrentStamps: 0, StampTargetProductIds: []string{"p1"},
	}
	ctx.ProductMeta = map[string]model.ProductMeta{"reward-1": {Name: "Coffee", TaxRate: decimal.Zero}}

	_, err := RedeemStamp{}.Execute(ctx)
	if ordererr.CodeOf(err) != ordererr.InsufficientStamps {
		t.Fatalf("expected InsufficientStamps, got %v", err)
	}
}

func TestRedeemStamp_SucceedsWithOrderBonus(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.RedeemStampPayload{StampActivityId: "act-1"}})
	ctx.StampActivity = &model.StampActivityInfo{
		StampActivityId: "act-1", StampActivityName: "Free Coffee", RewardProductId: "reward-1",
		StampsRequired: 2, CurrentStamps: 0, StampTargetProductIds: []string{"p1"},
	}
	ctx.ProductMeta = map[string]model.ProductMeta{"reward-1": {Name: "Coffee", TaxRate: decimal.Zero}}

	events, err := RedeemStamp{}.Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := events[0].Payload.(model.StampRedeemedPayload)
	if payload.Redemption.IsCompExisting {
		t.Errorf("expected a fresh reward redemption, got comp-existing")
	}
	if payload.Redemption.RewardItem == nil || !payload.Redemption.RewardItem.IsComped {
		t.Errorf("expected a comped reward item on the redemption, got %+v", payload.Redemption.RewardItem)
	}
}

func TestRedeemStamp_CompExistingExcludesOwnContribution(t *testing.T) {
	ctx := baseCtx(&model.OrderCommand{Payload: model.RedeemStampPayload{
		StampActivityId: "act-1", CompExistingInstance: "inst-1",
	}})
	ctx.StampActivity = &model.StampActivityInfo{
		StampActivityId: "act-1", StampsRequired: 2, CurrentStamps: 0, StampTargetProductIds: []string{"p1"},
	}

	// inst-1 (qty 2) is the order's only qualifying item, and it is also the
	// comp source, so its contribution must not count toward the threshold.
	if _, err := RedeemStamp{}.Execute(ctx); ordererr.CodeOf(err) != ordererr.InsufficientStamps {
		t.Fatalf("expected InsufficientStamps, got %v", err)
	}

	ctx.StampActivity.CurrentStamps = 2
	events, err := RedeemStamp{}.Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error with current_stamps covering the threshold: %v", err)
	}
	payload := events[0].Payload.(model.StampRedeemedPayload)
	if !payload.Redemption.IsCompExisting || payload.Redemption.CompSourceInstanceId != "inst-1" {
		t.Errorf("expected a comp-existing redemption against inst-1, got %+v", payload.Redemption)
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
