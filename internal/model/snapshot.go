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

package model

import "github.com/shopspring/decimal"

// SchemaVersion is embedded in every persisted OrderSnapshot envelope; other
// persisted records (events, archive queue entries) carry no version field.
const SchemaVersion = 1

// CartItemSnapshot is one line item within an order.
type CartItemSnapshot struct {
	Id         string `json:"id"`          // product id
	InstanceId string `json:"instance_id"` // content-addressed identity within the order
	Name       string `json:"name"`

	Price         decimal.Decimal `json:"price"`          // current unit price after rules
	OriginalPrice decimal.Decimal `json:"original_price"` // catalog or manually overridden base
	UnitPrice     decimal.Decimal `json:"unit_price"`      // price x rule effects; kept independently of Price per spec's open question
	LineTotal     decimal.Decimal `json:"line_total"`

	Quantity       int `json:"quantity"`
	UnpaidQuantity int `json:"unpaid_quantity"`

	SelectedOptions        []SelectedOption `json:"selected_options,omitempty"`
	SelectedSpecification  string           `json:"selected_specification,omitempty"`

	ManualDiscountPercent *decimal.Decimal `json:"manual_discount_percent,omitempty"`
	RuleDiscountAmount    decimal.Decimal  `json:"rule_discount_amount"`
	RuleSurchargeAmount   decimal.Decimal  `json:"rule_surcharge_amount"`
	AppliedRules          []AppliedRule    `json:"applied_rules,omitempty"`

	Tax     decimal.Decimal `json:"tax"`
	TaxRate decimal.Decimal `json:"tax_rate"`

	Note           string `json:"note,omitempty"`
	AuthorizerId   *int64 `json:"authorizer_id,omitempty"`
	AuthorizerName string `json:"authorizer_name,omitempty"`
	CategoryId     string `json:"category_id,omitempty"`
	CategoryName   string `json:"category_name,omitempty"`

	IsComped bool `json:"is_comped"`
}

// SelectedOption is one attribute/option pair chosen for an item.
type SelectedOption struct {
	AttributeId string `json:"attribute_id"`
	OptionIdx   int    `json:"option_idx"`
	Quantity    int    `json:"quantity"`
}

func (c CartItemSnapshot) Clone() CartItemSnapshot {
	out := c
	out.AppliedRules = cloneAppliedRules(c.AppliedRules)
	if c.SelectedOptions != nil {
		out.SelectedOptions = append([]SelectedOption(nil), c.SelectedOptions...)
	}
	if c.ManualDiscountPercent != nil {
		v := *c.ManualDiscountPercent
		out.ManualDiscountPercent = &v
	}
	if c.AuthorizerId != nil {
		v := *c.AuthorizerId
		out.AuthorizerId = &v
	}
	return out
}

// PaymentSplitItem is one line of a split-by-items payment.
type PaymentSplitItem struct {
	InstanceId string `json:"instance_id"`
	Quantity   int    `json:"quantity"`
}

// Payment is one tender applied to an order.
type Payment struct {
	PaymentId       string             `json:"payment_id"`
	Method          string             `json:"method"`
	Amount          decimal.Decimal    `json:"amount"`
	Tendered        *decimal.Decimal   `json:"tendered,omitempty"`
	Change          *decimal.Decimal   `json:"change,omitempty"`
	Note            string             `json:"note,omitempty"`
	Cancelled       bool               `json:"cancelled"`
	CancelledReason string             `json:"cancelled_reason,omitempty"`
	AuthorizerId    *int64             `json:"authorizer_id,omitempty"`
	AuthorizerName  string             `json:"authorizer_name,omitempty"`
	SplitByItems    []PaymentSplitItem `json:"split_by_items,omitempty"`
	CreatedAt       int64              `json:"created_at"`
}

func (p Payment) Clone() Payment {
	out := p
	if p.Tendered != nil {
		v := *p.Tendered
		out.Tendered = &v
	}
	if p.Change != nil {
		v := *p.Change
		out.Change = &v
	}
	if p.AuthorizerId != nil {
		v := *p.AuthorizerId
		out.AuthorizerId = &v
	}
	if p.SplitByItems != nil {
		out.SplitByItems = append([]PaymentSplitItem(nil), p.SplitByItems...)
	}
	return out
}

// StampRedemption records that a loyalty stamp activity was redeemed against this order.
type StampRedemption struct {
	StampActivityId      string            `json:"stamp_activity_id"`
	StampActivityName    string            `json:"stamp_activity_name"`
	RewardInstanceId     string            `json:"reward_instance_id,omitempty"`
	RewardItem           *CartItemSnapshot `json:"reward_item,omitempty"`
	IsCompExisting       bool              `json:"is_comp_existing"`
	CompSourceInstanceId string            `json:"comp_source_instance_id,omitempty"`

	// StampsRequired, CurrentStamps and StampTargetProductIds are captured
	// from the activity at redemption time so a later RemoveItem/CompItem
	// can re-verify the threshold, and so Phase C can consume the right
	// amount without a second marketing lookup.
	StampsRequired        int      `json:"stamps_required,omitempty"`
	CurrentStamps         int      `json:"current_stamps,omitempty"`
	StampTargetProductIds []string `json:"stamp_target_product_ids,omitempty"`
}

// OrderSnapshot is the fully derived, idempotent state of one order.
type OrderSnapshot struct {
	SchemaVersion int `json:"schema_version"`

	OrderId string      `json:"order_id"`
	Status  OrderStatus `json:"status"`

	TableId   string `json:"table_id,omitempty"`
	TableName string `json:"table_name,omitempty"`
	ZoneId    string `json:"zone_id,omitempty"`
	ZoneName  string `json:"zone_name,omitempty"`
	IsRetail  bool   `json:"is_retail"`

	QueueNumber    *int32 `json:"queue_number,omitempty"`
	ReceiptNumber  string `json:"receipt_number,omitempty"`

	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time,omitempty"`
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	LastSequence   uint64 `json:"last_sequence"`
	StateChecksum  string `json:"state_checksum"`

	Items    []CartItemSnapshot `json:"items"`
	Payments []Payment          `json:"payments"`

	StampRedemptions   []StampRedemption `json:"stamp_redemptions,omitempty"`
	PaidItemQuantities map[string]int    `json:"paid_item_quantities,omitempty"`

	OriginalTotal             decimal.Decimal `json:"original_total"`
	Subtotal                  decimal.Decimal `json:"subtotal"`
	TotalDiscount             decimal.Decimal `json:"total_discount"`
	TotalSurcharge            decimal.Decimal `json:"total_surcharge"`
	Tax                       decimal.Decimal `json:"tax"`
	Discount                  decimal.Decimal `json:"discount"`
	CompTotalAmount           decimal.Decimal `json:"comp_total_amount"`
	OrderManualDiscountAmount decimal.Decimal `json:"order_manual_discount_amount"`
	OrderManualSurchargeAmount decimal.Decimal `json:"order_manual_surcharge_amount"`
	Total                     decimal.Decimal `json:"total"`
	PaidAmount                decimal.Decimal `json:"paid_amount"`
	RemainingAmount           decimal.Decimal `json:"remaining_amount"`

	OrderManualDiscountPercent *decimal.Decimal `json:"order_manual_discount_percent,omitempty"`
	OrderManualDiscountFixed   *decimal.Decimal `json:"order_manual_discount_fixed,omitempty"`
	OrderManualSurchargePercent *decimal.Decimal `json:"order_manual_surcharge_percent,omitempty"`
	OrderManualSurchargeFixed  *decimal.Decimal `json:"order_manual_surcharge_fixed,omitempty"`
	OrderRuleDiscountAmount   decimal.Decimal `json:"order_rule_discount_amount"`
	OrderRuleSurchargeAmount  decimal.Decimal `json:"order_rule_surcharge_amount"`
	OrderAppliedRules         []AppliedRule   `json:"order_applied_rules,omitempty"`

	SkippedRuleIds map[string]bool `json:"skipped_rule_ids,omitempty"`

	VoidType   VoidType        `json:"void_type,omitempty"`
	LossReason string          `json:"loss_reason,omitempty"`
	LossAmount *decimal.Decimal `json:"loss_amount,omitempty"`
	VoidNote   string          `json:"void_note,omitempty"`

	MemberId         string `json:"member_id,omitempty"`
	MarketingGroupId string `json:"marketing_group_id,omitempty"`

	MergedIntoOrderId string `json:"merged_into_order_id,omitempty"`
}

// Clone returns an owned deep copy, suitable for returning from the query surface.
func (s *OrderSnapshot) Clone() *OrderSnapshot {
	if s == nil {
		return nil
	}
	out := *s

	out.Items = make([]CartItemSnapshot, len(s.Items))
	for i, it := range s.Items {
		out.Items[i] = it.Clone()
	}

	out.Payments = make([]Payment, len(s.Payments))
	for i, p := range s.Payments {
		out.Payments[i] = p.Clone()
	}

	if s.StampRedemptions != nil {
		out.StampRedemptions = append([]StampRedemption(nil), s.StampRedemptions...)
	}
	if s.PaidItemQuantities != nil {
		out.PaidItemQuantities = make(map[string]int, len(s.PaidItemQuantities))
		for k, v := range s.PaidItemQuantities {
			out.PaidItemQuantities[k] = v
		}
	}
	if s.SkippedRuleIds != nil {
		out.SkippedRuleIds = make(map[string]bool, len(s.SkippedRuleIds))
		for k, v := range s.SkippedRuleIds {
			out.SkippedRuleIds[k] = v
		}
	}
	out.OrderAppliedRules = cloneAppliedRules(s.OrderAppliedRules)

	if s.QueueNumber != nil {
		v := *s.QueueNumber
		out.QueueNumber = &v
	}
	out.OrderManualDiscountPercent = cloneDecPtr(s.OrderManualDiscountPercent)
	out.OrderManualDiscountFixed = cloneDecPtr(s.OrderManualDiscountFixed)
	out.OrderManualSurchargePercent = cloneDecPtr(s.OrderManualSurchargePercent)
	out.OrderManualSurchargeFixed = cloneDecPtr(s.OrderManualSurchargeFixed)
	out.LossAmount = cloneDecPtr(s.LossAmount)

	return &out
}

func cloneDecPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// FindItem returns the item with the given instance id, or nil.
func (s *OrderSnapshot) FindItem(instanceId string) *CartItemSnapshot {
	for i := range s.Items {
		if s.Items[i].InstanceId == instanceId {
			return &s.Items[i]
		}
	}
	return nil
}

// FindPayment returns the payment with the given id, or nil.
func (s *OrderSnapshot) FindPayment(paymentId string) *Payment {
	for i := range s.Payments {
		if s.Payments[i].PaymentId == paymentId {
			return &s.Payments[i]
		}
	}
	return nil
}
