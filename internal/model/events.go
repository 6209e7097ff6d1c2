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

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// EventPayload is the tagged-union interface every event variant implements.
type EventPayload interface {
	EventType() EventType
}

// OrderEvent is the unit of truth: append-only, globally sequenced.
type OrderEvent struct {
	Sequence         uint64       `json:"sequence"`
	EventId          string       `json:"event_id"`
	OrderId          string       `json:"order_id"`
	Timestamp        int64        `json:"timestamp"`
	ClientTimestamp  *int64       `json:"client_timestamp,omitempty"`
	OperatorId       int64        `json:"operator_id"`
	OperatorName     string       `json:"operator_name"`
	CommandId        string       `json:"command_id"`
	Type             EventType    `json:"event_type"`
	Payload          EventPayload `json:"payload"`
}

// orderEventWire is OrderEvent's JSON shape with Payload left as raw bytes,
// so it can be decoded only after Type is known.
type orderEventWire struct {
	Sequence        uint64          `json:"sequence"`
	EventId         string          `json:"event_id"`
	OrderId         string          `json:"order_id"`
	Timestamp       int64           `json:"timestamp"`
	ClientTimestamp *int64          `json:"client_timestamp,omitempty"`
	OperatorId      int64           `json:"operator_id"`
	OperatorName    string          `json:"operator_name"`
	CommandId       string          `json:"command_id"`
	Type            EventType       `json:"event_type"`
	Payload         json.RawMessage `json:"payload"`
}

// MarshalJSON lets OrderEvent round-trip through storage: the concrete
// payload type is recovered on read by switching on Type.
func (e OrderEvent) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	wire := orderEventWire{
		Sequence: e.Sequence, EventId: e.EventId, OrderId: e.OrderId,
		Timestamp: e.Timestamp, ClientTimestamp: e.ClientTimestamp,
		OperatorId: e.OperatorId, OperatorName: e.OperatorName,
		CommandId: e.CommandId, Type: e.Type, Payload: raw,
	}
	return json.Marshal(wire)
}

func (e *OrderEvent) UnmarshalJSON(data []byte) error {
	var wire orderEventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	payload, err := decodeEventPayload(wire.Type, wire.Payload)
	if err != nil {
		return err
	}
	e.Sequence = wire.Sequence
	e.EventId = wire.EventId
	e.OrderId = wire.OrderId
	e.Timestamp = wire.Timestamp
	e.ClientTimestamp = wire.ClientTimestamp
	e.OperatorId = wire.OperatorId
	e.OperatorName = wire.OperatorName
	e.CommandId = wire.CommandId
	e.Type = wire.Type
	e.Payload = payload
	return nil
}

func decodeEventPayload(t EventType, raw json.RawMessage) (EventPayload, error) {
	var payload EventPayload
	switch t {
	case EvtTableOpened:
		payload = &TableOpenedPayload{}
	case EvtItemsAdded:
		payload = &ItemsAddedPayload{}
	case EvtItemModified:
		payload = &ItemModifiedPayload{}
	case EvtItemRemoved:
		payload = &ItemRemovedPayload{}
	case EvtItemRestored:
		payload = &ItemRestoredPayload{}
	case EvtItemCompedFull:
		payload = &ItemCompedFullPayload{}
	case EvtItemCompedPartial:
		payload = &ItemCompedPartialPayload{}
	case EvtItemUncomped:
		payload = &ItemUncompedPayload{}
	case EvtOrderDiscountApplied:
		payload = &OrderDiscountAppliedPayload{}
	case EvtOrderSurchargeApplied:
		payload = &OrderSurchargeAppliedPayload{}
	case EvtRuleSkipToggled:
		payload = &RuleSkipToggledPayload{}
	case EvtPaymentAdded:
		payload = &PaymentAddedPayload{}
	case EvtPaymentCancelled:
		payload = &PaymentCancelledPayload{}
	case EvtMemberLinked:
		payload = &MemberLinkedPayload{}
	case EvtStampRedeemed:
		payload = &StampRedeemedPayload{}
	case EvtStampRedemptionCancelled:
		payload = &StampRedemptionCancelledPayload{}
	case EvtOrderCompleted:
		payload = &OrderCompletedPayload{}
	case EvtOrderVoided:
		payload = &OrderVoidedPayload{}
	case EvtOrderRestored:
		payload = &OrderRestoredPayload{}
	case EvtOrderSplit:
		payload = &OrderSplitPayload{}
	case EvtOrderMoved:
		payload = &OrderMovedPayload{}
	case EvtOrderMerged:
		payload = &OrderMergedPayload{}
	case EvtOrderMergedOut:
		payload = &OrderMergedOutPayload{}
	default:
		return nil, fmt.Errorf("model: unknown event type %q", t)
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, err
	}
	return derefPayload(payload), nil
}

// derefPayload unwraps the pointer decodeEventPayload decodes into, back to
// the value type every EventType() method is declared on.
func derefPayload(p EventPayload) EventPayload {
	switch v := p.(type) {
	case *TableOpenedPayload:
		return *v
	case *ItemsAddedPayload:
		return *v
	case *ItemModifiedPayload:
		return *v
	case *ItemRemovedPayload:
		return *v
	case *ItemRestoredPayload:
		return *v
	case *ItemCompedFullPayload:
		return *v
	case *ItemCompedPartialPayload:
		return *v
	case *ItemUncompedPayload:
		return *v
	case *OrderDiscountAppliedPayload:
		return *v
	case *OrderSurchargeAppliedPayload:
		return *v
	case *RuleSkipToggledPayload:
		return *v
	case *PaymentAddedPayload:
		return *v
	case *PaymentCancelledPayload:
		return *v
	case *MemberLinkedPayload:
		return *v
	case *StampRedeemedPayload:
		return *v
	case *StampRedemptionCancelledPayload:
		return *v
	case *OrderCompletedPayload:
		return *v
	case *OrderVoidedPayload:
		return *v
	case *OrderRestoredPayload:
		return *v
	case *OrderSplitPayload:
		return *v
	case *OrderMovedPayload:
		return *v
	case *OrderMergedPayload:
		return *v
	case *OrderMergedOutPayload:
		return *v
	default:
		return p
	}
}

type TableOpenedPayload struct {
	TableId       string `json:"table_id,omitempty"`
	TableName     string `json:"table_name,omitempty"`
	ZoneId        string `json:"zone_id,omitempty"`
	ZoneName      string `json:"zone_name,omitempty"`
	IsRetail      bool   `json:"is_retail"`
	ReceiptNumber string `json:"receipt_number"`
	QueueNumber   *int32 `json:"queue_number,omitempty"`
	Rules         []PriceRule `json:"rules"`
}

func (TableOpenedPayload) EventType() EventType { return EvtTableOpened }

// ItemsAddedPayload carries fully resolved cart items: instance ids, applied
// rules, and tax are computed once by the action and replayed verbatim, so
// the reducer never needs catalog or rule-engine access to reconstruct state.
type ItemsAddedPayload struct {
	Items []CartItemSnapshot `json:"items"`
}

func (ItemsAddedPayload) EventType() EventType { return EvtItemsAdded }

// ProductMeta is the read-only product metadata an action needs to price and label an item.
type ProductMeta struct {
	Name        string          `json:"name"`
	CategoryId  string          `json:"category_id,omitempty"`
	CategoryName string         `json:"category_name,omitempty"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TagIds      []string        `json:"tag_ids,omitempty"`
}

type ItemModificationResult struct {
	InstanceId            string           `json:"instance_id"`
	Quantity               int              `json:"quantity"`
	Price                  decimal.Decimal  `json:"price"`
	OriginalPrice          decimal.Decimal  `json:"original_price"`
	ManualDiscountPercent *decimal.Decimal `json:"manual_discount_percent,omitempty"`
	Action                 ItemModAction    `json:"action"`
	SourceInstanceId       string           `json:"source_instance_id,omitempty"`
	Note                   *string          `json:"note,omitempty"`
	SelectedOptions        []SelectedOption `json:"selected_options,omitempty"`
	SelectedSpecification  *string          `json:"selected_specification,omitempty"`

	// Re-derived by the action alongside the field changes above, so the
	// reducer can apply this result without recomputing rules or tax.
	RuleDiscountAmount  decimal.Decimal `json:"rule_discount_amount"`
	RuleSurchargeAmount decimal.Decimal `json:"rule_surcharge_amount"`
	AppliedRules        []AppliedRule   `json:"applied_rules,omitempty"`
	Tax                 decimal.Decimal `json:"tax"`
	TaxRate             decimal.Decimal `json:"tax_rate"`
}

type ItemModifiedPayload struct {
	OriginalInstanceId string                   `json:"original_instance_id"`
	Results            []ItemModificationResult `json:"results"`
}

func (ItemModifiedPayload) EventType() EventType { return EvtItemModified }

type ItemRemovedPayload struct {
	InstanceId string `json:"instance_id"`
	Quantity   int    `json:"quantity"`
	Reason     string `json:"reason,omitempty"`
}

func (ItemRemovedPayload) EventType() EventType { return EvtItemRemoved }

type ItemRestoredPayload struct {
	InstanceId string `json:"instance_id"`
}

func (ItemRestoredPayload) EventType() EventType { return EvtItemRestored }

type ItemCompedFullPayload struct {
	InstanceId string `json:"instance_id"`
	Reason     string `json:"reason,omitempty"`
}

func (ItemCompedFullPayload) EventType() EventType { return EvtItemCompedFull }

type ItemCompedPartialPayload struct {
	InstanceId      string `json:"instance_id"`
	CompQuantity    int    `json:"comp_quantity"`
	NewInstanceId   string `json:"new_instance_id"`
	Reason          string `json:"reason,omitempty"`
}

func (ItemCompedPartialPayload) EventType() EventType { return EvtItemCompedPartial }

type ItemUncompedPayload struct {
	InstanceId string `json:"instance_id"`
}

func (ItemUncompedPayload) EventType() EventType { return EvtItemUncomped }

type OrderDiscountAppliedPayload struct {
	Percent *decimal.Decimal `json:"percent,omitempty"`
	Fixed   *decimal.Decimal `json:"fixed,omitempty"`
}

func (OrderDiscountAppliedPayload) EventType() EventType { return EvtOrderDiscountApplied }

type OrderSurchargeAppliedPayload struct {
	Percent *decimal.Decimal `json:"percent,omitempty"`
	Fixed   *decimal.Decimal `json:"fixed,omitempty"`
}

func (OrderSurchargeAppliedPayload) EventType() EventType { return EvtOrderSurchargeApplied }

type RuleSkipToggledPayload struct {
	RuleId string `json:"rule_id"`
	Skip   bool   `json:"skip"`
}

func (RuleSkipToggledPayload) EventType() EventType { return EvtRuleSkipToggled }

type PaymentAddedPayload struct {
	Payment Payment `json:"payment"`
}

func (PaymentAddedPayload) EventType() EventType { return EvtPaymentAdded }

type PaymentCancelledPayload struct {
	PaymentId string `json:"payment_id"`
	Reason    string `json:"reason,omitempty"`
}

func (PaymentCancelledPayload) EventType() EventType { return EvtPaymentCancelled }

type MemberLinkedPayload struct {
	MemberId         string      `json:"member_id"`
	MarketingGroupId string      `json:"marketing_group_id,omitempty"`
	Rules            []PriceRule `json:"rules,omitempty"` // marketing-group rules folded into the order's rule set
}

func (MemberLinkedPayload) EventType() EventType { return EvtMemberLinked }

type StampRedeemedPayload struct {
	Redemption StampRedemption `json:"redemption"`
}

func (StampRedeemedPayload) EventType() EventType { return EvtStampRedeemed }

type StampRedemptionCancelledPayload struct {
	StampActivityId string `json:"stamp_activity_id"`
}

func (StampRedemptionCancelledPayload) EventType() EventType { return EvtStampRedemptionCancelled }

type OrderCompletedPayload struct {
	ReceiptNumber string `json:"receipt_number"`
}

func (OrderCompletedPayload) EventType() EventType { return EvtOrderCompleted }

type OrderVoidedPayload struct {
	VoidType   VoidType         `json:"void_type"`
	LossReason string           `json:"loss_reason,omitempty"`
	LossAmount *decimal.Decimal `json:"loss_amount,omitempty"`
	VoidNote   string           `json:"void_note,omitempty"`
}

func (OrderVoidedPayload) EventType() EventType { return EvtOrderVoided }

type OrderRestoredPayload struct{}

func (OrderRestoredPayload) EventType() EventType { return EvtOrderRestored }

type OrderSplitPayload struct {
	NewOrderId string   `json:"new_order_id"`
	InstanceIds []string `json:"instance_ids,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	TableId     string   `json:"table_id,omitempty"`
	TableName   string   `json:"table_name,omitempty"`
	ReceiptNumber string `json:"receipt_number"`
}

func (OrderSplitPayload) EventType() EventType { return EvtOrderSplit }

type OrderMovedPayload struct {
	TableId   string `json:"table_id"`
	TableName string `json:"table_name,omitempty"`
	ZoneId    string `json:"zone_id,omitempty"`
	ZoneName  string `json:"zone_name,omitempty"`
}

func (OrderMovedPayload) EventType() EventType { return EvtOrderMoved }

type OrderMergedPayload struct {
	SourceOrderId string             `json:"source_order_id"`
	MergedItems   []CartItemSnapshot `json:"merged_items"`
}

func (OrderMergedPayload) EventType() EventType { return EvtOrderMerged }

type OrderMergedOutPayload struct {
	TargetOrderId string `json:"target_order_id"`
}

func (OrderMergedOutPayload) EventType() EventType { return EvtOrderMergedOut }

// CommandResponse is the user-visible outcome of executing one OrderCommand.
type CommandResponse struct {
	CommandId string      `json:"command_id"`
	Success   bool        `json:"success"`
	Duplicate bool        `json:"duplicate,omitempty"`
	OrderId   string      `json:"order_id,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Events    []*OrderEvent `json:"-"`
}

// ErrorInfo is the stable, enumerated shape clients branch on.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
