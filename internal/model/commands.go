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

// CommandPayload is the tagged-union interface every command variant implements.
type CommandPayload interface {
	CommandType() CommandType
}

// OrderCommand is the unit of client intent accepted by the engine.
// OrderId names the order the command targets; OpenTable is the only
// payload that leaves it blank, since the manager mints a fresh id for it.
type OrderCommand struct {
	CommandId    string         `json:"command_id"`
	OrderId      string         `json:"order_id,omitempty"`
	OperatorId   int64          `json:"operator_id"`
	OperatorName string         `json:"operator_name"`
	Timestamp    int64          `json:"timestamp"` // ms since epoch, client-supplied
	Payload      CommandPayload `json:"payload"`
}

type OpenTablePayload struct {
	TableId   string `json:"table_id,omitempty"`
	TableName string `json:"table_name,omitempty"`
	ZoneId    string `json:"zone_id,omitempty"`
	ZoneName  string `json:"zone_name,omitempty"`
	IsRetail  bool   `json:"is_retail"`
	GuestCount int   `json:"guest_count,omitempty"`
}

func (OpenTablePayload) CommandType() CommandType { return CmdOpenTable }

type AddItemInput struct {
	ProductId              string           `json:"product_id"`
	Price                  decimal.Decimal  `json:"price"`
	Quantity               int              `json:"quantity"`
	SelectedOptions        []SelectedOption `json:"selected_options,omitempty"`
	SelectedSpecification  string           `json:"selected_specification,omitempty"`
	ManualDiscountPercent  *decimal.Decimal `json:"manual_discount_percent,omitempty"`
	Note                   string           `json:"note,omitempty"`
}

type AddItemsPayload struct {
	Items []AddItemInput `json:"items"`
}

func (AddItemsPayload) CommandType() CommandType { return CmdAddItems }

// ItemChanges is the set of fields ModifyItem may alter; a nil field means "leave unchanged".
type ItemChanges struct {
	Price                 *decimal.Decimal `json:"price,omitempty"`
	Quantity               *int             `json:"quantity,omitempty"`
	ManualDiscountPercent *decimal.Decimal `json:"manual_discount_percent,omitempty"`
	Note                   *string          `json:"note,omitempty"`
	SelectedOptions        []SelectedOption `json:"selected_options,omitempty"`
	SelectedSpecification  *string          `json:"selected_specification,omitempty"`
}

type ModifyItemPayload struct {
	InstanceId       string      `json:"instance_id"`
	AffectedQuantity *int        `json:"affected_quantity,omitempty"`
	Changes          ItemChanges `json:"changes"`
}

func (ModifyItemPayload) CommandType() CommandType { return CmdModifyItem }

type RemoveItemPayload struct {
	InstanceId string `json:"instance_id"`
	Quantity   *int   `json:"quantity,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func (RemoveItemPayload) CommandType() CommandType { return CmdRemoveItem }

type RestoreItemPayload struct {
	InstanceId string `json:"instance_id"`
}

func (RestoreItemPayload) CommandType() CommandType { return CmdRestoreItem }

type CompItemPayload struct {
	InstanceId string `json:"instance_id"`
	Quantity   *int   `json:"quantity,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

func (CompItemPayload) CommandType() CommandType { return CmdCompItem }

type UncompItemPayload struct {
	InstanceId string `json:"instance_id"`
}

func (UncompItemPayload) CommandType() CommandType { return CmdUncompItem }

type ApplyOrderDiscountPayload struct {
	Percent *decimal.Decimal `json:"percent,omitempty"`
	Fixed   *decimal.Decimal `json:"fixed,omitempty"`
}

func (ApplyOrderDiscountPayload) CommandType() CommandType { return CmdApplyOrderDiscount }

type ApplyOrderSurchargePayload struct {
	Percent *decimal.Decimal `json:"percent,omitempty"`
	Fixed   *decimal.Decimal `json:"fixed,omitempty"`
}

func (ApplyOrderSurchargePayload) CommandType() CommandType { return CmdApplyOrderSurcharge }

type ToggleRuleSkipPayload struct {
	RuleId string `json:"rule_id"`
	Skip   bool   `json:"skip"`
}

func (ToggleRuleSkipPayload) CommandType() CommandType { return CmdToggleRuleSkip }

type AddPaymentPayload struct {
	Method       string             `json:"method"`
	Amount       decimal.Decimal    `json:"amount"`
	Tendered     *decimal.Decimal   `json:"tendered,omitempty"`
	Note         string             `json:"note,omitempty"`
	SplitByItems []PaymentSplitItem `json:"split_by_items,omitempty"`
}

func (AddPaymentPayload) CommandType() CommandType { return CmdAddPayment }

type CancelPaymentPayload struct {
	PaymentId string `json:"payment_id"`
	Reason    string `json:"reason,omitempty"`
}

func (CancelPaymentPayload) CommandType() CommandType { return CmdCancelPayment }

type LinkMemberPayload struct {
	MemberId string `json:"member_id"`
}

func (LinkMemberPayload) CommandType() CommandType { return CmdLinkMember }

type RedeemStampPayload struct {
	StampActivityId      string `json:"stamp_activity_id"`
	CompExistingInstance string `json:"comp_existing_instance,omitempty"`
}

func (RedeemStampPayload) CommandType() CommandType { return CmdRedeemStamp }

type CancelStampRedemptionPayload struct {
	StampActivityId string `json:"stamp_activity_id"`
}

func (CancelStampRedemptionPayload) CommandType() CommandType { return CmdCancelStampRedemption }

type CompleteOrderPayload struct{}

func (CompleteOrderPayload) CommandType() CommandType { return CmdCompleteOrder }

type VoidOrderPayload struct {
	VoidType   VoidType         `json:"void_type"`
	LossReason string           `json:"loss_reason,omitempty"`
	LossAmount *decimal.Decimal `json:"loss_amount,omitempty"`
	VoidNote   string           `json:"void_note,omitempty"`
}

func (VoidOrderPayload) CommandType() CommandType { return CmdVoidOrder }

type RestoreOrderPayload struct{}

func (RestoreOrderPayload) CommandType() CommandType { return CmdRestoreOrder }

type SplitOrderPayload struct {
	InstanceIds []string         `json:"instance_ids,omitempty"` // split-by-items
	Amount      *decimal.Decimal `json:"amount,omitempty"`       // split-by-amount
	TableId     string           `json:"table_id,omitempty"`
	TableName   string           `json:"table_name,omitempty"`
}

func (SplitOrderPayload) CommandType() CommandType { return CmdSplitOrder }

type MoveOrderPayload struct {
	TableId   string `json:"table_id"`
	TableName string `json:"table_name,omitempty"`
	ZoneId    string `json:"zone_id,omitempty"`
	ZoneName  string `json:"zone_name,omitempty"`
}

func (MoveOrderPayload) CommandType() CommandType { return CmdMoveOrder }

type MergeOrdersPayload struct {
	SourceOrderId string `json:"source_order_id"`
}

func (MergeOrdersPayload) CommandType() CommandType { return CmdMergeOrders }
