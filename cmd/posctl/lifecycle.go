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

package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/posedge/order-engine/internal/model"
)

var completeOrderId string

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Complete an order (requires paid_amount >= total - 0.01)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(completeOrderId, model.CompleteOrderPayload{})
	},
}

func init() {
	completeCmd.Flags().StringVar(&completeOrderId, "order", "", "order id [required]")
	completeCmd.MarkFlagRequired("order")
}

var (
	voidOrderId string
	voidType    string
	voidReason  string
	voidAmount  string
	voidNote    string
)

var voidCmd = &cobra.Command{
	Use:   "void",
	Short: "Void an order, cleanly or as a settled loss",
	Example: `  posctl void --order ord_123 --type clean
  posctl void --order ord_123 --type loss --reason "walked out"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var vt model.VoidType
		switch strings.ToLower(voidType) {
		case "clean", "":
			vt = model.VoidTypeClean
		case "loss", "loss_settled":
			vt = model.VoidTypeLossSettled
		default:
			return fmt.Errorf("--type must be 'clean' or 'loss', got %q", voidType)
		}
		payload := model.VoidOrderPayload{VoidType: vt, LossReason: voidReason, VoidNote: voidNote}
		if voidAmount != "" {
			a, err := decimal.NewFromString(voidAmount)
			if err != nil {
				return fmt.Errorf("invalid --loss-amount: %w", err)
			}
			payload.LossAmount = &a
		}
		return runCommand(voidOrderId, payload)
	},
}

func init() {
	voidCmd.Flags().StringVar(&voidOrderId, "order", "", "order id [required]")
	voidCmd.Flags().StringVar(&voidType, "type", "clean", "void type: clean or loss")
	voidCmd.Flags().StringVar(&voidReason, "reason", "", "loss reason")
	voidCmd.Flags().StringVar(&voidAmount, "loss-amount", "", "loss amount (auto-computed as total-paid when omitted on a loss void)")
	voidCmd.Flags().StringVar(&voidNote, "note", "", "void note")
	voidCmd.MarkFlagRequired("order")
}

var restoreOrderId string

var restoreOrderCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore a voided order back to active",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(restoreOrderId, model.RestoreOrderPayload{})
	},
}

func init() {
	restoreOrderCmd.Flags().StringVar(&restoreOrderId, "order", "", "order id [required]")
	restoreOrderCmd.MarkFlagRequired("order")
}

var (
	moveOrderId   string
	moveTableId   string
	moveTableName string
	moveZoneId    string
	moveZoneName  string
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move an order to a different table/zone",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(moveOrderId, model.MoveOrderPayload{
			TableId: moveTableId, TableName: moveTableName, ZoneId: moveZoneId, ZoneName: moveZoneName,
		})
	},
}

func init() {
	moveCmd.Flags().StringVar(&moveOrderId, "order", "", "order id [required]")
	moveCmd.Flags().StringVar(&moveTableId, "table-id", "", "new table id [required]")
	moveCmd.Flags().StringVar(&moveTableName, "table-name", "", "new table name")
	moveCmd.Flags().StringVar(&moveZoneId, "zone-id", "", "new zone id")
	moveCmd.Flags().StringVar(&moveZoneName, "zone-name", "", "new zone name")
	moveCmd.MarkFlagRequired("order")
	moveCmd.MarkFlagRequired("table-id")
}

var (
	splitOrderId    string
	splitInstanceId []string
	splitAmount     string
	splitTableId    string
	splitTableName  string
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split an order by item instances or by amount into a new sibling order",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := model.SplitOrderPayload{
			InstanceIds: splitInstanceId,
			TableId:     splitTableId,
			TableName:   splitTableName,
		}
		if splitAmount != "" {
			a, err := decimal.NewFromString(splitAmount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			payload.Amount = &a
		}
		return runCommand(splitOrderId, payload)
	},
}

func init() {
	splitCmd.Flags().StringVar(&splitOrderId, "order", "", "order id [required]")
	splitCmd.Flags().StringSliceVar(&splitInstanceId, "instance", nil, "item instance ids to carve out (split-by-items)")
	splitCmd.Flags().StringVar(&splitAmount, "amount", "", "amount to carve out (split-by-amount)")
	splitCmd.Flags().StringVar(&splitTableId, "table-id", "", "new sibling order's table id")
	splitCmd.Flags().StringVar(&splitTableName, "table-name", "", "new sibling order's table name")
	splitCmd.MarkFlagRequired("order")
}

var (
	mergeTargetOrderId string
	mergeSourceOrderId string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a source order's items into a target order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(mergeTargetOrderId, model.MergeOrdersPayload{SourceOrderId: mergeSourceOrderId})
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeTargetOrderId, "target", "", "target order id [required]")
	mergeCmd.Flags().StringVar(&mergeSourceOrderId, "source", "", "source order id to merge in and retire [required]")
	mergeCmd.MarkFlagRequired("target")
	mergeCmd.MarkFlagRequired("source")
}

var (
	lmOrderId  string
	lmMemberId string
)

var linkMemberCmd = &cobra.Command{
	Use:   "link-member",
	Short: "Link a loyalty member to an order and re-price against their marketing group's rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(lmOrderId, model.LinkMemberPayload{MemberId: lmMemberId})
	},
}

func init() {
	linkMemberCmd.Flags().StringVar(&lmOrderId, "order", "", "order id [required]")
	linkMemberCmd.Flags().StringVar(&lmMemberId, "member", "", "member id [required]")
	linkMemberCmd.MarkFlagRequired("order")
	linkMemberCmd.MarkFlagRequired("member")
}

var (
	rsOrderId        string
	rsActivityId     string
	rsCompInstanceId string
)

var redeemStampCmd = &cobra.Command{
	Use:   "redeem-stamp",
	Short: "Redeem a stamp-card reward against an order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(rsOrderId, model.RedeemStampPayload{
			StampActivityId:      rsActivityId,
			CompExistingInstance: rsCompInstanceId,
		})
	},
}

func init() {
	redeemStampCmd.Flags().StringVar(&rsOrderId, "order", "", "order id [required]")
	redeemStampCmd.Flags().StringVar(&rsActivityId, "activity", "", "stamp activity id [required]")
	redeemStampCmd.Flags().StringVar(&rsCompInstanceId, "comp-instance", "", "existing item instance id to comp with this redemption")
	redeemStampCmd.MarkFlagRequired("order")
	redeemStampCmd.MarkFlagRequired("activity")
}

var (
	csrOrderId    string
	csrActivityId string
)

var cancelStampRedemptionCmd = &cobra.Command{
	Use:   "cancel-stamp-redemption",
	Short: "Cancel a previously applied stamp redemption",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(csrOrderId, model.CancelStampRedemptionPayload{StampActivityId: csrActivityId})
	},
}

func init() {
	cancelStampRedemptionCmd.Flags().StringVar(&csrOrderId, "order", "", "order id [required]")
	cancelStampRedemptionCmd.Flags().StringVar(&csrActivityId, "activity", "", "stamp activity id [required]")
	cancelStampRedemptionCmd.MarkFlagRequired("order")
	cancelStampRedemptionCmd.MarkFlagRequired("activity")
}
