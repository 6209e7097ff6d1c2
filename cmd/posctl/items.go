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

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/posedge/order-engine/internal/model"
)

var (
	otTableId    string
	otTableName  string
	otZoneId     string
	otZoneName   string
	otIsRetail   bool
	otGuestCount int
)

var openTableCmd = &cobra.Command{
	Use:   "open-table",
	Short: "Open a new order against a table or as a retail/counter sale",
	Example: `  posctl open-table --table-id t12 --table-name "Table 12"
  posctl open-table --retail`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand("", model.OpenTablePayload{
			TableId:    otTableId,
			TableName:  otTableName,
			ZoneId:     otZoneId,
			ZoneName:   otZoneName,
			IsRetail:   otIsRetail,
			GuestCount: otGuestCount,
		})
	},
}

func init() {
	openTableCmd.Flags().StringVar(&otTableId, "table-id", "", "table id (omit for retail/counter orders)")
	openTableCmd.Flags().StringVar(&otTableName, "table-name", "", "table display name")
	openTableCmd.Flags().StringVar(&otZoneId, "zone-id", "", "zone id")
	openTableCmd.Flags().StringVar(&otZoneName, "zone-name", "", "zone display name")
	openTableCmd.Flags().BoolVar(&otIsRetail, "retail", false, "open as a retail/counter sale")
	openTableCmd.Flags().IntVar(&otGuestCount, "guests", 0, "guest count")
}

var (
	aiOrderId   string
	aiProductId string
	aiPrice     string
	aiQuantity  int
	aiDiscount  string
	aiNote      string
)

var addItemsCmd = &cobra.Command{
	Use:   "add-items",
	Short: "Add one item to an order",
	Example: `  posctl add-items --order ord_123 --product coffee --price 10.00 --qty 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := decimal.NewFromString(aiPrice)
		if err != nil {
			return fmt.Errorf("invalid --price: %w", err)
		}
		item := model.AddItemInput{
			ProductId: aiProductId,
			Price:     price,
			Quantity:  aiQuantity,
			Note:      aiNote,
		}
		if aiDiscount != "" {
			d, err := decimal.NewFromString(aiDiscount)
			if err != nil {
				return fmt.Errorf("invalid --discount: %w", err)
			}
			item.ManualDiscountPercent = &d
		}
		return runCommand(aiOrderId, model.AddItemsPayload{Items: []model.AddItemInput{item}})
	},
}

func init() {
	addItemsCmd.Flags().StringVar(&aiOrderId, "order", "", "order id [required]")
	addItemsCmd.Flags().StringVar(&aiProductId, "product", "", "product id [required]")
	addItemsCmd.Flags().StringVar(&aiPrice, "price", "", "unit price [required]")
	addItemsCmd.Flags().IntVar(&aiQuantity, "qty", 1, "quantity")
	addItemsCmd.Flags().StringVar(&aiDiscount, "discount", "", "manual discount percent")
	addItemsCmd.Flags().StringVar(&aiNote, "note", "", "item note")
	addItemsCmd.MarkFlagRequired("order")
	addItemsCmd.MarkFlagRequired("product")
	addItemsCmd.MarkFlagRequired("price")
}

var (
	miOrderId      string
	miInstanceId   string
	miAffectedQty  int
	miNewPrice     string
	miNewQty       int
	miNewDiscount  string
)

var modifyItemCmd = &cobra.Command{
	Use:   "modify-item",
	Short: "Change price, quantity, or discount on an unpaid portion of an item",
	RunE: func(cmd *cobra.Command, args []string) error {
		var changes model.ItemChanges
		if miNewPrice != "" {
			p, err := decimal.NewFromString(miNewPrice)
			if err != nil {
				return fmt.Errorf("invalid --price: %w", err)
			}
			changes.Price = &p
		}
		if miNewQty > 0 {
			q := miNewQty
			changes.Quantity = &q
		}
		if miNewDiscount != "" {
			d, err := decimal.NewFromString(miNewDiscount)
			if err != nil {
				return fmt.Errorf("invalid --discount: %w", err)
			}
			changes.ManualDiscountPercent = &d
		}
		payload := model.ModifyItemPayload{InstanceId: miInstanceId, Changes: changes}
		if miAffectedQty > 0 {
			aq := miAffectedQty
			payload.AffectedQuantity = &aq
		}
		return runCommand(miOrderId, payload)
	},
}

func init() {
	modifyItemCmd.Flags().StringVar(&miOrderId, "order", "", "order id [required]")
	modifyItemCmd.Flags().StringVar(&miInstanceId, "instance", "", "item instance id [required]")
	modifyItemCmd.Flags().IntVar(&miAffectedQty, "affected-qty", 0, "how many units of the instance are affected (defaults to all)")
	modifyItemCmd.Flags().StringVar(&miNewPrice, "price", "", "new unit price")
	modifyItemCmd.Flags().IntVar(&miNewQty, "qty", 0, "new total quantity")
	modifyItemCmd.Flags().StringVar(&miNewDiscount, "discount", "", "new manual discount percent")
	modifyItemCmd.MarkFlagRequired("order")
	modifyItemCmd.MarkFlagRequired("instance")
}

var (
	riOrderId    string
	riInstanceId string
	riQuantity   int
	riReason     string
)

var removeItemCmd = &cobra.Command{
	Use:   "remove-item",
	Short: "Remove all or part of an unpaid item",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := model.RemoveItemPayload{InstanceId: riInstanceId, Reason: riReason}
		if riQuantity > 0 {
			q := riQuantity
			payload.Quantity = &q
		}
		return runCommand(riOrderId, payload)
	},
}

func init() {
	removeItemCmd.Flags().StringVar(&riOrderId, "order", "", "order id [required]")
	removeItemCmd.Flags().StringVar(&riInstanceId, "instance", "", "item instance id [required]")
	removeItemCmd.Flags().IntVar(&riQuantity, "qty", 0, "quantity to remove (defaults to all)")
	removeItemCmd.Flags().StringVar(&riReason, "reason", "", "removal reason")
	removeItemCmd.MarkFlagRequired("order")
	removeItemCmd.MarkFlagRequired("instance")
}

var (
	rstOrderId    string
	rstInstanceId string
)

var restoreItemCmd = &cobra.Command{
	Use:   "restore-item",
	Short: "Restore a previously removed item",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(rstOrderId, model.RestoreItemPayload{InstanceId: rstInstanceId})
	},
}

func init() {
	restoreItemCmd.Flags().StringVar(&rstOrderId, "order", "", "order id [required]")
	restoreItemCmd.Flags().StringVar(&rstInstanceId, "instance", "", "item instance id [required]")
	restoreItemCmd.MarkFlagRequired("order")
	restoreItemCmd.MarkFlagRequired("instance")
}

var (
	ciOrderId    string
	ciInstanceId string
	ciQuantity   int
	ciReason     string
)

var compItemCmd = &cobra.Command{
	Use:   "comp-item",
	Short: "Comp (zero-price) all or part of an unpaid item",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := model.CompItemPayload{InstanceId: ciInstanceId, Reason: ciReason}
		if ciQuantity > 0 {
			q := ciQuantity
			payload.Quantity = &q
		}
		return runCommand(ciOrderId, payload)
	},
}

func init() {
	compItemCmd.Flags().StringVar(&ciOrderId, "order", "", "order id [required]")
	compItemCmd.Flags().StringVar(&ciInstanceId, "instance", "", "item instance id [required]")
	compItemCmd.Flags().IntVar(&ciQuantity, "qty", 0, "quantity to comp (defaults to all)")
	compItemCmd.Flags().StringVar(&ciReason, "reason", "", "comp reason")
	compItemCmd.MarkFlagRequired("order")
	compItemCmd.MarkFlagRequired("instance")
}

var (
	uiOrderId    string
	uiInstanceId string
)

var uncompItemCmd = &cobra.Command{
	Use:   "uncomp-item",
	Short: "Undo a comp, restoring the item's original pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(uiOrderId, model.UncompItemPayload{InstanceId: uiInstanceId})
	},
}

func init() {
	uncompItemCmd.Flags().StringVar(&uiOrderId, "order", "", "order id [required]")
	uncompItemCmd.Flags().StringVar(&uiInstanceId, "instance", "", "item instance id [required]")
	uncompItemCmd.MarkFlagRequired("order")
	uncompItemCmd.MarkFlagRequired("instance")
}
