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
	payOrderId  string
	payMethod   string
	payAmount   string
	payTendered string
	payNote     string
)

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Add a payment to an order",
	Example: `  posctl pay --order ord_123 --method CASH --amount 20.00 --tendered 20.00`,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := decimal.NewFromString(payAmount)
		if err != nil {
			return fmt.Errorf("invalid --amount: %w", err)
		}
		payload := model.AddPaymentPayload{Method: payMethod, Amount: amount, Note: payNote}
		if payTendered != "" {
			t, err := decimal.NewFromString(payTendered)
			if err != nil {
				return fmt.Errorf("invalid --tendered: %w", err)
			}
			payload.Tendered = &t
		}
		return runCommand(payOrderId, payload)
	},
}

func init() {
	payCmd.Flags().StringVar(&payOrderId, "order", "", "order id [required]")
	payCmd.Flags().StringVar(&payMethod, "method", "", "payment method, e.g. CASH, CARD [required]")
	payCmd.Flags().StringVar(&payAmount, "amount", "", "payment amount [required]")
	payCmd.Flags().StringVar(&payTendered, "tendered", "", "cash tendered, for change calculation")
	payCmd.Flags().StringVar(&payNote, "note", "", "payment note")
	payCmd.MarkFlagRequired("order")
	payCmd.MarkFlagRequired("method")
	payCmd.MarkFlagRequired("amount")
}

var (
	cpOrderId   string
	cpPaymentId string
	cpReason    string
)

var cancelPaymentCmd = &cobra.Command{
	Use:   "cancel-payment",
	Short: "Cancel a non-cancelled payment",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cpOrderId, model.CancelPaymentPayload{PaymentId: cpPaymentId, Reason: cpReason})
	},
}

func init() {
	cancelPaymentCmd.Flags().StringVar(&cpOrderId, "order", "", "order id [required]")
	cancelPaymentCmd.Flags().StringVar(&cpPaymentId, "payment", "", "payment id [required]")
	cancelPaymentCmd.Flags().StringVar(&cpReason, "reason", "", "cancellation reason")
	cancelPaymentCmd.MarkFlagRequired("order")
	cancelPaymentCmd.MarkFlagRequired("payment")
}
