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
	discOrderId string
	discPercent string
	discFixed   string
)

var discountCmd = &cobra.Command{
	Use:   "discount",
	Short: "Apply an order-level manual discount (forbidden once any payment exists)",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseAdjustment(discPercent, discFixed)
		if err != nil {
			return err
		}
		return runCommand(discOrderId, model.ApplyOrderDiscountPayload{Percent: p.percent, Fixed: p.fixed})
	},
}

func init() {
	discountCmd.Flags().StringVar(&discOrderId, "order", "", "order id [required]")
	discountCmd.Flags().StringVar(&discPercent, "percent", "", "discount percent")
	discountCmd.Flags().StringVar(&discFixed, "fixed", "", "discount fixed amount")
	discountCmd.MarkFlagRequired("order")
}

var (
	surOrderId string
	surPercent string
	surFixed   string
)

var surchargeCmd = &cobra.Command{
	Use:   "surcharge",
	Short: "Apply an order-level manual surcharge (forbidden once any payment exists)",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parseAdjustment(surPercent, surFixed)
		if err != nil {
			return err
		}
		return runCommand(surOrderId, model.ApplyOrderSurchargePayload{Percent: p.percent, Fixed: p.fixed})
	},
}

func init() {
	surchargeCmd.Flags().StringVar(&surOrderId, "order", "", "order id [required]")
	surchargeCmd.Flags().StringVar(&surPercent, "percent", "", "surcharge percent")
	surchargeCmd.Flags().StringVar(&surFixed, "fixed", "", "surcharge fixed amount")
	surchargeCmd.MarkFlagRequired("order")
}

type adjustment struct {
	percent *decimal.Decimal
	fixed   *decimal.Decimal
}

func parseAdjustment(percentFlag, fixedFlag string) (adjustment, error) {
	var a adjustment
	if percentFlag != "" {
		p, err := decimal.NewFromString(percentFlag)
		if err != nil {
			return a, fmt.Errorf("invalid --percent: %w", err)
		}
		a.percent = &p
	}
	if fixedFlag != "" {
		f, err := decimal.NewFromString(fixedFlag)
		if err != nil {
			return a, fmt.Errorf("invalid --fixed: %w", err)
		}
		a.fixed = &f
	}
	return a, nil
}

var (
	trsOrderId string
	trsRuleId  string
	trsSkip    bool
)

var toggleRuleSkipCmd = &cobra.Command{
	Use:   "toggle-rule-skip",
	Short: "Skip or un-skip a matched price rule for an order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(trsOrderId, model.ToggleRuleSkipPayload{RuleId: trsRuleId, Skip: trsSkip})
	},
}

func init() {
	toggleRuleSkipCmd.Flags().StringVar(&trsOrderId, "order", "", "order id [required]")
	toggleRuleSkipCmd.Flags().StringVar(&trsRuleId, "rule", "", "rule id [required]")
	toggleRuleSkipCmd.Flags().BoolVar(&trsSkip, "skip", true, "true to skip, false to un-skip")
	toggleRuleSkipCmd.MarkFlagRequired("order")
	toggleRuleSkipCmd.MarkFlagRequired("rule")
}
