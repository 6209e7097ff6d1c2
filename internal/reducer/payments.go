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
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
)

func applyPaymentAdded(s *model.OrderSnapshot, p model.PaymentAddedPayload) {
	s.Payments = append(s.Payments, p.Payment)

	if s.PaidItemQuantities == nil {
		s.PaidItemQuantities = map[string]int{}
	}
	for _, split := range p.Payment.SplitByItems {
		s.PaidItemQuantities[split.InstanceId] += split.Quantity
		if item := s.FindItem(split.InstanceId); item != nil {
			item.UnpaidQuantity -= split.Quantity
			if item.UnpaidQuantity < 0 {
				item.UnpaidQuantity = 0
			}
		}
	}
}

func applyPaymentCancelled(s *model.OrderSnapshot, p model.PaymentCancelledPayload) error {
	payment := s.FindPayment(p.PaymentId)
	if payment == nil {
		return ordererr.New(ordererr.PaymentNotFound)
	}
	payment.Cancelled = true
	payment.CancelledReason = p.Reason

	for _, split := range payment.SplitByItems {
		if s.PaidItemQuantities != nil {
			s.PaidItemQuantities[split.InstanceId] -= split.Quantity
			if s.PaidItemQuantities[split.InstanceId] <= 0 {
				delete(s.PaidItemQuantities, split.InstanceId)
			}
		}
		if item := s.FindItem(split.InstanceId); item != nil {
			item.UnpaidQuantity += split.Quantity
			if item.UnpaidQuantity > item.Quantity {
				item.UnpaidQuantity = item.Quantity
			}
		}
	}
	return nil
}
