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
	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/model"
)

func applyOrderDiscount(s *model.OrderSnapshot, p model.OrderDiscountAppliedPayload) {
	s.OrderManualDiscountPercent = p.Percent
	s.OrderManualDiscountFixed = p.Fixed
}

func applyOrderSurcharge(s *model.OrderSnapshot, p model.OrderSurchargeAppliedPayload) {
	s.OrderManualSurchargePercent = p.Percent
	s.OrderManualSurchargeFixed = p.Fixed
}

func applyRuleSkipToggled(s *model.OrderSnapshot, p model.RuleSkipToggledPayload) {
	if s.SkippedRuleIds == nil {
		s.SkippedRuleIds = map[string]bool{}
	}
	if p.Skip {
		s.SkippedRuleIds[p.RuleId] = true
	} else {
		delete(s.SkippedRuleIds, p.RuleId)
	}
}

func applyMemberLinked(s *model.OrderSnapshot, p model.MemberLinkedPayload) {
	s.MemberId = p.MemberId
	s.MarketingGroupId = p.MarketingGroupId
}

func applyStampRedeemed(s *model.OrderSnapshot, p model.StampRedeemedPayload) {
	s.StampRedemptions = append(s.StampRedemptions, p.Redemption)
	if p.Redemption.IsCompExisting {
		if item := s.FindItem(p.Redemption.CompSourceInstanceId); item != nil {
			item.IsComped = true
		}
		return
	}
	if p.Redemption.RewardItem != nil {
		s.Items = append(s.Items, *p.Redemption.RewardItem)
	}
}

func applyStampRedemptionCancelled(s *model.OrderSnapshot, p model.StampRedemptionCancelledPayload) {
	var cancelled *model.StampRedemption
	kept := make([]model.StampRedemption, 0, len(s.StampRedemptions))
	for i := range s.StampRedemptions {
		r := s.StampRedemptions[i]
		if r.StampActivityId == p.StampActivityId {
			cancelled = &r
			continue
		}
		kept = append(kept, r)
	}
	s.StampRedemptions = kept
	if cancelled == nil {
		return
	}

	if cancelled.IsCompExisting {
		if item := s.FindItem(cancelled.CompSourceInstanceId); item != nil {
			item.IsComped = false
		}
		return
	}
	if cancelled.RewardInstanceId == "" {
		return
	}
	items := make([]model.CartItemSnapshot, 0, len(s.Items))
	for _, it := range s.Items {
		if it.InstanceId != cancelled.RewardInstanceId {
			items = append(items, it)
		}
	}
	s.Items = items
}

func applyOrderCompleted(s *model.OrderSnapshot, p model.OrderCompletedPayload) {
	s.Status = model.OrderStatusCompleted
	s.ReceiptNumber = p.ReceiptNumber
	s.EndTime = s.UpdatedAt
}

func applyOrderVoided(s *model.OrderSnapshot, p model.OrderVoidedPayload) {
	s.Status = model.OrderStatusVoid
	s.VoidType = p.VoidType
	s.LossReason = p.LossReason
	s.LossAmount = p.LossAmount
	s.VoidNote = p.VoidNote
	s.EndTime = s.UpdatedAt

	// A settled loss with no explicit amount defaults to whatever the order
	// was still owed at void time; items/payments are untouched by this
	// event so s.Total/s.PaidAmount already reflect the final state.
	if p.VoidType == model.VoidTypeLossSettled && s.LossAmount == nil {
		loss := s.Total.Sub(s.PaidAmount)
		if loss.IsNegative() {
			loss = decimal.Zero
		}
		s.LossAmount = &loss
	}
}

func applyOrderRestored(s *model.OrderSnapshot) {
	s.Status = model.OrderStatusActive
	s.VoidType = ""
	s.LossReason = ""
	s.LossAmount = nil
	s.VoidNote = ""
	s.EndTime = 0
}

func applyOrderSplit(s *model.OrderSnapshot, p model.OrderSplitPayload) error {
	if len(p.InstanceIds) == 0 {
		return nil
	}
	splitSet := make(map[string]bool, len(p.InstanceIds))
	for _, id := range p.InstanceIds {
		splitSet[id] = true
	}
	var kept []model.CartItemSnapshot
	for _, it := range s.Items {
		if !splitSet[it.InstanceId] {
			kept = append(kept, it)
		}
	}
	s.Items = kept
	return nil
}

func applyOrderMoved(s *model.OrderSnapshot, p model.OrderMovedPayload) {
	s.TableId = p.TableId
	s.TableName = p.TableName
	s.ZoneId = p.ZoneId
	s.ZoneName = p.ZoneName
}

func applyOrderMerged(s *model.OrderSnapshot, p model.OrderMergedPayload) {
	for _, it := range p.MergedItems {
		it.UnpaidQuantity = it.Quantity
		s.Items = append(s.Items, it)
	}
}

func applyOrderMergedOut(s *model.OrderSnapshot, p model.OrderMergedOutPayload) {
	s.Status = model.OrderStatusMerged
	s.MergedIntoOrderId = p.TargetOrderId
	s.EndTime = s.UpdatedAt
}
