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
	"github.com/shopspring/decimal"

	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
)

// LinkMember attaches a loyalty member to the order; the member's marketing
// group id and its rule set were already resolved onto ctx by Phase A, so
// this only needs to validate the command shape and fold them into an event.
type LinkMember struct{}

func (LinkMember) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.LinkMemberPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "link_member: unexpected payload type")
	}
	if p.MemberId == "" {
		return nil, ordererr.New(ordererr.MemberNotFound)
	}
	evt := newEvent(ctx, model.EvtMemberLinked, model.MemberLinkedPayload{
		MemberId: p.MemberId, MarketingGroupId: ctx.MarketingGroupId, Rules: ctx.MarketingRules,
	})
	return []*model.OrderEvent{evt}, nil
}

// RedeemStamp records a loyalty stamp redemption. The activity's progress
// and reward product were resolved by Phase A (ctx.StampActivity); effective
// stamps are current_stamps plus the bonus earned by items already on this
// order that match the activity's stamp targets, and must reach
// stamps_required. Redeeming against an existing line comps it rather than
// granting a fresh reward item.
type RedeemStamp struct{}

func (RedeemStamp) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	if ctx.Snapshot.Status.IsTerminal() {
		return nil, ordererr.New(ordererr.OrderAlreadyCompleted)
	}
	p, ok := ctx.Command.Payload.(model.RedeemStampPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "redeem_stamp: unexpected payload type")
	}
	if ctx.StampActivity == nil {
		return nil, ordererr.New(ordererr.StampActivityNotFound)
	}
	for _, r := range ctx.Snapshot.StampRedemptions {
		if r.StampActivityId == p.StampActivityId {
			return nil, ordererr.Newf(ordererr.InvalidRequest, "redeem_stamp: stamp activity already redeemed on this order")
		}
	}

	activity := *ctx.StampActivity
	bonus := activity.QualifyingCount(ctx.Snapshot.Items)

	redemption := model.StampRedemption{
		StampActivityId:       p.StampActivityId,
		StampActivityName:     activity.StampActivityName,
		StampsRequired:        activity.StampsRequired,
		CurrentStamps:         activity.CurrentStamps,
		StampTargetProductIds: activity.StampTargetProductIds,
	}

	if p.CompExistingInstance != "" {
		item := ctx.Snapshot.FindItem(p.CompExistingInstance)
		if item == nil {
			return nil, ordererr.New(ordererr.OrderItemNotFound)
		}
		if item.IsComped {
			return nil, ordererr.New(ordererr.OrderItemComped)
		}
		// The redemption comps item away from the order, so its own
		// contribution to the bonus must not count toward the threshold.
		if containsProduct(activity.StampTargetProductIds, item.Id) {
			bonus -= item.Quantity
		}
		redemption.IsCompExisting = true
		redemption.CompSourceInstanceId = p.CompExistingInstance
	} else {
		if activity.RewardProductId == "" {
			return nil, ordererr.New(ordererr.ProductNotFound)
		}
		meta, ok := ctx.ProductMeta[activity.RewardProductId]
		if !ok {
			return nil, ordererr.New(ordererr.ProductNotFound)
		}
		rewardInstanceId := ctx.Random.NewID()
		redemption.RewardInstanceId = rewardInstanceId
		redemption.RewardItem = &model.CartItemSnapshot{
			Id:             activity.RewardProductId,
			InstanceId:     rewardInstanceId,
			Name:           meta.Name,
			Price:          decimal.Zero,
			OriginalPrice:  decimal.Zero,
			UnitPrice:      decimal.Zero,
			CategoryId:     meta.CategoryId,
			CategoryName:   meta.CategoryName,
			Quantity:       1,
			UnpaidQuantity: 1,
			IsComped:       true,
			Note:           "stamp reward: " + activity.StampActivityName,
		}
	}

	effective := activity.CurrentStamps + bonus
	if effective < activity.StampsRequired {
		return nil, ordererr.Newf(ordererr.InsufficientStamps, "redeem_stamp: %d stamps available, %d required", effective, activity.StampsRequired)
	}

	evt := newEvent(ctx, model.EvtStampRedeemed, model.StampRedeemedPayload{Redemption: redemption})
	return []*model.OrderEvent{evt}, nil
}

func containsProduct(ids []string, productId string) bool {
	for _, id := range ids {
		if id == productId {
			return true
		}
	}
	return false
}

type CancelStampRedemption struct{}

func (CancelStampRedemption) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot == nil {
		return nil, ordererr.New(ordererr.OrderNotFound)
	}
	p, ok := ctx.Command.Payload.(model.CancelStampRedemptionPayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "cancel_stamp_redemption: unexpected payload type")
	}
	found := false
	for _, r := range ctx.Snapshot.StampRedemptions {
		if r.StampActivityId == p.StampActivityId {
			found = true
			break
		}
	}
	if !found {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "cancel_stamp_redemption: no such redemption on this order")
	}
	evt := newEvent(ctx, model.EvtStampRedemptionCancelled, model.StampRedemptionCancelledPayload{
		StampActivityId: p.StampActivityId,
	})
	return []*model.OrderEvent{evt}, nil
}
