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

package manager

import (
	"github.com/posedge/order-engine/internal/actions"
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
)

// actionFor resolves the stateless Action implementing cmdType. The action
// types that consult the rule engine (AddItems, ModifyItem, ToggleRuleSkip)
// are constructed with m.engine each call; every other action is stateless.
func (m *Manager) actionFor(cmdType model.CommandType) (actions.Action, error) {
	switch cmdType {
	case model.CmdOpenTable:
		return actions.OpenTable{}, nil
	case model.CmdAddItems:
		return actions.AddItems{Engine: m.engine}, nil
	case model.CmdModifyItem:
		return actions.ModifyItem{Engine: m.engine}, nil
	case model.CmdRemoveItem:
		return actions.RemoveItem{}, nil
	case model.CmdRestoreItem:
		return actions.RestoreItem{}, nil
	case model.CmdCompItem:
		return actions.CompItem{}, nil
	case model.CmdUncompItem:
		return actions.UncompItem{}, nil
	case model.CmdApplyOrderDiscount:
		return actions.ApplyOrderDiscount{}, nil
	case model.CmdApplyOrderSurcharge:
		return actions.ApplyOrderSurcharge{}, nil
	case model.CmdToggleRuleSkip:
		return actions.ToggleRuleSkip{Engine: m.engine}, nil
	case model.CmdAddPayment:
		return actions.AddPayment{}, nil
	case model.CmdCancelPayment:
		return actions.CancelPayment{}, nil
	case model.CmdLinkMember:
		return actions.LinkMember{}, nil
	case model.CmdRedeemStamp:
		return actions.RedeemStamp{}, nil
	case model.CmdCancelStampRedemption:
		return actions.CancelStampRedemption{}, nil
	case model.CmdCompleteOrder:
		return actions.CompleteOrder{}, nil
	case model.CmdVoidOrder:
		return actions.VoidOrder{}, nil
	case model.CmdRestoreOrder:
		return actions.RestoreOrder{}, nil
	case model.CmdSplitOrder:
		return actions.SplitOrder{}, nil
	case model.CmdMoveOrder:
		return actions.MoveOrder{}, nil
	case model.CmdMergeOrders:
		return actions.MergeOrders{}, nil
	default:
		return nil, ordererr.Newf(ordererr.InvalidRequest, "manager: unknown command type %q", cmdType)
	}
}
