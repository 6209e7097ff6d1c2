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
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
)

type OpenTable struct{}

func (OpenTable) Execute(ctx *CommandContext) ([]*model.OrderEvent, error) {
	if ctx.Snapshot != nil {
		return nil, ordererr.Newf(ordererr.InvalidRequest, "order already open")
	}
	p, ok := ctx.Command.Payload.(model.OpenTablePayload)
	if !ok {
		return nil, ordererr.Newf(ordererr.InternalError, "open_table: unexpected payload type")
	}

	evt := newEvent(ctx, model.EvtTableOpened, model.TableOpenedPayload{
		TableId:       p.TableId,
		TableName:     p.TableName,
		ZoneId:        p.ZoneId,
		ZoneName:      ctx.ZoneName,
		IsRetail:      p.IsRetail,
		ReceiptNumber: "", // assigned by the manager from the receipt-number counter
		Rules:         ctx.Rules,
	})
	return []*model.OrderEvent{evt}, nil
}
