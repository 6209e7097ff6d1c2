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
	"context"
	"time"

	"github.com/posedge/order-engine/internal/actions"
	"github.com/posedge/order-engine/internal/collab"
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/ordererr"
	"github.com/posedge/order-engine/internal/reducer"
)

// errDuplicateInTxn signals that another writer committed the same command_id
// between our lock-free pre-check and begin_write; ExecuteCommand turns this
// into a Duplicate response rather than a failure.
var errDuplicateInTxn = ordererr.New(ordererr.DuplicateCommand)

// ExecuteCommand runs the full three-phase pipeline for cmd: an async,
// lock-free prefetch, a short single-writer transaction, and a best-effort
// async post-action. It never panics; every failure mode is folded into the
// returned CommandResponse.
func (m *Manager) ExecuteCommand(ctx context.Context, cmd *model.OrderCommand) *model.CommandResponse {
	orderId, isOpen := m.targetOrderId(cmd)
	if !isOpen && orderId == "" {
		return errResponse(cmd, ordererr.Newf(ordererr.InvalidRequest, "manager: command requires an order_id"))
	}

	if processed, err := m.store.IsCommandProcessed(cmd.CommandId); err != nil {
		return errResponse(cmd, ordererr.Wrap(ordererr.DatabaseError, err))
	} else if processed {
		existingOrderId, err := m.store.ProcessedCommandOrderId(cmd.CommandId)
		if err != nil {
			return errResponse(cmd, ordererr.Wrap(ordererr.DatabaseError, err))
		}
		return &model.CommandResponse{CommandId: cmd.CommandId, Success: true, Duplicate: true, OrderId: existingOrderId}
	}

	openPayload, _ := cmd.Payload.(model.OpenTablePayload)
	if isOpen && openPayload.TableId != "" {
		occupant, err := m.store.FindActiveOrderForTable(openPayload.TableId)
		if err != nil {
			return errResponse(cmd, ordererr.Wrap(ordererr.DatabaseError, err))
		}
		if occupant != "" {
			return errResponse(cmd, ordererr.New(ordererr.TableOccupied))
		}
	}

	var existingMemberId string
	if !isOpen {
		existing, err := m.store.GetSnapshot(orderId)
		if err != nil {
			return errResponse(cmd, ordererr.Wrap(ordererr.DatabaseError, err))
		}
		if existing != nil {
			existingMemberId = existing.MemberId
		}
	}

	pf, err := m.runPhaseA(ctx, cmd, existingMemberId)
	if err != nil {
		return errResponse(cmd, err)
	}

	events, err := m.runPhaseB(cmd, orderId, isOpen, openPayload, pf)
	if err != nil {
		if ordererr.CodeOf(err) == ordererr.DuplicateCommand {
			existingOrderId, lookupErr := m.store.ProcessedCommandOrderId(cmd.CommandId)
			if lookupErr != nil {
				return errResponse(cmd, ordererr.Wrap(ordererr.DatabaseError, lookupErr))
			}
			return &model.CommandResponse{CommandId: cmd.CommandId, Success: true, Duplicate: true, OrderId: existingOrderId}
		}
		return errResponse(cmd, err)
	}

	for _, evt := range events {
		m.hub.Publish(evt)
	}
	m.runPhaseC(orderId, events)

	return &model.CommandResponse{CommandId: cmd.CommandId, Success: true, OrderId: orderId, Events: events}
}

// targetOrderId resolves the order a command acts on. OpenTable is the only
// payload that mints a fresh id; every other command must already name one.
func (m *Manager) targetOrderId(cmd *model.OrderCommand) (orderId string, isOpen bool) {
	if _, ok := cmd.Payload.(model.OpenTablePayload); ok {
		return m.random.NewID(), true
	}
	return cmd.OrderId, false
}

func errResponse(cmd *model.OrderCommand, err error) *model.CommandResponse {
	return &model.CommandResponse{
		CommandId: cmd.CommandId,
		Success:   false,
		Error:     &model.ErrorInfo{Code: ordererr.CodeOf(err).String(), Message: err.Error()},
	}
}

// runPhaseB is the engine's single synchronous critical section: it opens the
// sole write transaction, re-validates everything Phase A could not
// guarantee under concurrency, runs the action, folds the resulting events
// through the reducer, and commits. Nothing here suspends on an async API;
// every external fact was already resolved onto pf.
func (m *Manager) runPhaseB(cmd *model.OrderCommand, orderId string, isOpen bool, openPayload model.OpenTablePayload, pf *prefetch) ([]*model.OrderEvent, error) {
	txn, err := m.store.BeginWrite()
	if err != nil {
		return nil, ordererr.Wrap(ordererr.DatabaseError, err)
	}
	committed := false
	defer func() {
		if !committed {
			txn.Rollback()
		}
	}()

	processed, err := txn.IsCommandProcessedTxn(cmd.CommandId)
	if err != nil {
		return nil, ordererr.Wrap(ordererr.DatabaseError, err)
	}
	if processed {
		return nil, errDuplicateInTxn
	}

	if isOpen && openPayload.TableId != "" {
		occupant, err := txn.FindActiveOrderForTableTxn(openPayload.TableId)
		if err != nil {
			return nil, ordererr.Wrap(ordererr.DatabaseError, err)
		}
		if occupant != "" {
			return nil, ordererr.New(ordererr.TableOccupied)
		}
	}

	// Re-read the current snapshot now that we hold the sole write lock, so
	// Phase A's unguarded read can never be used to fold an event onto a
	// state another writer has since moved past.
	var snap *model.OrderSnapshot
	if !isOpen {
		existing, err := m.store.GetSnapshot(orderId)
		if err != nil {
			return nil, ordererr.Wrap(ordererr.DatabaseError, err)
		}
		snap = existing.Clone()
	}

	now := collab.NowMillis(m.clock)
	cctx := &actions.CommandContext{
		OrderId:              orderId,
		Snapshot:             snap,
		Command:              cmd,
		Now:                  now,
		Rules:                pf.rules,
		ProductMeta:          pf.productMeta,
		ZoneName:             pf.zoneName,
		MarketingGroupId:     pf.marketingGroupId,
		MarketingRules:       pf.marketingRules,
		StampActivity:        pf.stampActivity,
		MergeSourceItems:     pf.mergeSourceItems,
		Clock:                m.clock,
		Random:               m.random,
	}

	action, err := m.actionFor(cmd.Payload.CommandType())
	if err != nil {
		return nil, err
	}
	events, err := action.Execute(cctx)
	if err != nil {
		return nil, err
	}

	if isOpen {
		if err := m.assignOpenTableNumbers(txn, now, openPayload, events); err != nil {
			return nil, err
		}
	}

	allEvents := events
	switch p := cmd.Payload.(type) {
	case model.SplitOrderPayload:
		sp, ok := events[0].Payload.(model.OrderSplitPayload)
		if ok {
			allEvents = append(allEvents, m.synthesizeSplitSibling(cctx, sp, now)...)
		}
	case model.MergeOrdersPayload:
		allEvents = append(allEvents, &model.OrderEvent{
			OrderId:      p.SourceOrderId,
			Timestamp:    now,
			OperatorId:   cmd.OperatorId,
			OperatorName: cmd.OperatorName,
			CommandId:    cmd.CommandId,
			Type:         model.EvtOrderMergedOut,
			Payload:      model.OrderMergedOutPayload{TargetOrderId: orderId},
		})
	case model.RemoveItemPayload:
		allEvents = append(allEvents, m.autoCancelStampRedemptions(cctx, p.InstanceId, removedQuantity(cctx.Snapshot, p.InstanceId, p.Quantity), now)...)
	case model.CompItemPayload:
		allEvents = append(allEvents, m.autoCancelStampRedemptions(cctx, p.InstanceId, removedQuantity(cctx.Snapshot, p.InstanceId, p.Quantity), now)...)
	}

	snapshots := map[string]*model.OrderSnapshot{}
	if snap != nil {
		snapshots[orderId] = snap
	}
	for _, evt := range allEvents {
		if _, ok := snapshots[evt.OrderId]; ok {
			continue
		}
		if evt.OrderId == orderId {
			continue // already seeded (possibly nil, for OpenTable) above
		}
		existing, err := m.store.GetSnapshot(evt.OrderId)
		if err != nil {
			return nil, ordererr.Wrap(ordererr.DatabaseError, err)
		}
		snapshots[evt.OrderId] = existing
	}

	for _, evt := range allEvents {
		seq, err := txn.IncrementSequence()
		if err != nil {
			return nil, ordererr.Wrap(ordererr.DatabaseError, err)
		}
		evt.Sequence = seq
		evt.EventId = m.random.NewID()

		next, err := reducer.Apply(snapshots[evt.OrderId], evt)
		if err != nil {
			return nil, err
		}
		snapshots[evt.OrderId] = next

		if err := txn.StoreEvent(evt); err != nil {
			return nil, ordererr.Wrap(ordererr.DatabaseError, err)
		}
	}

	for oid, s := range snapshots {
		if err := txn.StoreSnapshot(s); err != nil {
			return nil, ordererr.Wrap(ordererr.DatabaseError, err)
		}
		if s.Status.IsTerminal() {
			if err := txn.MarkOrderInactive(oid); err != nil {
				return nil, ordererr.Wrap(ordererr.DatabaseError, err)
			}
			if err := txn.QueueForArchive(oid, now); err != nil {
				return nil, ordererr.Wrap(ordererr.DatabaseError, err)
			}
		} else {
			if err := txn.MarkOrderActive(oid, s.TableId); err != nil {
				return nil, ordererr.Wrap(ordererr.DatabaseError, err)
			}
		}
	}

	if err := txn.MarkCommandProcessed(cmd.CommandId, orderId, now); err != nil {
		return nil, ordererr.Wrap(ordererr.DatabaseError, err)
	}
	if err := txn.Commit(); err != nil {
		return nil, ordererr.Wrap(ordererr.DatabaseError, err)
	}
	committed = true

	m.syncRuleCache(allEvents, snapshots)

	return allEvents, nil
}

// assignOpenTableNumbers allocates the receipt number (always) and queue
// number (counter-service orders without an assigned table) inside the write
// transaction, and stamps them onto the TableOpened event's payload. Doing
// this after begin_write means a rolled-back OpenTable wastes a counter
// value; the design tolerates the resulting small gaps.
func (m *Manager) assignOpenTableNumbers(txn writeCounterTxn, now int64, p model.OpenTablePayload, events []*model.OrderEvent) error {
	dateKey := businessDate(time.UnixMilli(now), m.location, m.cutoffHour)
	seq, err := txn.NextDailyCount(dateKey)
	if err != nil {
		return ordererr.Wrap(ordererr.DatabaseError, err)
	}
	receiptNumber := formatReceiptNumber(m.storeNumber, dateKey, seq)

	var queueNumber *int32
	if p.TableId == "" {
		qn, err := txn.NextQueueNumber(dateKey, randomQueueStart(m.random))
		if err != nil {
			return ordererr.Wrap(ordererr.DatabaseError, err)
		}
		queueNumber = &qn
	}

	for _, evt := range events {
		if tp, ok := evt.Payload.(model.TableOpenedPayload); ok {
			tp.ReceiptNumber = receiptNumber
			tp.QueueNumber = queueNumber
			evt.Payload = tp
		}
	}
	return nil
}

// writeCounterTxn is the slice of *storage.WriteTxn assignOpenTableNumbers needs.
type writeCounterTxn interface {
	NextDailyCount(businessDateKey string) (int64, error)
	NextQueueNumber(businessDateKey string, randomStart int32) (int32, error)
}

// randomQueueStart derives a queue-number reset value from a fresh random id
// rather than pulling in a dedicated PRNG dependency for one bounded integer.
func randomQueueStart(r collab.RandomSource) int32 {
	id := r.NewID()
	var n int32
	for i := 0; i < len(id) && i < 8; i++ {
		n = n*31 + int32(id[i])
	}
	if n < 0 {
		n = -n
	}
	return n % 1000
}

// synthesizeSplitSibling builds the new order's own TableOpened (+ ItemsAdded,
// when items moved) event pair. SplitOrder's action only emits the
// source-side event; the manager is responsible for giving the sibling order
// its own stream within the same write transaction.
func (m *Manager) synthesizeSplitSibling(parentCtx *actions.CommandContext, sp model.OrderSplitPayload, now int64) []*model.OrderEvent {
	parent := parentCtx.Snapshot
	cmd := parentCtx.Command

	var items []model.CartItemSnapshot
	for _, id := range sp.InstanceIds {
		if it := parent.FindItem(id); it != nil {
			clone := it.Clone()
			clone.UnpaidQuantity = clone.Quantity
			items = append(items, clone)
		}
	}

	opened := &model.OrderEvent{
		OrderId:      sp.NewOrderId,
		Timestamp:    now,
		OperatorId:   cmd.OperatorId,
		OperatorName: cmd.OperatorName,
		CommandId:    cmd.CommandId,
		Type:         model.EvtTableOpened,
		Payload: model.TableOpenedPayload{
			TableId:       sp.TableId,
			TableName:     sp.TableName,
			ZoneId:        parent.ZoneId,
			ZoneName:      parent.ZoneName,
			IsRetail:      parent.IsRetail,
			ReceiptNumber: sp.ReceiptNumber,
			Rules:         parentCtx.Rules,
		},
	}
	out := []*model.OrderEvent{opened}
	if len(items) > 0 {
		out = append(out, &model.OrderEvent{
			OrderId:      sp.NewOrderId,
			Timestamp:    now,
			OperatorId:   cmd.OperatorId,
			OperatorName: cmd.OperatorName,
			CommandId:    cmd.CommandId,
			Type:         model.EvtItemsAdded,
			Payload:      model.ItemsAddedPayload{Items: items},
		})
	}
	return out
}

func stringSliceContains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// removedQuantity resolves how many units a RemoveItem/CompItem command is
// about to take off instanceId: the requested quantity, or the item's full
// remaining quantity when the command omits one (a full removal/comp).
func removedQuantity(snapshot *model.OrderSnapshot, instanceId string, requested *int) int {
	if requested != nil {
		return *requested
	}
	if snapshot == nil {
		return 0
	}
	if item := snapshot.FindItem(instanceId); item != nil {
		return item.Quantity
	}
	return 0
}

// autoCancelStampRedemptions re-verifies every stamp redemption on the order
// against the item just removed or comped. A comp-existing redemption whose
// source item is the one touched always cancels. Any other redemption whose
// bonus came from this item's product loses removedQty units of that bonus;
// if current_stamps plus the remaining bonus falls below stamps_required, it
// cancels too.
func (m *Manager) autoCancelStampRedemptions(cctx *actions.CommandContext, instanceId string, removedQty int, now int64) []*model.OrderEvent {
	if cctx.Snapshot == nil {
		return nil
	}
	cmd := cctx.Command
	item := cctx.Snapshot.FindItem(instanceId)
	var out []*model.OrderEvent
	for _, r := range cctx.Snapshot.StampRedemptions {
		cancel := r.IsCompExisting && r.CompSourceInstanceId == instanceId
		if !cancel && item != nil && !item.IsComped && stringSliceContains(r.StampTargetProductIds, item.Id) {
			activity := model.StampActivityInfo{StampTargetProductIds: r.StampTargetProductIds}
			bonus := activity.QualifyingCount(cctx.Snapshot.Items) - removedQty
			if r.CurrentStamps+bonus < r.StampsRequired {
				cancel = true
			}
		}
		if cancel {
			out = append(out, &model.OrderEvent{
				OrderId:      cctx.OrderId,
				Timestamp:    now,
				OperatorId:   cmd.OperatorId,
				OperatorName: cmd.OperatorName,
				CommandId:    cmd.CommandId,
				Type:         model.EvtStampRedemptionCancelled,
				Payload:      model.StampRedemptionCancelledPayload{StampActivityId: r.StampActivityId},
			})
		}
	}
	return out
}

// syncRuleCache mirrors rule_snapshots for every order newly opened in this
// batch (OpenTable's own order, or a split's sibling) and evicts the cache
// for any order that became terminal, matching the startup-load cleanup in New.
func (m *Manager) syncRuleCache(events []*model.OrderEvent, snapshots map[string]*model.OrderSnapshot) {
	for _, evt := range events {
		if evt.Type != model.EvtTableOpened {
			continue
		}
		tp, ok := evt.Payload.(model.TableOpenedPayload)
		if !ok {
			continue
		}
		m.setRules(evt.OrderId, tp.Rules)
		if err := m.store.StoreRuleSnapshot(evt.OrderId, tp.Rules); err != nil {
			m.logger().Warnw("manager: store rule snapshot", "order_id", evt.OrderId, "error", err)
		}
	}
	for oid, s := range snapshots {
		if s.Status.IsTerminal() {
			m.forgetRules(oid)
			if err := m.store.RemoveRuleSnapshot(oid); err != nil {
				m.logger().Warnw("manager: remove rule snapshot", "order_id", oid, "error", err)
			}
		}
	}
}

// runPhaseC fires the engine's async best-effort post-actions: stamp
// accounting settlement on completion, and telling the archive pipeline an
// order reached a terminal state. Neither blocks the caller nor reverts the
// committed transaction on failure.
func (m *Manager) runPhaseC(orderId string, events []*model.OrderEvent) {
	completed, terminal := false, false
	for _, evt := range events {
		if evt.OrderId != orderId {
			continue
		}
		switch evt.Type {
		case model.EvtOrderCompleted:
			completed, terminal = true, true
		case model.EvtOrderVoided:
			terminal = true
		}
	}

	if completed {
		go m.settleStampAccounting(orderId)
	}

	if terminal && m.archive != nil {
		go func() {
			if err := m.archive.NotifyCompleted(context.Background(), orderId); err != nil {
				m.logger().Warnw("manager: archive notify failed", "order_id", orderId, "error", err)
			}
		}()
	}
}

// settleStampAccounting implements the Phase C half of loyalty stamps: add
// earned stamps by matching the completed order's items against every active
// stamp activity's targets, and consume stamps_required for each redemption
// recorded on the snapshot. It runs after commit, outside any write lock, and
// its failures are logged rather than reverting the order.
func (m *Manager) settleStampAccounting(orderId string) {
	if m.marketing == nil {
		return
	}
	snapshot, err := m.store.GetSnapshot(orderId)
	if err != nil || snapshot == nil || snapshot.MemberId == "" {
		if err != nil {
			m.logger().Warnw("manager: stamp settlement snapshot lookup failed", "order_id", orderId, "error", err)
		}
		return
	}

	ctx := context.Background()
	activities, err := m.marketing.ActiveStampActivities(ctx, snapshot.MarketingGroupId)
	if err != nil {
		m.logger().Warnw("manager: stamp settlement activity lookup failed", "order_id", orderId, "error", err)
		return
	}

	earned := make(map[string]int, len(activities))
	for _, activity := range activities {
		if n := activity.QualifyingCount(snapshot.Items); n > 0 {
			earned[activity.StampActivityId] = n
		}
	}

	consumed := make([]string, 0, len(snapshot.StampRedemptions))
	for _, r := range snapshot.StampRedemptions {
		consumed = append(consumed, r.StampActivityId)
	}

	if len(earned) == 0 && len(consumed) == 0 {
		return
	}
	if err := m.marketing.SettleStamps(ctx, snapshot.MemberId, earned, consumed); err != nil {
		m.logger().Warnw("manager: stamp settlement failed", "order_id", orderId, "member_id", snapshot.MemberId, "error", err)
	}
}
