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

// Package query is the engine's read surface (spec.md §4.7 / §6 inbound
// API): thin, non-blocking wrappers over *storage.Store plus RebuildSnapshot,
// which replays an order's full event history through the reducer from
// scratch. None of these methods take the store's write lock; sqlite's WAL
// mode gives them a consistent point-in-time view without blocking Phase B.
package query

import (
	"fmt"

	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/reducer"
	"github.com/posedge/order-engine/internal/storage"
)

// Surface bundles the read-only query methods the rest of the edge server
// calls. It holds no state beyond the storage handle.
type Surface struct {
	store *storage.Store
}

// New builds a Surface over store.
func New(store *storage.Store) *Surface {
	return &Surface{store: store}
}

// GetSnapshot returns the current persisted snapshot for orderId, or nil if
// no such order exists.
func (q *Surface) GetSnapshot(orderId string) (*model.OrderSnapshot, error) {
	return q.store.GetSnapshot(orderId)
}

// GetActiveOrders returns the snapshots of every order currently in the
// active_orders index.
func (q *Surface) GetActiveOrders() ([]*model.OrderSnapshot, error) {
	return q.store.GetActiveOrders()
}

// GetEventsForOrder returns every event recorded for orderId, in sequence
// order.
func (q *Surface) GetEventsForOrder(orderId string) ([]*model.OrderEvent, error) {
	return q.store.GetEventsForOrder(orderId)
}

// GetEventsSince returns every event in the store with sequence > since, in
// sequence order, across all orders (archived orders included since their
// events are physically removed only on archive completion).
func (q *Surface) GetEventsSince(since uint64) ([]*model.OrderEvent, error) {
	return q.store.GetEventsSince(since)
}

// GetActiveEventsSince returns every event with sequence > since belonging
// to an order that is currently active.
func (q *Surface) GetActiveEventsSince(since uint64) ([]*model.OrderEvent, error) {
	return q.store.GetActiveEventsSince(since)
}

// RebuildSnapshot replays every persisted event for orderId through the
// reducer from scratch. The result must equal the live snapshot
// byte-for-byte for any order whose full history is still in the store;
// callers use this as the property-based rebuild-equals-live check.
func (q *Surface) RebuildSnapshot(orderId string) (*model.OrderSnapshot, error) {
	events, err := q.store.GetEventsForOrder(orderId)
	if err != nil {
		return nil, fmt.Errorf("query: rebuild %s: %w", orderId, err)
	}
	if len(events) == 0 {
		return nil, nil
	}
	return reducer.Replay(events)
}

// GetPendingArchives returns orders queued for the external archiver.
func (q *Surface) GetPendingArchives() ([]storage.PendingArchive, error) {
	return q.store.GetPendingArchives()
}

// GetDeadLetters returns orders whose archive attempts exhausted retries.
func (q *Surface) GetDeadLetters() ([]storage.DeadLetterEntry, error) {
	return q.store.GetDeadLetters()
}

// RecoverDeadLetters re-queues every dead-lettered order for another archive
// attempt and returns how many were recovered.
func (q *Surface) RecoverDeadLetters(now int64) (int, error) {
	return q.store.RecoverDeadLetters(now)
}
