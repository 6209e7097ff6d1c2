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

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/posedge/order-engine/internal/model"
)

// StoreEvent appends one event to the order's stream within txn.
func (w *WriteTxn) StoreEvent(evt *model.OrderEvent) error {
	envelope, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("storage: marshal event: %w", err)
	}
	_, err = w.tx.Exec(
		`INSERT INTO events (order_id, sequence, envelope) VALUES (?, ?, ?)`,
		evt.OrderId, evt.Sequence, string(envelope),
	)
	if err != nil {
		return fmt.Errorf("storage: store event: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]*model.OrderEvent, error) {
	defer rows.Close()
	var events []*model.OrderEvent
	for rows.Next() {
		var envelope string
		if err := rows.Scan(&envelope); err != nil {
			return nil, fmt.Errorf("storage: scan event: %w", err)
		}
		var evt model.OrderEvent
		if err := json.Unmarshal([]byte(envelope), &evt); err != nil {
			return nil, fmt.Errorf("storage: unmarshal event: %w", err)
		}
		events = append(events, &evt)
	}
	return events, rows.Err()
}

// GetEventsForOrder returns every event recorded for orderId, in sequence order.
func (s *Store) GetEventsForOrder(orderId string) ([]*model.OrderEvent, error) {
	rows, err := s.db.Query(
		`SELECT envelope FROM events WHERE order_id = ? ORDER BY sequence ASC`, orderId,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get events for order: %w", err)
	}
	return scanEvents(rows)
}

// GetEventsSince returns every event with sequence > since, across all orders, in sequence order.
func (s *Store) GetEventsSince(since uint64) ([]*model.OrderEvent, error) {
	rows, err := s.db.Query(
		`SELECT envelope FROM events WHERE sequence > ? ORDER BY sequence ASC`, since,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get events since: %w", err)
	}
	return scanEvents(rows)
}

// GetActiveEventsSince returns every event with sequence > since belonging to
// a currently active order, in sequence order.
func (s *Store) GetActiveEventsSince(since uint64) ([]*model.OrderEvent, error) {
	rows, err := s.db.Query(
		`SELECT e.envelope FROM events e
		 JOIN active_orders a ON a.order_id = e.order_id
		 WHERE e.sequence > ? ORDER BY e.sequence ASC`, since,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get active events since: %w", err)
	}
	return scanEvents(rows)
}

// RemoveEventsForOrder deletes every event recorded for orderId, used when an
// order's archive completes.
func (w *WriteTxn) RemoveEventsForOrder(orderId string) error {
	if _, err := w.tx.Exec(`DELETE FROM events WHERE order_id = ?`, orderId); err != nil {
		return fmt.Errorf("storage: remove events for order: %w", err)
	}
	return nil
}
