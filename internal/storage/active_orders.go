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
	"fmt"

	"github.com/posedge/order-engine/internal/model"
)

// MarkOrderActive records orderId (with its table, if any) in the active index.
func (w *WriteTxn) MarkOrderActive(orderId, tableId string) error {
	_, err := w.tx.Exec(
		`INSERT INTO active_orders (order_id, table_id) VALUES (?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET table_id = excluded.table_id`,
		orderId, tableId,
	)
	if err != nil {
		return fmt.Errorf("storage: mark order active: %w", err)
	}
	return nil
}

// MarkOrderInactive removes orderId from the active index, typically on a terminal transition.
func (w *WriteTxn) MarkOrderInactive(orderId string) error {
	if _, err := w.tx.Exec(`DELETE FROM active_orders WHERE order_id = ?`, orderId); err != nil {
		return fmt.Errorf("storage: mark order inactive: %w", err)
	}
	return nil
}

// IsOrderActive reports whether orderId currently appears in the active index.
func (s *Store) IsOrderActive(orderId string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM active_orders WHERE order_id = ?`, orderId).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("storage: is order active: %w", err)
	}
	return count > 0, nil
}

// GetActiveOrderIds returns the order ids of every currently active order.
func (s *Store) GetActiveOrderIds() ([]string, error) {
	rows, err := s.db.Query(`SELECT order_id FROM active_orders`)
	if err != nil {
		return nil, fmt.Errorf("storage: get active order ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: scan active order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetActiveOrders returns the full snapshot of every currently active order.
func (s *Store) GetActiveOrders() ([]*model.OrderSnapshot, error) {
	rows, err := s.db.Query(
		`SELECT s.envelope FROM snapshots s JOIN active_orders a ON a.order_id = s.order_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: get active orders: %w", err)
	}
	defer rows.Close()

	var out []*model.OrderSnapshot
	for rows.Next() {
		var envelope string
		if err := rows.Scan(&envelope); err != nil {
			return nil, fmt.Errorf("storage: scan active order: %w", err)
		}
		var snap model.OrderSnapshot
		if err := unmarshalJSON(envelope, &snap); err != nil {
			return nil, err
		}
		out = append(out, &snap)
	}
	return out, rows.Err()
}

// FindActiveOrderForTable returns the order id of the active order occupying
// tableId, if any, for the pre-transaction occupancy check OpenTable requires.
func (s *Store) FindActiveOrderForTable(tableId string) (string, error) {
	var orderId string
	err := s.db.QueryRow(`SELECT order_id FROM active_orders WHERE table_id = ?`, tableId).Scan(&orderId)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: find active order for table: %w", err)
	}
	return orderId, nil
}

// FindActiveOrderForTableTxn is the in-transaction re-check variant, reading
// through the same *sql.Tx that will hold the write lock that settles the race.
func (w *WriteTxn) FindActiveOrderForTableTxn(tableId string) (string, error) {
	var orderId string
	err := w.tx.QueryRow(`SELECT order_id FROM active_orders WHERE table_id = ?`, tableId).Scan(&orderId)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: find active order for table (txn): %w", err)
	}
	return orderId, nil
}
