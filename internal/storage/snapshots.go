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

// StoreSnapshot upserts the current derived state of one order.
func (w *WriteTxn) StoreSnapshot(s *model.OrderSnapshot) error {
	envelope, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("storage: marshal snapshot: %w", err)
	}
	_, err = w.tx.Exec(
		`INSERT INTO snapshots (order_id, envelope) VALUES (?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET envelope = excluded.envelope`,
		s.OrderId, string(envelope),
	)
	if err != nil {
		return fmt.Errorf("storage: store snapshot: %w", err)
	}
	return nil
}

func scanSnapshot(row *sql.Row) (*model.OrderSnapshot, error) {
	var envelope string
	if err := row.Scan(&envelope); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: scan snapshot: %w", err)
	}
	var s model.OrderSnapshot
	if err := json.Unmarshal([]byte(envelope), &s); err != nil {
		return nil, fmt.Errorf("storage: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// GetSnapshot returns the current snapshot for orderId, or nil if none exists.
func (s *Store) GetSnapshot(orderId string) (*model.OrderSnapshot, error) {
	row := s.db.QueryRow(`SELECT envelope FROM snapshots WHERE order_id = ?`, orderId)
	return scanSnapshot(row)
}

// GetAllSnapshots returns every persisted snapshot, active or terminal.
func (s *Store) GetAllSnapshots() ([]*model.OrderSnapshot, error) {
	rows, err := s.db.Query(`SELECT envelope FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("storage: get all snapshots: %w", err)
	}
	defer rows.Close()

	var out []*model.OrderSnapshot
	for rows.Next() {
		var envelope string
		if err := rows.Scan(&envelope); err != nil {
			return nil, fmt.Errorf("storage: scan snapshot: %w", err)
		}
		var snap model.OrderSnapshot
		if err := json.Unmarshal([]byte(envelope), &snap); err != nil {
			return nil, fmt.Errorf("storage: unmarshal snapshot: %w", err)
		}
		out = append(out, &snap)
	}
	return out, rows.Err()
}

// RemoveSnapshot deletes the persisted snapshot for orderId.
func (w *WriteTxn) RemoveSnapshot(orderId string) error {
	if _, err := w.tx.Exec(`DELETE FROM snapshots WHERE order_id = ?`, orderId); err != nil {
		return fmt.Errorf("storage: remove snapshot: %w", err)
	}
	return nil
}
