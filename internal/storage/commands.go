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
)

// IsCommandProcessed is the lock-free pre-check the manager runs before
// opening a write transaction.
func (s *Store) IsCommandProcessed(commandId string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM processed_commands WHERE command_id = ?`, commandId).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("storage: is command processed: %w", err)
	}
	return count > 0, nil
}

// IsCommandProcessedTxn is the in-transaction re-check, closing the race
// window between the pre-check and the write lock being acquired.
func (w *WriteTxn) IsCommandProcessedTxn(commandId string) (bool, error) {
	var count int
	err := w.tx.QueryRow(`SELECT COUNT(1) FROM processed_commands WHERE command_id = ?`, commandId).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("storage: is command processed (txn): %w", err)
	}
	return count > 0, nil
}

// MarkCommandProcessed records commandId as processed for orderId, so a
// retried send of the same command short-circuits to a duplicate response.
func (w *WriteTxn) MarkCommandProcessed(commandId, orderId string, processedAt int64) error {
	_, err := w.tx.Exec(
		`INSERT INTO processed_commands (command_id, order_id, processed_at) VALUES (?, ?, ?)`,
		commandId, orderId, processedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: mark command processed: %w", err)
	}
	return nil
}

// ProcessedCommandOrderId returns the order id a previously processed command
// targeted, used to build the duplicate-command response.
func (s *Store) ProcessedCommandOrderId(commandId string) (string, error) {
	var orderId sql.NullString
	err := s.db.QueryRow(`SELECT order_id FROM processed_commands WHERE command_id = ?`, commandId).Scan(&orderId)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: processed command order id: %w", err)
	}
	return orderId.String, nil
}
