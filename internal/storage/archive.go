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
)

// PendingArchive is a queue entry for an order awaiting upload to the
// external archive pipeline (outside this core).
type PendingArchive struct {
	OrderId    string `json:"order_id"`
	CreatedAt  int64  `json:"created_at"`
	RetryCount uint32 `json:"retry_count"`
	LastError  string `json:"last_error,omitempty"`
}

// DeadLetterEntry is an order whose archive attempts were exhausted.
type DeadLetterEntry struct {
	OrderId    string `json:"order_id"`
	CreatedAt  int64  `json:"created_at"`
	FailedAt   int64  `json:"failed_at"`
	RetryCount uint32 `json:"retry_count"`
	LastError  string `json:"last_error"`
}

const maxArchiveRetries = 5

// QueueForArchive marks orderId eligible for archival, run within the same
// transaction as the terminal-status transition that produced it.
func (w *WriteTxn) QueueForArchive(orderId string, now int64) error {
	pending := PendingArchive{OrderId: orderId, CreatedAt: now}
	envelope, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("storage: marshal pending archive: %w", err)
	}
	_, err = w.tx.Exec(
		`INSERT INTO pending_archive (order_id, envelope) VALUES (?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET envelope = excluded.envelope`,
		orderId, string(envelope),
	)
	if err != nil {
		return fmt.Errorf("storage: queue for archive: %w", err)
	}
	return nil
}

// GetPendingArchives returns every order awaiting archival.
func (s *Store) GetPendingArchives() ([]PendingArchive, error) {
	rows, err := s.db.Query(`SELECT envelope FROM pending_archive`)
	if err != nil {
		return nil, fmt.Errorf("storage: get pending archives: %w", err)
	}
	defer rows.Close()

	var out []PendingArchive
	for rows.Next() {
		var envelope string
		if err := rows.Scan(&envelope); err != nil {
			return nil, fmt.Errorf("storage: scan pending archive: %w", err)
		}
		var p PendingArchive
		if err := json.Unmarshal([]byte(envelope), &p); err != nil {
			return nil, fmt.Errorf("storage: unmarshal pending archive: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CompleteArchive atomically removes the order's snapshot, events, rule
// snapshot, and pending-archive entry once the external archive pipeline
// confirms receipt.
func (s *Store) CompleteArchive(orderId string) error {
	txn, err := s.BeginWrite()
	if err != nil {
		return err
	}
	if err := txn.RemoveSnapshot(orderId); err != nil {
		txn.Rollback()
		return err
	}
	if err := txn.RemoveEventsForOrder(orderId); err != nil {
		txn.Rollback()
		return err
	}
	if _, err := txn.tx.Exec(`DELETE FROM pending_archive WHERE order_id = ?`, orderId); err != nil {
		txn.Rollback()
		return fmt.Errorf("storage: remove pending archive: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	return s.RemoveRuleSnapshot(orderId)
}

// MarkArchiveFailed records a failed archive attempt, incrementing the
// pending entry's retry count and moving it to the dead letter queue once
// maxArchiveRetries is exceeded.
func (s *Store) MarkArchiveFailed(orderId, archiveErr string, now int64) error {
	var envelope string
	err := s.db.QueryRow(`SELECT envelope FROM pending_archive WHERE order_id = ?`, orderId).Scan(&envelope)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: mark archive failed: %w", err)
	}
	var pending PendingArchive
	if err := json.Unmarshal([]byte(envelope), &pending); err != nil {
		return fmt.Errorf("storage: unmarshal pending archive: %w", err)
	}
	pending.RetryCount++
	pending.LastError = archiveErr

	if pending.RetryCount > maxArchiveRetries {
		return s.MoveToDeadLetter(orderId, archiveErr, pending, now)
	}

	updated, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("storage: marshal pending archive: %w", err)
	}
	_, err = s.db.Exec(`UPDATE pending_archive SET envelope = ? WHERE order_id = ?`, string(updated), orderId)
	if err != nil {
		return fmt.Errorf("storage: update pending archive: %w", err)
	}
	return nil
}

// MoveToDeadLetter permanently fails an archive attempt, recording it for manual recovery.
func (s *Store) MoveToDeadLetter(orderId, archiveErr string, pending PendingArchive, now int64) error {
	entry := DeadLetterEntry{
		OrderId: orderId, CreatedAt: pending.CreatedAt, FailedAt: now,
		RetryCount: pending.RetryCount, LastError: archiveErr,
	}
	envelope, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("storage: marshal dead letter entry: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: move to dead letter: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO dead_letter (order_id, envelope) VALUES (?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET envelope = excluded.envelope`,
		orderId, string(envelope),
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("storage: insert dead letter: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM pending_archive WHERE order_id = ?`, orderId); err != nil {
		tx.Rollback()
		return fmt.Errorf("storage: remove pending archive: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit move to dead letter: %w", err)
	}
	return nil
}

// GetDeadLetters returns every permanently failed archive.
func (s *Store) GetDeadLetters() ([]DeadLetterEntry, error) {
	rows, err := s.db.Query(`SELECT envelope FROM dead_letter`)
	if err != nil {
		return nil, fmt.Errorf("storage: get dead letters: %w", err)
	}
	defer rows.Close()

	var out []DeadLetterEntry
	for rows.Next() {
		var envelope string
		if err := rows.Scan(&envelope); err != nil {
			return nil, fmt.Errorf("storage: scan dead letter: %w", err)
		}
		var e DeadLetterEntry
		if err := json.Unmarshal([]byte(envelope), &e); err != nil {
			return nil, fmt.Errorf("storage: unmarshal dead letter: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RemoveFromDeadLetter deletes orderId's dead letter entry, typically after manual review.
func (s *Store) RemoveFromDeadLetter(orderId string) error {
	if _, err := s.db.Exec(`DELETE FROM dead_letter WHERE order_id = ?`, orderId); err != nil {
		return fmt.Errorf("storage: remove from dead letter: %w", err)
	}
	return nil
}

// RecoverDeadLetters re-queues every dead-letter entry for another archive
// attempt, resetting its retry count, and returns how many were recovered.
func (s *Store) RecoverDeadLetters(now int64) (int, error) {
	entries, err := s.GetDeadLetters()
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, e := range entries {
		pending := PendingArchive{OrderId: e.OrderId, CreatedAt: e.CreatedAt}
		envelope, err := json.Marshal(pending)
		if err != nil {
			return recovered, fmt.Errorf("storage: marshal pending archive: %w", err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return recovered, fmt.Errorf("storage: recover dead letters: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO pending_archive (order_id, envelope) VALUES (?, ?)
			 ON CONFLICT(order_id) DO UPDATE SET envelope = excluded.envelope`,
			e.OrderId, string(envelope),
		); err != nil {
			tx.Rollback()
			return recovered, fmt.Errorf("storage: re-queue pending archive: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM dead_letter WHERE order_id = ?`, e.OrderId); err != nil {
			tx.Rollback()
			return recovered, fmt.Errorf("storage: remove dead letter: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return recovered, fmt.Errorf("storage: commit recover dead letter: %w", err)
		}
		recovered++
	}
	return recovered, nil
}
