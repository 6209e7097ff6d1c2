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

// Package storage is the engine's single-writer, durable event store: eight
// tables holding events, snapshots, the active-order index, the command
// idempotency set, counters, and the archive/dead-letter queues. Every value
// column is a JSON envelope so a future reader can reject a record written by
// a newer, incompatible schema rather than misinterpret it.
package storage

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the engine's sqlite database. A single sync.Mutex serializes
// BeginWrite so at most one write transaction is open at a time, matching
// the engine's single-writer model; readers use ordinary queries against the
// WAL, which hands them a consistent snapshot without blocking the writer.
type Store struct {
	db       *sql.DB
	writeMu  sync.Mutex
}

// Open creates or opens the sqlite database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: %s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			order_id TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			envelope TEXT NOT NULL,
			PRIMARY KEY (order_id, sequence)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_sequence ON events(sequence)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			order_id TEXT PRIMARY KEY,
			envelope TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS active_orders (
			order_id TEXT PRIMARY KEY,
			table_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_active_orders_table ON active_orders(table_id)`,

		`CREATE TABLE IF NOT EXISTS processed_commands (
			command_id TEXT PRIMARY KEY,
			order_id TEXT,
			processed_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS counters (
			name TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS pending_archive (
			order_id TEXT PRIMARY KEY,
			envelope TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS dead_letter (
			order_id TEXT PRIMARY KEY,
			envelope TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS rule_snapshots (
			order_id TEXT PRIMARY KEY,
			envelope TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// WriteTxn is a single in-flight write transaction. Only one may exist at a
// time per Store; BeginWrite blocks until the previous one commits or rolls back.
type WriteTxn struct {
	tx *sql.Tx
	s  *Store
}

// BeginWrite opens the sole write transaction, serialized against all other writers.
func (s *Store) BeginWrite() (*WriteTxn, error) {
	s.writeMu.Lock()
	tx, err := s.db.Begin()
	if err != nil {
		s.writeMu.Unlock()
		return nil, fmt.Errorf("storage: begin write: %w", err)
	}
	return &WriteTxn{tx: tx, s: s}, nil
}

// Commit durably applies the transaction. Sqlite's synchronous=FULL setting
// means this does not return until the write is fsynced.
func (w *WriteTxn) Commit() error {
	defer w.s.writeMu.Unlock()
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}

// Rollback discards the transaction's effects.
func (w *WriteTxn) Rollback() error {
	defer w.s.writeMu.Unlock()
	if err := w.tx.Rollback(); err != nil {
		return fmt.Errorf("storage: rollback: %w", err)
	}
	return nil
}
