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

// StoreRuleSnapshot persists the PriceRule set captured for orderId at
// open-table time, so later repricing is stable against catalog edits.
func (s *Store) StoreRuleSnapshot(orderId string, rules []model.PriceRule) error {
	envelope, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("storage: marshal rule snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO rule_snapshots (order_id, envelope) VALUES (?, ?)
		 ON CONFLICT(order_id) DO UPDATE SET envelope = excluded.envelope`,
		orderId, string(envelope),
	)
	if err != nil {
		return fmt.Errorf("storage: store rule snapshot: %w", err)
	}
	return nil
}

// GetRuleSnapshot returns the PriceRule set captured for orderId, or nil if none exists.
func (s *Store) GetRuleSnapshot(orderId string) ([]model.PriceRule, error) {
	var envelope string
	err := s.db.QueryRow(`SELECT envelope FROM rule_snapshots WHERE order_id = ?`, orderId).Scan(&envelope)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get rule snapshot: %w", err)
	}
	var rules []model.PriceRule
	if err := json.Unmarshal([]byte(envelope), &rules); err != nil {
		return nil, fmt.Errorf("storage: unmarshal rule snapshot: %w", err)
	}
	return rules, nil
}

// RemoveRuleSnapshot deletes the persisted rule set for orderId.
func (s *Store) RemoveRuleSnapshot(orderId string) error {
	if _, err := s.db.Exec(`DELETE FROM rule_snapshots WHERE order_id = ?`, orderId); err != nil {
		return fmt.Errorf("storage: remove rule snapshot: %w", err)
	}
	return nil
}

// RuleSnapshotEntry pairs an order id with its captured rule set, for
// rehydrating the manager's in-memory rule cache on startup.
type RuleSnapshotEntry struct {
	OrderId string
	Rules   []model.PriceRule
}

// GetAllRuleSnapshots returns every persisted rule snapshot.
func (s *Store) GetAllRuleSnapshots() ([]RuleSnapshotEntry, error) {
	rows, err := s.db.Query(`SELECT order_id, envelope FROM rule_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("storage: get all rule snapshots: %w", err)
	}
	defer rows.Close()

	var out []RuleSnapshotEntry
	for rows.Next() {
		var orderId, envelope string
		if err := rows.Scan(&orderId, &envelope); err != nil {
			return nil, fmt.Errorf("storage: scan rule snapshot: %w", err)
		}
		var rules []model.PriceRule
		if err := json.Unmarshal([]byte(envelope), &rules); err != nil {
			return nil, fmt.Errorf("storage: unmarshal rule snapshot: %w", err)
		}
		out = append(out, RuleSnapshotEntry{OrderId: orderId, Rules: rules})
	}
	return out, rows.Err()
}
