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

const sequenceCounterName = "global_sequence"
const queueNumberCounterName = "queue_number"
const queueDateCounterName = "queue_date"

func getCounter(q interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}, name string) (int64, error) {
	var v int64
	err := q.QueryRow(`SELECT value FROM counters WHERE name = ?`, name).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("storage: get counter %s: %w", name, err)
	}
	return v, nil
}

func setCounter(e interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}, name string, value int64) error {
	_, err := e.Exec(
		`INSERT INTO counters (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("storage: set counter %s: %w", name, err)
	}
	return nil
}

// GetCurrentSequence returns the last allocated global event sequence without incrementing it.
func (s *Store) GetCurrentSequence() (uint64, error) {
	v, err := getCounter(s.db, sequenceCounterName)
	return uint64(v), err
}

// IncrementSequence allocates and returns the next global event sequence within txn.
func (w *WriteTxn) IncrementSequence() (uint64, error) {
	current, err := getCounter(w.tx, sequenceCounterName)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := setCounter(w.tx, sequenceCounterName, next); err != nil {
		return 0, err
	}
	return uint64(next), nil
}

// SetSequence forces the global sequence counter to at least value, used
// after a batch of events is persisted to record the highest sequence emitted.
func (w *WriteTxn) SetSequence(value uint64) error {
	current, err := getCounter(w.tx, sequenceCounterName)
	if err != nil {
		return err
	}
	if int64(value) <= current {
		return nil
	}
	return setCounter(w.tx, sequenceCounterName, int64(value))
}

// NextDailyCount increments and returns the receipt sequence for businessDateKey
// (e.g. "20260226"), a day-scoped counter distinct per business day.
func (w *WriteTxn) NextDailyCount(businessDateKey string) (int64, error) {
	name := "order_count:" + businessDateKey
	current, err := getCounter(w.tx, name)
	if err != nil {
		return 0, err
	}
	next := current + 1
	if err := setCounter(w.tx, name, next); err != nil {
		return 0, err
	}
	return next, nil
}

// NextQueueNumber returns the next retail queue number for businessDateKey,
// resetting to a caller-supplied random start on the first call of a new day
// and wrapping modulo 1000 thereafter.
func (w *WriteTxn) NextQueueNumber(businessDateKey string, randomStart int32) (int32, error) {
	storedDate, err := getCounter(w.tx, queueDateCounterName)
	if err != nil {
		return 0, err
	}
	var dateKeyNum int64
	fmt.Sscanf(businessDateKey, "%d", &dateKeyNum)

	if storedDate != dateKeyNum {
		if err := setCounter(w.tx, queueDateCounterName, dateKeyNum); err != nil {
			return 0, err
		}
		if err := setCounter(w.tx, queueNumberCounterName, int64(randomStart)); err != nil {
			return 0, err
		}
		return randomStart, nil
	}

	current, err := getCounter(w.tx, queueNumberCounterName)
	if err != nil {
		return 0, err
	}
	next := (current + 1) % 1000
	if err := setCounter(w.tx, queueNumberCounterName, next); err != nil {
		return 0, err
	}
	return int32(next), nil
}
