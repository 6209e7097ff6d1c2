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
	"path/filepath"
	"testing"

	"github.com/posedge/order-engine/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreEventAndRetrieve(t *testing.T) {
	s := openTestStore(t)

	evt := &model.OrderEvent{
		Sequence: 1, OrderId: "order-1", Type: model.EvtTableOpened,
		Payload: model.TableOpenedPayload{TableId: "t1", ReceiptNumber: "R-0001"},
	}

	txn, err := s.BeginWrite()
	if err != nil {
		t.Fatalf("begin write: %v", err)
	}
	if err := txn.StoreEvent(evt); err != nil {
		t.Fatalf("store event: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	events, err := s.GetEventsForOrder("order-1")
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	payload, ok := events[0].Payload.(model.TableOpenedPayload)
	if !ok {
		t.Fatalf("expected TableOpenedPayload, got %T", events[0].Payload)
	}
	if payload.TableId != "t1" {
		t.Errorf("expected table id t1, got %s", payload.TableId)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)

	snap := &model.OrderSnapshot{OrderId: "order-1", Status: model.OrderStatusActive}

	txn, _ := s.BeginWrite()
	if err := txn.StoreSnapshot(snap); err != nil {
		t.Fatalf("store snapshot: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := s.GetSnapshot("order-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if got == nil || got.OrderId != "order-1" {
		t.Fatalf("expected snapshot for order-1, got %+v", got)
	}

	missing, err := s.GetSnapshot("nonexistent")
	if err != nil {
		t.Fatalf("get missing snapshot: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for nonexistent order, got %+v", missing)
	}
}

func TestCommandIdempotency(t *testing.T) {
	s := openTestStore(t)

	processed, err := s.IsCommandProcessed("cmd-1")
	if err != nil || processed {
		t.Fatalf("expected unprocessed command, err=%v processed=%v", err, processed)
	}

	txn, _ := s.BeginWrite()
	if err := txn.MarkCommandProcessed("cmd-1", "order-1", 1000); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	processed, err = s.IsCommandProcessed("cmd-1")
	if err != nil || !processed {
		t.Fatalf("expected processed command, err=%v processed=%v", err, processed)
	}
}

func TestNextDailyCountIsIndependentPerDay(t *testing.T) {
	s := openTestStore(t)

	txn, _ := s.BeginWrite()
	first, err := txn.NextDailyCount("20260226")
	if err != nil {
		t.Fatalf("next daily count: %v", err)
	}
	second, err := txn.NextDailyCount("20260226")
	if err != nil {
		t.Fatalf("next daily count: %v", err)
	}
	otherDay, err := txn.NextDailyCount("20260227")
	if err != nil {
		t.Fatalf("next daily count: %v", err)
	}
	txn.Commit()

	if first != 1 || second != 2 {
		t.Errorf("expected sequential counts 1, 2, got %d, %d", first, second)
	}
	if otherDay != 1 {
		t.Errorf("expected a fresh counter for a new business day, got %d", otherDay)
	}
}

func TestActiveOrderIndex(t *testing.T) {
	s := openTestStore(t)

	txn, _ := s.BeginWrite()
	if err := txn.MarkOrderActive("order-1", "table-1"); err != nil {
		t.Fatalf("mark active: %v", err)
	}
	txn.Commit()

	active, err := s.IsOrderActive("order-1")
	if err != nil || !active {
		t.Fatalf("expected order-1 active, err=%v active=%v", err, active)
	}

	occupant, err := s.FindActiveOrderForTable("table-1")
	if err != nil || occupant != "order-1" {
		t.Fatalf("expected order-1 to occupy table-1, got %q err=%v", occupant, err)
	}

	txn, _ = s.BeginWrite()
	txn.MarkOrderInactive("order-1")
	txn.Commit()

	active, err = s.IsOrderActive("order-1")
	if err != nil || active {
		t.Fatalf("expected order-1 inactive after removal, err=%v active=%v", err, active)
	}
}

func TestArchiveLifecycle(t *testing.T) {
	s := openTestStore(t)

	txn, _ := s.BeginWrite()
	snap := &model.OrderSnapshot{OrderId: "order-1", Status: model.OrderStatusCompleted}
	txn.StoreSnapshot(snap)
	txn.StoreEvent(&model.OrderEvent{
		Sequence: 1, OrderId: "order-1", Type: model.EvtTableOpened,
		Payload: model.TableOpenedPayload{},
	})
	if err := txn.QueueForArchive("order-1", 1000); err != nil {
		t.Fatalf("queue for archive: %v", err)
	}
	txn.Commit()

	pending, err := s.GetPendingArchives()
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected 1 pending archive, got %d, err=%v", len(pending), err)
	}

	if err := s.CompleteArchive("order-1"); err != nil {
		t.Fatalf("complete archive: %v", err)
	}

	got, _ := s.GetSnapshot("order-1")
	if got != nil {
		t.Errorf("expected snapshot removed after archive completion, got %+v", got)
	}
	events, _ := s.GetEventsForOrder("order-1")
	if len(events) != 0 {
		t.Errorf("expected events removed after archive completion, got %d", len(events))
	}
	pending, _ = s.GetPendingArchives()
	if len(pending) != 0 {
		t.Errorf("expected pending archive cleared, got %d", len(pending))
	}
}

func TestMoveToDeadLetterAfterRetriesExhausted(t *testing.T) {
	s := openTestStore(t)

	txn, _ := s.BeginWrite()
	txn.StoreSnapshot(&model.OrderSnapshot{OrderId: "order-1"})
	txn.QueueForArchive("order-1", 1000)
	txn.Commit()

	for i := 0; i < maxArchiveRetries+1; i++ {
		if err := s.MarkArchiveFailed("order-1", "upload failed", 1000+int64(i)); err != nil {
			t.Fatalf("mark archive failed: %v", err)
		}
	}

	deadLetters, err := s.GetDeadLetters()
	if err != nil {
		t.Fatalf("get dead letters: %v", err)
	}
	if len(deadLetters) != 1 {
		t.Fatalf("expected order moved to dead letter queue, got %d entries", len(deadLetters))
	}

	pending, _ := s.GetPendingArchives()
	if len(pending) != 0 {
		t.Errorf("expected pending archive cleared after move to dead letter, got %d", len(pending))
	}
}
