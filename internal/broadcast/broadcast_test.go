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

package broadcast

import (
	"testing"
	"time"

	"github.com/posedge/order-engine/internal/model"
)

func TestSubscribeAndPublish(t *testing.T) {
	hub := New(8)
	recv := hub.Subscribe()
	defer recv.Close()

	evt := &model.OrderEvent{Sequence: 1, OrderId: "order-1"}
	hub.Publish(evt)

	select {
	case got := <-recv.Events:
		if got.OrderId != "order-1" {
			t.Errorf("expected order-1, got %s", got.OrderId)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestMultipleSubscribersEachGetEvent(t *testing.T) {
	hub := New(8)
	a := hub.Subscribe()
	b := hub.Subscribe()
	defer a.Close()
	defer b.Close()

	hub.Publish(&model.OrderEvent{Sequence: 1, OrderId: "order-1"})

	for _, r := range []*EventReceiver{a, b} {
		select {
		case <-r.Events:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for published event")
		}
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	hub := New(2)
	recv := hub.Subscribe()
	defer recv.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(&model.OrderEvent{Sequence: uint64(i), OrderId: "order-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	select {
	case <-recv.Lagged:
	default:
		t.Error("expected a lag notification after overrunning the buffer")
	}
}

func TestCloseUnregistersSubscriber(t *testing.T) {
	hub := New(8)
	recv := hub.Subscribe()
	if hub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount())
	}
	recv.Close()
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", hub.SubscriberCount())
	}
}

func TestSubscribeAfterPublishMissesPriorEvents(t *testing.T) {
	hub := New(8)
	hub.Publish(&model.OrderEvent{Sequence: 1, OrderId: "order-1"})

	recv := hub.Subscribe()
	defer recv.Close()

	select {
	case evt := <-recv.Events:
		t.Fatalf("expected no backlog delivery, got %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}
