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

// Package broadcast fans committed order events out to any number of
// subscribers without letting a slow reader block the writer.
package broadcast

import (
	"sync"

	"github.com/posedge/order-engine/internal/model"
)

// EventReceiver is a subscriber's view of the event stream. Lagged reports
// how many events were dropped because the subscriber fell behind; a
// subscriber that sees a nonzero Lagged count must resync via the query
// surface before trusting further events.
type EventReceiver struct {
	Events <-chan *model.OrderEvent
	Lagged <-chan uint64

	hub *Hub
	id  uint64
}

// Close unregisters the receiver and releases its channel.
func (r *EventReceiver) Close() {
	r.hub.unsubscribe(r.id)
}

type subscriber struct {
	events  chan *model.OrderEvent
	lagged  chan uint64
	dropped uint64
}

// Hub is the process-wide broadcast sender. The zero value is not usable;
// construct with New.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	nextId  uint64
	bufSize int
}

// New builds a Hub whose per-subscriber channel holds bufSize events before
// the hub starts dropping the oldest unread event for that subscriber.
func New(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 256
	}
	return &Hub{
		subs:    make(map[uint64]*subscriber),
		bufSize: bufSize,
	}
}

// Subscribe registers a new receiver. Events published before Subscribe
// returns are never delivered to it.
func (h *Hub) Subscribe() *EventReceiver {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextId
	h.nextId++
	sub := &subscriber{
		events: make(chan *model.OrderEvent, h.bufSize),
		lagged: make(chan uint64, 1),
	}
	h.subs[id] = sub

	return &EventReceiver{Events: sub.events, Lagged: sub.lagged, hub: h, id: id}
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		close(sub.events)
		delete(h.subs, id)
	}
}

// Publish sends evt to every current subscriber. A subscriber whose channel
// is full has its oldest unread event dropped to make room, matching the
// drop-oldest / lag-notify semantics committed writers rely on to never block.
func (h *Hub) Publish(evt *model.OrderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.events <- evt:
		default:
			select {
			case <-sub.events:
				sub.dropped++
			default:
			}
			select {
			case sub.events <- evt:
			default:
			}
			select {
			case sub.lagged <- sub.dropped:
			default:
			}
		}
	}
}

// SubscriberCount reports how many receivers are currently registered.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
