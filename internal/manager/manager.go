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

// Package manager implements the engine's three-phase command pipeline: an
// async, lock-free prefetch (Phase A), a short synchronous single-writer
// transaction that validates and commits (Phase B), and an async best-effort
// post-action (Phase C). Manager is the only package that is allowed to hold
// a *storage.Store write lock.
package manager

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/posedge/order-engine/internal/broadcast"
	"github.com/posedge/order-engine/internal/collab"
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/query"
	"github.com/posedge/order-engine/internal/rules"
	"github.com/posedge/order-engine/internal/storage"
)

// Manager owns the storage handle, the broadcast hub, and every injected
// collaborator. It is safe for concurrent use by multiple callers: Phase B's
// single-writer invariant is enforced inside *storage.Store, not here.
type Manager struct {
	store     *storage.Store
	hub       *broadcast.Hub
	catalog   collab.CatalogLookup
	marketing collab.MarketingLookup
	archive   collab.ArchiveNotifier
	clock     collab.Clock
	random    collab.RandomSource
	engine    *rules.Engine

	storeNumber int
	location    *time.Location
	cutoffHour  int

	ruleMu    sync.RWMutex
	ruleCache map[string][]model.PriceRule

	query *query.Surface
}

// Deps bundles Manager's collaborators so New doesn't take an unreadable
// positional argument list.
type Deps struct {
	Store       *storage.Store
	Hub         *broadcast.Hub
	Catalog     collab.CatalogLookup
	Marketing   collab.MarketingLookup
	Archive     collab.ArchiveNotifier
	Clock       collab.Clock
	Random      collab.RandomSource
	StoreNumber int
	Location    *time.Location
	CutoffHour  int
}

// New builds a Manager and warms the rule cache from every persisted rule
// snapshot, the derived-on-startup mirror spec.md describes.
func New(d Deps) (*Manager, error) {
	if d.Clock == nil {
		d.Clock = collab.SystemClock{}
	}
	if d.Random == nil {
		d.Random = collab.UUIDSource{}
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.StoreNumber <= 0 {
		d.StoreNumber = 1
	}

	m := &Manager{
		store:       d.Store,
		hub:         d.Hub,
		catalog:     d.Catalog,
		marketing:   d.Marketing,
		archive:     d.Archive,
		clock:       d.Clock,
		random:      d.Random,
		engine:      rules.NewWithClock(func() time.Time { return d.Clock.Now() }),
		storeNumber: d.StoreNumber,
		location:    d.Location,
		cutoffHour:  d.CutoffHour,
		ruleCache:   make(map[string][]model.PriceRule),
		query:       query.New(d.Store),
	}

	entries, err := d.Store.GetAllRuleSnapshots()
	if err != nil {
		return nil, fmt.Errorf("manager: load rule cache: %w", err)
	}
	activeIds, err := d.Store.GetActiveOrderIds()
	if err != nil {
		return nil, fmt.Errorf("manager: load active order ids: %w", err)
	}
	active := make(map[string]bool, len(activeIds))
	for _, id := range activeIds {
		active[id] = true
	}
	for _, e := range entries {
		if !active[e.OrderId] {
			// Orphaned entry: its order is no longer active. Drop it rather
			// than let the cache grow unbounded across restarts.
			_ = d.Store.RemoveRuleSnapshot(e.OrderId)
			continue
		}
		m.ruleCache[e.OrderId] = e.Rules
	}

	return m, nil
}

// Subscribe hands back a live event receiver, matching spec.md's inbound
// subscribe() API.
func (m *Manager) Subscribe() *broadcast.EventReceiver {
	return m.hub.Subscribe()
}

// Query exposes the engine's read surface (spec.md §4.7 / §6 inbound API):
// GetSnapshot, GetActiveOrders, GetEventsSince, GetActiveEventsSince,
// GetEventsForOrder, RebuildSnapshot, and archive-queue inspection. Query
// methods never block on Phase B; they read through sqlite's WAL snapshot.
func (m *Manager) Query() *query.Surface {
	return m.query
}

func (m *Manager) rulesFor(orderId string) []model.PriceRule {
	m.ruleMu.RLock()
	defer m.ruleMu.RUnlock()
	return m.ruleCache[orderId]
}

func (m *Manager) setRules(orderId string, rules []model.PriceRule) {
	m.ruleMu.Lock()
	defer m.ruleMu.Unlock()
	m.ruleCache[orderId] = rules
}

func (m *Manager) forgetRules(orderId string) {
	m.ruleMu.Lock()
	defer m.ruleMu.Unlock()
	delete(m.ruleCache, orderId)
}

func (m *Manager) logger() *zap.SugaredLogger {
	return zap.S()
}
