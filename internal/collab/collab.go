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

// Package collab declares the external collaborators the order engine reads
// from but never owns the storage of: the product catalog, the marketing
// program, and the archival pipeline. Callers inject implementations; the
// engine core only depends on these interfaces.
package collab

import (
	"context"
	"time"

	"github.com/posedge/order-engine/internal/model"
)

// CatalogLookup resolves product metadata and zone/price-rule snapshots at
// open-table and add-items time. All calls happen during Phase A, before any
// storage write lock is taken.
type CatalogLookup interface {
	// Products resolves a batch of product ids to their current catalog metadata.
	Products(ctx context.Context, productIds []string) (map[string]model.ProductMeta, error)
	// ActiveRules returns every currently-active PriceRule, to be filtered and
	// captured onto an order's snapshot at open-table time.
	ActiveRules(ctx context.Context) ([]model.PriceRule, error)
	// Zone resolves a zone id to its display name.
	Zone(ctx context.Context, zoneId string) (name string, err error)
}

// MarketingLookup resolves member and loyalty program state. Member,
// StampActivity and ActiveStampActivities are read in Phase A, before any
// storage write lock is taken. SettleStamps is called from Phase C, after
// an order's terminal transition has already committed, so its failures are
// logged and swallowed rather than rolled back.
type MarketingLookup interface {
	// Member resolves a member id to the marketing group it belongs to, and
	// that group's additional PriceRule set.
	Member(ctx context.Context, memberId string) (marketingGroupId string, rules []model.PriceRule, err error)
	// StampActivity resolves a stamp activity's current progress, its
	// required threshold, and the product ids that count toward it, for
	// memberId ahead of a RedeemStamp validation.
	StampActivity(ctx context.Context, stampActivityId, memberId string) (model.StampActivityInfo, error)
	// ActiveStampActivities returns every stamp activity configured for a
	// marketing group, used by Phase C to credit items sold in a completed
	// order toward activities the member didn't necessarily redeem.
	ActiveStampActivities(ctx context.Context, marketingGroupId string) ([]model.StampActivityInfo, error)
	// SettleStamps persists earned and consumed stamp counts for memberId
	// once an order has completed. earned maps stamp_activity_id to the
	// number of qualifying units sold in the order; consumed lists the
	// stamp_activity_ids redeemed on it, each of which subtracts that
	// activity's stamps_required from the member's balance.
	SettleStamps(ctx context.Context, memberId string, earned map[string]int, consumed []string) error
}

// ArchiveNotifier is told, best-effort, that an order reached a terminal
// state and is eligible for cloud archival. Failures here are logged and
// swallowed by the caller; they never roll back the local transaction.
type ArchiveNotifier interface {
	NotifyCompleted(ctx context.Context, orderId string) error
}

// Clock abstracts wall-clock time so reducer/action logic can be tested
// deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// NowMillis is a convenience for the common case of wanting epoch millis.
func NowMillis(c Clock) int64 {
	return c.Now().UnixMilli()
}

// RandomSource abstracts id generation so tests can supply deterministic ids.
type RandomSource interface {
	NewID() string
}
