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

package actions

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/posedge/order-engine/internal/model"
)

// contentKey builds the stable, order-independent hash two otherwise-identical
// cart lines share: same product, same selected options/specification, same
// price and manual discount. Two adds of the same configuration merge onto
// the same instance id; a modify that changes any of these fields produces a
// new one.
func contentKey(productId string, options []model.SelectedOption, spec string, price string, manualDiscount string) string {
	sorted := append([]model.SelectedOption(nil), options...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AttributeId != sorted[j].AttributeId {
			return sorted[i].AttributeId < sorted[j].AttributeId
		}
		return sorted[i].OptionIdx < sorted[j].OptionIdx
	})

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", productId, spec, price, manualDiscount)
	for _, o := range sorted {
		fmt.Fprintf(h, "|%s:%d:%d", o.AttributeId, o.OptionIdx, o.Quantity)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// resolveInstanceID returns the content-addressed id for a new or modified
// line. When that id already names an item in the order that the caller did
// not intend to merge into (e.g. a modify that would otherwise collide with
// an unrelated existing line), a random suffix disambiguates it. kind is
// "mod" or "comp", matching the operation that produced the new identity.
func resolveInstanceID(ctx *CommandContext, key string, existing map[string]bool, kind string) string {
	if !existing[key] {
		return key
	}
	return fmt.Sprintf("%s::%s::%s", key, kind, ctx.Random.NewID())
}

func existingInstanceIDs(items []model.CartItemSnapshot, exclude string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		if it.InstanceId != exclude {
			set[it.InstanceId] = true
		}
	}
	return set
}

// unskippedRules filters out any rule the order has toggled off via
// ToggleRuleSkip, so repricing never matches against a rule the operator
// manually disabled for this order.
func unskippedRules(ctx *CommandContext) []model.PriceRule {
	return filterSkipped(ctx.Rules, ctx.Snapshot.SkippedRuleIds)
}

// filterSkipped returns all in rules whose RuleId is not marked true in skipped.
func filterSkipped(all []model.PriceRule, skipped map[string]bool) []model.PriceRule {
	if len(skipped) == 0 {
		return all
	}
	out := make([]model.PriceRule, 0, len(all))
	for _, r := range all {
		if !skipped[r.RuleId] {
			out = append(out, r)
		}
	}
	return out
}
