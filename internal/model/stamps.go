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

package model

// StampActivityInfo is a loyalty stamp activity's progress and configuration
// as resolved by Phase A ahead of a RedeemStamp validation, or by Phase C
// ahead of post-completion stamp accounting.
type StampActivityInfo struct {
	StampActivityId       string
	StampActivityName     string
	RewardProductId       string
	StampsRequired        int
	CurrentStamps         int
	StampTargetProductIds []string
}

// QualifyingCount returns how many units across items qualify as stamp
// progress toward this activity: items whose product id is one of the
// activity's stamp targets, excluding comped and reward-redemption lines.
func (a StampActivityInfo) QualifyingCount(items []CartItemSnapshot) int {
	if len(a.StampTargetProductIds) == 0 {
		return 0
	}
	targets := make(map[string]bool, len(a.StampTargetProductIds))
	for _, id := range a.StampTargetProductIds {
		targets[id] = true
	}
	count := 0
	for _, item := range items {
		if item.IsComped || !targets[item.Id] {
			continue
		}
		count += item.Quantity
	}
	return count
}
