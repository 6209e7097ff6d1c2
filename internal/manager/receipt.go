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

package manager

import (
	"fmt"
	"time"
)

// businessDate returns the YYYYMMDD key the current moment falls under,
// rolling over at cutoffHour local time rather than at local midnight, so a
// 2am closing shift's late orders still land on the prior business day.
func businessDate(now time.Time, loc *time.Location, cutoffHour int) string {
	local := now.In(loc)
	if local.Hour() < cutoffHour {
		local = local.AddDate(0, 0, -1)
	}
	return local.Format("20060102")
}

// formatReceiptNumber renders spec.md's "{store:02}-{YYYYMMDD}-{seq:04}" format.
func formatReceiptNumber(storeNumber int, dateKey string, seq int64) string {
	return fmt.Sprintf("%02d-%s-%04d", storeNumber, dateKey, seq)
}
