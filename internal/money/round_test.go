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

package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"rounds half up", "1.005", "1.01"},
		{"rounds half away from zero on negative", "-1.005", "-1.01"},
		{"truncates below half down", "1.004", "1.00"},
		{"already exact", "2.50", "2.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := decimal.RequireFromString(tt.in)
			expected := decimal.RequireFromString(tt.expected)

			got := Round2(in)

			if !got.Equal(expected) {
				t.Errorf("expected %s, got %s", expected, got)
			}
		})
	}
}

func TestClampNonNegative(t *testing.T) {
	if got := ClampNonNegative(decimal.RequireFromString("-5.00")); !got.IsZero() {
		t.Errorf("expected 0, got %s", got)
	}
	if got := ClampNonNegative(decimal.RequireFromString("5.00")); got.String() != "5" {
		t.Errorf("expected 5, got %s", got)
	}
}

func TestStackPercentages(t *testing.T) {
	ratios := []decimal.Decimal{
		decimal.RequireFromString("0.10"),
		decimal.RequireFromString("0.10"),
	}

	got := StackPercentages(ratios)
	expected := decimal.RequireFromString("0.19")

	if !got.Equal(expected) {
		t.Errorf("expected %s, got %s", expected, got)
	}
}
