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

package ordererr

import (
	"errors"
	"testing"
)

func TestCodeOf(t *testing.T) {
	err := New(OrderNotFound)
	if CodeOf(err) != OrderNotFound {
		t.Errorf("expected OrderNotFound, got %v", CodeOf(err))
	}
	if CodeOf(errors.New("plain")) != InternalError {
		t.Errorf("expected InternalError for a non-OrderError, got %v", CodeOf(errors.New("plain")))
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(DatabaseError, cause)

	if !errors.Is(err, err) {
		t.Error("expected error to be Is-comparable to itself")
	}
	if errors.Unwrap(err) != cause {
		t.Error("expected Unwrap to return the original cause")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := New(OrderNotFound)
	b := Newf(OrderNotFound, "order %s missing", "abc123")

	if !errors.Is(a, b) {
		t.Error("expected two OrderErrors with the same code to match via errors.Is")
	}
}
