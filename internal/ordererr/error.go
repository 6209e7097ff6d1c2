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
	"fmt"
)

// OrderError is the error type every action and manager operation returns on
// failure. It carries a stable Code a caller can branch on, a human message,
// and optionally wraps the underlying cause.
type OrderError struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code) *OrderError {
	return &OrderError{Code: code, Message: code.Message()}
}

func Newf(code Code, format string, args ...interface{}) *OrderError {
	return &OrderError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, cause error) *OrderError {
	return &OrderError{Code: code, Message: code.Message(), Cause: cause}
}

func (e *OrderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, ordererr.New(SomeCode)) to match purely on Code.
func (e *OrderError) Is(target error) bool {
	t, ok := target.(*OrderError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the Code from err if it is (or wraps) an *OrderError,
// otherwise returns InternalError.
func CodeOf(err error) Code {
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return InternalError
}
