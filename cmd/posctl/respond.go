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

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/posedge/order-engine/internal/model"
)

// runCommand opens the engine, submits cmd, prints the response as indented
// JSON (matching the teacher's outputPreview in cmd/order/main.go), and
// returns an error if the engine itself failed to start. A business-rule
// failure is reported inside the printed response, not as a CLI error.
func runCommand(orderId string, payload model.CommandPayload) error {
	eng, err := openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	resp := eng.mgr.ExecuteCommand(context.Background(), newCommand(orderId, payload))
	return printJSON(resp)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
