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

// Command posctl is a thin operator CLI over the order engine, grounded on
// the teacher's cmd/prime subcommand layout: one cobra.Command per engine
// operation, each building a request, calling into the engine, and printing
// the response as indented JSON. Unlike the teacher's cmd/prime (which talks
// to the live Coinbase Prime venue), posctl opens its own local engine
// in-process, so every subcommand is self-contained and runnable without a
// server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/posedge/order-engine/config"
	"github.com/posedge/order-engine/internal/broadcast"
	"github.com/posedge/order-engine/internal/manager"
	"github.com/posedge/order-engine/internal/model"
	"github.com/posedge/order-engine/internal/storage"
)

var catalogFixturePath string

var rootCmd = &cobra.Command{
	Use:   "posctl",
	Short: "Operate a local order engine instance",
	Long: `posctl drives an embedded edge-server order engine: open tables, add
items, take payments, and complete or void orders, all against a local
sqlite-backed store. It is a development and operations tool, not the
transport the real edge server uses to talk to front-of-house terminals.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogFixturePath, "catalog", "", "path to a JSON fixture file standing in for the real catalog/marketing services")
	rootCmd.AddCommand(
		openTableCmd,
		addItemsCmd,
		modifyItemCmd,
		removeItemCmd,
		restoreItemCmd,
		compItemCmd,
		uncompItemCmd,
		discountCmd,
		surchargeCmd,
		toggleRuleSkipCmd,
		payCmd,
		cancelPaymentCmd,
		linkMemberCmd,
		redeemStampCmd,
		cancelStampRedemptionCmd,
		completeCmd,
		voidCmd,
		restoreOrderCmd,
		moveCmd,
		splitCmd,
		mergeCmd,
		snapshotCmd,
		activeCmd,
		eventsCmd,
		watchCmd,
	)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// engineHandle bundles the storage and manager instances a subcommand needs;
// callers defer Close() to flush the sqlite handle.
type engineHandle struct {
	cfg   *config.Config
	store *storage.Store
	mgr   *manager.Manager
}

func (e *engineHandle) Close() {
	_ = e.store.Close()
}

// openEngine loads configuration, sets up logging, opens the store, and
// constructs a Manager wired to fixture-backed collaborators. Every
// subcommand calls this first, matching the teacher's
// loadConfigAndSetup-per-invocation pattern in cmd/order/main.go.
func openEngine() (*engineHandle, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.SetupLogger(cfg.Server.LogLevel, cfg.Server.LogJson)

	fx, err := loadFixtures(catalogFixturePath)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	location, err := time.LoadLocation(cfg.Store.Timezone)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	mgr, err := manager.New(manager.Deps{
		Store:       store,
		Hub:         broadcast.New(cfg.Broadcast.BufferSize),
		Catalog:     &fixtureCatalog{data: fx},
		Marketing:   &fixtureMarketing{data: fx},
		Archive:     noopArchiveNotifier{},
		StoreNumber: cfg.Store.StoreNumber,
		Location:    location,
		CutoffHour:  cfg.Store.BusinessDayCutoffHour,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to start manager: %w", err)
	}

	return &engineHandle{cfg: cfg, store: store, mgr: mgr}, nil
}

// newCommand stamps a fresh command_id/timestamp and the operator identity
// every subcommand uses; posctl runs as a single fixed operator since it has
// no auth layer of its own.
func newCommand(orderId string, payload model.CommandPayload) *model.OrderCommand {
	return &model.OrderCommand{
		CommandId:    uuid.New().String(),
		OrderId:      orderId,
		OperatorId:   1,
		OperatorName: "posctl",
		Timestamp:    time.Now().UnixMilli(),
		Payload:      payload,
	}
}

func logger() *zap.SugaredLogger {
	return zap.S()
}
