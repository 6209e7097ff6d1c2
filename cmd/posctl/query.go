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
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/posedge/order-engine/internal/relay"
)

var snapshotOrderId string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print an order's current snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		snap, err := eng.mgr.Query().GetSnapshot(snapshotOrderId)
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no such order: %s", snapshotOrderId)
		}
		return printJSON(snap)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotOrderId, "order", "", "order id [required]")
	snapshotCmd.MarkFlagRequired("order")
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List every currently active order",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		orders, err := eng.mgr.Query().GetActiveOrders()
		if err != nil {
			return err
		}
		return printJSON(orders)
	},
}

var (
	eventsOrderId string
	eventsSince   uint64
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print events for an order, or every event since a sequence number",
	Example: `  posctl events --order ord_123
  posctl events --since 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		if eventsOrderId != "" {
			evts, err := eng.mgr.Query().GetEventsForOrder(eventsOrderId)
			if err != nil {
				return err
			}
			return printJSON(evts)
		}
		evts, err := eng.mgr.Query().GetEventsSince(eventsSince)
		if err != nil {
			return err
		}
		return printJSON(evts)
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsOrderId, "order", "", "order id (mutually exclusive with --since)")
	eventsCmd.Flags().Uint64Var(&eventsSince, "since", 0, "return every event with sequence greater than this")
}

var watchAddr string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the engine and republish its event feed over a local websocket for inspection",
	Long: `watch keeps an engine instance running and serves internal/relay on
--addr so any websocket client can observe committed order events live. It
is the demo counterpart of the teacher's cmd/stream, which does the same for
internal/marketdata.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		srv := relay.New(eng.mgr)
		go srv.Run()

		mux := http.NewServeMux()
		mux.Handle("/events", srv)
		httpServer := &http.Server{Addr: watchAddr, Handler: mux}

		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.ListenAndServe() }()

		logger().Infow("watch: relay listening", "addr", watchAddr, "path", "/events")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
		case <-sigCh:
			zap.L().Info("watch: shutting down")
			_ = httpServer.Close()
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "addr", ":8088", "address to serve the relay websocket on")
}
