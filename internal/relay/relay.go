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

// Package relay is an ambient, out-of-core demo: it republishes whatever the
// engine's Subscribe() feed produces over a local websocket so a developer
// can watch order events live with a generic client. The core engine never
// imports this package and has no notion of transport; spec.md §1 lists
// HTTP/WebSocket transport as out of scope for the order manager itself.
// Server plays the inverse role of the teacher's BaseWebSocketClient: where
// that type dials out to Coinbase's Prime venue and subscribes a channel
// handler, Server accepts local connections and pushes whatever arrives on
// an EventReceiver out to every connected socket.
package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/posedge/order-engine/internal/broadcast"
	"github.com/posedge/order-engine/internal/model"
)

// Subscriber is the subset of *manager.Manager that Server needs: a live
// event feed. Keeping it an interface avoids an import cycle and lets tests
// fake the feed without standing up a real engine.
type Subscriber interface {
	Subscribe() *broadcast.EventReceiver
}

// Server upgrades incoming HTTP connections to websockets and republishes
// every committed order event as a JSON frame. It holds no order state of
// its own.
type Server struct {
	engine   Subscriber
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New builds a Server backed by engine's Subscribe() feed.
func New(engine Subscriber) *Server {
	return &Server{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// frame is the wire shape pushed to every connected client.
type frame struct {
	Sequence uint64          `json:"sequence"`
	OrderId  string          `json:"order_id"`
	Type     model.EventType `json:"event_type"`
	Event    *model.OrderEvent `json:"event"`
}

// ServeHTTP implements http.Handler, upgrading the request and registering
// the connection for broadcast until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Error("relay: upgrade failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	zap.L().Info("relay: client connected", zap.String("remote", r.RemoteAddr))

	// A client that never sends anything still needs a read loop so gorilla
	// notices disconnects and the write goroutine can stop.
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) broadcast(f frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		zap.L().Error("relay: marshal frame", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			zap.L().Warn("relay: write failed, dropping client", zap.Error(err))
			delete(s.clients, conn)
			conn.Close()
		}
	}
}

// Run subscribes to the engine's event feed and republishes every event
// until one of the receiver's channels closes (on Stop).
// Run blocks; callers run it in its own goroutine.
func (s *Server) Run() {
	recv := s.engine.Subscribe()
	defer recv.Close()

	for {
		select {
		case lag, ok := <-recv.Lagged:
			if !ok {
				return
			}
			zap.L().Warn("relay: subscriber lagged, some events dropped", zap.Uint64("dropped", lag))
		case evt, ok := <-recv.Events:
			if !ok {
				return
			}
			s.broadcast(frame{Sequence: evt.Sequence, OrderId: evt.OrderId, Type: evt.Type, Event: evt})
		}
	}
}
