// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/roomcast/internal/api"
	"github.com/tomtom215/roomcast/internal/config"
	"github.com/tomtom215/roomcast/internal/domain/chat"
	"github.com/tomtom215/roomcast/internal/domain/game"
	"github.com/tomtom215/roomcast/internal/domain/system"
	"github.com/tomtom215/roomcast/internal/domain/timer"
	"github.com/tomtom215/roomcast/internal/ingress"
	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/rooms"
	"github.com/tomtom215/roomcast/internal/supervisor"
	"github.com/tomtom215/roomcast/internal/supervisor/services"
	"github.com/tomtom215/roomcast/internal/websocket"
)

// app holds every component the server runs. It is built once in main and
// injected everywhere; there are no package-level singletons.
type app struct {
	cfg       *config.Config
	hub       *websocket.Hub
	router    *websocket.Router
	directory *system.Directory
	chat      *chat.Service
	timers    *timer.Service
	game      *game.Service
	backend   *ingress.Backend
	bridge    *ingress.Bridge
	handler   http.Handler
}

// newApp wires the domains into one dispatch table, checks that every
// client message type has a handler and builds the HTTP handler. ctx bounds
// every websocket session.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:       cfg,
		hub:       websocket.NewHub(rooms.New(cfg.Rooms.MaxRoomIDLength)),
		router:    websocket.NewRouter(),
		directory: system.NewDirectory(),
		chat:      chat.New(cfg.Chat.HistorySize),
	}
	a.timers = timer.New(a.hub, cfg.Timer.TickInterval)
	a.game = game.New(a.hub, game.ConfigFrom(cfg.Game))

	a.directory.Register(a.router)
	a.chat.Register(a.router)
	a.timers.Register(a.router)
	a.game.Register(a.router)

	if err := a.router.Validate(protocol.ClientTypes()...); err != nil {
		return nil, fmt.Errorf("dispatch table incomplete: %w", err)
	}
	logging.Info().Strs("types", typeNames(a.router.Types())).Msg("Dispatch table validated")

	gateway := websocket.NewGateway(a.hub, a.router, gatewayConfig(cfg), a.directory, a.chat, a.game).
		WithBaseContext(ctx)

	var publisher api.Publisher
	delivery := api.DeliveryDirect
	if cfg.Ingress.Enabled {
		logger := ingress.NewLoggerAdapter()
		backend, err := ingress.Open(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open ingress backend: %w", err)
		}
		a.backend = backend
		a.bridge = ingress.NewBridge(backend.Subscriber, a.hub, cfg.Ingress.Topic, logger)
		publisher = ingress.NewPublisher(backend.Publisher, cfg.Ingress.Topic)
		delivery = backend.Name
		logging.Info().
			Str("backend", backend.Name).
			Str("topic", cfg.Ingress.Topic).
			Msg("Ingress bridge enabled")
	}

	handler := api.NewHandler(a.hub, a.directory, publisher, delivery)
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security))
	a.handler = api.NewRouter(handler, mw, gateway, cfg.WebSocket.Path).Setup()
	return a, nil
}

func gatewayConfig(cfg *config.Config) websocket.GatewayConfig {
	ws := cfg.WebSocket
	return websocket.GatewayConfig{
		Pump: websocket.PumpConfig{
			WriteWait:      ws.WriteWait,
			PongWait:       ws.PongWait,
			PingPeriod:     ws.PingPeriod(),
			MaxMessageSize: ws.MaxMessageSize,
			SendBufferSize: ws.SendBufferSize,
			MessageRate:    ws.MessageRate,
			MessageBurst:   ws.MessageBurst,
		},
		ReadBufferSize:   ws.ReadBufferSize,
		WriteBufferSize:  ws.WriteBufferSize,
		HandshakeTimeout: ws.HandshakeTimeout,
		AllowedOrigins:   cfg.Security.CORSOrigins,
	}
}

// httpServer builds the listener. Read and write timeouts only bound REST
// requests; the websocket pumps set their own deadlines after the upgrade.
func (a *app) httpServer() *http.Server {
	return &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.cfg.Server.Timeout,
		WriteTimeout:      a.cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
}

// supervise adds every long-running component to tree.
func (a *app) supervise(tree *supervisor.SupervisorTree, server services.HTTPServer) {
	tree.AddMessagingService(services.NewWebSocketHubService(a.hub))
	if a.bridge != nil {
		tree.AddMessagingService(services.NewIngressBridgeService(a.bridge))
		tree.AddMessagingService(services.NewIngressBackendService(a.backend))
	}
	tree.AddDomainService(services.NewTimerService(a.timers))
	tree.AddDomainService(services.NewGameService(a.game))
	tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.Server.ShutdownTimeout))
}

func typeNames(types []protocol.Type) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
