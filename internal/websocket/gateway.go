// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/validation"
)

// LifecycleHook observes connections entering and leaving the hub.
type LifecycleHook interface {
	// OnConnect runs after the connection is registered and before its pumps start.
	OnConnect(s *Session)
	// OnDisconnect runs after the connection is unregistered. roomsLeft lists
	// the rooms it was removed from.
	OnDisconnect(s *Session, roomsLeft []string)
}

// GatewayConfig configures the upgrade endpoint.
type GatewayConfig struct {
	Pump             PumpConfig
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
	// AllowedOrigins lists accepted Origin headers. "*" accepts any origin,
	// including a missing one.
	AllowedOrigins []string
}

// Gateway upgrades HTTP requests into hub connections.
type Gateway struct {
	hub      *Hub
	router   *Router
	cfg      GatewayConfig
	hooks    []LifecycleHook
	upgrader websocket.Upgrader
	baseCtx  context.Context
}

// NewGateway wires the upgrade endpoint to hub and router.
func NewGateway(hub *Hub, router *Router, cfg GatewayConfig, hooks ...LifecycleHook) *Gateway {
	g := &Gateway{
		hub:     hub,
		router:  router,
		cfg:     cfg,
		hooks:   hooks,
		baseCtx: context.Background(),
	}
	if g.cfg.HandshakeTimeout <= 0 {
		g.cfg.HandshakeTimeout = 10 * time.Second
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:   cfg.ReadBufferSize,
		WriteBufferSize:  cfg.WriteBufferSize,
		CheckOrigin:      g.checkOrigin,
		HandshakeTimeout: g.cfg.HandshakeTimeout,
	}
	return g
}

// WithBaseContext sets the parent of every session context. Canceling it
// cancels all sessions.
func (g *Gateway) WithBaseContext(ctx context.Context) *Gateway {
	g.baseCtx = ctx
	return g
}

// ServeHTTP upgrades the request. The optional "username" query parameter
// names the connection; invalid or missing names get a generated one.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	username := r.URL.Query().Get("username")
	if !validation.IsValidUsername(username) {
		username = "user-" + id[:8]
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade error")
		return
	}

	s := NewSession(g.baseCtx, g.hub, id, username, r.RemoteAddr)
	c := newClient(g.hub, conn, s, g.router, g.cfg.Pump, func(left []string) {
		for _, h := range g.hooks {
			h.OnDisconnect(s, left)
		}
		s.Logger().Info().Strs("rooms_left", left).Msg("websocket client disconnected")
	})
	if err := g.hub.Register(id, c); err != nil {
		logging.Error().Err(err).Msg("websocket register failed")
		s.close()
		_ = conn.Close()
		return
	}

	s.Logger().Info().Str("remote_addr", r.RemoteAddr).Msg("websocket client connected")
	for _, h := range g.hooks {
		h.OnConnect(s)
	}
	c.Start()
}

// checkOrigin validates websocket connection origins.
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	wildcard := false
	for _, allowed := range g.cfg.AllowedOrigins {
		if allowed == "*" {
			wildcard = true
			break
		}
	}

	// Browsers always send Origin. A missing one is accepted only when any
	// origin is.
	if origin == "" {
		if !wildcard {
			logging.Warn().Msg("websocket connection rejected: missing Origin header")
		}
		return wildcard
	}
	if wildcard {
		return true
	}
	for _, allowed := range g.cfg.AllowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters and truncates to keep log lines intact.
func sanitizeLogValue(v string) string {
	const maxLen = 200
	v = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, v)
	if len(v) > maxLen {
		v = v[:maxLen]
	}
	return v
}
