// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/roomcast/internal/middleware"
)

// Router wires the handler, the middleware stack and the websocket gateway.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	gateway       http.Handler
	wsPath        string
}

// NewRouter creates a router. gateway is mounted at wsPath when non-nil.
func NewRouter(handler *Handler, mw *ChiMiddleware, gateway http.Handler, wsPath string) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	if wsPath == "" {
		wsPath = "/ws"
	}
	return &Router{
		handler:       handler,
		chiMiddleware: mw,
		gateway:       gateway,
		wsPath:        wsPath,
	}
}

// Setup builds the chi handler tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Get("/health", router.handler.Health)
		r.Get("/rooms", router.handler.Rooms)
		r.Get("/rooms/{roomID}", router.handler.Room)
		r.Post("/rooms/{roomID}/messages", router.handler.PublishToRoom)
		r.Post("/broadcast", router.handler.Broadcast)
	})

	r.Handle("/metrics", promhttp.Handler())

	if router.gateway != nil {
		r.With(middleware.PrometheusMetrics).Get(router.wsPath, router.gateway.ServeHTTP)
	}

	return r
}
