// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package middleware provides HTTP middleware shared by the REST surface and the
websocket upgrade route.

Key Components:

  - RequestID: X-Request-ID propagation plus request and correlation ids in
    the context logger
  - PrometheusMetrics: request counts, latency and in-flight gauge labelled by
    chi route pattern

Both are func(http.Handler) http.Handler and compose with chi:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

The wrapped ResponseWriter implements http.Hijacker and http.Flusher so the
websocket upgrade works behind the metrics middleware.
*/
package middleware
