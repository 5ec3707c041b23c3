// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package api

import (
	"net/http"
	"time"
)

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Connections   int     `json:"connections"`
	Rooms         int     `json:"rooms"`
	Users         int     `json:"users"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Delivery      string  `json:"delivery"`
}

// Health reports transport counters. Status is always "healthy" while the
// process answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	users := 0
	if h.users != nil {
		users = h.users.Count()
	}
	NewResponseWriter(w, r).Success(HealthResponse{
		Status:        "healthy",
		Connections:   h.hub.GetClientCount(),
		Rooms:         h.hub.Rooms().Count(),
		Users:         users,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Delivery:      h.delivery,
	})
}
