// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package api

import (
	"time"

	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
)

// UserDirectory resolves connection ids to display names.
// *system.Directory satisfies it.
type UserDirectory interface {
	Users(ids []string) []protocol.User
	Count() int
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_health.go: health endpoint
//   - handlers_rooms.go: room listing and detail
//   - handlers_publish.go: publish to room and broadcast
type Handler struct {
	hub       *websocket.Hub
	users     UserDirectory
	publisher Publisher
	delivery  string
	startTime time.Time
}

// NewHandler creates a handler. delivery names the publish path reported by
// the health endpoint ("gochannel", "nats" or "direct"). A nil publisher
// falls back to direct hub delivery.
func NewHandler(hub *websocket.Hub, users UserDirectory, publisher Publisher, delivery string) *Handler {
	if publisher == nil {
		publisher = NewHubPublisher(hub)
		delivery = DeliveryDirect
	}
	return &Handler{
		hub:       hub,
		users:     users,
		publisher: publisher,
		delivery:  delivery,
		startTime: time.Now(),
	}
}

// DeliveryDirect names synchronous hub delivery in health output.
const DeliveryDirect = "direct"
