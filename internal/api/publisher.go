// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/tomtom215/roomcast/internal/ingress"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
)

// Publisher delivers a server envelope to a target and returns a message id.
// *ingress.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, env protocol.Envelope, target ingress.Target) (string, error)
}

// HubPublisher delivers synchronously through the hub. Used when the ingress
// bridge is disabled.
type HubPublisher struct {
	hub ingress.Fanout
}

// NewHubPublisher wraps hub.
func NewHubPublisher(hub ingress.Fanout) *HubPublisher {
	return &HubPublisher{hub: hub}
}

// Publish implements Publisher.
func (p *HubPublisher) Publish(_ context.Context, env protocol.Envelope, target ingress.Target) (string, error) {
	opts := websocket.BroadcastOptions{ExcludeID: target.ExcludeID}

	var err error
	switch {
	case target.UserID != "":
		err = p.hub.SendToUser(target.UserID, env)
	case target.RoomID != "":
		err = p.hub.BroadcastToRoom(target.RoomID, env, opts)
	default:
		err = p.hub.Broadcast(env, opts)
	}
	if err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}
