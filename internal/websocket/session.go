// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package websocket

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/rooms"
)

// Session is a handler's view of its connection. One per connection,
// created at upgrade and canceled when the connection closes.
type Session struct {
	id         string
	username   string
	remoteAddr string
	hub        *Hub
	ctx        context.Context
	cancel     context.CancelFunc
	logger     zerolog.Logger
}

// NewSession creates a session bound to hub. The gateway calls it once per
// connection; tests use it to drive handlers without a network.
func NewSession(parent context.Context, hub *Hub, id, username, remoteAddr string) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		id:         id,
		username:   username,
		remoteAddr: remoteAddr,
		hub:        hub,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logging.ForConnection(id, username),
	}
}

func (s *Session) ID() string         { return s.id }
func (s *Session) Username() string   { return s.username }
func (s *Session) RemoteAddr() string { return s.remoteAddr }

// Context is canceled when the connection closes.
func (s *Session) Context() context.Context { return s.ctx }

// Logger carries conn_id and username.
func (s *Session) Logger() *zerolog.Logger { return &s.logger }

// Join adds this connection to room.
func (s *Session) Join(room string) (rooms.JoinResult, error) {
	return s.hub.Join(room, s.id)
}

// Leave removes this connection from room.
func (s *Session) Leave(room string) error {
	return s.hub.Leave(room, s.id)
}

func (s *Session) IsMember(room string) bool {
	return s.hub.rooms.IsMember(room, s.id)
}

// Rooms returns the rooms this connection belongs to, sorted.
func (s *Session) Rooms() []string {
	return s.hub.rooms.RoomsFor(s.id)
}

// Members returns the sorted member ids of room, or nil if it does not exist.
func (s *Session) Members(room string) []string {
	return s.hub.rooms.Members(room)
}

// Send delivers env to this connection only.
func (s *Session) Send(env protocol.Envelope) error {
	return s.hub.SendToUser(s.id, env)
}

// Broadcast delivers env to every connection, optionally skipping this one.
func (s *Session) Broadcast(env protocol.Envelope, excludeSelf bool) error {
	return s.hub.Broadcast(env, s.options(excludeSelf))
}

// BroadcastToRoom delivers env to the members of room, optionally skipping this one.
func (s *Session) BroadcastToRoom(room string, env protocol.Envelope, excludeSelf bool) error {
	return s.hub.BroadcastToRoom(room, env, s.options(excludeSelf))
}

// ReportError sends an "error" envelope to this connection.
func (s *Session) ReportError(code, message string, details any) {
	metrics.RecordDispatchError(code)
	if err := s.Send(protocol.ErrorMessage(code, message, details)); err != nil {
		s.logger.Warn().Err(err).Str("code", code).Msg("failed to report error to client")
	}
}

func (s *Session) options(excludeSelf bool) BroadcastOptions {
	if excludeSelf {
		return BroadcastOptions{ExcludeID: s.id}
	}
	return BroadcastOptions{}
}

func (s *Session) close() {
	s.cancel()
}
