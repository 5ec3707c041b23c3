// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

// Package system handles identity, room membership and presence.
package system

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/rooms"
	"github.com/tomtom215/roomcast/internal/websocket"
)

// UnknownUsername is reported for a member missing from the directory.
const UnknownUsername = "Unknown User"

// Directory tracks connected users. It is a websocket.LifecycleHook.
type Directory struct {
	mu    sync.RWMutex
	users map[string]string
	now   func() time.Time
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		users: make(map[string]string),
		now:   time.Now,
	}
}

// Register installs the system handlers.
func (d *Directory) Register(r *websocket.Router) {
	websocket.Handle(r, protocol.TypeRoomJoin, d.handleJoin)
	websocket.Handle(r, protocol.TypeRoomLeave, d.handleLeave)
	websocket.Handle(r, protocol.TypePing, d.handlePing)
}

// OnConnect records the user and tells the connection who it is.
func (d *Directory) OnConnect(s *websocket.Session) {
	d.mu.Lock()
	d.users[s.ID()] = s.Username()
	d.mu.Unlock()

	env := protocol.UserInfo(protocol.UserInfoPayload{UserID: s.ID(), Username: s.Username()})
	if err := s.Send(env); err != nil {
		s.Logger().Warn().Err(err).Msg("failed to send user info")
	}
}

// OnDisconnect forgets the user and refreshes presence in every room it left.
func (d *Directory) OnDisconnect(s *websocket.Session, roomsLeft []string) {
	d.mu.Lock()
	delete(d.users, s.ID())
	d.mu.Unlock()

	for _, room := range roomsLeft {
		if err := d.broadcastUsers(s, room); err != nil && !errors.Is(err, rooms.ErrRoomNotFound) {
			s.Logger().Warn().Err(err).Str("room_id", room).Msg("failed to refresh room presence")
		}
	}
}

// Username resolves a connection id.
func (d *Directory) Username(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.users[id]
	return name, ok
}

// Users maps member ids to users, keeping the order of ids.
func (d *Directory) Users(ids []string) []protocol.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]protocol.User, 0, len(ids))
	for _, id := range ids {
		name, ok := d.users[id]
		if !ok {
			name = UnknownUsername
		}
		out = append(out, protocol.User{ID: id, Username: name})
	}
	return out
}

// Count returns the number of known users.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

// Snapshot returns every user sorted by id.
func (d *Directory) Snapshot() []protocol.User {
	d.mu.RLock()
	ids := make([]string, 0, len(d.users))
	for id := range d.users {
		ids = append(ids, id)
	}
	d.mu.RUnlock()
	sort.Strings(ids)
	return d.Users(ids)
}

func (d *Directory) handleJoin(_ context.Context, s *websocket.Session, p protocol.RoomPayload) error {
	res, err := s.Join(p.RoomID)
	if err != nil {
		return err
	}
	logging.Debug().
		Str("conn_id", s.ID()).
		Str("room_id", res.RoomID).
		Bool("created", res.Created).
		Bool("already_member", res.AlreadyMember).
		Msg("joined room")
	return d.broadcastUsers(s, res.RoomID)
}

func (d *Directory) handleLeave(_ context.Context, s *websocket.Session, p protocol.RoomPayload) error {
	if err := s.Leave(p.RoomID); err != nil {
		return err
	}
	if err := d.broadcastUsers(s, strings.TrimSpace(p.RoomID)); err != nil && !errors.Is(err, rooms.ErrRoomNotFound) {
		return err
	}
	return nil
}

func (d *Directory) handlePing(_ context.Context, s *websocket.Session, _ protocol.PingPayload) error {
	return s.Send(protocol.Pong(protocol.PongPayload{Time: d.now().UnixMilli()}))
}

func (d *Directory) broadcastUsers(s *websocket.Session, room string) error {
	members := s.Members(room)
	if len(members) == 0 {
		return rooms.ErrRoomNotFound
	}
	env := protocol.UsersForRoom(protocol.UsersForRoomPayload{RoomID: room, Users: d.Users(members)})
	return s.BroadcastToRoom(room, env, false)
}
