// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/rooms"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful path (SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// gaugeInterval is how often RunWithContext refreshes the connection and room gauges.
const gaugeInterval = 5 * time.Second

// ConnHandle is the hub's view of one connection.
type ConnHandle interface {
	// Enqueue hands an encoded frame to the connection without blocking.
	Enqueue(frame []byte) error
	// Close starts closing the connection. It must not block or call back into the hub.
	Close()
}

// BroadcastOptions narrows a fan-out.
type BroadcastOptions struct {
	// ExcludeID is skipped when non-empty.
	ExcludeID string
}

// Hub is the connection registry and broadcast engine. It is created once
// and injected; there is no package-level instance.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]ConnHandle
	rooms *rooms.Registry
}

// NewHub creates a hub on top of registry. A nil registry gets a default one.
func NewHub(registry *rooms.Registry) *Hub {
	if registry == nil {
		registry = rooms.New(0)
	}
	return &Hub{
		conns: make(map[string]ConnHandle),
		rooms: registry,
	}
}

// Rooms exposes the registry for read-only callers such as the REST API.
func (h *Hub) Rooms() *rooms.Registry {
	return h.rooms
}

// Register adds a connection. It fails if id is already live.
func (h *Hub) Register(id string, handle ConnHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.conns[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateConnection, id)
	}
	h.conns[id] = handle
	metrics.WSConnections.Set(float64(len(h.conns)))
	logging.Debug().Str("conn_id", id).Int("total_clients", len(h.conns)).Msg("websocket client registered")
	return nil
}

// Unregister removes the connection and every room membership it held. It
// returns the rooms that were left. Unknown ids are a no-op.
func (h *Hub) Unregister(id string) []string {
	h.mu.Lock()
	_, existed := h.conns[id]
	delete(h.conns, id)
	total := len(h.conns)
	h.mu.Unlock()

	if !existed {
		return nil
	}
	metrics.WSConnections.Set(float64(total))

	left := h.rooms.LeaveAll(id)
	metrics.RecordLeave(metrics.LeaveDisconnect, len(left))
	metrics.RoomsActive.Set(float64(h.rooms.Count()))

	logging.Debug().
		Str("conn_id", id).
		Strs("rooms_left", left).
		Int("total_clients", total).
		Msg("websocket client unregistered")
	return left
}

// Join adds a live connection to room.
func (h *Hub) Join(room, id string) (rooms.JoinResult, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.conns[id]; !ok {
		return rooms.JoinResult{}, fmt.Errorf("%w: %s", ErrConnectionClosed, id)
	}
	res, err := h.rooms.Join(room, id)
	if err != nil {
		return res, err
	}
	if !res.AlreadyMember {
		metrics.RoomJoins.Inc()
	}
	if res.Created {
		metrics.RoomsActive.Set(float64(h.rooms.Count()))
	}
	return res, nil
}

// Leave removes id from room on an explicit request. Errors are returned to the caller.
func (h *Hub) Leave(room, id string) error {
	if err := h.rooms.Leave(room, id); err != nil {
		return err
	}
	metrics.RecordLeave(metrics.LeaveExplicit, 1)
	metrics.RoomsActive.Set(float64(h.rooms.Count()))
	return nil
}

// Broadcast sends env to every connection except opts.ExcludeID.
func (h *Hub) Broadcast(env protocol.Envelope, opts BroadcastOptions) error {
	frame, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		if id != opts.ExcludeID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	metrics.RecordFanout(metrics.ScopeAll, h.deliverLocked(ids, frame))
	return nil
}

// BroadcastToRoom sends env to every member of room that is still connected.
// It returns rooms.ErrRoomNotFound only when the room has no members.
func (h *Hub) BroadcastToRoom(room string, env protocol.Envelope, opts BroadcastOptions) error {
	roomID, err := h.rooms.Normalize(room)
	if err != nil {
		return err
	}
	frame, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms.Members(roomID)
	if len(members) == 0 {
		return fmt.Errorf("%w: %s", rooms.ErrRoomNotFound, roomID)
	}
	ids := make([]string, 0, len(members))
	for _, id := range members {
		if id != opts.ExcludeID {
			ids = append(ids, id)
		}
	}
	metrics.RecordFanout(metrics.ScopeRoom, h.deliverLocked(ids, frame))
	return nil
}

// SendToUser sends env to one connection. A vanished id is not an error.
func (h *Hub) SendToUser(id string, env protocol.Envelope) error {
	frame, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	metrics.RecordFanout(metrics.ScopeUser, h.deliverLocked([]string{id}, frame))
	return nil
}

// deliverLocked enqueues frame to each id that still has a handle and
// returns how many buffers accepted it. Caller holds h.mu for reading.
func (h *Hub) deliverLocked(ids []string, frame []byte) int {
	delivered := 0
	for _, id := range ids {
		handle, ok := h.conns[id]
		if !ok {
			continue
		}
		err := handle.Enqueue(frame)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrSendBufferFull):
			metrics.RecordDrop(metrics.DropBufferFull)
			logging.Warn().Str("conn_id", id).Msg("send buffer full, closing slow websocket client")
			handle.Close()
		default:
			metrics.RecordDrop(metrics.DropClosed)
		}
	}
	return delivered
}

// IsConnected reports whether id has a live handle.
func (h *Hub) IsConnected(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[id]
	return ok
}

// GetClientCount returns the number of registered connections.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// RunWithContext keeps the transport gauges fresh until ctx is done, then
// closes every connection. Designed for suture supervision.
func (h *Hub) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(gaugeInterval)
	defer ticker.Stop()

	h.refreshGauges()
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case <-ticker.C:
			h.refreshGauges()
		}
	}
}

func (h *Hub) refreshGauges() {
	metrics.SetTransportGauges(h.GetClientCount(), h.rooms.Count())
}

// logGracefulShutdown closes all clients and logs without an error field:
// cancellation is the expected shutdown path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	closed := h.closeAllClients()
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients closes every handle in id order. Handles unregister
// themselves once their pumps exit.
func (h *Hub) closeAllClients() int {
	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	handles := make([]ConnHandle, len(ids))
	for i, id := range ids {
		handles[i] = h.conns[id]
	}
	h.mu.RUnlock()

	for _, handle := range handles {
		handle.Close()
	}
	return len(handles)
}
