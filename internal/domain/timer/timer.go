// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

// Package timer runs one shared countdown per room.
//
// State machine:
//
//	idle --start--> running --pause--> paused --resume--> running
//	running --tick to zero--> completed
//	any --reset--> idle
//	any --start--> running (restart)
//
// Every transition is broadcast to the room as timer:state-changed. A timer
// whose room disappears is dropped on the next tick.
package timer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
)

// Error codes sent to the originating connection.
const (
	CodeNotInRoom    = "not_in_room"
	CodeInvalidState = "invalid_timer_state"
)

// DefaultTickInterval is one countdown second.
const DefaultTickInterval = time.Second

type state struct {
	status    string
	total     int
	remaining int
}

func (s state) payload(room string) protocol.TimerStatePayload {
	return protocol.TimerStatePayload{
		RoomID:               room,
		Status:               s.status,
		RemainingSeconds:     s.remaining,
		TotalDurationSeconds: s.total,
	}
}

// Service owns the timers and the ticker that advances them.
type Service struct {
	hub      *websocket.Hub
	interval time.Duration

	mu     sync.Mutex
	timers map[string]*state
}

// New creates a timer service broadcasting through hub.
func New(hub *websocket.Hub, interval time.Duration) *Service {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Service{
		hub:      hub,
		interval: interval,
		timers:   make(map[string]*state),
	}
}

// Register installs the timer handlers.
func (t *Service) Register(r *websocket.Router) {
	websocket.Handle(r, protocol.TypeTimerStart, t.handleStart)
	websocket.Handle(r, protocol.TypeTimerPause, t.transition("pause", protocol.TimerRunning, protocol.TimerPaused))
	websocket.Handle(r, protocol.TypeTimerResume, t.transition("resume", protocol.TimerPaused, protocol.TimerRunning))
	websocket.Handle(r, protocol.TypeTimerReset, t.handleReset)
}

// State returns the timer of room. A room without a timer reports idle.
func (t *Service) State(room string) protocol.TimerStatePayload {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.timers[room]; ok {
		return st.payload(room)
	}
	return state{status: protocol.TimerIdle}.payload(room)
}

// Active returns the number of tracked timers.
func (t *Service) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

func (t *Service) handleStart(_ context.Context, s *websocket.Session, p protocol.TimerStartPayload) error {
	room, err := member(s, p.RoomID)
	if err != nil {
		return err
	}
	st := state{status: protocol.TimerRunning, total: p.DurationSeconds, remaining: p.DurationSeconds}
	t.mu.Lock()
	t.timers[room] = &st
	t.updateGauge()
	t.mu.Unlock()
	return s.BroadcastToRoom(room, protocol.TimerStateChanged(st.payload(room)), false)
}

func (t *Service) transition(action, from, to string) func(context.Context, *websocket.Session, protocol.RoomPayload) error {
	return func(_ context.Context, s *websocket.Session, p protocol.RoomPayload) error {
		room, err := member(s, p.RoomID)
		if err != nil {
			return err
		}
		t.mu.Lock()
		st, ok := t.timers[room]
		if !ok || st.status != from {
			t.mu.Unlock()
			return websocket.NewActionError(CodeInvalidState, "cannot "+action+" a timer that is not "+from)
		}
		st.status = to
		snapshot := *st
		t.mu.Unlock()
		return s.BroadcastToRoom(room, protocol.TimerStateChanged(snapshot.payload(room)), false)
	}
}

func (t *Service) handleReset(_ context.Context, s *websocket.Session, p protocol.RoomPayload) error {
	room, err := member(s, p.RoomID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	delete(t.timers, room)
	t.updateGauge()
	t.mu.Unlock()
	return s.BroadcastToRoom(room, protocol.TimerStateChanged(state{status: protocol.TimerIdle}.payload(room)), false)
}

func member(s *websocket.Session, room string) (string, error) {
	id := strings.TrimSpace(room)
	if !s.IsMember(id) {
		return "", websocket.NewActionError(CodeNotInRoom, "join the room before controlling its timer")
	}
	return id, nil
}

// Tick advances every running timer by one second. Completed timers and
// timers of vanished rooms are removed.
func (t *Service) Tick() {
	type update struct {
		room string
		env  protocol.Envelope
	}
	var updates []update

	t.mu.Lock()
	rooms := make([]string, 0, len(t.timers))
	for room := range t.timers {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	for _, room := range rooms {
		st := t.timers[room]
		if !t.hub.Rooms().Exists(room) {
			delete(t.timers, room)
			continue
		}
		if st.status != protocol.TimerRunning {
			continue
		}
		st.remaining--
		if st.remaining <= 0 {
			st.remaining = 0
			st.status = protocol.TimerCompleted
			delete(t.timers, room)
		}
		updates = append(updates, update{room: room, env: protocol.TimerStateChanged(st.payload(room))})
	}
	t.updateGauge()
	t.mu.Unlock()

	for _, u := range updates {
		if err := t.hub.BroadcastToRoom(u.room, u.env, websocket.BroadcastOptions{}); err != nil {
			logging.Debug().Err(err).Str("room_id", u.room).Msg("timer update not delivered")
		}
	}
}

// RunWithContext ticks until ctx is done. Designed for suture supervision.
func (t *Service) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.Info().
				Str("component", "timer").
				Int("timers_dropped", t.Active()).
				Msg("timer ticker stopped")
			return ctx.Err()
		case <-ticker.C:
			t.Tick()
		}
	}
}

// updateGauge must be called with t.mu held.
func (t *Service) updateGauge() {
	metrics.TimersActive.Set(float64(len(t.timers)))
}
