// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package game

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
	"github.com/tomtom215/roomcast/internal/websocket/wstest"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func setup(t *testing.T, cfg Config) (*websocket.Hub, *websocket.Router, *Service) {
	t.Helper()
	hub := websocket.NewHub(nil)
	router := websocket.NewRouter()
	svc := New(hub, cfg)
	svc.Register(router)
	return hub, router, svc
}

func join() protocol.Envelope {
	return protocol.New(protocol.TypeGameJoin, protocol.GameJoinPayload{})
}

func move(x, y int) protocol.Envelope {
	return protocol.New(protocol.TypeGameMove, protocol.GameMovePayload{X: x, Y: y})
}

func lastError(t *testing.T, rec *wstest.Recorder) string {
	t.Helper()
	return wstest.Last[protocol.ErrorPayload](t, rec, protocol.TypeError).Code
}

func TestGame_JoinMoveLeave(t *testing.T) {
	hub, router, svc := setup(t, Config{GridSize: 5})
	s, rec := wstest.Connect(t, hub, "u1", "alice")

	wstest.Dispatch(t, router, s, join())
	players := svc.Players()
	if len(players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(players))
	}
	p := players[0]
	if p.UserID != "u1" || p.Username != "alice" || p.Color != Color("u1", "alice") {
		t.Errorf("unexpected player %+v", p)
	}
	if p.X < 0 || p.X >= 5 || p.Y < 0 || p.Y >= 5 {
		t.Errorf("expected a cell inside the grid, got (%d,%d)", p.X, p.Y)
	}
	if got := testutil.ToFloat64(metrics.GamePlayers); got != 1 {
		t.Errorf("expected game_players 1, got %v", got)
	}

	wstest.Dispatch(t, router, s, join())
	if svc.Count() != 1 {
		t.Errorf("expected join to be idempotent, got %d players", svc.Count())
	}

	wstest.Dispatch(t, router, s, move(4, 0))
	if got := svc.Players()[0]; got.X != 4 || got.Y != 0 {
		t.Errorf("expected (4,0), got (%d,%d)", got.X, got.Y)
	}

	wstest.Dispatch(t, router, s, protocol.New(protocol.TypeGameLeave, protocol.GameLeavePayload{}))
	if svc.Count() != 0 {
		t.Errorf("expected no players after leave, got %d", svc.Count())
	}
	if got := wstest.Count(t, rec, protocol.TypeError); got != 0 {
		t.Errorf("expected no errors, got %d", got)
	}
}

func TestGame_MoveRejected(t *testing.T) {
	tests := []struct {
		name   string
		joined bool
		env    protocol.Envelope
		want   string
	}{
		{"not joined", false, move(1, 1), CodeNotInGame},
		{"x past the edge", true, move(5, 0), CodeOutOfBounds},
		{"y past the edge", true, move(0, 5), CodeOutOfBounds},
		{"negative", true, move(-1, 0), websocket.CodeInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub, router, svc := setup(t, Config{GridSize: 5})
			s, rec := wstest.Connect(t, hub, "u1", "alice")
			if tt.joined {
				wstest.Dispatch(t, router, s, join())
			}
			before := svc.Players()

			wstest.Dispatch(t, router, s, tt.env)
			if got := lastError(t, rec); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			after := svc.Players()
			if len(before) == 1 && (after[0].X != before[0].X || after[0].Y != before[0].Y) {
				t.Errorf("expected position unchanged, got %+v", after[0])
			}
		})
	}
}

func TestGame_SpawnAvoidsOccupiedCells(t *testing.T) {
	hub, router, svc := setup(t, Config{GridSize: 2, MaxSpawnAttempts: 3})
	// Every random attempt lands on (0,0), so later joins fall back to the scan.
	svc.intN = func(int) int { return 0 }

	ids := []string{"u1", "u2", "u3", "u4"}
	for _, id := range ids {
		s, _ := wstest.Connect(t, hub, id, id)
		wstest.Dispatch(t, router, s, join())
	}
	seen := make(map[[2]int]string)
	for _, p := range svc.Players() {
		cell := [2]int{p.X, p.Y}
		if other, ok := seen[cell]; ok {
			t.Errorf("%s and %s share cell %v", other, p.UserID, cell)
		}
		seen[cell] = p.UserID
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct cells, got %d", len(seen))
	}

	s, rec := wstest.Connect(t, hub, "u5", "u5")
	wstest.Dispatch(t, router, s, join())
	if got := lastError(t, rec); got != CodeGridFull {
		t.Errorf("expected %q, got %q", CodeGridFull, got)
	}
	if svc.Count() != 4 {
		t.Errorf("expected 4 players, got %d", svc.Count())
	}
}

func TestGame_DisconnectRemovesPlayer(t *testing.T) {
	hub, router, svc := setup(t, Config{})
	s, _ := wstest.Connect(t, hub, "u1", "alice")
	wstest.Dispatch(t, router, s, join())

	wstest.Disconnect(hub, s, svc)
	if svc.Count() != 0 {
		t.Errorf("expected player removed on disconnect, got %d", svc.Count())
	}
}

func TestGame_TickBroadcastsToEveryone(t *testing.T) {
	hub, router, svc := setup(t, Config{})
	player, playerRec := wstest.Connect(t, hub, "u1", "alice")
	_, watcherRec := wstest.Connect(t, hub, "u2", "bob")

	svc.Tick()
	if got := wstest.Count(t, watcherRec, protocol.TypeGameState); got != 0 {
		t.Errorf("expected no state for an empty unchanged grid, got %d", got)
	}

	wstest.Dispatch(t, router, player, join())
	svc.Tick()
	svc.Tick()
	for name, rec := range map[string]*wstest.Recorder{"player": playerRec, "watcher": watcherRec} {
		if got := wstest.Count(t, rec, protocol.TypeGameState); got != 2 {
			t.Errorf("%s: expected 2 states while playing, got %d", name, got)
		}
		state := wstest.Last[protocol.GameStatePayload](t, rec, protocol.TypeGameState)
		if len(state.Players) != 1 || state.Players[0].UserID != "u1" {
			t.Errorf("%s: unexpected state %+v", name, state)
		}
	}

	wstest.Dispatch(t, router, player, protocol.New(protocol.TypeGameLeave, protocol.GameLeavePayload{}))
	svc.Tick()
	svc.Tick()
	if got := wstest.Count(t, watcherRec, protocol.TypeGameState); got != 3 {
		t.Errorf("expected one final empty state, got %d states", got)
	}
	if state := wstest.Last[protocol.GameStatePayload](t, watcherRec, protocol.TypeGameState); len(state.Players) != 0 {
		t.Errorf("expected empty grid, got %+v", state.Players)
	}
}

type failingBroadcaster struct{ calls int }

func (f *failingBroadcaster) Broadcast(protocol.Envelope, websocket.BroadcastOptions) error {
	f.calls++
	return errors.New("encode failed")
}

func TestGame_RunWithContext(t *testing.T) {
	out := &failingBroadcaster{}
	svc := New(out, Config{TickInterval: 10 * time.Millisecond})
	svc.players["u1"] = &protocol.GamePlayer{UserID: "u1", Username: "alice", Color: Color("u1", "alice")}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := svc.RunWithContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if out.calls == 0 {
		t.Error("expected at least one broadcast attempt")
	}
}

func TestColor(t *testing.T) {
	a := Color("u1", "alice")
	if a != Color("u1", "alice") {
		t.Error("expected a stable color")
	}
	if !strings.HasPrefix(a, "hsl(") || !strings.HasSuffix(a, ", 70%, 60%)") {
		t.Errorf("unexpected color format %q", a)
	}
}
