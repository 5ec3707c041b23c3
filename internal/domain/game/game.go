// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

// Package game keeps the players of one shared grid and streams their
// positions to every connection.
//
// game:join places the sender on a free cell, game:move moves it within the
// grid and game:leave removes it. Disconnecting also removes the player. A
// ticker broadcasts game:state to all connections while anyone is playing,
// plus once after the last player leaves.
package game

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/roomcast/internal/config"
	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
)

// Error codes sent to the originating connection.
const (
	CodeNotInGame   = "not_in_game"
	CodeOutOfBounds = "out_of_bounds"
	CodeGridFull    = "grid_full"
)

// Broadcaster delivers an envelope to every connection.
type Broadcaster interface {
	Broadcast(env protocol.Envelope, opts websocket.BroadcastOptions) error
}

// Config sizes the grid and the state stream.
type Config struct {
	GridSize         int
	TickInterval     time.Duration
	MaxSpawnAttempts int
}

// DefaultConfig returns a 20x20 grid streamed every 50ms.
func DefaultConfig() Config {
	return Config{GridSize: 20, TickInterval: 50 * time.Millisecond, MaxSpawnAttempts: 100}
}

// ConfigFrom converts the loaded game section.
func ConfigFrom(cfg config.GameConfig) Config {
	return Config{
		GridSize:         cfg.GridSize,
		TickInterval:     cfg.TickInterval,
		MaxSpawnAttempts: cfg.MaxSpawnAttempts,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GridSize <= 0 {
		c.GridSize = d.GridSize
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.MaxSpawnAttempts <= 0 {
		c.MaxSpawnAttempts = d.MaxSpawnAttempts
	}
	return c
}

// Service owns the player table and the state ticker.
type Service struct {
	out  Broadcaster
	cfg  Config
	intN func(n int) int

	mu      sync.Mutex
	players map[string]*protocol.GamePlayer
	dirty   bool
}

// New creates a game broadcasting through out.
func New(out Broadcaster, cfg Config) *Service {
	return &Service{
		out:     out,
		cfg:     cfg.withDefaults(),
		intN:    rand.IntN,
		players: make(map[string]*protocol.GamePlayer),
	}
}

// Register installs the game handlers.
func (g *Service) Register(r *websocket.Router) {
	websocket.Handle(r, protocol.TypeGameJoin, g.handleJoin)
	websocket.Handle(r, protocol.TypeGameMove, g.handleMove)
	websocket.Handle(r, protocol.TypeGameLeave, g.handleLeave)
}

// OnConnect implements websocket.LifecycleHook.
func (g *Service) OnConnect(*websocket.Session) {}

// OnDisconnect takes the player off the grid.
func (g *Service) OnDisconnect(s *websocket.Session, _ []string) {
	g.remove(s.ID())
}

// Players returns every player sorted by user id.
func (g *Service) Players() []protocol.GamePlayer {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Count returns the number of players.
func (g *Service) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

func (g *Service) handleJoin(_ context.Context, s *websocket.Session, _ protocol.GameJoinPayload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.players[s.ID()]; ok {
		return nil
	}
	x, y, ok := g.spawnLocked()
	if !ok {
		return websocket.NewActionError(CodeGridFull, "no free cell on the grid")
	}
	g.players[s.ID()] = &protocol.GamePlayer{
		UserID:   s.ID(),
		Username: s.Username(),
		X:        x,
		Y:        y,
		Color:    Color(s.ID(), s.Username()),
	}
	g.changedLocked()
	s.Logger().Debug().Int("x", x).Int("y", y).Msg("joined game")
	return nil
}

func (g *Service) handleMove(_ context.Context, s *websocket.Session, p protocol.GameMovePayload) error {
	if p.X >= g.cfg.GridSize || p.Y >= g.cfg.GridSize {
		return websocket.NewActionError(CodeOutOfBounds,
			fmt.Sprintf("cell (%d,%d) is outside the %dx%d grid", p.X, p.Y, g.cfg.GridSize, g.cfg.GridSize))
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	player, ok := g.players[s.ID()]
	if !ok {
		return websocket.NewActionError(CodeNotInGame, "join the game before moving")
	}
	if player.X != p.X || player.Y != p.Y {
		player.X, player.Y = p.X, p.Y
		g.dirty = true
	}
	return nil
}

func (g *Service) handleLeave(_ context.Context, s *websocket.Session, _ protocol.GameLeavePayload) error {
	g.remove(s.ID())
	return nil
}

func (g *Service) remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.players[id]; ok {
		delete(g.players, id)
		g.changedLocked()
	}
}

// spawnLocked picks a random free cell, falling back to a scan once the
// random attempts are used up. ok is false only when every cell is taken.
func (g *Service) spawnLocked() (x, y int, ok bool) {
	size := g.cfg.GridSize
	occupied := make(map[[2]int]bool, len(g.players))
	for _, p := range g.players {
		occupied[[2]int{p.X, p.Y}] = true
	}
	for range g.cfg.MaxSpawnAttempts {
		x, y = g.intN(size), g.intN(size)
		if !occupied[[2]int{x, y}] {
			return x, y, true
		}
	}
	for y = 0; y < size; y++ {
		for x = 0; x < size; x++ {
			if !occupied[[2]int{x, y}] {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// changedLocked must be called with g.mu held.
func (g *Service) changedLocked() {
	g.dirty = true
	metrics.GamePlayers.Set(float64(len(g.players)))
}

func (g *Service) snapshotLocked() []protocol.GamePlayer {
	out := make([]protocol.GamePlayer, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Tick broadcasts the grid when it has players or changed since the last
// broadcast.
func (g *Service) Tick() {
	g.mu.Lock()
	if !g.dirty && len(g.players) == 0 {
		g.mu.Unlock()
		return
	}
	g.dirty = false
	env := protocol.GameState(protocol.GameStatePayload{Players: g.snapshotLocked()})
	g.mu.Unlock()

	if err := g.out.Broadcast(env, websocket.BroadcastOptions{}); err != nil {
		logging.Warn().Err(err).Str("component", "game").Msg("game state not delivered")
	}
}

// RunWithContext ticks until ctx is done. Designed for suture supervision.
func (g *Service) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logging.Info().
				Str("component", "game").
				Int("players", g.Count()).
				Msg("game ticker stopped")
			return ctx.Err()
		case <-ticker.C:
			g.Tick()
		}
	}
}

// Color derives a stable hsl() color from the user id and name.
func Color(userID, username string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID + username))
	return fmt.Sprintf("hsl(%d, 70%%, 60%%)", h.Sum32()%360)
}
