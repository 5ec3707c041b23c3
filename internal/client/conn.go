// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/protocol"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("client closed")

// State is the socket lifecycle state.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config configures a Conn.
type Config struct {
	URL    string
	Header http.Header
	// MaxReconnectAttempts bounds retries after a drop. Negative retries forever.
	MaxReconnectAttempts int
	BaseDelay            time.Duration
	DialTimeout          time.Duration
	// Dialer defaults to a gorilla/websocket dialer.
	Dialer Dialer
	Logger *zerolog.Logger
}

// Conn is a reconnecting client connection. It is safe for concurrent use.
type Conn struct {
	cfg    Config
	logger zerolog.Logger

	mu              sync.Mutex
	state           State
	shouldReconnect bool
	closed          bool
	gen             uint64
	socket          Socket
	queue           [][]byte
	attempts        int
	policy          backoff.BackOff
	retryTimer      *time.Timer
	dialCancel      context.CancelFunc
	observers       []func(State)
	pendingStates   []State
	notifying       bool

	hmu      sync.RWMutex
	handlers map[protocol.Type][]*Subscription
	nextSub  uint64
}

// New creates an idle connection. Nothing is dialed until Connect or Send.
func New(cfg Config) *Conn {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebSocketDialer{Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.DialTimeout,
		}}
	}
	logger := logging.WithComponent("client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Conn{
		cfg:      cfg,
		logger:   logger.With().Str("url", cfg.URL).Logger(),
		state:    StateIdle,
		policy:   newPolicy(cfg.BaseDelay, cfg.MaxReconnectAttempts),
		handlers: make(map[protocol.Type][]*Subscription),
	}
}

// State returns the current socket state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of queued frames.
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Attempts returns the number of reconnects since the last successful open.
func (c *Conn) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// OnStateChange registers fn for every state transition. fn runs outside the lock.
func (c *Conn) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Connect opens the socket and keeps it open until Disconnect.
func (c *Conn) Connect() {
	c.mu.Lock()
	defer c.unlockAndNotify()
	if c.closed {
		c.logger.Warn().Msg("connect called on closed client")
		return
	}
	c.connectLocked()
}

func (c *Conn) connectLocked() {
	c.shouldReconnect = true
	if c.state == StateConnecting || c.state == StateOpen {
		c.logger.Warn().Str("state", c.state.String()).Msg("connect called while already connecting or open")
		return
	}
	c.dialLocked()
}

// dialLocked cancels any scheduled retry and starts a dial under a new generation.
func (c *Conn) dialLocked() {
	c.stopRetryLocked()
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
	c.dialCancel = cancel
	c.setStateLocked(StateConnecting)
	go c.dial(ctx, cancel, gen)
}

func (c *Conn) dial(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	sock, err := c.cfg.Dialer.Dial(ctx, c.cfg.URL, c.cfg.Header)
	cancel()

	c.mu.Lock()
	defer c.unlockAndNotify()
	if gen != c.gen {
		if sock != nil {
			_ = sock.Close()
		}
		return
	}
	c.dialCancel = nil
	if err != nil {
		c.logger.Warn().Err(err).Int("attempt", c.attempts).Msg("dial failed")
		c.handleCloseLocked()
		return
	}

	c.socket = sock
	c.resetAttemptsLocked()
	c.setStateLocked(StateOpen)
	c.logger.Info().Msg("connected")
	c.drainLocked()
	go c.readLoop(sock, gen)
}

// drainLocked flushes the queue in order. A failed write leaves the frame at
// the head and closes the socket so the read loop drives the reconnect.
func (c *Conn) drainLocked() {
	for len(c.queue) > 0 {
		if err := c.socket.Write(c.queue[0]); err != nil {
			c.logger.Warn().Err(err).Int("pending", len(c.queue)).Msg("flush failed, closing socket")
			_ = c.socket.Close()
			return
		}
		c.queue[0] = nil
		c.queue = c.queue[1:]
	}
	c.queue = nil
}

func (c *Conn) readLoop(sock Socket, gen uint64) {
	for {
		data, err := sock.Read()
		if err != nil {
			c.onSocketClosed(sock, gen, err)
			return
		}
		c.mu.Lock()
		stale := gen != c.gen
		c.mu.Unlock()
		if stale {
			return
		}
		c.dispatch(data)
	}
}

func (c *Conn) onSocketClosed(sock Socket, gen uint64, err error) {
	c.mu.Lock()
	defer c.unlockAndNotify()
	if gen != c.gen {
		return
	}
	_ = sock.Close()
	c.socket = nil
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Warn().Err(err).Msg("connection lost")
	} else {
		c.logger.Info().Err(err).Msg("connection closed")
	}
	c.handleCloseLocked()
}

// handleCloseLocked either schedules the next retry or settles in Closed.
func (c *Conn) handleCloseLocked() {
	if !c.shouldReconnect {
		c.terminateLocked()
		return
	}
	delay := c.policy.NextBackOff()
	if delay == backoff.Stop {
		c.logger.Error().Int("attempts", c.attempts).Msg("reconnect attempts exhausted")
		c.shouldReconnect = false
		c.terminateLocked()
		return
	}
	c.attempts++
	c.setStateLocked(StateClosed)
	gen := c.gen
	c.retryTimer = time.AfterFunc(delay, func() { c.retry(gen) })
	c.logger.Info().Int("attempt", c.attempts).Dur("delay", delay).Msg("reconnect scheduled")
}

func (c *Conn) retry(gen uint64) {
	c.mu.Lock()
	defer c.unlockAndNotify()
	if gen != c.gen || c.retryTimer == nil {
		return
	}
	c.retryTimer = nil
	if !c.shouldReconnect || c.closed {
		return
	}
	c.dialLocked()
}

func (c *Conn) terminateLocked() {
	c.queue = nil
	c.resetAttemptsLocked()
	c.setStateLocked(StateClosed)
}

func (c *Conn) resetAttemptsLocked() {
	c.attempts = 0
	c.policy.Reset()
}

func (c *Conn) stopRetryLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
}

// Disconnect closes the socket and stops reconnecting. Queued frames are
// discarded. A later Connect or Send starts over.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	defer c.unlockAndNotify()
	c.disconnectLocked()
}

func (c *Conn) disconnectLocked() {
	c.shouldReconnect = false
	c.stopRetryLocked()
	if c.dialCancel != nil {
		c.dialCancel()
		c.dialCancel = nil
	}
	c.gen++
	if c.socket != nil {
		c.setStateLocked(StateClosing)
		_ = c.socket.Close()
		c.socket = nil
	}
	c.terminateLocked()
}

// Close disconnects for good. Later calls to Send return ErrClosed.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.unlockAndNotify()
	if c.closed {
		return nil
	}
	c.closed = true
	c.disconnectLocked()
	return nil
}

// Send writes env now when the socket is open and nothing is queued;
// otherwise it queues env and, if no attempt is in flight, connects.
func (c *Conn) Send(env protocol.Envelope) error {
	if !protocol.IsClientType(env.Type) {
		return fmt.Errorf("%w: %q cannot be sent by a client", protocol.ErrUnknownType, env.Type)
	}
	frame, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.unlockAndNotify()
	if c.closed {
		return ErrClosed
	}

	if c.state == StateOpen && c.socket != nil && len(c.queue) == 0 {
		werr := c.socket.Write(frame)
		if werr == nil {
			return nil
		}
		c.logger.Warn().Err(werr).Str("type", string(env.Type)).Msg("write failed, frame queued")
		c.queue = append(c.queue, frame)
		_ = c.socket.Close()
		return nil
	}

	c.queue = append(c.queue, frame)
	if c.dialCancel == nil && c.retryTimer == nil && c.state != StateOpen {
		c.connectLocked()
	}
	return nil
}

func (c *Conn) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.pendingStates = append(c.pendingStates, s)
}

// unlockAndNotify releases c.mu and reports the transitions recorded while
// it was held. Only one goroutine delivers at a time, so observers see
// transitions in order and may call back into the Conn.
func (c *Conn) unlockAndNotify() {
	if c.notifying || len(c.pendingStates) == 0 {
		c.mu.Unlock()
		return
	}
	c.notifying = true
	for len(c.pendingStates) > 0 {
		pending := c.pendingStates
		c.pendingStates = nil
		observers := slices.Clone(c.observers)
		c.mu.Unlock()

		for _, s := range pending {
			for _, fn := range observers {
				fn(s)
			}
		}
		c.mu.Lock()
	}
	c.notifying = false
	c.mu.Unlock()
}
