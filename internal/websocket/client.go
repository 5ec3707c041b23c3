// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/roomcast/internal/metrics"
)

// PumpConfig holds per-connection limits and timings.
type PumpConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBufferSize int
	// MessageRate is inbound messages per second. Zero disables limiting.
	MessageRate  float64
	MessageBurst int
}

// DefaultPumpConfig returns the values used when nothing is configured.
func DefaultPumpConfig() PumpConfig {
	return PumpConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 512 * 1024, // 512 KB
		SendBufferSize: 256,
		MessageRate:    20,
		MessageBurst:   40,
	}
}

func (c PumpConfig) withDefaults() PumpConfig {
	d := DefaultPumpConfig()
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = d.SendBufferSize
	}
	if c.MessageBurst <= 0 {
		c.MessageBurst = d.MessageBurst
	}
	return c
}

var _ ConnHandle = (*Client)(nil)

// Client is a middleman between the websocket connection and the hub.
// It implements ConnHandle.
type Client struct {
	cfg     PumpConfig
	hub     *Hub
	conn    *websocket.Conn
	session *Session
	router  *Router
	limiter *rate.Limiter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// onExit runs once after the connection is unregistered.
	onExit func(roomsLeft []string)
}

func newClient(hub *Hub, conn *websocket.Conn, s *Session, router *Router, cfg PumpConfig, onExit func([]string)) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:     cfg,
		hub:     hub,
		conn:    conn,
		session: s,
		router:  router,
		send:    make(chan []byte, cfg.SendBufferSize),
		done:    make(chan struct{}),
		onExit:  onExit,
	}
	if cfg.MessageRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.MessageRate), cfg.MessageBurst)
	}
	return c
}

// Enqueue queues frame for the write pump without blocking.
func (c *Client) Enqueue(frame []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close signals both pumps to stop. The send channel is never closed, so a
// concurrent Enqueue cannot panic.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump pumps messages from the websocket connection to the router.
func (c *Client) readPump() {
	log := c.session.Logger()
	defer func() {
		c.Close()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
		left := c.hub.Unregister(c.session.ID())
		c.session.close()
		if c.onExit != nil {
			c.onExit(left)
		}
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait)); err != nil {
		log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				log.Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()

		if msgType != websocket.TextMessage {
			c.session.ReportError(CodeInvalidMessage, "only text frames are accepted", nil)
			continue
		}
		if c.limiter != nil && !c.limiter.Allow() {
			c.session.ReportError(CodeRateLimited, "too many messages", nil)
			continue
		}
		c.router.Dispatch(c.session.Context(), c.session, data)
	}
}

// writePump pumps frames from the send buffer to the websocket connection.
// On Close it flushes what is already buffered, then sends a close frame.
func (c *Client) writePump() {
	log := c.session.Logger()
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case frame := <-c.send:
			if !c.write(frame) {
				return
			}

		case <-c.done:
			c.drain()
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
				log.Debug().Err(err).Msg("failed to write close message")
			}
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				log.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(frame []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
		c.session.Logger().Error().Err(err).Msg("failed to set write deadline")
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		metrics.WSErrors.WithLabelValues("write").Inc()
		c.session.Logger().Debug().Err(err).Msg("failed to write message")
		return false
	}
	metrics.WSMessagesSent.Inc()
	return true
}

func (c *Client) drain() {
	for {
		select {
		case frame := <-c.send:
			if !c.write(frame) {
				return
			}
		default:
			return
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
