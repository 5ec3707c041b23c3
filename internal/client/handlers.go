// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package client

import (
	"github.com/tomtom215/roomcast/internal/protocol"
)

// Handler receives a decoded server frame.
type Handler func(f protocol.Frame)

// Subscription identifies one registered handler.
type Subscription struct {
	conn *Conn
	typ  protocol.Type
	id   uint64
	fn   Handler
}

// Unsubscribe removes the handler. Calling it twice is harmless.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.conn != nil {
		s.conn.Off(s)
	}
}

// On registers fn for frames tagged t. Several handlers per tag run in
// registration order.
func (c *Conn) On(t protocol.Type, fn Handler) *Subscription {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.nextSub++
	sub := &Subscription{conn: c, typ: t, id: c.nextSub, fn: fn}
	c.handlers[t] = append(c.handlers[t], sub)
	return sub
}

// Off removes sub.
func (c *Conn) Off(sub *Subscription) {
	if sub == nil {
		return
	}
	c.hmu.Lock()
	defer c.hmu.Unlock()
	subs := c.handlers[sub.typ]
	for i, s := range subs {
		if s.id == sub.id {
			// Copy so a dispatch holding the old slice is unaffected.
			next := make([]*Subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(c.handlers, sub.typ)
			} else {
				c.handlers[sub.typ] = next
			}
			return
		}
	}
}

// Listen registers a typed handler. Payloads that do not decode into P are
// logged and dropped.
func Listen[P any](c *Conn, t protocol.Type, fn func(P)) *Subscription {
	return c.On(t, func(f protocol.Frame) {
		p, err := protocol.DecodePayload[P](f)
		if err != nil {
			c.logger.Warn().Err(err).Str("type", string(t)).Msg("dropping undecodable payload")
			return
		}
		fn(p)
	})
}

// dispatch decodes one inbound frame and runs its handlers outside any lock.
func (c *Conn) dispatch(data []byte) {
	f, err := protocol.DecodeServer(data)
	if err != nil {
		c.logger.Warn().Err(err).Msg("dropping malformed frame")
		return
	}
	c.hmu.RLock()
	subs := c.handlers[f.Type]
	c.hmu.RUnlock()
	if len(subs) == 0 {
		c.logger.Debug().Str("type", string(f.Type)).Msg("no handler for frame")
		return
	}
	for _, s := range subs {
		c.invoke(s, f)
	}
}

func (c *Conn) invoke(s *Subscription, f protocol.Frame) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error().Str("type", string(f.Type)).Interface("panic", rec).Msg("handler panicked")
		}
	}()
	s.fn(f)
}
