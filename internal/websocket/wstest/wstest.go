// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

// Package wstest provides in-memory connections for testing message handlers
// without a network.
package wstest

import (
	"context"
	"sync"
	"testing"

	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
)

var _ websocket.ConnHandle = (*Recorder)(nil)

// Recorder is a websocket.ConnHandle that keeps every frame it is given.
type Recorder struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

// Enqueue implements websocket.ConnHandle.
func (r *Recorder) Enqueue(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return websocket.ErrConnectionClosed
	}
	r.frames = append(r.frames, frame)
	return nil
}

// Close implements websocket.ConnHandle.
func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Reset forgets recorded frames.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

// Frames decodes every recorded frame.
func (r *Recorder) Frames(t testing.TB) []protocol.Frame {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.Frame, 0, len(r.frames))
	for _, raw := range r.frames {
		f, err := protocol.DecodeServer(raw)
		if err != nil {
			t.Fatalf("recorded frame %s does not decode: %v", raw, err)
		}
		out = append(out, f)
	}
	return out
}

// Types lists the tags of the recorded frames.
func (r *Recorder) Types(t testing.TB) []protocol.Type {
	t.Helper()
	frames := r.Frames(t)
	out := make([]protocol.Type, len(frames))
	for i, f := range frames {
		out[i] = f.Type
	}
	return out
}

// Last returns the payload of the most recent frame tagged typ, failing the test if there is none.
func Last[P any](t testing.TB, r *Recorder, typ protocol.Type) P {
	t.Helper()
	frames := r.Frames(t)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type != typ {
			continue
		}
		p, err := protocol.DecodePayload[P](frames[i])
		if err != nil {
			t.Fatalf("decode %s payload: %v", typ, err)
		}
		return p
	}
	t.Fatalf("no %s frame recorded, got %v", typ, r.Types(t))
	var zero P
	return zero
}

// Count returns how many frames tagged typ were recorded.
func Count(t testing.TB, r *Recorder, typ protocol.Type) int {
	t.Helper()
	n := 0
	for _, f := range r.Frames(t) {
		if f.Type == typ {
			n++
		}
	}
	return n
}

// Connect registers an in-memory connection with hub.
func Connect(t testing.TB, hub *websocket.Hub, id, username string) (*websocket.Session, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	if err := hub.Register(id, rec); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
	return websocket.NewSession(context.Background(), hub, id, username, "127.0.0.1:0"), rec
}

// Dispatch encodes env and routes it as if s had sent it.
func Dispatch(t testing.TB, r *websocket.Router, s *websocket.Session, env protocol.Envelope) {
	t.Helper()
	raw, err := protocol.Encode(env)
	if err != nil {
		t.Fatalf("encode %s: %v", env.Type, err)
	}
	r.Dispatch(context.Background(), s, raw)
}

// Disconnect unregisters s and runs hooks the way the gateway does.
func Disconnect(hub *websocket.Hub, s *websocket.Session, hooks ...websocket.LifecycleHook) []string {
	left := hub.Unregister(s.ID())
	for _, h := range hooks {
		h.OnDisconnect(s, left)
	}
	return left
}
