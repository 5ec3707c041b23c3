// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package websocket

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/protocol"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// fakeHandle records enqueued frames in memory.
type fakeHandle struct {
	mu     sync.Mutex
	frames [][]byte
	limit  int
	closed bool
}

func newFakeHandle(limit int) *fakeHandle {
	return &fakeHandle{limit: limit}
}

func (f *fakeHandle) Enqueue(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrConnectionClosed
	}
	if f.limit > 0 && len(f.frames) >= f.limit {
		return ErrSendBufferFull
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeHandle) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeHandle) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// received decodes every frame the handle accepted.
func (f *fakeHandle) received(t *testing.T) []protocol.Frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Frame, 0, len(f.frames))
	for _, raw := range f.frames {
		fr, err := protocol.DecodeServer(raw)
		if err != nil {
			t.Fatalf("undecodable frame %s: %v", raw, err)
		}
		out = append(out, fr)
	}
	return out
}

func (f *fakeHandle) types(t *testing.T) []protocol.Type {
	t.Helper()
	frames := f.received(t)
	out := make([]protocol.Type, len(frames))
	for i, fr := range frames {
		out[i] = fr.Type
	}
	return out
}

// connect registers a fake connection and returns its session.
func connect(t *testing.T, hub *Hub, id string) (*Session, *fakeHandle) {
	t.Helper()
	h := newFakeHandle(0)
	if err := hub.Register(id, h); err != nil {
		t.Fatalf("Register(%q) failed: %v", id, err)
	}
	return NewSession(context.Background(), hub, id, "name-"+id, "127.0.0.1:1"), h
}

// lastError returns the payload of the last error frame the handle received.
func lastError(t *testing.T, h *fakeHandle) protocol.ErrorPayload {
	t.Helper()
	frames := h.received(t)
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type == protocol.TypeError {
			p, err := protocol.DecodePayload[protocol.ErrorPayload](frames[i])
			if err != nil {
				t.Fatalf("decode error payload: %v", err)
			}
			return p
		}
	}
	t.Fatalf("no error frame received, got %v", h.types(t))
	return protocol.ErrorPayload{}
}
