// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/roomcast/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

var errDialRefused = errors.New("connection refused")

// fakeSocket is an in-memory Socket.
type fakeSocket struct {
	in        chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []string
	// failWrites makes the next n writes fail.
	failWrites int
	// stubborn keeps Read blocked after Close, to exercise the stale guard.
	stubborn bool
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{in: make(chan []byte, 16), done: make(chan struct{})}
}

func (s *fakeSocket) Read() ([]byte, error) {
	if s.stubborn {
		return <-s.in, nil
	}
	select {
	case data := <-s.in:
		return data, nil
	case <-s.done:
		return nil, io.EOF
	}
}

func (s *fakeSocket) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return io.ErrClosedPipe
	default:
	}
	if s.failWrites > 0 {
		s.failWrites--
		return io.ErrShortWrite
	}
	s.written = append(s.written, string(frame))
	return nil
}

func (s *fakeSocket) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *fakeSocket) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *fakeSocket) frames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

// dialResult scripts one Dial call. A nil socket with a nil error blocks
// until the dial context ends or release is closed.
type dialResult struct {
	socket  *fakeSocket
	err     error
	release chan struct{}
}

// fakeDialer returns scripted results in order, then fallback forever.
type fakeDialer struct {
	mu       sync.Mutex
	script   []dialResult
	fallback dialResult
	calls    int
	canceled int
}

func (d *fakeDialer) Dial(ctx context.Context, _ string, _ http.Header) (Socket, error) {
	d.mu.Lock()
	d.calls++
	r := d.fallback
	if len(d.script) > 0 {
		r = d.script[0]
		d.script = d.script[1:]
	}
	d.mu.Unlock()

	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			d.mu.Lock()
			d.canceled++
			d.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.socket == nil {
		return newFakeSocket(), nil
	}
	return r.socket, nil
}

func (d *fakeDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) cancelCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canceled
}

func newTestConn(d Dialer, maxAttempts int) *Conn {
	return New(Config{
		URL:                  "ws://test/ws",
		MaxReconnectAttempts: maxAttempts,
		BaseDelay:            time.Millisecond,
		DialTimeout:          time.Second,
		Dialer:               d,
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
