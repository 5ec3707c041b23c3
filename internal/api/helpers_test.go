// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/roomcast/internal/ingress"
	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
	"github.com/tomtom215/roomcast/internal/websocket/wstest"
)

func init() { //nolint:gochecknoinits // test logger setup
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

type fakeDirectory map[string]string

func (d fakeDirectory) Users(ids []string) []protocol.User {
	out := make([]protocol.User, len(ids))
	for i, id := range ids {
		out[i] = protocol.User{ID: id, Username: d[id]}
	}
	return out
}

func (d fakeDirectory) Count() int { return len(d) }

type fakePublisher struct {
	err     error
	targets []ingress.Target
}

func (p *fakePublisher) Publish(_ context.Context, _ protocol.Envelope, target ingress.Target) (string, error) {
	p.targets = append(p.targets, target)
	if p.err != nil {
		return "", p.err
	}
	return "msg-1", nil
}

type fixture struct {
	hub     *websocket.Hub
	handler http.Handler
	recs    map[string]*wstest.Recorder
}

// newFixture connects alice and bob to lobby and carol to nothing.
func newFixture(t *testing.T, publisher Publisher, mw *ChiMiddleware) *fixture {
	t.Helper()
	hub := websocket.NewHub(nil)
	f := &fixture{hub: hub, recs: map[string]*wstest.Recorder{}}
	for _, id := range []string{"alice", "bob", "carol"} {
		_, f.recs[id] = wstest.Connect(t, hub, id, id)
	}
	for _, id := range []string{"alice", "bob"} {
		if _, err := hub.Join("lobby", id); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	dir := fakeDirectory{"alice": "Alice", "bob": "Bob", "carol": "Carol"}
	delivery := "test"
	if publisher == nil {
		delivery = ""
	}
	if mw == nil {
		cfg := DefaultChiMiddlewareConfig()
		cfg.RateLimitDisabled = true
		mw = NewChiMiddleware(cfg)
	}
	f.handler = NewRouter(NewHandler(hub, dir, publisher, delivery), mw, nil, "").Setup()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, resp
}

// decodeData re-marshals resp.Data into P.
func decodeData[P any](t *testing.T, resp APIResponse) P {
	t.Helper()
	var p P
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	return p
}
