// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package ingress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/roomcast/internal/config"
	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
	"github.com/tomtom215/roomcast/internal/websocket/wstest"
)

func init() { //nolint:gochecknoinits // test logger setup
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

func outcome(name string) float64 {
	return testutil.ToFloat64(metrics.IngressMessages.WithLabelValues(name))
}

func encode(t *testing.T, env protocol.Envelope) []byte {
	t.Helper()
	raw, err := protocol.Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return raw
}

func newMessage(payload []byte, meta map[string]string) *message.Message {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	for k, v := range meta {
		msg.Metadata.Set(k, v)
	}
	return msg
}

func TestBridge_Handle(t *testing.T) {
	pong := protocol.Pong(protocol.PongPayload{Time: 42})

	tests := []struct {
		name     string
		payload  []byte
		meta     map[string]string
		outcome  string
		receives map[string]int
	}{
		{
			name:     "room fan-out",
			payload:  encode(t, pong),
			meta:     map[string]string{MetadataRoomID: "lobby"},
			outcome:  metrics.IngressDelivered,
			receives: map[string]int{"alice": 1, "bob": 1, "carol": 0},
		},
		{
			name:     "room fan-out with exclusion",
			payload:  encode(t, pong),
			meta:     map[string]string{MetadataRoomID: "lobby", MetadataExcludeID: "alice"},
			outcome:  metrics.IngressDelivered,
			receives: map[string]int{"alice": 0, "bob": 1, "carol": 0},
		},
		{
			name:     "single user",
			payload:  encode(t, pong),
			meta:     map[string]string{MetadataUserID: "carol"},
			outcome:  metrics.IngressDelivered,
			receives: map[string]int{"alice": 0, "bob": 0, "carol": 1},
		},
		{
			name:     "everyone",
			payload:  encode(t, pong),
			outcome:  metrics.IngressDelivered,
			receives: map[string]int{"alice": 1, "bob": 1, "carol": 1},
		},
		{
			name:     "everyone but one",
			payload:  encode(t, pong),
			meta:     map[string]string{MetadataExcludeID: "bob"},
			outcome:  metrics.IngressDelivered,
			receives: map[string]int{"alice": 1, "bob": 0, "carol": 1},
		},
		{
			name:     "empty room",
			payload:  encode(t, pong),
			meta:     map[string]string{MetadataRoomID: "nowhere"},
			outcome:  metrics.IngressRoomNotFound,
			receives: map[string]int{"alice": 0, "bob": 0, "carol": 0},
		},
		{
			name:     "blank room id",
			payload:  encode(t, pong),
			meta:     map[string]string{MetadataRoomID: "   "},
			outcome:  metrics.IngressMalformed,
			receives: map[string]int{"alice": 0, "bob": 0, "carol": 0},
		},
		{
			name:     "not json",
			payload:  []byte("not json"),
			outcome:  metrics.IngressMalformed,
			receives: map[string]int{"alice": 0, "bob": 0, "carol": 0},
		},
		{
			name:     "client message type",
			payload:  []byte(`{"type":"system:ping","payload":{}}`),
			outcome:  metrics.IngressMalformed,
			receives: map[string]int{"alice": 0, "bob": 0, "carol": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := websocket.NewHub(nil)
			recs := map[string]*wstest.Recorder{}
			for _, id := range []string{"alice", "bob", "carol"} {
				_, recs[id] = wstest.Connect(t, hub, id, id)
			}
			for _, id := range []string{"alice", "bob"} {
				if _, err := hub.Join("lobby", id); err != nil {
					t.Fatalf("join %s: %v", id, err)
				}
			}

			bridge := NewBridge(nil, hub, "test", nil)
			before := outcome(tt.outcome)

			if err := bridge.Handle(newMessage(tt.payload, tt.meta)); err != nil {
				t.Fatalf("expected nil error, got %v", err)
			}

			if got := outcome(tt.outcome) - before; got != 1 {
				t.Errorf("expected %s counter to grow by 1, got %v", tt.outcome, got)
			}
			for id, want := range tt.receives {
				if got := wstest.Count(t, recs[id], protocol.TypePong); got != want {
					t.Errorf("expected %s to receive %d pongs, got %d", id, want, got)
				}
			}
		})
	}
}

func TestBridge_HandlePreservesPayload(t *testing.T) {
	hub := websocket.NewHub(nil)
	_, rec := wstest.Connect(t, hub, "alice", "Alice")
	bridge := NewBridge(nil, hub, "test", nil)

	env := protocol.ChatMessage(protocol.ChatMessagePayload{ID: "msg-1", RoomID: "lobby", UserID: "bob", Username: "Bob", Text: "hello"})
	if err := bridge.Handle(newMessage(encode(t, env), map[string]string{MetadataUserID: "alice"})); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	got := wstest.Last[protocol.ChatMessagePayload](t, rec, protocol.TypeChatMessage)
	if got.Text != "hello" || got.Username != "Bob" {
		t.Errorf("expected payload to pass through unchanged, got %+v", got)
	}
}

type failingFanout struct{ err error }

func (f failingFanout) Broadcast(protocol.Envelope, websocket.BroadcastOptions) error { return f.err }
func (f failingFanout) BroadcastToRoom(string, protocol.Envelope, websocket.BroadcastOptions) error {
	return f.err
}
func (f failingFanout) SendToUser(string, protocol.Envelope) error { return f.err }

func TestBridge_HandleFailure(t *testing.T) {
	boom := errors.New("boom")
	bridge := NewBridge(nil, failingFanout{err: boom}, "test", nil)
	before := outcome(metrics.IngressFailed)

	err := bridge.Handle(newMessage(encode(t, protocol.Pong(protocol.PongPayload{Time: 1})), nil))
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if got := outcome(metrics.IngressFailed) - before; got != 1 {
		t.Errorf("expected failed counter to grow by 1, got %v", got)
	}
}

func TestPublisher_RejectsClientTypes(t *testing.T) {
	backend := NewGoChannelBackend(nil)
	defer backend.Close()

	pub := NewPublisher(backend.Publisher, "test")
	_, err := pub.Publish(context.Background(), protocol.New(protocol.TypePing, protocol.PingPayload{}), Target{})
	if !errors.Is(err, protocol.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
	if pub.Topic() != "test" {
		t.Errorf("expected topic test, got %s", pub.Topic())
	}
}

func TestBridge_EndToEnd(t *testing.T) {
	backend := NewGoChannelBackend(nil)
	defer backend.Close()

	hub := websocket.NewHub(nil)
	_, alice := wstest.Connect(t, hub, "alice", "Alice")
	_, bob := wstest.Connect(t, hub, "bob", "Bob")
	if _, err := hub.Join("lobby", "alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewBridge(backend.Subscriber, hub, "roomcast.events", nil)
	done := make(chan error, 1)
	go func() { done <- bridge.RunWithContext(ctx) }()

	pub := NewPublisher(backend.Publisher, "roomcast.events")
	env := protocol.Pong(protocol.PongPayload{Time: 7})

	// gochannel drops messages published before the subscription exists.
	deadline := time.Now().Add(2 * time.Second)
	for wstest.Count(t, alice, protocol.TypePong) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for ingress delivery")
		}
		id, err := pub.Publish(ctx, env, Target{RoomID: "lobby"})
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		if id == "" {
			t.Error("expected a message id")
		}
		time.Sleep(20 * time.Millisecond)
	}

	if got := wstest.Count(t, bob, protocol.TypePong); got != 0 {
		t.Errorf("expected bob outside the room to receive nothing, got %d", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop after cancel")
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		wantErr bool
	}{
		{name: "default", backend: "", wantErr: false},
		{name: "gochannel", backend: config.BackendGoChannel, wantErr: false},
		{name: "unknown", backend: "kafka", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Ingress: config.IngressConfig{Backend: tt.backend}}
			b, err := Open(cfg, nil)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if b.Name != config.BackendGoChannel {
				t.Errorf("expected gochannel backend, got %s", b.Name)
			}
			if err := b.Close(); err != nil {
				t.Errorf("Close failed: %v", err)
			}
		})
	}
}

func TestBackend_CloseJoinsErrors(t *testing.T) {
	var order []string
	b := &Backend{closers: []func() error{
		func() error { order = append(order, "first"); return errors.New("a") },
		func() error { order = append(order, "second"); return errors.New("b") },
	}}

	err := b.Close()
	if err == nil || !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Errorf("expected both errors joined, got %v", err)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Errorf("expected reverse close order, got %v", order)
	}
}

func TestLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewLoggerAdapterFrom(logging.NewTestLogger(&buf))

	adapter.With(watermill.LogFields{"topic": "t1"}).Info("subscribed", watermill.LogFields{"n": 1})
	adapter.Error("failed", errors.New("boom"), nil)

	out := buf.String()
	for _, want := range []string{"subscribed", "t1", "failed", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got %s", want, out)
		}
	}
}
