// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestEncode(t *testing.T) {
	t.Run("chat message", func(t *testing.T) {
		data, err := Encode(ChatMessage(ChatMessagePayload{ID: "m1", RoomID: "lobby", Text: "hi"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("encoded frame is not JSON: %v", err)
		}
		if got["type"] != "chat:message" {
			t.Errorf("expected type chat:message, got %v", got["type"])
		}
		payload, ok := got["payload"].(map[string]any)
		if !ok {
			t.Fatalf("expected payload object, got %T", got["payload"])
		}
		if payload["roomId"] != "lobby" || payload["text"] != "hi" {
			t.Errorf("unexpected payload %v", payload)
		}
	})

	t.Run("nil payload becomes empty object", func(t *testing.T) {
		data, err := Encode(New(TypePing, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"type":"system:ping","payload":{}}` {
			t.Errorf("unexpected frame %s", data)
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		_, err := Encode(New("game:move", nil))
		if !errors.Is(err, ErrUnknownType) {
			t.Errorf("expected ErrUnknownType, got %v", err)
		}
	})
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		decode   func([]byte) (Frame, error)
		wantType Type
		wantCode string
	}{
		{"client frame", `{"type":"chat:send","payload":{"roomId":"a","text":"x"}}`, DecodeClient, TypeChatSend, ""},
		{"server frame", `{"type":"system:pong","payload":{"time":1}}`, DecodeServer, TypePong, ""},
		{"any direction", `{"type":"system:pong"}`, Decode, TypePong, ""},
		{"empty", ``, Decode, "", CodeInvalidMessage},
		{"not json", `hello`, DecodeClient, "", CodeInvalidMessage},
		{"array", `[1,2]`, DecodeClient, "", CodeInvalidMessage},
		{"missing type", `{"payload":{}}`, DecodeClient, "", CodeInvalidMessage},
		{"unknown tag", `{"type":"game:move","payload":{}}`, DecodeClient, "", CodeUnknownType},
		{"server tag from client", `{"type":"chat:message","payload":{}}`, DecodeClient, "", CodeUnknownType},
		{"client tag from server", `{"type":"chat:send","payload":{}}`, DecodeServer, "", CodeUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.decode([]byte(tt.input))
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if f.Type != tt.wantType {
					t.Errorf("expected type %s, got %s", tt.wantType, f.Type)
				}
				return
			}
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *Error, got %T (%v)", err, err)
			}
			if perr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, perr.Code)
			}
			if tt.wantCode == CodeUnknownType && !errors.Is(err, ErrUnknownType) {
				t.Errorf("expected error to wrap ErrUnknownType")
			}
		})
	}
}

func TestDecodePayload(t *testing.T) {
	f, err := DecodeClient([]byte(`{"type":"timer:start","payload":{"roomId":"r","durationSeconds":30}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := DecodePayload[TimerStartPayload](f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RoomID != "r" || p.DurationSeconds != 30 {
		t.Errorf("unexpected payload %+v", p)
	}

	if _, err := DecodePayload[PingPayload](Frame{Type: TypePing}); err != nil {
		t.Errorf("missing payload should decode to zero value, got %v", err)
	}

	_, err = DecodePayload[TimerStartPayload](Frame{Type: TypeTimerStart, Payload: json.RawMessage(`{"durationSeconds":"ten"}`)})
	var perr *Error
	if !errors.As(err, &perr) || perr.Code != CodeInvalidPayload {
		t.Errorf("expected invalid_payload error, got %v", err)
	}
}

func TestFrameEnvelopeRoundTrip(t *testing.T) {
	in := `{"type":"chat:message","payload":{"id":"1","roomId":"r","text":"t","userId":"u","username":"n","timestamp":5}}`
	f, err := DecodeServer([]byte(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := Encode(f.Envelope())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), `"text":"t"`) {
		t.Errorf("payload not preserved: %s", out)
	}
}

func TestSchemaDirections(t *testing.T) {
	client := ClientTypes()
	server := ServerTypes()
	if len(client) != 13 {
		t.Errorf("expected 13 client types, got %d", len(client))
	}
	if len(server) != 9 {
		t.Errorf("expected 9 server types, got %d", len(server))
	}
	for _, ct := range client {
		if IsServerType(ct) {
			t.Errorf("%s reported as both directions", ct)
		}
	}
	if _, ok := DirectionOf("nope"); ok {
		t.Error("expected unknown tag to have no direction")
	}
	for i := 1; i < len(client); i++ {
		if client[i-1] >= client[i] {
			t.Errorf("client types not sorted: %v", client)
		}
	}
}

func TestBuildersNormalizeNilSlices(t *testing.T) {
	data, err := Encode(UsersForRoom(UsersForRoomPayload{RoomID: "r"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"users":[]`) {
		t.Errorf("expected empty users array, got %s", data)
	}
	data, err = Encode(ChatIsTyping(ChatIsTypingPayload{RoomID: "r"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"userIds":[]`) {
		t.Errorf("expected empty userIds array, got %s", data)
	}
	data, err = Encode(GameState(GameStatePayload{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"players":[]`) {
		t.Errorf("expected empty players array, got %s", data)
	}
}

func TestNewServerPayload(t *testing.T) {
	for _, typ := range ServerTypes() {
		p, ok := NewServerPayload(typ)
		if !ok || p == nil {
			t.Errorf("expected a payload for %q", typ)
		}
	}
	for _, typ := range ClientTypes() {
		if _, ok := NewServerPayload(typ); ok {
			t.Errorf("expected no server payload for client type %q", typ)
		}
	}
	if _, ok := NewServerPayload("chat:unknown"); ok {
		t.Error("expected no payload for an unknown type")
	}
}
