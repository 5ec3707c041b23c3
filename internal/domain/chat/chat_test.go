// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package chat

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/roomcast/internal/logging"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/websocket"
	"github.com/tomtom215/roomcast/internal/websocket/wstest"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

type fixture struct {
	hub    *websocket.Hub
	router *websocket.Router
	chat   *Service
}

func newFixture(t *testing.T, history int) *fixture {
	t.Helper()
	f := &fixture{hub: websocket.NewHub(nil), router: websocket.NewRouter(), chat: New(history)}
	n := 0
	f.chat.newID = func() string { n++; return fmt.Sprintf("msg-%d", n) }
	f.chat.now = func() time.Time { return time.UnixMilli(1000) }
	f.chat.Register(f.router)
	return f
}

func (f *fixture) member(t *testing.T, id, room string) (*websocket.Session, *wstest.Recorder) {
	t.Helper()
	s, rec := wstest.Connect(t, f.hub, id, "name-"+id)
	if room != "" {
		if _, err := s.Join(room); err != nil {
			t.Fatalf("join %s: %v", room, err)
		}
	}
	return s, rec
}

func send(room, text string) protocol.Envelope {
	return protocol.New(protocol.TypeChatSend, protocol.ChatSendPayload{RoomID: room, Text: text})
}

func edit(id, text string) protocol.Envelope {
	return protocol.New(protocol.TypeChatEdit, protocol.ChatEditPayload{MessageID: id, NewText: text})
}

func typing(room string, on bool) protocol.Envelope {
	return protocol.New(protocol.TypeChatTyping, protocol.ChatTypingPayload{RoomID: room, IsTyping: on})
}

func errorCode(t *testing.T, rec *wstest.Recorder) string {
	t.Helper()
	return wstest.Last[protocol.ErrorPayload](t, rec, protocol.TypeError).Code
}

// u1 and u2 join lobby, u1 says "hi": u2 receives it and u1 gets no echo.
func TestLobbyScenario(t *testing.T) {
	f := newFixture(t, 0)
	u1, r1 := f.member(t, "u1", "lobby")
	_, r2 := f.member(t, "u2", "lobby")

	wstest.Dispatch(t, f.router, u1, send("lobby", "hi"))

	got := wstest.Last[protocol.ChatMessagePayload](t, r2, protocol.TypeChatMessage)
	want := protocol.ChatMessagePayload{
		ID: "msg-1", RoomID: "lobby", Text: "hi", UserID: "u1", Username: "name-u1", Timestamp: 1000,
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if n := wstest.Count(t, r1, protocol.TypeChatMessage); n != 0 {
		t.Errorf("expected no echo to sender, got %d", n)
	}
	if members := f.hub.Rooms().Members("lobby"); fmt.Sprint(members) != "[u1 u2]" {
		t.Errorf("expected [u1 u2], got %v", members)
	}
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  protocol.Envelope
		want string
	}{
		{"not a member", send("elsewhere", "hi"), CodeNotInRoom},
		{"blank text", send("lobby", "   "), CodeEmptyMessage},
		{"missing room", send("", "hi"), websocket.CodeInvalidPayload},
		{"too long", send("lobby", strings.Repeat("x", protocol.MaxTextLength+1)), websocket.CodeInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			u1, r1 := f.member(t, "u1", "lobby")
			wstest.Dispatch(t, f.router, u1, tt.env)
			if got := errorCode(t, r1); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if f.chat.HistoryLen() != 0 {
				t.Error("expected nothing stored")
			}
		})
	}
}

func TestEdit(t *testing.T) {
	f := newFixture(t, 0)
	u1, r1 := f.member(t, "u1", "lobby")
	u2, r2 := f.member(t, "u2", "lobby")
	wstest.Dispatch(t, f.router, u1, send("lobby", "helo"))

	wstest.Dispatch(t, f.router, u1, edit("msg-1", " hello "))
	for name, rec := range map[string]*wstest.Recorder{"author": r1, "peer": r2} {
		got := wstest.Last[protocol.ChatEditedPayload](t, rec, protocol.TypeChatEdited)
		want := protocol.ChatEditedPayload{MessageID: "msg-1", RoomID: "lobby", NewText: "hello", EditedBy: "name-u1"}
		if got != want {
			t.Errorf("%s: expected %+v, got %+v", name, want, got)
		}
	}

	wstest.Dispatch(t, f.router, u2, edit("msg-1", "mine now"))
	if got := errorCode(t, r2); got != CodeNotAuthor {
		t.Errorf("expected %q, got %q", CodeNotAuthor, got)
	}
	wstest.Dispatch(t, f.router, u1, edit("msg-404", "x"))
	if got := errorCode(t, r1); got != CodeMessageNotFound {
		t.Errorf("expected %q, got %q", CodeMessageNotFound, got)
	}
	wstest.Dispatch(t, f.router, u1, edit("msg-1", " "))
	if got := errorCode(t, r1); got != CodeEmptyMessage {
		t.Errorf("expected %q, got %q", CodeEmptyMessage, got)
	}

	if err := u1.Leave("lobby"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	wstest.Dispatch(t, f.router, u1, edit("msg-1", "after leaving"))
	if got := errorCode(t, r1); got != CodeNotInRoom {
		t.Errorf("expected %q, got %q", CodeNotInRoom, got)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	f := newFixture(t, 2)
	u1, r1 := f.member(t, "u1", "lobby")
	f.member(t, "u2", "lobby")
	for i := 0; i < 3; i++ {
		wstest.Dispatch(t, f.router, u1, send("lobby", fmt.Sprint("m", i)))
	}
	if got := f.chat.HistoryLen(); got != 2 {
		t.Errorf("expected 2 retained, got %d", got)
	}
	wstest.Dispatch(t, f.router, u1, edit("msg-1", "too late"))
	if got := errorCode(t, r1); got != CodeMessageNotFound {
		t.Errorf("expected evicted message to be %q, got %q", CodeMessageNotFound, got)
	}
}

func TestTyping(t *testing.T) {
	f := newFixture(t, 0)
	u1, r1 := f.member(t, "u1", "lobby")
	u2, r2 := f.member(t, "u2", "lobby")
	outsider, ro := f.member(t, "u3", "")

	wstest.Dispatch(t, f.router, u1, typing("lobby", true))
	wstest.Dispatch(t, f.router, u2, typing("lobby", true))

	got := wstest.Last[protocol.ChatIsTypingPayload](t, r1, protocol.TypeChatIsTyping)
	if fmt.Sprint(got.UserIDs) != "[u1 u2]" {
		t.Errorf("expected [u1 u2], got %v", got.UserIDs)
	}
	if n := wstest.Count(t, r2, protocol.TypeChatIsTyping); n != 1 {
		t.Errorf("expected u2 to see only u1's update, got %d", n)
	}

	wstest.Dispatch(t, f.router, u1, typing("lobby", false))
	got = wstest.Last[protocol.ChatIsTypingPayload](t, r2, protocol.TypeChatIsTyping)
	if fmt.Sprint(got.UserIDs) != "[u2]" {
		t.Errorf("expected [u2], got %v", got.UserIDs)
	}

	wstest.Dispatch(t, f.router, outsider, typing("lobby", true))
	if code := errorCode(t, ro); code != CodeNotInRoom {
		t.Errorf("expected %q, got %q", CodeNotInRoom, code)
	}
}

func TestTypingClearedOnDisconnect(t *testing.T) {
	f := newFixture(t, 0)
	u1, _ := f.member(t, "u1", "lobby")
	_, r2 := f.member(t, "u2", "lobby")
	wstest.Dispatch(t, f.router, u1, typing("lobby", true))
	r2.Reset()

	wstest.Disconnect(f.hub, u1, f.chat)
	got := wstest.Last[protocol.ChatIsTypingPayload](t, r2, protocol.TypeChatIsTyping)
	if len(got.UserIDs) != 0 {
		t.Errorf("expected empty typing list, got %v", got.UserIDs)
	}

	// A user who was not typing produces no update.
	r2.Reset()
	u3, _ := f.member(t, "u3", "lobby")
	wstest.Disconnect(f.hub, u3, f.chat)
	if n := len(r2.Frames(t)); n != 0 {
		t.Errorf("expected no frames, got %d", n)
	}
}
