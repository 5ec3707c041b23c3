// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

// Package chat handles room messages, edits and typing indicators.
package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/rooms"
	"github.com/tomtom215/roomcast/internal/websocket"
)

// DefaultHistorySize bounds the messages kept for edits.
const DefaultHistorySize = 200

// Error codes sent to the originating connection.
const (
	CodeNotInRoom       = "not_in_room"
	CodeEmptyMessage    = "empty_message"
	CodeMessageNotFound = "message_not_found"
	CodeNotAuthor       = "not_author"
)

type message struct {
	id       string
	roomID   string
	text     string
	authorID string
}

// Service keeps recent messages and typing state in memory. It is a
// websocket.LifecycleHook so typing state is cleared on disconnect.
type Service struct {
	mu     sync.Mutex
	limit  int
	order  []string
	byID   map[string]*message
	typing map[string]map[string]struct{}
	now    func() time.Time
	newID  func() string
}

// New creates a chat service keeping at most historySize messages.
func New(historySize int) *Service {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Service{
		limit:  historySize,
		byID:   make(map[string]*message),
		typing: make(map[string]map[string]struct{}),
		now:    time.Now,
		newID:  func() string { return "msg-" + uuid.New().String() },
	}
}

// Register installs the chat handlers.
func (c *Service) Register(r *websocket.Router) {
	websocket.Handle(r, protocol.TypeChatSend, c.handleSend)
	websocket.Handle(r, protocol.TypeChatEdit, c.handleEdit)
	websocket.Handle(r, protocol.TypeChatTyping, c.handleTyping)
}

// OnConnect implements websocket.LifecycleHook.
func (c *Service) OnConnect(*websocket.Session) {}

// OnDisconnect drops the user from every typing set it was in and tells the
// remaining members.
func (c *Service) OnDisconnect(s *websocket.Session, roomsLeft []string) {
	for _, room := range roomsLeft {
		ids, changed := c.setTyping(room, s.ID(), false)
		if !changed {
			continue
		}
		env := protocol.ChatIsTyping(protocol.ChatIsTypingPayload{RoomID: room, UserIDs: ids})
		if err := s.BroadcastToRoom(room, env, true); err != nil && !errors.Is(err, rooms.ErrRoomNotFound) {
			s.Logger().Warn().Err(err).Str("room_id", room).Msg("failed to clear typing state")
		}
	}
}

// HistoryLen returns the number of retained messages.
func (c *Service) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

func (c *Service) handleSend(_ context.Context, s *websocket.Session, p protocol.ChatSendPayload) error {
	roomID := strings.TrimSpace(p.RoomID)
	if !s.IsMember(roomID) {
		return websocket.NewActionError(CodeNotInRoom, "join the room before sending messages")
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return websocket.NewActionError(CodeEmptyMessage, "message text is empty")
	}

	msg := &message{id: c.newID(), roomID: roomID, text: text, authorID: s.ID()}
	c.remember(msg)

	return s.BroadcastToRoom(roomID, protocol.ChatMessage(protocol.ChatMessagePayload{
		ID:        msg.id,
		RoomID:    roomID,
		Text:      text,
		UserID:    s.ID(),
		Username:  s.Username(),
		Timestamp: c.now().UnixMilli(),
	}), true)
}

func (c *Service) handleEdit(_ context.Context, s *websocket.Session, p protocol.ChatEditPayload) error {
	text := strings.TrimSpace(p.NewText)
	if text == "" {
		return websocket.NewActionError(CodeEmptyMessage, "message text is empty")
	}

	c.mu.Lock()
	msg, ok := c.byID[p.MessageID]
	if !ok {
		c.mu.Unlock()
		return websocket.NewActionError(CodeMessageNotFound, "message not found")
	}
	if msg.authorID != s.ID() {
		c.mu.Unlock()
		return websocket.NewActionError(CodeNotAuthor, "only the author can edit a message")
	}
	roomID := msg.roomID
	if !s.IsMember(roomID) {
		c.mu.Unlock()
		return websocket.NewActionError(CodeNotInRoom, "join the room before editing messages")
	}
	msg.text = text
	c.mu.Unlock()

	return s.BroadcastToRoom(roomID, protocol.ChatEdited(protocol.ChatEditedPayload{
		MessageID: p.MessageID,
		RoomID:    roomID,
		NewText:   text,
		EditedBy:  s.Username(),
	}), false)
}

func (c *Service) handleTyping(_ context.Context, s *websocket.Session, p protocol.ChatTypingPayload) error {
	roomID := strings.TrimSpace(p.RoomID)
	if !s.IsMember(roomID) {
		return websocket.NewActionError(CodeNotInRoom, "join the room before typing")
	}
	ids, _ := c.setTyping(roomID, s.ID(), p.IsTyping)
	env := protocol.ChatIsTyping(protocol.ChatIsTypingPayload{RoomID: roomID, UserIDs: ids})
	return s.BroadcastToRoom(roomID, env, true)
}

// remember stores msg and evicts the oldest message beyond the limit.
func (c *Service) remember(msg *message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[msg.id] = msg
	c.order = append(c.order, msg.id)
	for len(c.order) > c.limit {
		delete(c.byID, c.order[0])
		c.order = c.order[1:]
	}
}

// setTyping updates the typing set of room and returns its sorted members
// and whether anything changed.
func (c *Service) setTyping(room, id string, typing bool) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.typing[room]
	_, was := set[id]
	switch {
	case typing && !was:
		if set == nil {
			set = make(map[string]struct{})
			c.typing[room] = set
		}
		set[id] = struct{}{}
	case !typing && was:
		delete(set, id)
		if len(set) == 0 {
			delete(c.typing, room)
		}
	}

	ids := make([]string, 0, len(set))
	for uid := range set {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	return ids, typing != was
}
