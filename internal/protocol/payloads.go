// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package protocol

// MaxTextLength bounds chat message bodies.
const MaxTextLength = 4000

// MaxTimerSeconds bounds timer durations (24 hours).
const MaxTimerSeconds = 86400

// Client payloads

// RoomPayload addresses a room. Used by join, leave and the timer controls.
type RoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

// PingPayload carries no fields.
type PingPayload struct{}

type ChatSendPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Text   string `json:"text" validate:"max=4000"`
}

type ChatEditPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	NewText   string `json:"newText" validate:"max=4000"`
}

type ChatTypingPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	IsTyping bool   `json:"isTyping"`
}

type TimerStartPayload struct {
	RoomID          string `json:"roomId" validate:"required"`
	DurationSeconds int    `json:"durationSeconds" validate:"min=1,max=86400"`
}

// GameJoinPayload and GameLeavePayload carry nothing; the player is the sender.
type GameJoinPayload struct{}

type GameLeavePayload struct{}

// GameMovePayload is the target cell. The upper bound depends on the
// configured grid and is checked by the game service.
type GameMovePayload struct {
	X int `json:"x" validate:"min=0"`
	Y int `json:"y" validate:"min=0"`
}

// Server payloads

type UserInfoPayload struct {
	UserID   string `json:"userId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// User is one entry of a room roster.
type User struct {
	ID       string `json:"id" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type UsersForRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Users  []User `json:"users" validate:"dive"`
}

// PongPayload carries the server time in Unix milliseconds.
type PongPayload struct {
	Time int64 `json:"time"`
}

type ChatMessagePayload struct {
	ID        string `json:"id" validate:"required"`
	RoomID    string `json:"roomId" validate:"required"`
	Text      string `json:"text" validate:"required,max=4000"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

type ChatEditedPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	RoomID    string `json:"roomId" validate:"required"`
	NewText   string `json:"newText" validate:"required,max=4000"`
	EditedBy  string `json:"editedBy"`
}

type ChatIsTypingPayload struct {
	RoomID  string   `json:"roomId" validate:"required"`
	UserIDs []string `json:"userIds"`
}

// Timer statuses.
const (
	TimerIdle      = "idle"
	TimerRunning   = "running"
	TimerPaused    = "paused"
	TimerCompleted = "completed"
)

type TimerStatePayload struct {
	RoomID               string `json:"roomId" validate:"required"`
	Status               string `json:"status" validate:"oneof=idle running paused completed"`
	RemainingSeconds     int    `json:"remainingSeconds" validate:"min=0"`
	TotalDurationSeconds int    `json:"totalDurationSeconds" validate:"min=0"`
}

// GamePlayer is one player on the grid. Color is a CSS hsl() string.
type GamePlayer struct {
	UserID   string `json:"userId" validate:"required"`
	Username string `json:"username" validate:"required"`
	X        int    `json:"x" validate:"min=0"`
	Y        int    `json:"y" validate:"min=0"`
	Color    string `json:"color" validate:"required"`
}

type GameStatePayload struct {
	Players []GamePlayer `json:"players" validate:"dive"`
}

// ErrorPayload is sent to the originator of a rejected message.
type ErrorPayload struct {
	Code    string `json:"code" validate:"required"`
	Message string `json:"message" validate:"required"`
	Details any    `json:"details,omitempty"`
}

var serverPayloads = map[Type]func() any{
	TypeUserInfo:          func() any { return new(UserInfoPayload) },
	TypeUsersForRoom:      func() any { return new(UsersForRoomPayload) },
	TypePong:              func() any { return new(PongPayload) },
	TypeChatMessage:       func() any { return new(ChatMessagePayload) },
	TypeChatEdited:        func() any { return new(ChatEditedPayload) },
	TypeChatIsTyping:      func() any { return new(ChatIsTypingPayload) },
	TypeTimerStateChanged: func() any { return new(TimerStatePayload) },
	TypeGameState:         func() any { return new(GameStatePayload) },
	TypeError:             func() any { return new(ErrorPayload) },
}

// NewServerPayload returns a pointer to a zero payload struct for the server
// tag t, ready to be decoded into. ok is false for any other tag.
func NewServerPayload(t Type) (p any, ok bool) {
	fn, ok := serverPayloads[t]
	if !ok {
		return nil, false
	}
	return fn(), true
}
