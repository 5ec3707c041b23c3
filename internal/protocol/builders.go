// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package protocol

// New builds an envelope of any tag.
func New(t Type, payload any) Envelope {
	return Envelope{Type: t, Payload: payload}
}

func UserInfo(p UserInfoPayload) Envelope { return New(TypeUserInfo, p) }

func UsersForRoom(p UsersForRoomPayload) Envelope {
	if p.Users == nil {
		p.Users = []User{}
	}
	return New(TypeUsersForRoom, p)
}

func Pong(p PongPayload) Envelope { return New(TypePong, p) }

func ChatMessage(p ChatMessagePayload) Envelope { return New(TypeChatMessage, p) }

func ChatEdited(p ChatEditedPayload) Envelope { return New(TypeChatEdited, p) }

func ChatIsTyping(p ChatIsTypingPayload) Envelope {
	if p.UserIDs == nil {
		p.UserIDs = []string{}
	}
	return New(TypeChatIsTyping, p)
}

func TimerStateChanged(p TimerStatePayload) Envelope { return New(TypeTimerStateChanged, p) }

func GameState(p GameStatePayload) Envelope {
	if p.Players == nil {
		p.Players = []GamePlayer{}
	}
	return New(TypeGameState, p)
}

// ErrorMessage builds an error envelope. details may be nil.
func ErrorMessage(code, message string, details any) Envelope {
	return New(TypeError, ErrorPayload{Code: code, Message: message, Details: details})
}
