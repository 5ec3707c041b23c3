// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package protocol

import "sort"

// Type is the tag carried in the "type" field of every envelope.
type Type string

// Client -> server tags.
const (
	TypeRoomJoin    Type = "system:room-join"
	TypeRoomLeave   Type = "system:room-leave"
	TypePing        Type = "system:ping"
	TypeChatSend    Type = "chat:send"
	TypeChatEdit    Type = "chat:edit"
	TypeChatTyping  Type = "chat:typing"
	TypeTimerStart  Type = "timer:start"
	TypeTimerPause  Type = "timer:pause"
	TypeTimerResume Type = "timer:resume"
	TypeTimerReset  Type = "timer:reset"
	TypeGameJoin    Type = "game:join"
	TypeGameMove    Type = "game:move"
	TypeGameLeave   Type = "game:leave"
)

// Server -> client tags.
const (
	TypeUserInfo          Type = "system:user-info"
	TypeUsersForRoom      Type = "system:users-for-room"
	TypePong              Type = "system:pong"
	TypeChatMessage       Type = "chat:message"
	TypeChatEdited        Type = "chat:edited"
	TypeChatIsTyping      Type = "chat:is-typing-in-room"
	TypeTimerStateChanged Type = "timer:state-changed"
	TypeGameState         Type = "game:state"
	TypeError             Type = "error"
)

// Direction tells which side of the connection sends a tag.
type Direction int

const (
	// ClientToServer tags are produced by clients and dispatched by the server.
	ClientToServer Direction = iota + 1
	// ServerToClient tags are produced by the server and handled by clients.
	ServerToClient
)

func (d Direction) String() string {
	switch d {
	case ClientToServer:
		return "client->server"
	case ServerToClient:
		return "server->client"
	default:
		return "unknown"
	}
}

var schema = map[Type]Direction{
	TypeRoomJoin:    ClientToServer,
	TypeRoomLeave:   ClientToServer,
	TypePing:        ClientToServer,
	TypeChatSend:    ClientToServer,
	TypeChatEdit:    ClientToServer,
	TypeChatTyping:  ClientToServer,
	TypeTimerStart:  ClientToServer,
	TypeTimerPause:  ClientToServer,
	TypeTimerResume: ClientToServer,
	TypeTimerReset:  ClientToServer,
	TypeGameJoin:    ClientToServer,
	TypeGameMove:    ClientToServer,
	TypeGameLeave:   ClientToServer,

	TypeUserInfo:          ServerToClient,
	TypeUsersForRoom:      ServerToClient,
	TypePong:              ServerToClient,
	TypeChatMessage:       ServerToClient,
	TypeChatEdited:        ServerToClient,
	TypeChatIsTyping:      ServerToClient,
	TypeTimerStateChanged: ServerToClient,
	TypeGameState:         ServerToClient,
	TypeError:             ServerToClient,
}

// DirectionOf reports the direction of t. ok is false for tags outside the schema.
func DirectionOf(t Type) (d Direction, ok bool) {
	d, ok = schema[t]
	return d, ok
}

// IsClientType reports whether t is a client -> server tag.
func IsClientType(t Type) bool {
	return schema[t] == ClientToServer
}

// IsServerType reports whether t is a server -> client tag.
func IsServerType(t Type) bool {
	return schema[t] == ServerToClient
}

// ClientTypes returns every client -> server tag in lexical order.
func ClientTypes() []Type {
	return typesFor(ClientToServer)
}

// ServerTypes returns every server -> client tag in lexical order.
func ServerTypes() []Type {
	return typesFor(ServerToClient)
}

func typesFor(d Direction) []Type {
	out := make([]Type, 0, len(schema))
	for t, dir := range schema {
		if dir == d {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
