// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package client provides a resilient connection to a Roomcast server.

A Conn owns at most one socket at a time and moves through the states
Idle, Connecting, Open, Closing and Closed. Independently it tracks whether
the caller wants to stay connected; when the socket drops and that flag is
set, a retry is scheduled after attempts x BaseDelay until the reconnect
policy is exhausted.

Outgoing envelopes are sent immediately while the socket is open and the
pending queue is empty. Otherwise they are queued and flushed in order on the
next successful open. A Send while nothing is connecting starts a connection.

Every dial, read loop and retry timer records the generation it was started
under. Events from an older generation are ignored, so a late callback from a
replaced socket never touches the current one.

Usage:

	conn := client.New(client.Config{URL: "ws://localhost:8080/ws?username=alice"})
	client.Listen(conn, protocol.TypeChatMessage, func(p protocol.ChatMessagePayload) {
	    fmt.Println(p.Username, p.Text)
	})
	conn.Connect()
	_ = conn.Send(protocol.New(protocol.TypeRoomJoin, protocol.RoomPayload{RoomID: "lobby"}))

Handlers run on the read goroutine, outside the connection lock, so they may
call Send.
*/
package client
