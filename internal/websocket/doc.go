// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package websocket is the server side of the Roomcast transport.

Key Components:

  - Hub: connection registry and broadcast engine. It owns one ConnHandle per
    connection id and resolves room recipients through rooms.Registry.
  - Client: a gorilla/websocket connection with a read pump and a write pump.
    It implements ConnHandle.
  - Session: what a message handler sees of its connection. Handlers never
    touch the Hub or the registry directly.
  - Router: typed dispatch from a message tag to a handler.
  - Gateway: the HTTP upgrade endpoint that assigns identities and wires
    the pieces above together for each new connection.

Architecture:

	          inbound frame                         outbound frame
	conn ──► readPump ──► Router ──► handler ──► Session ──► Hub ──► ConnHandle.Enqueue
	                                                                    │
	conn ◄────────────────────────────── writePump ◄── send buffer ◄────┘

Delivery primitives:

	hub.Broadcast(env, BroadcastOptions{ExcludeID: id})
	hub.BroadcastToRoom(room, env, BroadcastOptions{ExcludeID: id})
	hub.SendToUser(id, env)

Each primitive encodes the envelope once and enqueues the same bytes to every
recipient while holding the hub read lock, so frames from one caller reach
each recipient buffer in call order. Recipients that disconnected between
lookup and delivery are skipped. A recipient whose buffer is full loses the
frame and is closed; its read pump then unregisters it.

Disconnect cleanup:

When a read pump exits, the connection is unregistered, every room
membership it held is removed and the rooms that were left are passed to
each LifecycleHook.OnDisconnect. Domain code never has to clean up
membership itself.

Dispatch errors:

Router.Dispatch never panics and never closes the connection. Failures are
reported to the sender as an "error" envelope whose code is one of
invalid_message, unknown_type, unsupported_type, invalid_payload,
rate_limited, room_not_found, not_a_member, invalid_room_id, internal_error
or the code of a domain *ActionError.
*/
package websocket
