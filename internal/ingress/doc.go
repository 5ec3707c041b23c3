// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package ingress lets processes other than a websocket connection publish to
rooms.

Messages on the ingress topic carry a server envelope as their payload and
route with metadata:

	user_id     deliver to one connection
	room_id     deliver to the members of a room
	exclude_id  skip one connection (room and global fan-out)

A message with neither user_id nor room_id goes to every connection.

Data Flow:

	REST handler ──► Publisher ──► watermill topic ──► Bridge ──► Hub ──► sockets

Backends:
  - gochannel (default): in-process, no external dependencies
  - nats (build tag "nats"): watermill-nats over nats.go, optionally with an
    embedded nats-server

Malformed envelopes and messages for rooms that no longer exist are acked and
counted so they are never redelivered. Unexpected failures are nacked.
*/
package ingress
