// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

// Package domain groups the message handlers built on top of the transport.
//
// Each subpackage owns one tag namespace and registers its handlers with a
// websocket.Router:
//   - system: identity, room join/leave, presence lists, ping
//   - chat: room messages, edits, typing indicators
//   - timer: shared per-room countdowns
//   - game: one shared grid streamed to every connection
//
// Handlers only touch rooms and connections through *websocket.Session.
package domain
