// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package api exposes the REST surface and mounts the websocket gateway.

Routes:

	GET  /api/v1/health                   connections, rooms, uptime, ingress backend
	GET  /api/v1/rooms                    every active room with member count
	GET  /api/v1/rooms/{roomID}           members of one room with usernames
	POST /api/v1/rooms/{roomID}/messages  publish a server envelope to a room
	POST /api/v1/broadcast                publish to everyone or one connection
	GET  /metrics                         Prometheus exposition
	GET  /ws                              websocket upgrade (path configurable)

Every JSON response uses the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}, "meta": {...}}

Publish endpoints go through a Publisher. With ingress enabled that is the
watermill publisher, so REST traffic takes the same path as any other
producer; otherwise HubPublisher delivers directly.
*/
package api
