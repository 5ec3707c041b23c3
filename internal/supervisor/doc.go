// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package supervisor arranges the long-running parts of the server into a suture
tree.

Tree layout:

	roomcast (root)
	├── messaging-layer
	│   ├── websocket-hub
	│   ├── ingress-bridge      (when ingress is enabled)
	│   └── ingress-backend     (closes the watermill backend and any embedded NATS server)
	├── domain-layer
	│   └── timer-ticker
	└── api-layer
	    └── http-server

Each layer restarts its own children. A crashing bridge is restarted with
backoff without touching the HTTP server, and a crashing HTTP server does not
drop websocket connections already registered with the hub.

Events (restarts, backoff, timeouts) are logged through sutureslog on top of
the zerolog slog adapter.
*/
package supervisor
