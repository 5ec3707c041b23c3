// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Roomcast server: room-scoped real-time messaging over websockets.

# Architecture

	roomcast (suture root)
	├── messaging-layer
	│   ├── websocket-hub     connection registry and fan-out
	│   ├── ingress-bridge    watermill topic -> hub
	│   └── ingress-backend   gochannel, or NATS with -tags nats
	├── domain-layer
	│   ├── timer-ticker      per-room countdowns
	│   └── game-ticker       grid state to every connection
	└── api-layer
	    └── http-server       REST, /metrics and the websocket upgrade

The system, chat, timer and game domains register handlers on one dispatch router.
Startup fails if any client message type is left without a handler.

# Configuration

Koanf layers defaults, an optional YAML file (CONFIG_PATH) and environment
variables. Common settings:

	HTTP_PORT=8080
	WS_PATH=/ws
	CORS_ORIGINS=https://app.example.com
	INGRESS_BACKEND=gochannel      # or nats
	NATS_URL=nats://127.0.0.1:4222
	NATS_EMBEDDED=true

# Build Tags

	go build ./cmd/server               # in-process ingress only
	go build -tags nats ./cmd/server    # adds the NATS backend and embedded server

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
SHUTDOWN_TIMEOUT, the hub sends a close frame to every connection and the
ingress backend is closed.
*/
package main
