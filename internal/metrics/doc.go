// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package metrics declares the Prometheus instruments exported on /metrics.

All collectors are registered on the default registry through promauto at
package init, so any package may record without wiring. Groups:

  - WebSocket transport: websocket_connections, websocket_messages_sent_total,
    websocket_messages_received_total, websocket_errors_total{error_type},
    websocket_messages_dropped_total{reason}
  - Rooms: rooms_active, room_joins_total, room_leaves_total{reason}
  - Dispatch: dispatch_duration_seconds{type}, dispatch_errors_total{code}
  - Fan-out: broadcast_recipients{scope}
  - Ingress: ingress_messages_total{outcome}
  - Timers: timers_active
  - HTTP API: api_requests_total, api_request_duration_seconds,
    api_active_requests, api_rate_limit_hits_total

Tests read values with prometheus/testutil.
*/
package metrics
