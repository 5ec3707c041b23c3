// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared between packages.
const (
	ScopeAll  = "all"
	ScopeRoom = "room"
	ScopeUser = "user"

	LeaveExplicit   = "explicit"
	LeaveDisconnect = "disconnect"

	DropBufferFull = "buffer_full"
	DropClosed     = "closed"

	IngressDelivered    = "delivered"
	IngressMalformed    = "malformed"
	IngressRoomNotFound = "room_not_found"
	IngressFailed       = "failed"
)

var (
	// WebSocket transport

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of registered WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of frames written to WebSocket connections",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of frames read from WebSocket connections",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket transport errors",
		},
		[]string{"error_type"}, // "read", "write", "upgrade", "rate_limited"
	)

	WSMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of outbound frames dropped before reaching a connection buffer",
		},
		[]string{"reason"},
	)

	// Rooms

	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rooms_active",
			Help: "Current number of rooms with at least one member",
		},
	)

	RoomJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "room_joins_total",
			Help: "Total number of room joins that added a member",
		},
	)

	RoomLeaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_leaves_total",
			Help: "Total number of room memberships removed",
		},
		[]string{"reason"}, // "explicit", "disconnect"
	)

	// Dispatch

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Time spent in a message handler",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.1},
		},
		[]string{"type"},
	)

	DispatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_errors_total",
			Help: "Total number of error frames reported to senders",
		},
		[]string{"code"},
	)

	BroadcastRecipients = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "broadcast_recipients",
			Help:    "Number of connections a single fan-out was enqueued to",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
		[]string{"scope"}, // "all", "room", "user"
	)

	// Ingress

	IngressMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingress_messages_total",
			Help: "Total number of ingress bus messages by outcome",
		},
		[]string{"outcome"},
	)

	// Timers

	TimersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "timers_active",
			Help: "Current number of running room timers",
		},
	)

	// Game

	GamePlayers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "game_players",
			Help: "Current number of players on the game grid",
		},
	)

	// HTTP API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDispatch records handler latency for a message type.
func RecordDispatch(msgType string, duration time.Duration) {
	DispatchDuration.WithLabelValues(msgType).Observe(duration.Seconds())
}

// RecordDispatchError counts an error frame sent to a connection.
func RecordDispatchError(code string) {
	DispatchErrors.WithLabelValues(code).Inc()
}

// RecordFanout records how many buffers one broadcast reached.
func RecordFanout(scope string, recipients int) {
	BroadcastRecipients.WithLabelValues(scope).Observe(float64(recipients))
}

// RecordDrop counts a frame that did not reach a connection.
func RecordDrop(reason string) {
	WSMessagesDropped.WithLabelValues(reason).Inc()
}

// RecordLeave counts removed memberships.
func RecordLeave(reason string, n int) {
	if n > 0 {
		RoomLeaves.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordIngress counts one ingress message outcome.
func RecordIngress(outcome string) {
	IngressMessages.WithLabelValues(outcome).Inc()
}

// SetTransportGauges refreshes the connection and room gauges.
func SetTransportGauges(connections, rooms int) {
	WSConnections.Set(float64(connections))
	RoomsActive.Set(float64(rooms))
}
