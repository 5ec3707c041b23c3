// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

//go:build !nats

package ingress

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/roomcast/internal/config"
)

// NATSAvailable reports whether the binary was built with NATS support.
const NATSAvailable = false

// ErrNATSUnavailable is returned when the nats backend is requested from a
// binary built without -tags=nats.
var ErrNATSUnavailable = errors.New("NATS ingress backend not available: build with -tags=nats")

// NewNATSBackend always fails in builds without NATS support.
func NewNATSBackend(_ *config.NATSConfig, _ watermill.LoggerAdapter) (*Backend, error) {
	return nil, ErrNATSUnavailable
}
