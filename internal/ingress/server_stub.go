// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

//go:build !nats

package ingress

import (
	"github.com/tomtom215/roomcast/internal/config"
)

// EmbeddedServer is unavailable without -tags=nats.
type EmbeddedServer struct{}

// NewEmbeddedServer always fails in builds without NATS support.
func NewEmbeddedServer(_ *config.NATSConfig) (*EmbeddedServer, error) {
	return nil, ErrNATSUnavailable
}

// ClientURL returns an empty string.
func (s *EmbeddedServer) ClientURL() string { return "" }

// IsRunning always returns false.
func (s *EmbeddedServer) IsRunning() bool { return false }

// Close is a no-op.
func (s *EmbeddedServer) Close() error { return nil }
