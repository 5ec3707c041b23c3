// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

//go:build !nats

package ingress

import (
	"errors"
	"testing"

	"github.com/tomtom215/roomcast/internal/config"
)

func TestOpen_NATSWithoutBuildTag(t *testing.T) {
	cfg := &config.Config{Ingress: config.IngressConfig{Backend: config.BackendNATS}}
	if _, err := Open(cfg, nil); !errors.Is(err, ErrNATSUnavailable) {
		t.Errorf("expected ErrNATSUnavailable, got %v", err)
	}
	if NATSAvailable {
		t.Error("expected NATSAvailable to be false")
	}
	if _, err := NewEmbeddedServer(&config.NATSConfig{}); !errors.Is(err, ErrNATSUnavailable) {
		t.Errorf("expected ErrNATSUnavailable, got %v", err)
	}
}
