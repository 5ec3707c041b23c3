// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package services

import (
	"context"
	"fmt"
)

// Closer is satisfied by *ingress.Backend.
type Closer interface {
	Close() error
}

// CloserService keeps a resource alive for the life of the tree and closes it
// once on shutdown.
type CloserService struct {
	resource Closer
	name     string
}

// NewCloserService wraps resource under name.
func NewCloserService(name string, resource Closer) *CloserService {
	return &CloserService{resource: resource, name: name}
}

// NewIngressBackendService supervises the watermill backend.
func NewIngressBackendService(backend Closer) *CloserService {
	return NewCloserService("ingress-backend", backend)
}

// Serve blocks until ctx is canceled, then closes the resource.
func (s *CloserService) Serve(ctx context.Context) error {
	<-ctx.Done()
	if err := s.resource.Close(); err != nil {
		return fmt.Errorf("%s close failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (s *CloserService) String() string {
	return s.name
}
