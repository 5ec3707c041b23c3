// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package ingress

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/roomcast/internal/config"
)

// gochannelBuffer bounds the per-subscriber output channel of the in-process backend.
const gochannelBuffer = 1024

// Backend is a publisher/subscriber pair plus whatever must be released with them.
type Backend struct {
	Name       string
	Publisher  message.Publisher
	Subscriber message.Subscriber
	closers    []func() error
}

// Close releases the publisher, the subscriber and any embedded server.
// Errors are joined.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewGoChannelBackend returns the in-process backend. Publisher and
// subscriber share one GoChannel.
func NewGoChannelBackend(logger watermill.LoggerAdapter) *Backend {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: gochannelBuffer,
	}, logger)
	return &Backend{
		Name:       config.BackendGoChannel,
		Publisher:  pubSub,
		Subscriber: pubSub,
		closers:    []func() error{pubSub.Close},
	}
}

// Open builds the backend selected by cfg.Ingress.Backend.
func Open(cfg *config.Config, logger watermill.LoggerAdapter) (*Backend, error) {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	switch cfg.Ingress.Backend {
	case config.BackendGoChannel, "":
		return NewGoChannelBackend(logger), nil
	case config.BackendNATS:
		return NewNATSBackend(&cfg.NATS, logger)
	default:
		return nil, fmt.Errorf("unknown ingress backend %q", cfg.Ingress.Backend)
	}
}
