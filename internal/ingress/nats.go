// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

//go:build nats

package ingress

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/roomcast/internal/config"
)

// NATSAvailable reports whether the binary was built with NATS support.
const NATSAvailable = true

// NewNATSBackend connects a watermill publisher and subscriber to NATS,
// starting an embedded server first when configured. Core NATS is used
// unless cfg.JetStream is set.
func NewNATSBackend(cfg *config.NATSConfig, logger watermill.LoggerAdapter) (*Backend, error) {
	b := &Backend{Name: config.BackendNATS}
	url := cfg.URL

	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(cfg)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, srv.Close)
		url = srv.ClientURL()
		logger.Info("embedded NATS server started", watermill.LogFields{"url": url})
	}

	natsOpts := []natsgo.Option{
		natsgo.Name("roomcast-ingress"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			fields := watermill.LogFields{}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			logger.Error("NATS error", err, fields)
		}),
	}

	jetStream := wmNats.JetStreamConfig{
		Disabled:      !cfg.JetStream,
		AutoProvision: cfg.JetStream,
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jetStream,
	}, logger)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("create NATS publisher: %w", err)
	}
	b.Publisher = pub
	b.closers = append(b.closers, pub.Close)

	subJetStream := jetStream
	subJetStream.DurablePrefix = cfg.QueueGroup
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        subJetStream,
	}, logger)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("create NATS subscriber: %w", err)
	}
	b.Subscriber = sub
	b.closers = append(b.closers, sub.Close)

	return b, nil
}
