// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package ingress

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/roomcast/internal/protocol"
)

// Target selects the recipients of a published envelope. The zero value
// means every connection.
type Target struct {
	UserID    string
	RoomID    string
	ExcludeID string
}

// Publisher writes server envelopes to the ingress topic.
type Publisher struct {
	publisher message.Publisher
	topic     string
}

// NewPublisher creates a publisher for topic.
func NewPublisher(publisher message.Publisher, topic string) *Publisher {
	return &Publisher{publisher: publisher, topic: topic}
}

// Publish encodes env and publishes it for target. It returns the message id.
func (p *Publisher) Publish(ctx context.Context, env protocol.Envelope, target Target) (string, error) {
	if !protocol.IsServerType(env.Type) {
		return "", fmt.Errorf("%w: %q is not a server message type", protocol.ErrUnknownType, env.Type)
	}
	payload, err := protocol.Encode(env)
	if err != nil {
		return "", err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if target.UserID != "" {
		msg.Metadata.Set(MetadataUserID, target.UserID)
	}
	if target.RoomID != "" {
		msg.Metadata.Set(MetadataRoomID, target.RoomID)
	}
	if target.ExcludeID != "" {
		msg.Metadata.Set(MetadataExcludeID, target.ExcludeID)
	}

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return "", fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return msg.UUID, nil
}

// Topic returns the topic this publisher writes to.
func (p *Publisher) Topic() string {
	return p.topic
}
