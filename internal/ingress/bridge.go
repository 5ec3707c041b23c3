// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package ingress

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/roomcast/internal/metrics"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/rooms"
	"github.com/tomtom215/roomcast/internal/websocket"
)

// Metadata keys understood by the bridge.
const (
	MetadataUserID    = "user_id"
	MetadataRoomID    = "room_id"
	MetadataExcludeID = "exclude_id"
)

// Fanout is the part of *websocket.Hub the bridge needs.
type Fanout interface {
	Broadcast(env protocol.Envelope, opts websocket.BroadcastOptions) error
	BroadcastToRoom(room string, env protocol.Envelope, opts websocket.BroadcastOptions) error
	SendToUser(id string, env protocol.Envelope) error
}

// Bridge delivers ingress messages to connections.
type Bridge struct {
	subscriber message.Subscriber
	hub        Fanout
	topic      string
	logger     watermill.LoggerAdapter
}

// NewBridge subscribes hub to topic on subscriber.
func NewBridge(subscriber message.Subscriber, hub Fanout, topic string, logger watermill.LoggerAdapter) *Bridge {
	if logger == nil {
		logger = NewLoggerAdapter()
	}
	return &Bridge{
		subscriber: subscriber,
		hub:        hub,
		topic:      topic,
		logger:     logger,
	}
}

// RunWithContext consumes the topic until ctx is done. Designed for suture supervision.
func (b *Bridge) RunWithContext(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.topic, err)
	}
	b.logger.Info("ingress bridge subscribed", watermill.LogFields{"topic": b.topic})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("ingress subscription to %s closed", b.topic)
			}
			if err := b.Handle(msg); err != nil {
				b.logger.Error("ingress delivery failed", err, watermill.LogFields{
					"message_uuid": msg.UUID,
					"topic":        b.topic,
				})
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}

// Handle delivers one message. It returns an error only for failures worth
// redelivering; bad input and vanished rooms are counted and dropped.
func (b *Bridge) Handle(msg *message.Message) error {
	f, err := protocol.DecodeServer(msg.Payload)
	if err != nil {
		metrics.RecordIngress(metrics.IngressMalformed)
		b.logger.Info("dropping malformed ingress message", watermill.LogFields{
			"message_uuid": msg.UUID,
			"error":        err.Error(),
		})
		return nil
	}
	env := f.Envelope()
	opts := websocket.BroadcastOptions{ExcludeID: msg.Metadata.Get(MetadataExcludeID)}

	switch {
	case msg.Metadata.Get(MetadataUserID) != "":
		err = b.hub.SendToUser(msg.Metadata.Get(MetadataUserID), env)
	case msg.Metadata.Get(MetadataRoomID) != "":
		err = b.hub.BroadcastToRoom(msg.Metadata.Get(MetadataRoomID), env, opts)
	default:
		err = b.hub.Broadcast(env, opts)
	}

	switch {
	case err == nil:
		metrics.RecordIngress(metrics.IngressDelivered)
		return nil
	case errors.Is(err, rooms.ErrRoomNotFound):
		metrics.RecordIngress(metrics.IngressRoomNotFound)
		b.logger.Debug("ingress room has no members", watermill.LogFields{
			"message_uuid": msg.UUID,
			"room_id":      msg.Metadata.Get(MetadataRoomID),
		})
		return nil
	case errors.Is(err, rooms.ErrInvalidRoomID):
		metrics.RecordIngress(metrics.IngressMalformed)
		return nil
	default:
		metrics.RecordIngress(metrics.IngressFailed)
		return err
	}
}
