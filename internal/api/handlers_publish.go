// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/roomcast/internal/ingress"
	"github.com/tomtom215/roomcast/internal/protocol"
	"github.com/tomtom215/roomcast/internal/rooms"
	"github.com/tomtom215/roomcast/internal/validation"
)

// maxPublishBody bounds POST bodies.
const maxPublishBody = 1 << 20

// PublishRequest is the body of POST /api/v1/rooms/{roomID}/messages.
type PublishRequest struct {
	Type      string          `json:"type" validate:"required"`
	Payload   json.RawMessage `json:"payload"`
	ExcludeID string          `json:"exclude_id" validate:"omitempty,max=64"`
}

// BroadcastRequest is the body of POST /api/v1/broadcast. UserID narrows the
// broadcast to one connection.
type BroadcastRequest struct {
	PublishRequest
	UserID string `json:"user_id" validate:"omitempty,max=64"`
}

// PublishResult is returned with 202 Accepted.
type PublishResult struct {
	MessageID string `json:"message_id"`
	Type      string `json:"type"`
	RoomID    string `json:"room_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// PublishToRoom publishes a server envelope to the members of a room.
func (h *Handler) PublishToRoom(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	roomID, err := h.hub.Rooms().Normalize(chi.URLParam(r, "roomID"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	var req PublishRequest
	if !decodeBody(rw, w, r, &req) {
		return
	}
	env, ok := envelopeFrom(rw, req)
	if !ok {
		return
	}
	if !h.hub.Rooms().Exists(roomID) {
		rw.NotFound("Room not found")
		return
	}

	h.publish(rw, r, env, ingress.Target{RoomID: roomID, ExcludeID: req.ExcludeID})
}

// Broadcast publishes a server envelope to every connection, or to one when
// user_id is set.
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BroadcastRequest
	if !decodeBody(rw, w, r, &req) {
		return
	}
	env, ok := envelopeFrom(rw, req.PublishRequest)
	if !ok {
		return
	}
	if req.UserID != "" && !h.hub.IsConnected(req.UserID) {
		rw.NotFound("User not connected")
		return
	}

	h.publish(rw, r, env, ingress.Target{UserID: req.UserID, ExcludeID: req.ExcludeID})
}

func (h *Handler) publish(rw *ResponseWriter, r *http.Request, env protocol.Envelope, target ingress.Target) {
	id, err := h.publisher.Publish(r.Context(), env, target)
	switch {
	case err == nil:
		rw.Accepted(PublishResult{
			MessageID: id,
			Type:      string(env.Type),
			RoomID:    target.RoomID,
			UserID:    target.UserID,
		})
	case errors.Is(err, rooms.ErrRoomNotFound):
		rw.NotFound("Room not found")
	case errors.Is(err, rooms.ErrInvalidRoomID), errors.Is(err, protocol.ErrUnknownType):
		rw.BadRequest(err.Error())
	default:
		rw.InternalError("Failed to publish message", err)
	}
}

// decodeBody reads a bounded JSON body into dst and validates it. It writes
// the error response itself and reports whether the caller should continue.
func decodeBody(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPublishBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return false
		}
		rw.BadRequest("Failed to read request body")
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest("Invalid JSON body")
		return false
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationError(verr)
		return false
	}
	return true
}

// envelopeFrom checks that req names a server message type and that its
// payload decodes into, and satisfies, that type's payload struct.
func envelopeFrom(rw *ResponseWriter, req PublishRequest) (protocol.Envelope, bool) {
	t := protocol.Type(req.Type)
	payload, ok := protocol.NewServerPayload(t)
	if !ok {
		rw.BadRequest(fmt.Sprintf("type %q is not a server message type", req.Type))
		return protocol.Envelope{}, false
	}

	raw := bytes.TrimSpace(req.Payload)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if raw[0] != '{' {
			rw.BadRequest("payload must be a JSON object")
			return protocol.Envelope{}, false
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(payload); err != nil {
			rw.BadRequest(fmt.Sprintf("payload does not match %q", req.Type))
			return protocol.Envelope{}, false
		}
	}
	if verr := validation.ValidateStruct(payload); verr != nil {
		rw.ValidationError(verr)
		return protocol.Envelope{}, false
	}
	return protocol.Envelope{Type: t, Payload: payload}, true
}
