// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package websocket

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateConnection is returned by Register for an id that already has a handle.
	ErrDuplicateConnection = errors.New("connection id already registered")
	// ErrSendBufferFull is returned by Enqueue when the outbound buffer has no room.
	ErrSendBufferFull = errors.New("send buffer full")
	// ErrConnectionClosed is returned when the target connection is gone.
	ErrConnectionClosed = errors.New("connection closed")
)

// Error codes sent in "error" envelopes.
const (
	CodeInvalidMessage  = "invalid_message"
	CodeUnknownType     = "unknown_type"
	CodeUnsupportedType = "unsupported_type"
	CodeInvalidPayload  = "invalid_payload"
	CodeRateLimited     = "rate_limited"
	CodeRoomNotFound    = "room_not_found"
	CodeNotAMember      = "not_a_member"
	CodeInvalidRoomID   = "invalid_room_id"
	CodeInternalError   = "internal_error"
)

// ActionError is a domain rule violation. Its code and message are sent to
// the originating connection only.
type ActionError struct {
	Code    string
	Message string
}

// NewActionError builds an *ActionError.
func NewActionError(code, message string) *ActionError {
	return &ActionError{Code: code, Message: message}
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
