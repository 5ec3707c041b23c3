// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Error codes produced by the codec.
const (
	CodeInvalidMessage = "invalid_message"
	CodeUnknownType    = "unknown_type"
	CodeInvalidPayload = "invalid_payload"
)

// ErrUnknownType is wrapped by every error whose cause is a tag outside the schema.
var ErrUnknownType = errors.New("unknown message type")

// Error is a decode or encode failure that can be reported back to a peer.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Envelope is an outbound message. Payload is marshaled as-is; a nil payload
// is sent as an empty object.
type Envelope struct {
	Type    Type `json:"type"`
	Payload any  `json:"payload"`
}

// Frame is a decoded inbound message whose payload has not been interpreted yet.
type Frame struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Envelope converts the frame back into an outbound envelope without
// re-decoding its payload.
func (f Frame) Envelope() Envelope {
	if len(f.Payload) == 0 {
		return Envelope{Type: f.Type}
	}
	return Envelope{Type: f.Type, Payload: f.Payload}
}

var emptyObject = json.RawMessage("{}")

// Encode serializes env. Tags outside the schema are rejected.
func Encode(env Envelope) ([]byte, error) {
	if _, ok := schema[env.Type]; !ok {
		return nil, &Error{
			Code:    CodeUnknownType,
			Message: fmt.Sprintf("cannot encode type %q", env.Type),
			Err:     ErrUnknownType,
		}
	}
	if env.Payload == nil {
		env.Payload = emptyObject
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.Type, err)
	}
	return data, nil
}

// Decode parses a frame of either direction.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if len(bytes.TrimSpace(data)) == 0 {
		return f, &Error{Code: CodeInvalidMessage, Message: "empty frame"}
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, &Error{Code: CodeInvalidMessage, Message: "frame is not a valid envelope", Err: err}
	}
	if f.Type == "" {
		return Frame{}, &Error{Code: CodeInvalidMessage, Message: "missing type"}
	}
	if _, ok := schema[f.Type]; !ok {
		return Frame{}, &Error{
			Code:    CodeUnknownType,
			Message: fmt.Sprintf("unknown type %q", f.Type),
			Err:     ErrUnknownType,
		}
	}
	return f, nil
}

// DecodeClient parses a frame sent by a client. Server tags are rejected as unknown.
func DecodeClient(data []byte) (Frame, error) {
	return decodeDirection(data, ClientToServer)
}

// DecodeServer parses a frame sent by the server. Client tags are rejected as unknown.
func DecodeServer(data []byte) (Frame, error) {
	return decodeDirection(data, ServerToClient)
}

func decodeDirection(data []byte, want Direction) (Frame, error) {
	f, err := Decode(data)
	if err != nil {
		return Frame{}, err
	}
	if schema[f.Type] != want {
		return Frame{}, &Error{
			Code:    CodeUnknownType,
			Message: fmt.Sprintf("type %q is not a %s message", f.Type, want),
			Err:     ErrUnknownType,
		}
	}
	return f, nil
}

// DecodePayload unmarshals the frame payload into P. A missing or null
// payload yields the zero value.
func DecodePayload[P any](f Frame) (P, error) {
	var p P
	raw := bytes.TrimSpace(f.Payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, &Error{
			Code:    CodeInvalidPayload,
			Message: fmt.Sprintf("payload for %q is malformed", f.Type),
			Err:     err,
		}
	}
	return p, nil
}
