// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

/*
Package protocol defines the Roomcast wire format.

Every frame on a Roomcast WebSocket is a JSON object with two fields:

	{"type": "chat:send", "payload": {"roomId": "lobby", "text": "hi"}}

The set of type tags is closed and split by direction. Client tags are
accepted by the server dispatcher, server tags are accepted by the
client connection. Decoding a frame whose tag is not part of the
expected direction fails with an *Error carrying CodeUnknownType, so a
malformed or foreign message is always reported and never dropped
silently.

Encoding:

	data, err := protocol.Encode(protocol.ChatMessage(msg))

Decoding:

	frame, err := protocol.DecodeClient(data)
	if err != nil {
	    // *protocol.Error with Code invalid_message or unknown_type
	}
	payload, err := protocol.DecodePayload[protocol.ChatSendPayload](frame)

JSON encoding uses goccy/go-json throughout.
*/
package protocol
