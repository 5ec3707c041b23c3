// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/roomcast/internal/protocol"
)

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}

func TestValidateStructPayloads(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantField string
		wantMsg   string
	}{
		{"valid room", &protocol.RoomPayload{RoomID: "lobby"}, "", ""},
		{"missing room", &protocol.RoomPayload{}, "roomId", "roomId is required"},
		{"duration zero", &protocol.TimerStartPayload{RoomID: "r", DurationSeconds: 0}, "durationSeconds", "durationSeconds must be at least 1"},
		{"duration too long", &protocol.TimerStartPayload{RoomID: "r", DurationSeconds: 86401}, "durationSeconds", "durationSeconds must be at most 86400"},
		{"text too long", &protocol.ChatSendPayload{RoomID: "r", Text: strings.Repeat("x", 4001)}, "text", "text must be at most 4000 characters"},
		{"empty text allowed", &protocol.ChatSendPayload{RoomID: "r"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if len(err.Fields) != 1 {
				t.Fatalf("expected 1 field error, got %d", len(err.Fields))
			}
			if err.Fields[0].Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, err.Fields[0].Field)
			}
			if err.Fields[0].Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, err.Fields[0].Message)
			}
		})
	}
}

func TestCustomTags(t *testing.T) {
	type publish struct {
		Type string `json:"type" validate:"required,servertype"`
	}
	if err := ValidateStruct(&publish{Type: "chat:message"}); err != nil {
		t.Errorf("expected chat:message to pass, got %v", err)
	}
	err := ValidateStruct(&publish{Type: "chat:send"})
	if err == nil || err.Fields[0].Tag != "servertype" {
		t.Errorf("expected servertype failure for a client tag, got %v", err)
	}

	names := []struct {
		name string
		want bool
	}{
		{"alice", true},
		{"bob.smith_2", true},
		{"", false},
		{"has space", false},
		{strings.Repeat("a", 33), false},
	}
	for _, tt := range names {
		if got := IsValidUsername(tt.name); got != tt.want {
			t.Errorf("IsValidUsername(%q): expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestValidateVar(t *testing.T) {
	err := ValidateVar("username", "bad name", "username")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Fields[0].Field != "username" {
		t.Errorf("expected field username, got %s", err.Fields[0].Field)
	}
	if !strings.HasPrefix(err.Fields[0].Message, "username must be") {
		t.Errorf("unexpected message %q", err.Fields[0].Message)
	}
	if ValidateVar("username", "alice", "username") != nil {
		t.Error("expected alice to pass")
	}
}

func TestToAPIError(t *testing.T) {
	err := ValidateStruct(&protocol.TimerStartPayload{})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != CodeValidation {
		t.Errorf("expected %s, got %s", CodeValidation, apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", apiErr.Details)
	}
}
