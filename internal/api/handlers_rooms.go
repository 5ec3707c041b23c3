// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/roomcast/internal/protocol"
)

// RoomSummary is one entry of GET /api/v1/rooms.
type RoomSummary struct {
	ID          string `json:"id"`
	MemberCount int    `json:"member_count"`
}

// RoomDetail is the body of GET /api/v1/rooms/{roomID}.
type RoomDetail struct {
	ID      string          `json:"id"`
	Members []protocol.User `json:"members"`
}

// Rooms lists every active room sorted by id.
func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	snapshot := h.hub.Rooms().Snapshot()
	out := make([]RoomSummary, len(snapshot))
	for i, room := range snapshot {
		out[i] = RoomSummary{ID: room.ID, MemberCount: len(room.Members)}
	}
	NewResponseWriter(w, r).List(out, len(out))
}

// Room returns the members of one room.
func (h *Handler) Room(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	roomID, err := h.hub.Rooms().Normalize(chi.URLParam(r, "roomID"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	members := h.hub.Rooms().Members(roomID)
	if len(members) == 0 {
		rw.NotFound("Room not found")
		return
	}

	users := make([]protocol.User, len(members))
	if h.users != nil {
		users = h.users.Users(members)
	} else {
		for i, id := range members {
			users[i] = protocol.User{ID: id}
		}
	}
	rw.Success(RoomDetail{ID: roomID, Members: users})
}
