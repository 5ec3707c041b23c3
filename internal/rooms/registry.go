// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

// Package rooms keeps the many-to-many relation between rooms and connection
// identities. Both indexes live under one lock so that a connection's room
// list and a room's member list never disagree.
package rooms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultMaxRoomIDLength is the room id limit used when none is configured.
const DefaultMaxRoomIDLength = 128

var (
	// ErrInvalidRoomID is returned for blank or oversized room ids.
	ErrInvalidRoomID = errors.New("invalid room id")
	// ErrRoomNotFound is returned when a room has no members.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotAMember is returned when leaving a room the identity never joined.
	ErrNotAMember = errors.New("not a member of room")
)

// JoinResult describes the effect of a Join.
type JoinResult struct {
	RoomID        string
	Created       bool
	AlreadyMember bool
}

// RoomInfo is a point-in-time view of one room.
type RoomInfo struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

// Registry holds room membership. The zero value is not usable; call New.
type Registry struct {
	mu        sync.RWMutex
	members   map[string]map[string]struct{} // room -> ids
	byID      map[string]map[string]struct{} // id -> rooms
	maxLength int
}

// New creates an empty registry. maxLength <= 0 selects DefaultMaxRoomIDLength.
func New(maxLength int) *Registry {
	if maxLength <= 0 {
		maxLength = DefaultMaxRoomIDLength
	}
	return &Registry{
		members:   make(map[string]map[string]struct{}),
		byID:      make(map[string]map[string]struct{}),
		maxLength: maxLength,
	}
}

// Normalize trims a room id and checks it against the length limit.
func (r *Registry) Normalize(room string) (string, error) {
	return normalize(room, r.maxLength)
}

// Normalize applies the default room id rules.
func Normalize(room string) (string, error) {
	return normalize(room, DefaultMaxRoomIDLength)
}

func normalize(room string, maxLength int) (string, error) {
	id := strings.TrimSpace(room)
	if id == "" {
		return "", fmt.Errorf("%w: room id is empty", ErrInvalidRoomID)
	}
	if len(id) > maxLength {
		return "", fmt.Errorf("%w: room id exceeds %d bytes", ErrInvalidRoomID, maxLength)
	}
	return id, nil
}

// Join adds id to room, creating the room when needed. Joining twice is a no-op.
func (r *Registry) Join(room, id string) (JoinResult, error) {
	roomID, err := r.Normalize(room)
	if err != nil {
		return JoinResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := JoinResult{RoomID: roomID}
	set, ok := r.members[roomID]
	if !ok {
		set = make(map[string]struct{})
		r.members[roomID] = set
		res.Created = true
	}
	if _, member := set[id]; member {
		res.AlreadyMember = true
		return res, nil
	}
	set[id] = struct{}{}

	rooms, ok := r.byID[id]
	if !ok {
		rooms = make(map[string]struct{})
		r.byID[id] = rooms
	}
	rooms[roomID] = struct{}{}
	return res, nil
}

// Leave removes id from room. The room is deleted with its last member.
func (r *Registry) Leave(room, id string) error {
	roomID, err := r.Normalize(room)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(roomID, id)
}

func (r *Registry) leaveLocked(roomID, id string) error {
	set, ok := r.members[roomID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if _, member := set[id]; !member {
		return fmt.Errorf("%w: %s", ErrNotAMember, roomID)
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.members, roomID)
	}
	if rooms, ok := r.byID[id]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(r.byID, id)
		}
	}
	return nil
}

// LeaveAll removes id from every room it belongs to and returns those rooms, sorted.
func (r *Registry) LeaveAll(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	left := sortedKeys(r.byID[id])
	for _, roomID := range left {
		// Both indexes are maintained together, so this cannot fail.
		_ = r.leaveLocked(roomID, id)
	}
	return left
}

// Members returns a sorted copy of the room's members, or nil if the room does not exist.
func (r *Registry) Members(room string) []string {
	roomID, err := r.Normalize(room)
	if err != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.members[roomID]
	if !ok {
		return nil
	}
	return sortedKeys(set)
}

// IsMember reports whether id currently belongs to room.
func (r *Registry) IsMember(room, id string) bool {
	roomID, err := r.Normalize(room)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[roomID][id]
	return ok
}

// Exists reports whether room has at least one member.
func (r *Registry) Exists(room string) bool {
	roomID, err := r.Normalize(room)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[roomID]
	return ok
}

// RoomsFor returns the sorted rooms id belongs to.
func (r *Registry) RoomsFor(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.byID[id])
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Snapshot returns every room with its members, sorted by room id.
func (r *Registry) Snapshot() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.members))
	for id, set := range r.members {
		out = append(out, RoomInfo{ID: id, Members: sortedKeys(set)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
