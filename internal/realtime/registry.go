// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

import (
	"sort"
	"sync"
)

// Registry is the single source of truth for room membership. All mutations
// happen on the hub's run loop; the mutex exists for read paths (presence
// queries, metrics) that run on other goroutines.
//
// A room has no existence beyond its member set: rooms appear when the first
// session joins and vanish when the last one leaves. Operations against
// unknown rooms behave as operations against empty rooms, never as errors.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[RoomID]map[*Session]struct{}
	sessions map[*Session]map[RoomID]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[RoomID]map[*Session]struct{}),
		sessions: make(map[*Session]map[RoomID]struct{}),
	}
}

// Join adds a session to a room. Joining a room the session is already in
// is a no-op (joined=false). For pod rooms the session's previous pod room,
// if any, is left first and returned in leftPod so the caller can notify
// its remaining members.
func (r *Registry) Join(s *Session, room RoomID) (joined bool, leftPod RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s][room]; ok {
		return false, RoomID{}
	}

	if room.Kind == RoomKindPod {
		for existing := range r.sessions[s] {
			if existing.Kind == RoomKindPod {
				leftPod = existing
				r.removeLocked(s, existing)
				break
			}
		}
	}

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[*Session]struct{})
	}
	r.rooms[room][s] = struct{}{}

	if r.sessions[s] == nil {
		r.sessions[s] = make(map[RoomID]struct{})
	}
	r.sessions[s][room] = struct{}{}

	return true, leftPod
}

// Leave removes a session from the named room only. Returns false if the
// session was not a member.
func (r *Registry) Leave(s *Session, room RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s][room]; !ok {
		return false
	}
	r.removeLocked(s, room)
	return true
}

// RemoveAll removes a session from every room it belongs to and returns the
// rooms it was removed from. No reader observes stale membership after this
// returns; the whole removal happens under the write lock.
func (r *Registry) RemoveAll(s *Session) []RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	memberships := r.sessions[s]
	if len(memberships) == 0 {
		delete(r.sessions, s)
		return nil
	}

	left := make([]RoomID, 0, len(memberships))
	for room := range memberships {
		left = append(left, room)
	}
	sort.Slice(left, func(i, j int) bool {
		if left[i].Kind != left[j].Kind {
			return left[i].Kind < left[j].Kind
		}
		return left[i].ID < left[j].ID
	})

	for _, room := range left {
		r.removeLocked(s, room)
	}
	delete(r.sessions, s)

	return left
}

// MembersOf returns a snapshot of the sessions in a room, sorted by session
// sequence number for deterministic delivery order. Unknown rooms yield an
// empty slice.
func (r *Registry) MembersOf(room RoomID) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Session, 0, len(r.rooms[room]))
	for s := range r.rooms[room] {
		members = append(members, s)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].seq < members[j].seq
	})

	return members
}

// Rooms returns the rooms a session currently belongs to.
func (r *Registry) Rooms(s *Session) []RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]RoomID, 0, len(r.sessions[s]))
	for room := range r.sessions[s] {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Kind != rooms[j].Kind {
			return rooms[i].Kind < rooms[j].Kind
		}
		return rooms[i].ID < rooms[j].ID
	})

	return rooms
}

// PodRoomOf returns the session's current pod room, or a zero RoomID.
func (r *Registry) PodRoomOf(s *Session) RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for room := range r.sessions[s] {
		if room.Kind == RoomKindPod {
			return room
		}
	}
	return RoomID{}
}

// RoomCounts returns the number of non-empty rooms per kind, for metrics.
func (r *Registry) RoomCounts() map[RoomKind]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[RoomKind]int, 3)
	for room := range r.rooms {
		counts[room.Kind]++
	}
	return counts
}

// SessionCount returns the number of tracked sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// removeLocked removes one membership and prunes empty maps.
// Caller must hold the write lock.
func (r *Registry) removeLocked(s *Session, room RoomID) {
	if members, ok := r.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if memberships, ok := r.sessions[s]; ok {
		delete(memberships, room)
		if len(memberships) == 0 {
			delete(r.sessions, s)
		}
	}
}
