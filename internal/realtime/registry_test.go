// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

import (
	"io"
	"testing"

	"github.com/ecopods/server/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	// Initialize logging for tests with discard output
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func containsSession(members []*Session, s *Session) bool {
	for _, m := range members {
		if m == s {
			return true
		}
	}
	return false
}

func TestRegistry_JoinAndMembersOf(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	joined, leftPod := reg.Join(s, PodRoom("pod-1"))
	if !joined {
		t.Fatal("expected join to succeed")
	}
	if !leftPod.IsZero() {
		t.Errorf("expected no previous pod room, got %v", leftPod)
	}

	members := reg.MembersOf(PodRoom("pod-1"))
	if len(members) != 1 || members[0] != s {
		t.Errorf("expected exactly the joined session, got %d members", len(members))
	}
}

func TestRegistry_IdempotentJoin(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	reg.Join(s, PodRoom("pod-1"))
	joined, _ := reg.Join(s, PodRoom("pod-1"))
	if joined {
		t.Error("second join should be a no-op")
	}

	members := reg.MembersOf(PodRoom("pod-1"))
	if len(members) != 1 {
		t.Errorf("expected exactly one instance of the session, got %d", len(members))
	}
}

func TestRegistry_SinglePodRoomInvariant(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	reg.Join(s, PodRoom("pod-a"))
	joined, leftPod := reg.Join(s, PodRoom("pod-b"))
	if !joined {
		t.Fatal("expected join to succeed")
	}
	if leftPod != PodRoom("pod-a") {
		t.Errorf("expected to leave pod-a, got %v", leftPod)
	}

	if containsSession(reg.MembersOf(PodRoom("pod-a")), s) {
		t.Error("session should no longer be in pod-a")
	}
	if !containsSession(reg.MembersOf(PodRoom("pod-b")), s) {
		t.Error("session should be in pod-b")
	}
}

func TestRegistry_ChallengeRoomsStack(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	reg.Join(s, PodRoom("pod-1"))
	reg.Join(s, ChallengeRoom("ch-1"))
	joined, leftPod := reg.Join(s, ChallengeRoom("ch-2"))
	if !joined || !leftPod.IsZero() {
		t.Fatal("challenge joins must not evict other rooms")
	}

	for _, room := range []RoomID{PodRoom("pod-1"), ChallengeRoom("ch-1"), ChallengeRoom("ch-2")} {
		if !containsSession(reg.MembersOf(room), s) {
			t.Errorf("session missing from %v", room)
		}
	}
}

func TestRegistry_Leave(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	reg.Join(s, PodRoom("pod-1"))
	reg.Join(s, ChallengeRoom("ch-1"))

	if !reg.Leave(s, ChallengeRoom("ch-1")) {
		t.Fatal("expected leave to report membership")
	}
	if reg.Leave(s, ChallengeRoom("ch-1")) {
		t.Error("second leave should report no membership")
	}
	if !containsSession(reg.MembersOf(PodRoom("pod-1")), s) {
		t.Error("leaving one room must not touch other memberships")
	}
}

func TestRegistry_LeaveUnknownRoom(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	if reg.Leave(s, PodRoom("nowhere")) {
		t.Error("leaving an unknown room should be a no-op, not an error")
	}
	if len(reg.MembersOf(PodRoom("nowhere"))) != 0 {
		t.Error("unknown room should read as empty")
	}
}

func TestRegistry_RemoveAll(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")
	other := newTestSession(hub, "user-2", "bob")

	rooms := []RoomID{PersonalRoom("user-1"), PodRoom("pod-1"), ChallengeRoom("ch-1"), ChallengeRoom("ch-2")}
	for _, room := range rooms {
		reg.Join(s, room)
	}
	reg.Join(other, PodRoom("pod-1"))

	left := reg.RemoveAll(s)
	if len(left) != len(rooms) {
		t.Fatalf("expected %d rooms left, got %d", len(rooms), len(left))
	}

	for _, room := range rooms {
		if containsSession(reg.MembersOf(room), s) {
			t.Errorf("session still visible in %v after RemoveAll", room)
		}
	}
	if !containsSession(reg.MembersOf(PodRoom("pod-1")), other) {
		t.Error("RemoveAll should not disturb other sessions")
	}
	if reg.SessionCount() != 1 {
		t.Errorf("expected 1 tracked session, got %d", reg.SessionCount())
	}
}

func TestRegistry_RemoveAllUntracked(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	if left := reg.RemoveAll(s); left != nil {
		t.Errorf("expected nil for untracked session, got %v", left)
	}
}

func TestRegistry_EmptyRoomsVanish(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	reg.Join(s, PodRoom("pod-1"))
	reg.Leave(s, PodRoom("pod-1"))

	counts := reg.RoomCounts()
	if counts[RoomKindPod] != 0 {
		t.Errorf("empty pod room should cease to exist, counts=%v", counts)
	}
}

func TestRegistry_MembersOfDeterministicOrder(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()

	sessions := make([]*Session, 5)
	for i := range sessions {
		sessions[i] = newTestSession(hub, "user", "u")
		reg.Join(sessions[i], PodRoom("pod-1"))
	}

	members := reg.MembersOf(PodRoom("pod-1"))
	for i := 1; i < len(members); i++ {
		if members[i-1].seq >= members[i].seq {
			t.Fatal("members must be sorted by session sequence")
		}
	}
}

func TestRegistry_PodRoomOf(t *testing.T) {
	reg := NewRegistry()
	hub := newTestHub()
	s := newTestSession(hub, "user-1", "alice")

	if !reg.PodRoomOf(s).IsZero() {
		t.Error("expected zero room before any pod join")
	}

	reg.Join(s, ChallengeRoom("ch-1"))
	reg.Join(s, PodRoom("pod-1"))

	if got := reg.PodRoomOf(s); got != PodRoom("pod-1") {
		t.Errorf("PodRoomOf = %v, want pod-1", got)
	}
}

func TestRoomID_String(t *testing.T) {
	tests := []struct {
		room RoomID
		want string
	}{
		{PodRoom("pod-42"), "pod:pod-42"},
		{ChallengeRoom("ch-7"), "challenge:ch-7"},
		{PersonalRoom("user-9"), "personal:user-9"},
	}

	for _, tt := range tests {
		if got := tt.room.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
