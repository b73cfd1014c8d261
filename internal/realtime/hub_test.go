// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ecopods/server/internal/auth"
	"github.com/ecopods/server/internal/config"
)

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		SendBuffer:     256,
		MaxMessageSize: 512 * 1024,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		EventRate:      100,
		EventBurst:     100,
	}
}

func newTestHub() *Hub {
	return NewHub(testRealtimeConfig())
}

// setupHub creates and starts a hub for testing. The hub stops when the
// test finishes.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)
	return hub
}

// newTestSession creates a session without a websocket connection. Pumps
// are never started, so tests read s.send directly.
func newTestSession(hub *Hub, userID, username string) *Session {
	return NewSession(hub, nil, auth.Identity{UserID: userID, Username: username})
}

// registerSession registers a session and waits for the hub to process it.
func registerSession(hub *Hub, s *Session) {
	hub.Register <- s
	time.Sleep(20 * time.Millisecond)
}

// submit feeds one client event through the hub's run loop.
func submit(t *testing.T, hub *Hub, s *Session, kind string, payload interface{}) {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		data = raw
	}
	hub.inbound <- inbound{session: s, envelope: Envelope{Kind: kind, Data: data}}
	time.Sleep(20 * time.Millisecond)
}

// recv waits for the next outbound message on a session's send channel.
func recv(t *testing.T, s *Session) Outbound {
	t.Helper()
	select {
	case msg, ok := <-s.send:
		if !ok {
			t.Fatal("send channel closed while waiting for message")
		}
		return msg
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return Outbound{}
	}
}

// drain discards everything currently buffered on a session's send channel.
func drain(s *Session) {
	for {
		select {
		case <-s.send:
		default:
			return
		}
	}
}

func TestNewHub(t *testing.T) {
	hub := newTestHub()

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"registry", hub.registry != nil, "registry not initialized"},
		{"Register channel", hub.Register != nil, "Register channel not initialized"},
		{"Unregister channel", hub.Unregister != nil, "Unregister channel not initialized"},
		{"inbound channel", hub.inbound != nil, "inbound channel not initialized"},
		{"empty registry", hub.SessionCount() == 0, "registry should start empty"},
	}

	for _, c := range checks {
		if !c.check {
			t.Error(c.errMsg)
		}
	}
}

func TestHub_RegisterSendsConnected(t *testing.T) {
	hub := setupHub(t)
	s := newTestSession(hub, "user-1", "alice")
	registerSession(hub, s)

	msg := recv(t, s)
	if msg.Kind != KindConnected {
		t.Fatalf("first message kind = %q, want %q", msg.Kind, KindConnected)
	}
	payload, ok := msg.Data.(ConnectedPayload)
	if !ok {
		t.Fatalf("expected ConnectedPayload, got %T", msg.Data)
	}
	if payload.UserID != "user-1" {
		t.Errorf("connected userId = %q, want user-1", payload.UserID)
	}
}

func TestHub_RegisterJoinsPersonalRoom(t *testing.T) {
	hub := setupHub(t)
	s := newTestSession(hub, "user-1", "alice")
	registerSession(hub, s)

	if !containsSession(hub.registry.MembersOf(PersonalRoom("user-1")), s) {
		t.Error("admitted session should be in its personal room")
	}
}

func TestHub_UnregisterCleansAllRooms(t *testing.T) {
	hub := setupHub(t)

	a := newTestSession(hub, "user-a", "alice")
	b := newTestSession(hub, "user-b", "bob")
	registerSession(hub, a)
	registerSession(hub, b)

	submit(t, hub, a, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	submit(t, hub, a, KindJoinChallenge, JoinChallengePayload{ChallengeID: "ch-1"})
	submit(t, hub, b, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	drain(a)
	drain(b)

	hub.Unregister <- a
	time.Sleep(20 * time.Millisecond)

	for _, room := range []RoomID{PodRoom("pod-x"), ChallengeRoom("ch-1"), PersonalRoom("user-a")} {
		if containsSession(hub.registry.MembersOf(room), a) {
			t.Errorf("session still in %v after disconnect", room)
		}
	}

	// The remaining pod member hears about the drop, then gets a fresh
	// snapshot.
	msg := recv(t, b)
	if msg.Kind != KindMemberDisconnected {
		t.Fatalf("kind = %q, want %q", msg.Kind, KindMemberDisconnected)
	}
	delta, ok := msg.Data.(PresenceDeltaPayload)
	if !ok || delta.UserID != "user-a" {
		t.Errorf("expected member-disconnected about user-a, got %+v", msg.Data)
	}

	snap := recv(t, b)
	if snap.Kind != KindPodMembersUpdate {
		t.Fatalf("kind = %q, want %q", snap.Kind, KindPodMembersUpdate)
	}
	update := snap.Data.(PodMembersUpdatePayload)
	if update.TotalOnline != 1 || update.OnlineMembers[0].UserID != "user-b" {
		t.Errorf("snapshot after disconnect = %+v", update)
	}
}

func TestHub_JoinPod_SnapshotIncludesSelf(t *testing.T) {
	hub := setupHub(t)
	s := newTestSession(hub, "user-1", "alice")
	registerSession(hub, s)
	drain(s)

	submit(t, hub, s, KindJoinPod, JoinPodPayload{PodID: "pod-x"})

	msg := recv(t, s)
	if msg.Kind != KindPodMembersUpdate {
		t.Fatalf("kind = %q, want %q", msg.Kind, KindPodMembersUpdate)
	}
	update := msg.Data.(PodMembersUpdatePayload)
	if update.TotalOnline != 1 {
		t.Errorf("totalOnline = %d, want 1", update.TotalOnline)
	}
	if len(update.OnlineMembers) != 1 || update.OnlineMembers[0].UserID != "user-1" {
		t.Errorf("snapshot should contain the joiner, got %+v", update.OnlineMembers)
	}
}

func TestHub_JoinPod_NoSelfJoinNotification(t *testing.T) {
	hub := setupHub(t)

	a := newTestSession(hub, "user-a", "alice")
	b := newTestSession(hub, "user-b", "bob")
	registerSession(hub, a)
	registerSession(hub, b)

	submit(t, hub, a, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	drain(a)
	drain(b)

	submit(t, hub, b, KindJoinPod, JoinPodPayload{PodID: "pod-x"})

	// A, the existing member, hears member-joined about B.
	msg := recv(t, a)
	if msg.Kind != KindMemberJoined {
		t.Fatalf("existing member got %q, want %q", msg.Kind, KindMemberJoined)
	}
	delta := msg.Data.(PresenceDeltaPayload)
	if delta.UserID != "user-b" || delta.Username != "bob" {
		t.Errorf("member-joined delta = %+v", delta)
	}
	if delta.Timestamp.IsZero() {
		t.Error("delta timestamp should be server-stamped")
	}

	// B gets only the snapshot, never a member-joined about itself.
	snap := recv(t, b)
	if snap.Kind != KindPodMembersUpdate {
		t.Fatalf("joiner got %q, want %q", snap.Kind, KindPodMembersUpdate)
	}
	update := snap.Data.(PodMembersUpdatePayload)
	if update.TotalOnline != 2 {
		t.Errorf("totalOnline = %d, want 2", update.TotalOnline)
	}

	select {
	case extra := <-b.send:
		t.Errorf("joiner received unexpected %q", extra.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_JoinPod_ImplicitLeaveNotifiesOldRoom(t *testing.T) {
	hub := setupHub(t)

	a := newTestSession(hub, "user-a", "alice")
	b := newTestSession(hub, "user-b", "bob")
	registerSession(hub, a)
	registerSession(hub, b)

	submit(t, hub, a, KindJoinPod, JoinPodPayload{PodID: "pod-1"})
	submit(t, hub, b, KindJoinPod, JoinPodPayload{PodID: "pod-1"})
	drain(a)
	drain(b)

	submit(t, hub, b, KindJoinPod, JoinPodPayload{PodID: "pod-2"})

	msg := recv(t, a)
	if msg.Kind != KindMemberLeft {
		t.Fatalf("old room got %q, want %q", msg.Kind, KindMemberLeft)
	}
	if msg.Data.(PresenceDeltaPayload).UserID != "user-b" {
		t.Errorf("member-left delta = %+v", msg.Data)
	}

	if containsSession(hub.registry.MembersOf(PodRoom("pod-1")), b) {
		t.Error("session should have left pod-1")
	}
	if !containsSession(hub.registry.MembersOf(PodRoom("pod-2")), b) {
		t.Error("session should be in pod-2")
	}
}

func TestHub_IdempotentJoinProducesNoDeltas(t *testing.T) {
	hub := setupHub(t)
	s := newTestSession(hub, "user-1", "alice")
	registerSession(hub, s)
	submit(t, hub, s, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	drain(s)

	submit(t, hub, s, KindJoinPod, JoinPodPayload{PodID: "pod-x"})

	select {
	case msg := <-s.send:
		t.Errorf("repeated join produced %q", msg.Kind)
	case <-time.After(50 * time.Millisecond):
	}

	if n := len(hub.registry.MembersOf(PodRoom("pod-x"))); n != 1 {
		t.Errorf("expected one membership, got %d", n)
	}
}

func TestHub_LeavePod(t *testing.T) {
	hub := setupHub(t)

	a := newTestSession(hub, "user-a", "alice")
	b := newTestSession(hub, "user-b", "bob")
	registerSession(hub, a)
	registerSession(hub, b)

	submit(t, hub, a, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	submit(t, hub, b, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	drain(a)
	drain(b)

	submit(t, hub, b, KindLeavePod, LeavePodPayload{PodID: "pod-x"})

	msg := recv(t, a)
	if msg.Kind != KindMemberLeft {
		t.Fatalf("kind = %q, want %q", msg.Kind, KindMemberLeft)
	}
	if containsSession(hub.registry.MembersOf(PodRoom("pod-x")), b) {
		t.Error("session should have left the pod")
	}
	if !containsSession(hub.registry.MembersOf(PersonalRoom("user-b")), b) {
		t.Error("leaving a pod must not touch the personal room")
	}
}

func TestHub_OnlineMembers_DedupesByUser(t *testing.T) {
	hub := setupHub(t)

	// Two tabs for the same user plus one other user.
	tab1 := newTestSession(hub, "user-a", "alice")
	tab2 := newTestSession(hub, "user-a", "alice")
	b := newTestSession(hub, "user-b", "bob")
	for _, s := range []*Session{tab1, tab2, b} {
		registerSession(hub, s)
		submit(t, hub, s, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	}

	members := hub.OnlineMembers(PodRoom("pod-x"))
	if len(members) != 2 {
		t.Fatalf("expected 2 unique users online, got %d", len(members))
	}
	if members[0].UserID != "user-a" || members[1].UserID != "user-b" {
		t.Errorf("members = %+v", members)
	}
}

func TestHub_RunWithContext(t *testing.T) {
	t.Run("shuts down on context cancellation", func(t *testing.T) {
		oldLevel := zerolog.GlobalLevel()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		defer zerolog.SetGlobalLevel(oldLevel)

		hub := newTestHub()
		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- hub.RunWithContext(ctx)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("RunWithContext did not return after context cancellation")
		}
	})

	t.Run("shuts down on context deadline", func(t *testing.T) {
		oldLevel := zerolog.GlobalLevel()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		defer zerolog.SetGlobalLevel(oldLevel)

		hub := newTestHub()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- hub.RunWithContext(ctx)
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected context.DeadlineExceeded, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("RunWithContext did not return after deadline")
		}
	})

	t.Run("closes all sessions on shutdown", func(t *testing.T) {
		oldLevel := zerolog.GlobalLevel()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		defer zerolog.SetGlobalLevel(oldLevel)

		hub := newTestHub()
		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- hub.RunWithContext(ctx)
		}()

		sessions := make([]*Session, 3)
		for i := range sessions {
			sessions[i] = newTestSession(hub, "user", "u")
			hub.Register <- sessions[i]
		}

		var count int
		for i := 0; i < 10; i++ {
			time.Sleep(20 * time.Millisecond)
			count = hub.SessionCount()
			if count == 3 {
				break
			}
		}
		if count != 3 {
			t.Fatalf("expected 3 sessions, got %d", count)
		}

		cancel()

		select {
		case <-errCh:
		case <-time.After(time.Second):
			t.Fatal("RunWithContext did not return after context cancellation")
		}

		if hub.SessionCount() != 0 {
			t.Errorf("expected 0 sessions after shutdown, got %d", hub.SessionCount())
		}
	})
}

func TestGetShutdownReason(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		expected ShutdownReason
	}{
		{
			name: "context canceled returns context_canceled",
			setupCtx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			expected: ShutdownReasonContextCanceled,
		},
		{
			name: "context deadline exceeded returns context_deadline",
			setupCtx: func() context.Context {
				ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
				defer cancel()
				time.Sleep(10 * time.Millisecond)
				return ctx
			},
			expected: ShutdownReasonContextDeadline,
		},
		{
			name: "active context falls back to context_canceled",
			setupCtx: func() context.Context {
				return context.Background()
			},
			expected: ShutdownReasonContextCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getShutdownReason(tt.setupCtx()); got != tt.expected {
				t.Errorf("getShutdownReason() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestHub_SlowConsumerMessagesDropped(t *testing.T) {
	oldLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	defer zerolog.SetGlobalLevel(oldLevel)

	hub := setupHub(t)

	// A session with a tiny buffer that is never read.
	slow := NewSession(hub, nil, auth.Identity{UserID: "user-slow", Username: "slow"})
	slow.send = make(chan Outbound, 1)
	fast := newTestSession(hub, "user-fast", "fast")

	registerSession(hub, slow) // connected event fills the buffer
	registerSession(hub, fast)
	submit(t, hub, slow, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	submit(t, hub, fast, KindJoinPod, JoinPodPayload{PodID: "pod-x"})
	drain(fast)

	submit(t, hub, fast, KindTypingStart, TypingPayload{PodID: "pod-x"})

	// The slow session is still a member; only its messages were dropped.
	if !containsSession(hub.registry.MembersOf(PodRoom("pod-x")), slow) {
		t.Error("slow consumer should stay a member until its connection dies")
	}
}
