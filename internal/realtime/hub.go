// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

import (
	"context"
	"sort"
	"time"

	"github.com/ecopods/server/internal/config"
	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
// This enables clear observability in logs and metrics.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	// This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub owns the room registry and processes every session lifecycle event
// and inbound client event on a single run loop. Registry mutations and the
// presence deltas they trigger happen synchronously inside that loop, so no
// observer can see membership that disagrees with the set of live sessions.
type Hub struct {
	cfg      config.RealtimeConfig
	registry *Registry

	Register   chan *Session
	Unregister chan *Session
	inbound    chan inbound

	// now is swappable in tests for stable timestamps.
	now func() time.Time
}

// NewHub creates a hub with an empty registry.
func NewHub(cfg config.RealtimeConfig) *Hub {
	return &Hub{
		cfg:        cfg,
		registry:   NewRegistry(),
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
		inbound:    make(chan inbound, 256),
		now:        time.Now,
	}
}

// Registry exposes the membership registry for presence queries.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use with suture supervision.
//
// When the context is canceled:
//  1. All connected sessions are gracefully closed
//  2. The method returns ctx.Err()
//
// This allows the hub to be restarted by a supervisor without leaving
// orphaned connections.
//
// DETERMINISM: Uses priority-based selection to ensure predictable behavior:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Session lifecycle events (Register/Unregister)
// - Priority 3: Inbound client events
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// DETERMINISM: Priority-based selection prevents non-deterministic
		// ordering when multiple channels are ready simultaneously.

		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
			// Context not canceled, continue
		}

		// Priority 2: Handle session lifecycle events (non-blocking check)
		select {
		case s := <-h.Register:
			h.handleRegister(s)
			continue
		case s := <-h.Unregister:
			h.handleUnregister(s)
			continue
		default:
			// No lifecycle events pending
		}

		// Priority 3: Handle inbound events or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case s := <-h.Register:
			h.handleRegister(s)

		case s := <-h.Unregister:
			h.handleUnregister(s)

		case in := <-h.inbound:
			h.route(in.session, in.envelope)
		}
	}
}

// handleRegister admits a session: it is joined to its personal room so
// direct notifications work without any join handshake, then told its own
// identity via a connected event.
func (h *Hub) handleRegister(s *Session) {
	h.registry.Join(s, PersonalRoom(s.UserID()))
	h.updateRoomMetrics()
	metrics.RecordSessionConnected()

	s.deliver(Outbound{
		Kind: KindConnected,
		Data: ConnectedPayload{
			UserID:  s.UserID(),
			Message: "connected to ecopods realtime",
		},
	})

	logging.Info().
		Str("session_id", s.ID()).
		Str("user_id", s.UserID()).
		Int("total_sessions", h.registry.SessionCount()).
		Msg("realtime session connected")
}

// handleUnregister tears a session down: membership is removed first so the
// disconnect deltas broadcast afterwards are computed against a registry
// that no longer contains the departed session.
func (h *Hub) handleUnregister(s *Session) {
	left := h.registry.RemoveAll(s)
	h.updateRoomMetrics()
	metrics.RecordSessionDisconnected()

	for _, room := range left {
		if room.Kind == RoomKindPersonal {
			continue
		}
		h.broadcastPresenceDelta(room, KindMemberDisconnected, s)
		h.broadcastSnapshot(room)
	}

	close(s.send)

	logging.Info().
		Str("session_id", s.ID()).
		Str("user_id", s.UserID()).
		Int("rooms_left", len(left)).
		Int("total_sessions", h.registry.SessionCount()).
		Msg("realtime session disconnected")
}

// broadcastToRoom sends a message to every member of a room in session
// sequence order.
// DETERMINISM: MembersOf returns sessions sorted by sequence number, which
// prevents non-deterministic delivery order across members.
func (h *Hub) broadcastToRoom(room RoomID, msg Outbound) {
	delivered := 0
	for _, member := range h.registry.MembersOf(room) {
		if member.deliver(msg) {
			delivered++
		}
	}
	if delivered > 0 {
		metrics.RecordEventBroadcast(msg.Kind, delivered)
	}
}

// broadcastToRoomExcept is broadcastToRoom with one excluded session, used
// for presence joins where the arriving session gets a snapshot instead.
func (h *Hub) broadcastToRoomExcept(room RoomID, msg Outbound, except *Session) {
	delivered := 0
	for _, member := range h.registry.MembersOf(room) {
		if member == except {
			continue
		}
		if member.deliver(msg) {
			delivered++
		}
	}
	if delivered > 0 {
		metrics.RecordEventBroadcast(msg.Kind, delivered)
	}
}

// OnlineMembers answers "who is online" for a room, deduplicated by user so
// a user with several tabs open counts once. Used by presence queries and
// membership snapshots.
func (h *Hub) OnlineMembers(room RoomID) []Member {
	seen := make(map[string]struct{})
	members := make([]Member, 0)
	for _, s := range h.registry.MembersOf(room) {
		if _, ok := seen[s.UserID()]; ok {
			continue
		}
		seen[s.UserID()] = struct{}{}
		members = append(members, Member{UserID: s.UserID(), Username: s.Username()})
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].UserID < members[j].UserID
	})
	return members
}

// SessionCount returns the number of admitted sessions.
func (h *Hub) SessionCount() int {
	return h.registry.SessionCount()
}

func (h *Hub) updateRoomMetrics() {
	counts := h.registry.RoomCounts()
	for _, kind := range []RoomKind{RoomKindPod, RoomKindChallenge, RoomKindPersonal} {
		metrics.SetRoomCount(kind.String(), counts[kind])
	}
}

// logGracefulShutdown closes all sessions and logs structured shutdown
// information. ctx.Err() is NOT logged as an error because context
// cancellation is expected behavior during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	sessions := h.registry.SessionCount()
	h.closeAllSessions()

	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("sessions_closed", sessions).
		Msg("realtime hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllSessions removes and closes every session during shutdown.
// DETERMINISM: Sessions close in sequence order for consistent behavior.
func (h *Hub) closeAllSessions() {
	h.registry.mu.Lock()
	sessions := make([]*Session, 0, len(h.registry.sessions))
	for s := range h.registry.sessions {
		sessions = append(sessions, s)
	}
	h.registry.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].seq < sessions[j].seq
	})

	for _, s := range sessions {
		h.registry.RemoveAll(s)
		close(s.send)
	}
	h.updateRoomMetrics()
}
