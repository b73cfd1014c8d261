// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ecopods/server/internal/auth"
	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/metrics"
)

// sessionSeqCounter generates unique, monotonically increasing sequence
// numbers for sessions.
// DETERMINISM: This ensures sessions can be sorted in a consistent order for
// broadcast operations, eliminating non-deterministic map iteration order.
var sessionSeqCounter atomic.Uint64

// Session is one admitted real-time connection: the middleman between a
// websocket and the hub. It carries the verified identity for the lifetime
// of the connection.
type Session struct {
	// seq orders sessions deterministically for broadcasts.
	// DETERMINISM: Assigned from an atomic counter to ensure consistent sorting.
	seq      uint64
	id       string
	hub      *Hub
	conn     *websocket.Conn
	identity auth.Identity
	send     chan Outbound
	limiter  *rate.Limiter
}

// NewSession creates a session for a verified identity. The connection may
// be nil in tests; pumps are only started by Start.
func NewSession(hub *Hub, conn *websocket.Conn, identity auth.Identity) *Session {
	return &Session{
		seq:      sessionSeqCounter.Add(1),
		id:       uuid.NewString(),
		hub:      hub,
		conn:     conn,
		identity: identity,
		send:     make(chan Outbound, hub.cfg.SendBuffer),
		limiter:  rate.NewLimiter(rate.Limit(hub.cfg.EventRate), hub.cfg.EventBurst),
	}
}

// ID returns the session's opaque identifier, unique per connection.
func (s *Session) ID() string {
	return s.id
}

// UserID returns the verified user identifier.
func (s *Session) UserID() string {
	return s.identity.UserID
}

// Username returns the verified display name.
func (s *Session) Username() string {
	return s.identity.Username
}

// Start begins reading and writing for the session.
func (s *Session) Start() {
	go s.writePump()
	go s.readPump()
}

// readPump pumps decoded envelopes from the websocket to the hub. It owns
// the read side: pong handling keeps the read deadline fresh, and any read
// error tears the session down through the hub's Unregister channel.
func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister <- s
		_ = s.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	s.conn.SetReadLimit(s.hub.cfg.MaxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.hub.cfg.PongWait))
	})

	for {
		var env Envelope
		err := s.conn.ReadJSON(&env)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Str("session_id", s.id).Msg("unexpected websocket close error")
			}
			break
		}

		if !s.limiter.Allow() {
			metrics.RecordEventDropped("rate_limited")
			logging.Warn().
				Str("session_id", s.id).
				Str("user_id", s.identity.UserID).
				Str("event_kind", env.Kind).
				Msg("event rate limit exceeded, dropping")
			continue
		}

		s.hub.inbound <- inbound{session: s, envelope: env}
	}
}

// writePump pumps outbound messages from the hub to the websocket and keeps
// the connection alive with periodic pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.hub.cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		_ = s.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := s.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.hub.cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// deliver enqueues an outbound message for the session without blocking.
// A full send buffer means the consumer has stalled; the message is dropped
// and ping/pong deadlines reap the connection if it is truly dead.
func (s *Session) deliver(msg Outbound) bool {
	select {
	case s.send <- msg:
		return true
	default:
		metrics.RecordEventDropped("slow_consumer")
		logging.Warn().
			Str("session_id", s.id).
			Str("user_id", s.identity.UserID).
			Str("event_kind", msg.Kind).
			Msg("send buffer full, dropping message")
		return false
	}
}
