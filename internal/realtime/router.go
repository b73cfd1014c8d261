// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

import (
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/metrics"
	"github.com/ecopods/server/internal/validation"
)

// route dispatches one inbound envelope. A bad event is dropped and logged;
// it never disconnects the session and never reaches other sessions, so one
// misbehaving client cannot disturb the rest of the hub.
func (h *Hub) route(s *Session, env Envelope) {
	metrics.RecordEventReceived(env.Kind)

	switch env.Kind {
	case KindJoinPod:
		if p, ok := decode[JoinPodPayload](env); ok {
			h.handleJoinPod(s, p)
		}
	case KindLeavePod:
		if p, ok := decode[LeavePodPayload](env); ok {
			h.handleLeavePod(s, p)
		}
	case KindJoinChallenge:
		if p, ok := decode[JoinChallengePayload](env); ok {
			h.handleJoinChallenge(s, p)
		}
	case KindTentacleUpdate:
		if p, ok := decode[TentacleUpdatePayload](env); ok {
			h.handleTentacleUpdate(s, p)
		}
	case KindChallengeProgress:
		if p, ok := decode[ChallengeProgressPayload](env); ok {
			h.handleChallengeProgress(s, p)
		}
	case KindActivityUpdate:
		if p, ok := decode[ActivityUpdatePayload](env); ok {
			h.handleActivityUpdate(s, p)
		}
	case KindTypingStart:
		if p, ok := decode[TypingPayload](env); ok {
			h.handleTyping(s, p, KindUserTyping)
		}
	case KindTypingStop:
		if p, ok := decode[TypingPayload](env); ok {
			h.handleTyping(s, p, KindUserStoppedTyping)
		}
	case KindSendNotification:
		if p, ok := decode[SendNotificationPayload](env); ok {
			h.handleSendNotification(s, p)
		}
	default:
		metrics.RecordEventDropped("unknown_kind")
		logging.Debug().
			Str("session_id", s.ID()).
			Str("event_kind", env.Kind).
			Msg("unknown event kind, dropping")
	}
}

// decode unmarshals and validates a client payload. Failures count as
// dropped events.
func decode[T any](env Envelope) (T, bool) {
	var p T
	if err := json.Unmarshal(env.Data, &p); err != nil {
		metrics.RecordEventDropped("invalid_payload")
		logging.Debug().Err(err).Str("event_kind", env.Kind).Msg("malformed event payload, dropping")
		return p, false
	}
	if err := validation.ValidateStruct(&p); err != nil {
		metrics.RecordEventDropped("invalid_payload")
		logging.Debug().Err(err).Str("event_kind", env.Kind).Msg("invalid event payload, dropping")
		return p, false
	}
	return p, true
}

// handleTentacleUpdate rebroadcasts the stamped update to the pod room and
// synthesizes an animate-tentacle event from the update's value.
func (h *Hub) handleTentacleUpdate(s *Session, p TentacleUpdatePayload) {
	room := PodRoom(p.PodID)

	h.broadcastToRoom(room, Outbound{
		Kind: KindTentacleUpdated,
		Data: TentacleUpdatedPayload{
			UserID:    s.UserID(),
			Username:  s.Username(),
			Category:  p.Category,
			Value:     p.Value,
			CO2Saved:  p.CO2Saved,
			Points:    p.Points,
			Timestamp: h.now().UTC(),
		},
	})

	h.broadcastToRoom(room, Outbound{
		Kind: KindAnimateTentacle,
		Data: AnimateTentaclePayload{
			Category: p.Category,
			Progress: clampProgress(p.Value),
		},
	})
}

// handleChallengeProgress notifies the sender's pod (when the update names
// one) and always feeds the challenge room's leaderboard.
func (h *Hub) handleChallengeProgress(s *Session, p ChallengeProgressPayload) {
	if p.PodID != "" {
		h.broadcastToRoom(PodRoom(p.PodID), Outbound{
			Kind: KindChallengeProgressUpdate,
			Data: ChallengeProgressUpdatePayload{
				ChallengeID: p.ChallengeID,
				UserID:      s.UserID(),
				Username:    s.Username(),
				Progress:    p.Progress,
				Timestamp:   h.now().UTC(),
			},
		})
	}

	h.broadcastToRoom(ChallengeRoom(p.ChallengeID), Outbound{
		Kind: KindChallengeLeaderboardUpdate,
		Data: ChallengeLeaderboardUpdatePayload{
			ChallengeID: p.ChallengeID,
			UserID:      s.UserID(),
			Progress:    p.Progress,
		},
	})
}

// handleActivityUpdate stamps the activity with an id and rebroadcasts it
// to the pod room.
func (h *Hub) handleActivityUpdate(s *Session, p ActivityUpdatePayload) {
	h.broadcastToRoom(PodRoom(p.PodID), Outbound{
		Kind: KindNewActivity,
		Data: NewActivityPayload{
			ID:        uuid.NewString(),
			UserID:    s.UserID(),
			Username:  s.Username(),
			Action:    p.Action,
			Category:  p.Category,
			Details:   p.Details,
			Timestamp: h.now().UTC(),
		},
	})
}

// handleTyping relays typing indicators to the pod room.
func (h *Hub) handleTyping(s *Session, p TypingPayload, outKind string) {
	h.broadcastToRoom(PodRoom(p.PodID), Outbound{
		Kind: outKind,
		Data: UserTypingPayload{
			UserID:   s.UserID(),
			Username: s.Username(),
			Context:  p.Context,
		},
	})
}

// handleSendNotification delivers a notification to the target user's
// personal room. An offline target is not an error; there is simply nobody
// to deliver to.
func (h *Hub) handleSendNotification(s *Session, p SendNotificationPayload) {
	h.broadcastToRoom(PersonalRoom(p.TargetUserID), Outbound{
		Kind: KindNewNotification,
		Data: NewNotificationPayload{
			ID:           uuid.NewString(),
			Type:         p.Type,
			Title:        p.Title,
			Message:      p.Message,
			ActionURL:    p.ActionURL,
			FromUserID:   s.UserID(),
			FromUsername: s.Username(),
			Timestamp:    h.now().UTC(),
			Read:         false,
		},
	})
}

// clampProgress maps an update value onto the 0-100 animation range.
func clampProgress(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
