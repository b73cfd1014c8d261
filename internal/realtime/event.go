// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

import (
	"time"

	json "github.com/goccy/go-json"
)

// Client-to-server event kinds. Anything outside this set is dropped.
const (
	KindJoinPod           = "join-pod"
	KindLeavePod          = "leave-pod"
	KindJoinChallenge     = "join-challenge"
	KindTentacleUpdate    = "tentacle-update"
	KindChallengeProgress = "challenge-progress"
	KindActivityUpdate    = "activity-update"
	KindTypingStart       = "typing-start"
	KindTypingStop        = "typing-stop"
	KindSendNotification  = "send-notification"
)

// Server-to-client event kinds.
const (
	KindConnected                  = "connected"
	KindPodMembersUpdate           = "pod-members-update"
	KindMemberJoined               = "member-joined"
	KindMemberLeft                 = "member-left"
	KindMemberDisconnected         = "member-disconnected"
	KindTentacleUpdated            = "tentacle-updated"
	KindAnimateTentacle            = "animate-tentacle"
	KindChallengeProgressUpdate    = "challenge-progress-update"
	KindChallengeLeaderboardUpdate = "challenge-leaderboard-update"
	KindNewActivity                = "new-activity"
	KindUserTyping                 = "user-typing"
	KindUserStoppedTyping          = "user-stopped-typing"
	KindNewNotification            = "new-notification"
)

// Envelope is the wire frame for every message in both directions: a kind
// tag plus a kind-specific payload decoded lazily by the router.
type Envelope struct {
	Kind string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Outbound is a server-to-client message before encoding. Payloads are the
// concrete structs below; encoding happens once per recipient on the write
// pump.
type Outbound struct {
	Kind string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// inbound pairs a decoded envelope with the session it arrived on, for the
// hub's run loop.
type inbound struct {
	session  *Session
	envelope Envelope
}

// Client-supplied payloads. Validation tags mirror what the router enforces
// before any broadcast.

type JoinPodPayload struct {
	PodID string `json:"podId" validate:"required"`
}

type LeavePodPayload struct {
	PodID string `json:"podId" validate:"required"`
}

type JoinChallengePayload struct {
	ChallengeID string `json:"challengeId" validate:"required"`
}

type TentacleUpdatePayload struct {
	PodID    string  `json:"podId" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Value    float64 `json:"value" validate:"gte=0"`
	CO2Saved float64 `json:"co2Saved" validate:"gte=0"`
	Points   int     `json:"points" validate:"gte=0"`
}

type ChallengeProgressPayload struct {
	ChallengeID string  `json:"challengeId" validate:"required"`
	Progress    float64 `json:"progress" validate:"gte=0"`
	PodID       string  `json:"podId,omitempty"`
}

type ActivityUpdatePayload struct {
	PodID    string `json:"podId" validate:"required"`
	Action   string `json:"action" validate:"required"`
	Category string `json:"category" validate:"required"`
	Details  string `json:"details,omitempty"`
}

type TypingPayload struct {
	PodID   string `json:"podId" validate:"required"`
	Context string `json:"context,omitempty"`
}

type SendNotificationPayload struct {
	TargetUserID string `json:"targetUserId" validate:"required"`
	Type         string `json:"type" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Message      string `json:"message" validate:"required"`
	ActionURL    string `json:"actionUrl,omitempty"`
}

// Server-emitted payloads.

type ConnectedPayload struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// Member describes one online user in a presence snapshot.
type Member struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type PodMembersUpdatePayload struct {
	OnlineMembers []Member `json:"onlineMembers"`
	TotalOnline   int      `json:"totalOnline"`
}

type PresenceDeltaPayload struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

type TentacleUpdatedPayload struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Category  string    `json:"category"`
	Value     float64   `json:"value"`
	CO2Saved  float64   `json:"co2Saved"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

type AnimateTentaclePayload struct {
	Category string  `json:"category"`
	Progress float64 `json:"progress"`
}

type ChallengeProgressUpdatePayload struct {
	ChallengeID string    `json:"challengeId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	Progress    float64   `json:"progress"`
	Timestamp   time.Time `json:"timestamp"`
}

type ChallengeLeaderboardUpdatePayload struct {
	ChallengeID string  `json:"challengeId"`
	UserID      string  `json:"userId"`
	Progress    float64 `json:"progress"`
}

type NewActivityPayload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type UserTypingPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	Context  string `json:"context,omitempty"`
}

type NewNotificationPayload struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	ActionURL    string    `json:"actionUrl,omitempty"`
	FromUserID   string    `json:"fromUserId"`
	FromUsername string    `json:"fromUsername"`
	Timestamp    time.Time `json:"timestamp"`
	Read         bool      `json:"read"`
}
