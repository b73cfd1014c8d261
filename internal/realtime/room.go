// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

// RoomKind distinguishes the three room key spaces. Modeling the kind
// explicitly prevents collisions between a pod and a challenge that happen
// to share an identifier.
type RoomKind uint8

const (
	// RoomKindPod is a pod room. A session belongs to at most one pod room
	// at a time; joining a new one implicitly leaves the previous one.
	RoomKindPod RoomKind = iota + 1

	// RoomKindChallenge is a challenge room. Sessions join explicitly and
	// may belong to several at once.
	RoomKindChallenge

	// RoomKindPersonal is the implicit per-user room used for direct
	// notification delivery. Every admitted session is a member of its
	// user's personal room.
	RoomKindPersonal
)

// String returns the kind's wire/metric label.
func (k RoomKind) String() string {
	switch k {
	case RoomKindPod:
		return "pod"
	case RoomKindChallenge:
		return "challenge"
	case RoomKindPersonal:
		return "personal"
	default:
		return "unknown"
	}
}

// RoomID identifies a broadcast group. The zero value is not a valid room.
type RoomID struct {
	Kind RoomKind
	ID   string
}

// PodRoom returns the room for a pod.
func PodRoom(podID string) RoomID {
	return RoomID{Kind: RoomKindPod, ID: podID}
}

// ChallengeRoom returns the room for a challenge.
func ChallengeRoom(challengeID string) RoomID {
	return RoomID{Kind: RoomKindChallenge, ID: challengeID}
}

// PersonalRoom returns the personal room for a user.
func PersonalRoom(userID string) RoomID {
	return RoomID{Kind: RoomKindPersonal, ID: userID}
}

// IsZero reports whether the room id is the zero value.
func (r RoomID) IsZero() bool {
	return r.Kind == 0 && r.ID == ""
}

// String returns a log-friendly representation, e.g. "pod:pod-42".
func (r RoomID) String() string {
	return r.Kind.String() + ":" + r.ID
}
