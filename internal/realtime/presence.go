// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package realtime

// Presence handling: every registry mutation caused by a join, leave, or
// disconnect is followed by deltas to the affected room. All of this runs
// on the hub's run loop, so the snapshot a joiner receives always reflects
// a registry that already contains the joiner.

// handleJoinPod moves the session into a pod room. At most one pod room per
// session: a previous pod room is left implicitly and its remaining members
// are notified before the new room is touched.
func (h *Hub) handleJoinPod(s *Session, p JoinPodPayload) {
	room := PodRoom(p.PodID)

	joined, leftPod := h.registry.Join(s, room)
	if !joined {
		// Already a member. Joins are idempotent.
		return
	}
	h.updateRoomMetrics()

	if !leftPod.IsZero() {
		h.broadcastPresenceDelta(leftPod, KindMemberLeft, s)
		h.broadcastSnapshot(leftPod)
	}

	// Existing members learn about the arrival; the joiner never receives
	// a member-joined about itself, only the snapshot that includes it.
	h.broadcastPresenceDelta(room, KindMemberJoined, s)
	h.sendSnapshot(room, s)
}

// handleLeavePod removes the session from the named pod room only.
func (h *Hub) handleLeavePod(s *Session, p LeavePodPayload) {
	room := PodRoom(p.PodID)

	if !h.registry.Leave(s, room) {
		return
	}
	h.updateRoomMetrics()

	h.broadcastPresenceDelta(room, KindMemberLeft, s)
	h.broadcastSnapshot(room)
}

// handleJoinChallenge adds the session to a challenge room. Challenge rooms
// stack: joining one never leaves another.
func (h *Hub) handleJoinChallenge(s *Session, p JoinChallengePayload) {
	room := ChallengeRoom(p.ChallengeID)

	joined, _ := h.registry.Join(s, room)
	if !joined {
		return
	}
	h.updateRoomMetrics()

	h.broadcastPresenceDelta(room, KindMemberJoined, s)
	h.sendSnapshot(room, s)
}

// broadcastPresenceDelta sends a joined/left/disconnected delta about the
// subject session to every other member of the room.
func (h *Hub) broadcastPresenceDelta(room RoomID, kind string, subject *Session) {
	h.broadcastToRoomExcept(room, Outbound{
		Kind: kind,
		Data: PresenceDeltaPayload{
			UserID:    subject.UserID(),
			Username:  subject.Username(),
			Timestamp: h.now().UTC(),
		},
	}, subject)
}

// sendSnapshot delivers the current membership list to a single session.
func (h *Hub) sendSnapshot(room RoomID, to *Session) {
	to.deliver(h.snapshotMessage(room))
}

// broadcastSnapshot delivers the current membership list to every member,
// used after a departure so remaining members converge.
func (h *Hub) broadcastSnapshot(room RoomID) {
	h.broadcastToRoom(room, h.snapshotMessage(room))
}

func (h *Hub) snapshotMessage(room RoomID) Outbound {
	members := h.OnlineMembers(room)
	return Outbound{
		Kind: KindPodMembersUpdate,
		Data: PodMembersUpdatePayload{
			OnlineMembers: members,
			TotalOnline:   len(members),
		},
	}
}
