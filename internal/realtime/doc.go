// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package realtime implements the presence and event-broadcast layer: rooms,
sessions, and typed event fan-out over WebSocket.

Key Components:

  - Hub: owns the room registry and processes every lifecycle and client
    event on a single run loop
  - Registry: maps rooms (pod, challenge, personal) to connected sessions
  - Session: one admitted connection with read/write goroutines
  - Envelope/Outbound: the typed wire frames in each direction

Architecture:

Sessions never touch the registry directly. Everything flows through the
hub's run loop:

	readPump → hub.inbound → route → registry mutation + fan-out → send chans

Because joins, leaves, and disconnect cleanup all execute on that one loop,
room membership always agrees with the set of live sessions and presence
deltas are computed against consistent state.

Rooms come in three kinds. A session holds at most one pod room (joining a
new pod implicitly leaves the old one), any number of challenge rooms, and
exactly one personal room joined automatically at admission for direct
notification delivery.

Delivery is fire-and-forget: each session has a buffered send channel, and
a member that cannot keep up has messages dropped rather than blocking the
loop. Ping/pong deadlines reap connections that are actually dead.

See Also:

  - github.com/gorilla/websocket: Underlying WebSocket library
  - internal/api: handshake, authentication gate, and upgrade endpoint
  - internal/connector: consumer-side client with reconnection
*/
package realtime
