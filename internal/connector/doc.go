// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package connector is the consumer side of the realtime layer: it maintains
a single websocket connection per credential and exposes a typed
subscribe/emit surface to application code.

Reconnection is bounded, not endless. A transport drop (anything other
than an explicit Close) triggers a retry loop governed by a RetryPolicy:
a fixed attempt cap and a backoff strategy from cenkalti/backoff. When the
budget runs out the connector surfaces ErrMaxReconnectExceeded exactly
once on Err() and stays disconnected.

Room memberships do not survive a reconnect. The server drops the stale
session's rooms the moment the old connection dies, so the consumer
re-joins the rooms it cares about from its OnStateChange callback rather
than relying on replay.

The Transport interface exists so the whole state machine can be driven by
an in-memory fake in tests; production code uses WebsocketTransport over
gorilla/websocket.
*/
package connector
