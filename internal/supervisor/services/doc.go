// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package services provides suture.Service wrappers for EcoPods components.

This package adapts application components to the suture v4 supervision
model, translating their lifecycle patterns into suture's context-aware
Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (ListenAndServe, RunWithContext) to Serve
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the blocking ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Realtime Hub (HubService):
  - Wraps the realtime hub via the ContextHub interface
  - Delegates to RunWithContext, which closes all sessions on shutdown

# Restart Semantics

A service that returns an error is restarted by its supervisor. A service
that returns nil is considered terminated and left stopped. Both wrappers
return ctx.Err() on normal shutdown so the supervisor tree unwinds cleanly
when the root context is canceled.
*/
package services
