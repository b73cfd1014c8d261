// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package services

import (
	"context"
)

// ContextHub matches *realtime.Hub's RunWithContext method.
//
// This interface lets HubService work with the hub without importing the
// realtime package, avoiding circular dependencies and enabling testing
// with fakes.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the realtime hub as a supervised service.
//
// The hub's RunWithContext method already implements the suture.Service
// pattern, so this wrapper simply delegates to it and provides a name
// for logging.
//
// Example usage:
//
//	hub := realtime.NewHub(cfg.Realtime)
//	svc := services.NewHubService(hub)
//	tree.AddRealtimeService(svc)
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService creates a new hub service wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{
		hub:  hub,
		name: "realtime-hub",
	}
}

// Serve implements suture.Service.
//
// This method delegates to hub.RunWithContext which:
//  1. Processes session admission, removal, and event fan-out
//  2. Returns when the context is canceled
//  3. Gracefully closes all sessions on shutdown
//
// The method returns ctx.Err() on normal shutdown.
func (h *HubService) Serve(ctx context.Context) error {
	return h.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (h *HubService) String() string {
	return h.name
}
