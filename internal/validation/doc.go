// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a
// thread-safe singleton validator instance with user-friendly error
// messages. It integrates with the application's API error format for
// consistent error responses, and the realtime router uses it to reject
// malformed event payloads before they reach any room.
//
// # Quick Start
//
//	type LoginRequest struct {
//	    Username string `validate:"required,min=1,max=64"`
//	    Password string `validate:"required,min=1,max=256"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
//
// # Thread Safety
//
// The underlying validator caches struct metadata and is safe for
// concurrent use; ValidateStruct may be called from any goroutine,
// including the hub's event loop.
package validation
