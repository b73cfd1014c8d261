// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/ecopods/server/internal/logging"
)

// RemoteVerifier verifies credentials against an external identity service.
//
// The verify call happens during the websocket handshake, so a slow or dead
// identity service would stall every connection attempt. A circuit breaker
// fails fast once the service is known to be down; while the breaker is open
// connections are rejected immediately with ErrInvalidCredentials.
type RemoteVerifier struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*Identity]
}

// verifyRequest is the wire format sent to the identity service.
type verifyRequest struct {
	Token string `json:"token"`
}

// NewRemoteVerifier creates a verifier calling the given verify endpoint.
func NewRemoteVerifier(url string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "identity-verifier",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A rejected credential is a verdict, not a service failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrExpiredCredentials)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("identity verifier breaker state changed")
		},
	}

	return &RemoteVerifier{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*Identity](settings),
	}
}

// Verify posts the credential to the identity service. A 401 or 403 from
// the service means the credential is bad, which is a verdict rather than a
// service failure, so it does not count against the breaker.
func (v *RemoteVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, ErrNoCredentials
	}

	identity, err := v.breaker.Execute(func() (*Identity, error) {
		return v.callVerify(ctx, credential)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrExpiredCredentials) {
			return nil, err
		}
		logging.Error().Err(err).Msg("identity verifier unavailable")
		return nil, ErrInvalidCredentials
	}

	if identity.UserID == "" {
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}

// callVerify performs one HTTP round trip to the verify endpoint.
func (v *RemoteVerifier) callVerify(ctx context.Context, credential string) (*Identity, error) {
	body, err := json.Marshal(verifyRequest{Token: credential})
	if err != nil {
		return nil, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var identity Identity
		if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
			return nil, fmt.Errorf("decode verify response: %w", err)
		}
		return &identity, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidCredentials
	default:
		return nil, fmt.Errorf("verify endpoint returned HTTP %d", resp.StatusCode)
	}
}
