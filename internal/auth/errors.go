// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package auth

import "errors"

var (
	// ErrNoCredentials indicates no credential was supplied.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the credential failed verification.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates the credential has expired.
	ErrExpiredCredentials = errors.New("expired credentials")
)
