// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

/*
Package auth provides credential verification for the EcoPods server.

The realtime connection gate and the REST middleware both consume the
Verifier interface: given a bearer credential, return the caller's
identity or fail. Verification failures are always one of the sentinel
errors in errors.go so callers can map them to precise rejection reasons.

Key Components:

  - JWTManager: token generation and validation using HMAC-SHA256
  - JWTVerifier: Verifier backed by a JWTManager
  - RemoteVerifier: Verifier that delegates to an external accounts
    service, wrapped in a circuit breaker (sony/gobreaker)
  - NoneVerifier: development-only Verifier that admits everyone
  - Middleware: HTTP middleware that authenticates REST requests

Verification Modes:

The application supports three modes (configured via AUTH_MODE):

 1. jwt (default): the server issues and validates its own HS256 tokens.
    The login endpoint checks the admin credentials (bcrypt hash) and
    returns a token with configurable expiry.

 2. remote: credentials are opaque; each one is POSTed to an external
    verify endpoint. The circuit breaker sheds load when the remote
    service is failing, so a dead accounts service cannot stall every
    connection handshake.

 3. none: every credential is accepted and mapped to a synthetic
    identity. Config validation rejects this mode in production.

Credential Extraction:

ExtractToken reads the Authorization header ("Bearer <token>") and falls
back to the token query parameter, since the browser WebSocket API
cannot set request headers.
*/
package auth
