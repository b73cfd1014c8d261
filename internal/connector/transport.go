// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one established transport connection. *websocket.Conn satisfies
// it; tests inject in-memory fakes.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// Transport dials connections. Injecting a fake Transport lets the
// reconnection state machine be tested without network I/O.
type Transport interface {
	Dial(ctx context.Context, rawURL string, header http.Header) (Conn, error)
}

// WebsocketTransport dials real websocket connections.
type WebsocketTransport struct {
	HandshakeTimeout time.Duration
}

// NewWebsocketTransport returns a transport with a 10 second handshake
// timeout.
func NewWebsocketTransport() *WebsocketTransport {
	return &WebsocketTransport{HandshakeTimeout: 10 * time.Second}
}

// Dial establishes a websocket connection.
func (t *WebsocketTransport) Dial(ctx context.Context, rawURL string, header http.Header) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout:  t.HandshakeTimeout,
		EnableCompression: true,
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, header)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	return conn, nil
}

// ServerURL converts an HTTP(S) base URL into the realtime endpoint's
// WS(S) URL.
func ServerURL(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	scheme := "ws"
	if parsed.Scheme == "https" {
		scheme = "wss"
	}

	return fmt.Sprintf("%s://%s/api/v1/realtime/ws", scheme, parsed.Host), nil
}
