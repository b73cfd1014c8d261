// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/ecopods/server/internal/auth"
	"github.com/ecopods/server/internal/realtime"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/api/v1/realtime/ws"
}

func issueToken(t *testing.T, m *auth.JWTManager, userID, username string) string {
	t.Helper()
	token, err := m.GenerateToken(userID, username)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

// dialWS connects an authenticated websocket client and returns the conn.
func dialWS(t *testing.T, srvURL, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srvURL), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEnvelope reads the next message with a bounded deadline.
func readEnvelope(t *testing.T, conn *websocket.Conn) realtime.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env realtime.Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return env
}

func TestWebSocket_AuthenticatedConnect(t *testing.T) {
	srv, _, jwtManager := newTestServer(t)
	token := issueToken(t, jwtManager, "user-1", "alice")

	conn := dialWS(t, srv.URL, token)

	env := readEnvelope(t, conn)
	if env.Kind != realtime.KindConnected {
		t.Fatalf("first event = %q, want %q", env.Kind, realtime.KindConnected)
	}

	var payload realtime.ConnectedPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal connected payload: %v", err)
	}
	if payload.UserID != "user-1" {
		t.Errorf("userId = %q, want %q", payload.UserID, "user-1")
	}
}

func TestWebSocket_MissingToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	//nolint:bodyclose // resp body closed below, handshake error path
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), nil)
	if err == nil {
		conn.Close()
		t.Fatal("dial succeeded without credentials")
	}
	if resp == nil {
		t.Fatal("no HTTP response on rejected handshake")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestWebSocket_InvalidToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	header := http.Header{"Authorization": {"Bearer not-a-real-token"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL), header)
	if err == nil {
		conn.Close()
		t.Fatal("dial succeeded with a garbage token")
	}
	if resp == nil {
		t.Fatal("no HTTP response on rejected handshake")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestWebSocket_TokenViaQueryParam(t *testing.T) {
	srv, _, jwtManager := newTestServer(t)
	token := issueToken(t, jwtManager, "user-2", "bob")

	// Browser WebSocket API cannot set headers, so the token is also
	// accepted as a query parameter.
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv.URL)+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	env := readEnvelope(t, conn)
	if env.Kind != realtime.KindConnected {
		t.Errorf("first event = %q, want %q", env.Kind, realtime.KindConnected)
	}
}

func TestWebSocket_JoinPodRoundTrip(t *testing.T) {
	srv, hub, jwtManager := newTestServer(t)

	conn := dialWS(t, srv.URL, issueToken(t, jwtManager, "user-1", "alice"))
	readEnvelope(t, conn) // connected

	join, _ := json.Marshal(realtime.JoinPodPayload{PodID: "pod-7"})
	if err := conn.WriteJSON(realtime.Envelope{Kind: realtime.KindJoinPod, Data: join}); err != nil {
		t.Fatalf("write join: %v", err)
	}

	env := readEnvelope(t, conn)
	if env.Kind != realtime.KindPodMembersUpdate {
		t.Fatalf("event = %q, want %q", env.Kind, realtime.KindPodMembersUpdate)
	}

	var snapshot realtime.PodMembersUpdatePayload
	if err := json.Unmarshal(env.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snapshot.TotalOnline != 1 {
		t.Errorf("totalOnline = %d, want 1", snapshot.TotalOnline)
	}

	members := hub.OnlineMembers(realtime.PodRoom("pod-7"))
	if len(members) != 1 || members[0].UserID != "user-1" {
		t.Errorf("OnlineMembers = %+v, want [user-1]", members)
	}
}

func TestPodPresence(t *testing.T) {
	srv, _, jwtManager := newTestServer(t)
	token := issueToken(t, jwtManager, "user-1", "alice")

	conn := dialWS(t, srv.URL, token)
	readEnvelope(t, conn) // connected

	join, _ := json.Marshal(realtime.JoinPodPayload{PodID: "pod-9"})
	if err := conn.WriteJSON(realtime.Envelope{Kind: realtime.KindJoinPod, Data: join}); err != nil {
		t.Fatalf("write join: %v", err)
	}
	readEnvelope(t, conn) // snapshot

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/presence/pods/pod-9", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET presence: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var envelope struct {
		Data struct {
			PodID         string           `json:"podId"`
			OnlineMembers []realtime.Member `json:"onlineMembers"`
			TotalOnline   int              `json:"totalOnline"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.TotalOnline != 1 {
		t.Errorf("totalOnline = %d, want 1", envelope.Data.TotalOnline)
	}
	if len(envelope.Data.OnlineMembers) != 1 || envelope.Data.OnlineMembers[0].Username != "alice" {
		t.Errorf("onlineMembers = %+v, want [alice]", envelope.Data.OnlineMembers)
	}
}

func TestPodPresence_Unauthenticated(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/presence/pods/pod-9")
	if err != nil {
		t.Fatalf("GET presence: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}
