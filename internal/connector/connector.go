// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

package connector

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"

	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/realtime"
)

// ErrMaxReconnectExceeded is the terminal error surfaced after the
// reconnection budget is spent. The connector gives up and stays
// disconnected; the caller decides whether to build a fresh one.
var ErrMaxReconnectExceeded = errors.New("connector: max reconnect attempts exceeded")

// ErrNotConnected is returned for emissions while no connection is up.
var ErrNotConnected = errors.New("connector: not connected")

// State is the connector's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// RetryPolicy bounds the reconnection loop: a fixed attempt cap and a
// backoff constructor invoked fresh for each reconnection episode.
type RetryPolicy struct {
	MaxAttempts int
	NewBackOff  func() backoff.BackOff
}

// DefaultRetryPolicy allows 5 attempts with exponential backoff starting
// at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 32 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// Handler receives the raw payload of one subscribed event.
type Handler func(data json.RawMessage)

// Subscription identifies one registered handler. Cancel removes exactly
// that handler without affecting other subscribers of the same kind.
type Subscription struct {
	c    *Connector
	kind string
	id   uint64
}

// Cancel unregisters the subscription's handler.
func (s *Subscription) Cancel() {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if handlers, ok := s.c.handlers[s.kind]; ok {
		delete(handlers, s.id)
		if len(handlers) == 0 {
			delete(s.c.handlers, s.kind)
		}
	}
}

// Connector maintains at most one connection to the realtime endpoint and
// exposes a typed subscribe/emit surface. One Connector per credential,
// constructed by the application root and passed where needed.
//
// After a reconnect the server has already dropped the old session's room
// memberships, so the Connector deliberately does not re-join rooms; the
// consumer re-joins what it cares about from its state-change callback.
type Connector struct {
	url        string
	credential string
	transport  Transport
	policy     RetryPolicy

	// OnStateChange, when set before Connect, is invoked from the read
	// loop's goroutine on every transition.
	OnStateChange func(State)

	mu        sync.Mutex
	state     State
	conn      Conn
	closed    bool
	handlers  map[string]map[uint64]Handler
	nextSubID uint64

	writeMu sync.Mutex

	errCh chan error
	wg    sync.WaitGroup
}

// New creates a disconnected connector. The credential is sent as a bearer
// header during the handshake.
func New(rawURL, credential string, transport Transport, policy RetryPolicy) *Connector {
	return &Connector{
		url:        rawURL,
		credential: credential,
		transport:  transport,
		policy:     policy,
		state:      StateDisconnected,
		handlers:   make(map[string]map[uint64]Handler),
		errCh:      make(chan error, 1),
	}
}

// Err delivers the terminal error, if any. At most one error is ever sent.
func (c *Connector) Err() <-chan error {
	return c.errCh
}

// State returns the current connection state.
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect establishes the connection. Calling Connect while already
// connected is a no-op returning nil; there is never more than one
// physical connection per connector.
func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.setStateLocked(StateDisconnected)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(ctx)

	return nil
}

// Close shuts the connection down explicitly. No reconnection is attempted
// after Close.
func (c *Connector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	c.wg.Wait()
	return err
}

// Subscribe registers a handler for one event kind. Multiple handlers per
// kind are independent; cancelling one leaves the others firing.
func (c *Connector) Subscribe(kind string, h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	id := c.nextSubID
	if c.handlers[kind] == nil {
		c.handlers[kind] = make(map[uint64]Handler)
	}
	c.handlers[kind][id] = h

	return &Subscription{c: c, kind: kind, id: id}
}

// Emit sends one typed event. Fire-and-forget; no delivery guarantee.
func (c *Connector) Emit(kind string, payload interface{}) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if state != StateConnected || conn == nil {
		return ErrNotConnected
	}

	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = raw
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(realtime.Envelope{Kind: kind, Data: data})
}

// JoinPod asks the server to move this session into a pod room.
func (c *Connector) JoinPod(podID string) error {
	return c.Emit(realtime.KindJoinPod, realtime.JoinPodPayload{PodID: podID})
}

// LeavePod leaves a pod room.
func (c *Connector) LeavePod(podID string) error {
	return c.Emit(realtime.KindLeavePod, realtime.LeavePodPayload{PodID: podID})
}

// JoinChallenge joins a challenge room.
func (c *Connector) JoinChallenge(challengeID string) error {
	return c.Emit(realtime.KindJoinChallenge, realtime.JoinChallengePayload{ChallengeID: challengeID})
}

// SendNotification delivers a notification to another user's personal room.
func (c *Connector) SendNotification(p realtime.SendNotificationPayload) error {
	return c.Emit(realtime.KindSendNotification, p)
}

func (c *Connector) dial(ctx context.Context) (Conn, error) {
	header := http.Header{}
	if c.credential != "" {
		header.Set("Authorization", "Bearer "+c.credential)
	}
	return c.transport.Dial(ctx, c.url, header)
}

// readLoop reads envelopes and dispatches them to subscribers. On a
// transport-level read error it runs the bounded reconnection loop; an
// explicit Close ends the loop without reconnecting.
func (c *Connector) readLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		var env realtime.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}

			logging.Warn().Err(err).Msg("realtime connection lost, reconnecting")
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		c.dispatch(env)
	}
}

// reconnect runs the retry loop. Returns true when a new connection is up,
// false when the budget is exhausted or the connector was closed; in the
// exhausted case ErrMaxReconnectExceeded is surfaced exactly once.
func (c *Connector) reconnect(ctx context.Context) bool {
	c.mu.Lock()
	c.conn = nil
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	delay := c.policy.NewBackOff()
	delay.Reset()

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		wait := delay.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			c.giveUp(ctx.Err())
			return false
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return false
		}
		c.mu.Unlock()

		conn, err := c.dial(ctx)
		if err != nil {
			logging.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", c.policy.MaxAttempts).
				Msg("reconnect attempt failed")
			continue
		}

		c.mu.Lock()
		c.conn = conn
		c.setStateLocked(StateConnected)
		c.mu.Unlock()
		logging.Info().Int("attempt", attempt).Msg("realtime connection re-established")
		return true
	}

	c.giveUp(ErrMaxReconnectExceeded)
	return false
}

// giveUp transitions to the terminal disconnected state and surfaces the
// error. The buffered channel guarantees at-most-once delivery.
func (c *Connector) giveUp(err error) {
	c.mu.Lock()
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	select {
	case c.errCh <- err:
	default:
	}
	logging.Error().Err(err).Msg("realtime connector giving up")
}

// dispatch fans one envelope out to every handler subscribed to its kind.
// Unknown kinds with no subscribers are simply ignored.
func (c *Connector) dispatch(env realtime.Envelope) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.handlers[env.Kind]))
	for _, h := range c.handlers[env.Kind] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(env.Data)
	}
}

// setStateLocked changes state and invokes the callback. Caller holds mu;
// the callback runs without the lock to let it call back into the
// connector.
func (c *Connector) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if cb := c.OnStateChange; cb != nil {
		c.mu.Unlock()
		cb(s)
		c.mu.Lock()
	}
}
