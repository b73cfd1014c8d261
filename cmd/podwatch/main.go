// EcoPods - Collaborative Sustainability Tracking
// Copyright 2026 EcoPods contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ecopods/server

// Package main implements podwatch, a terminal consumer for the EcoPods
// realtime server.
//
// podwatch connects to a running server, joins one pod room, and prints
// presence changes and pod events as they arrive. It is useful for
// watching what a pod's members see without opening the web client:
//
//	podwatch -server http://localhost:8080 -token "$TOKEN" -pod pod-42
//
// The connector reconnects automatically on connection loss; podwatch
// exits when the retry budget is exhausted or on SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/ecopods/server/internal/connector"
	"github.com/ecopods/server/internal/logging"
	"github.com/ecopods/server/internal/realtime"
)

func main() {
	var (
		serverURL   = flag.String("server", "http://localhost:8080", "server base URL")
		token       = flag.String("token", "", "bearer credential (or PODWATCH_TOKEN)")
		podID       = flag.String("pod", "", "pod to watch (required)")
		challengeID = flag.String("challenge", "", "challenge room to also watch")
		logLevel    = flag.String("log-level", "warn", "log level: trace, debug, info, warn, error")
	)
	flag.Parse()

	logging.Init(logging.Config{
		Level:  *logLevel,
		Format: "console",
	})

	if *podID == "" {
		fmt.Fprintln(os.Stderr, "podwatch: -pod is required")
		flag.Usage()
		os.Exit(2)
	}

	credential := *token
	if credential == "" {
		credential = os.Getenv("PODWATCH_TOKEN")
	}
	if credential == "" {
		fmt.Fprintln(os.Stderr, "podwatch: no credential (use -token or PODWATCH_TOKEN)")
		os.Exit(2)
	}

	wsURL, err := connector.ServerURL(*serverURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "podwatch: invalid server URL: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := connector.New(wsURL, credential, connector.NewWebsocketTransport(), connector.DefaultRetryPolicy())
	c.OnStateChange = func(s connector.State) {
		fmt.Printf("-- connection %s\n", s)
	}

	subscribeAll(c)

	if err := c.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "podwatch: connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	if err := c.JoinPod(*podID); err != nil {
		fmt.Fprintf(os.Stderr, "podwatch: join pod: %v\n", err)
		os.Exit(1)
	}
	if *challengeID != "" {
		if err := c.JoinChallenge(*challengeID); err != nil {
			fmt.Fprintf(os.Stderr, "podwatch: join challenge: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("watching pod %s on %s (ctrl-c to quit)\n", *podID, *serverURL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		fmt.Printf("-- %s, shutting down\n", sig)
	case err := <-c.Err():
		fmt.Fprintf(os.Stderr, "podwatch: connection lost: %v\n", err)
		os.Exit(1)
	}
}

// subscribeAll registers printers for every event kind a pod member can
// observe. Room join state is server-side, so after a reconnect the
// subscriptions stay registered but the rooms must be re-joined; podwatch
// treats a lost connection as fatal instead.
func subscribeAll(c *connector.Connector) {
	c.Subscribe(realtime.KindConnected, func(data json.RawMessage) {
		var p realtime.ConnectedPayload
		if json.Unmarshal(data, &p) == nil {
			fmt.Printf("-- connected as %s\n", p.UserID)
		}
	})

	c.Subscribe(realtime.KindPodMembersUpdate, func(data json.RawMessage) {
		var p realtime.PodMembersUpdatePayload
		if json.Unmarshal(data, &p) != nil {
			return
		}
		fmt.Printf("presence: %d online:", p.TotalOnline)
		for _, m := range p.OnlineMembers {
			fmt.Printf(" %s", m.Username)
		}
		fmt.Println()
	})

	c.Subscribe(realtime.KindMemberJoined, presencePrinter("joined"))
	c.Subscribe(realtime.KindMemberLeft, presencePrinter("left"))
	c.Subscribe(realtime.KindMemberDisconnected, presencePrinter("disconnected"))

	c.Subscribe(realtime.KindTentacleUpdated, func(data json.RawMessage) {
		var p realtime.TentacleUpdatedPayload
		if json.Unmarshal(data, &p) == nil {
			fmt.Printf("tentacle: %s %s -> %.1f (+%d pts)\n", p.Username, p.Category, p.Value, p.Points)
		}
	})

	c.Subscribe(realtime.KindChallengeProgressUpdate, func(data json.RawMessage) {
		var p realtime.ChallengeProgressUpdatePayload
		if json.Unmarshal(data, &p) == nil {
			fmt.Printf("challenge %s: %s at %.1f%%\n", p.ChallengeID, p.Username, p.Progress)
		}
	})

	c.Subscribe(realtime.KindChallengeLeaderboardUpdate, func(data json.RawMessage) {
		var p realtime.ChallengeLeaderboardUpdatePayload
		if json.Unmarshal(data, &p) == nil {
			fmt.Printf("leaderboard %s: %s at %.1f%%\n", p.ChallengeID, p.UserID, p.Progress)
		}
	})

	c.Subscribe(realtime.KindNewActivity, func(data json.RawMessage) {
		var p realtime.NewActivityPayload
		if json.Unmarshal(data, &p) == nil {
			fmt.Printf("activity: %s logged %s\n", p.Username, p.Category)
		}
	})

	c.Subscribe(realtime.KindUserTyping, func(data json.RawMessage) {
		var p realtime.UserTypingPayload
		if json.Unmarshal(data, &p) == nil {
			fmt.Printf("typing: %s...\n", p.Username)
		}
	})

	c.Subscribe(realtime.KindNewNotification, func(data json.RawMessage) {
		var p realtime.NewNotificationPayload
		if json.Unmarshal(data, &p) == nil {
			fmt.Printf("notification [%s] %s: %s\n", p.Type, p.Title, p.Message)
		}
	})
}

func presencePrinter(verb string) connector.Handler {
	return func(data json.RawMessage) {
		var p realtime.PresenceDeltaPayload
		if json.Unmarshal(data, &p) == nil {
			fmt.Printf("presence: %s %s\n", p.Username, verb)
		}
	}
}
