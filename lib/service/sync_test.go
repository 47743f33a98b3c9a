// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/callboard/callboard/lib/clock"
	"github.com/callboard/callboard/messaging"
)

// syncSession fakes only the Sync method; the embedded interface
// panics on anything else, which is what we want in these tests.
type syncSession struct {
	messaging.Session
	sync func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error)
}

func (s *syncSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	return s.sync(ctx, options)
}

func TestInitialSync(t *testing.T) {
	session := &syncSession{
		sync: func(_ context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
			if options.Since != "" {
				t.Errorf("initial sync sent since token %q", options.Since)
			}
			if options.Filter != "test-filter" {
				t.Errorf("filter = %q", options.Filter)
			}
			return &messaging.SyncResponse{NextBatch: "s1"}, nil
		},
	}

	since, response, err := InitialSync(context.Background(), session, "test-filter")
	if err != nil {
		t.Fatalf("InitialSync failed: %v", err)
	}
	if since != "s1" || response == nil {
		t.Errorf("since = %q, response = %v", since, response)
	}
}

func TestRunSyncLoopAdvancesSinceToken(t *testing.T) {
	var tokens []string
	ctx, cancel := context.WithCancel(context.Background())
	session := &syncSession{
		sync: func(_ context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
			tokens = append(tokens, options.Since)
			if len(tokens) == 3 {
				cancel()
			}
			return &messaging.SyncResponse{NextBatch: "s" + string(rune('1'+len(tokens)))}, nil
		},
	}

	RunSyncLoop(ctx, session, SyncConfig{}, "s1", func(context.Context, *messaging.SyncResponse) {}, clock.Real(), slog.Default())

	if len(tokens) < 3 {
		t.Fatalf("sync called %d times", len(tokens))
	}
	if tokens[0] != "s1" || tokens[1] != "s2" || tokens[2] != "s3" {
		t.Errorf("since tokens = %v", tokens)
	}
}

func TestRunSyncLoopBacksOffOnError(t *testing.T) {
	fakeClock := clock.Fake(time.Unix(1000, 0))
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	session := &syncSession{
		sync: func(context.Context, messaging.SyncOptions) (*messaging.SyncResponse, error) {
			calls++
			if calls >= 3 {
				cancel()
				return nil, context.Canceled
			}
			return nil, errors.New("connection refused")
		},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{}, "s1", func(context.Context, *messaging.SyncResponse) {}, fakeClock, slog.Default())
	}()

	// First failure waits 1s, second 2s.
	fakeClock.BlockUntilWaiters(1)
	fakeClock.Advance(time.Second)
	fakeClock.BlockUntilWaiters(1)
	fakeClock.Advance(2 * time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sync loop did not exit after context cancellation")
	}
	if calls != 3 {
		t.Errorf("sync called %d times", calls)
	}
}

func TestRunSyncLoopStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := &syncSession{
		sync: func(context.Context, messaging.SyncOptions) (*messaging.SyncResponse, error) {
			t.Fatal("sync called with cancelled context")
			return nil, nil
		},
	}
	RunSyncLoop(ctx, session, SyncConfig{}, "", func(context.Context, *messaging.SyncResponse) {}, clock.Real(), slog.Default())
}
