// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"testing"

	"github.com/callboard/callboard/lib/ref"
	"github.com/callboard/callboard/messaging"
)

// A reaction added before a restart must still be removable after:
// the initial sync rebuilds the reaction index from the timeline
// backlog.
func TestInitialSyncRebuildsReactionIndex(t *testing.T) {
	bot, session, clk := newTestBot(t)
	announcement := createJob(t, bot, session)
	ctx := context.Background()

	reaction := reactionEvent(t, "$r1", plainUser, announcement, "✅")
	bot.dispatchEvent(ctx, reaction)
	if job := requireJob(t, bot, 1); len(job.Accepted) != 1 {
		t.Fatalf("accepted = %v before restart", job.Accepted)
	}
	drainEdits(session)

	// Restart: a fresh bot on the same session and store, with the
	// old reaction visible only through the sync backlog.
	session.syncResponse = &messaging.SyncResponse{
		NextBatch: "s2",
		Rooms: messaging.RoomsSection{
			Join: map[ref.RoomID]messaging.JoinedRoom{
				testRoom: {Timeline: messaging.TimelineSection{
					Events: []messaging.Event{reaction},
				}},
			},
		},
	}
	restarted := NewBot(session, bot.store, bot.config, testRoom, botUser, clk, bot.logger)
	since, err := restarted.initialSync(ctx)
	if err != nil {
		t.Fatalf("initial sync: %v", err)
	}
	if since != "s2" {
		t.Errorf("since token = %q, want s2", since)
	}

	restarted.dispatchEvent(ctx, redactionEvent("$x1", plainUser, reaction.EventID))
	if job := requireJob(t, restarted, 1); len(job.Accepted) != 0 {
		t.Errorf("accepted = %v after removal across restart", job.Accepted)
	}
}

// Commands in the sync backlog must not replay on startup.
func TestInitialSyncDoesNotReplayCommands(t *testing.T) {
	bot, session, _ := newTestBot(t)
	session.syncResponse = &messaging.SyncResponse{
		NextBatch: "s2",
		Rooms: messaging.RoomsSection{
			Join: map[ref.RoomID]messaging.JoinedRoom{
				testRoom: {Timeline: messaging.TimelineSection{
					Events: []messaging.Event{
						messageEvent(t, "$old", adminUser, "!createjob 25/12/2026 09:30 Dock"),
					},
				}},
			},
		},
	}

	if _, err := bot.initialSync(context.Background()); err != nil {
		t.Fatalf("initial sync: %v", err)
	}
	collection, _ := bot.store.Load()
	if len(collection.Jobs) != 0 {
		t.Errorf("backlog command created %d jobs", len(collection.Jobs))
	}
}

func TestHandleSyncIgnoresOtherRooms(t *testing.T) {
	bot, session, _ := newTestBot(t)
	otherRoom := ref.MustParseRoomID("!elsewhere:test.local")

	bot.handleSync(context.Background(), &messaging.SyncResponse{
		Rooms: messaging.RoomsSection{
			Join: map[ref.RoomID]messaging.JoinedRoom{
				otherRoom: {Timeline: messaging.TimelineSection{
					Events: []messaging.Event{
						messageEvent(t, "$m1", adminUser, "!createjob 25/12/2026 09:30 Dock"),
					},
				}},
			},
		},
	})

	collection, _ := bot.store.Load()
	if len(collection.Jobs) != 0 {
		t.Errorf("other-room command created %d jobs", len(collection.Jobs))
	}
	if bodies := session.messagesIn(testRoom); len(bodies) != 0 {
		t.Errorf("room messages = %v", bodies)
	}
}

func TestDispatchContainsPanics(t *testing.T) {
	bot, _, _ := newTestBot(t)

	// Malformed reaction content must not take down the sync loop.
	bot.dispatchEvent(context.Background(), messaging.Event{
		EventID: ref.MustParseEventID("$bad"),
		Type:    "m.reaction",
		Sender:  plainUser,
		RoomID:  testRoom,
		Content: []byte(`{"m.relates_to": 42}`),
	})
}
