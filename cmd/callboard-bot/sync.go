// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/callboard/callboard/lib/service"
	"github.com/callboard/callboard/messaging"
)

// syncFilter restricts the /sync response to the event types the bot
// consumes: room messages (commands), reactions (attendance and page
// navigation), and redactions (attendance removal).
var syncFilter = buildSyncFilter()

func buildSyncFilter() string {
	timelineEventTypes := []string{
		"m.room.message",
		"m.reaction",
		"m.room.redaction",
	}
	emptyTypes := []string{}

	filter := map[string]any{
		"room": map[string]any{
			"state": map[string]any{
				"types": emptyTypes,
			},
			"timeline": map[string]any{
				"types": timelineEventTypes,
				"limit": 50,
			},
			"ephemeral": map[string]any{
				"types": emptyTypes,
			},
			"account_data": map[string]any{
				"types": emptyTypes,
			},
		},
		"presence": map[string]any{
			"types": emptyTypes,
		},
		"account_data": map[string]any{
			"types": emptyTypes,
		},
	}

	data, err := json.Marshal(filter)
	if err != nil {
		panic("building sync filter: " + err.Error())
	}
	return string(data)
}

// initialSync performs the first /sync and seeds the reaction index
// from the recent timeline so redactions of reactions posted before
// this process started can still be correlated. Commands from the
// backlog are NOT replayed — only events arriving after startup are
// acted on.
func (b *Bot) initialSync(ctx context.Context) (string, error) {
	sinceToken, response, err := service.InitialSync(ctx, b.session, syncFilter)
	if err != nil {
		return "", err
	}

	seeded := 0
	if room, ok := response.Rooms.Join[b.roomID]; ok {
		for _, event := range room.Timeline.Events {
			if event.Type == "m.reaction" && b.indexReaction(event) {
				seeded++
			}
		}
	}

	b.logger.Info("initial sync complete",
		"next_batch", sinceToken,
		"indexed_reactions", seeded,
	)
	return sinceToken, nil
}

// handleSync processes one incremental /sync response. Only the
// configured job room is consulted; events from any other room the
// account happens to be in (direct-message rooms included) are
// ignored.
func (b *Bot) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	room, ok := response.Rooms.Join[b.roomID]
	if !ok {
		return
	}
	for _, event := range room.Timeline.Events {
		b.dispatchEvent(ctx, event)
	}
}

// dispatchEvent routes a single timeline event to its handler. A
// panic in one handler is contained here so a malformed event can
// never take down the sync loop.
func (b *Bot) dispatchEvent(ctx context.Context, event messaging.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_id", event.EventID,
				"type", event.Type,
				"panic", r,
			)
		}
	}()

	switch event.Type {
	case "m.room.message":
		b.handleMessage(ctx, event)
	case "m.reaction":
		b.handleReaction(ctx, event)
	case "m.room.redaction":
		b.handleRedaction(ctx, event)
	}
}

// handleMessage dispatches chat commands. Non-command messages and
// the bot's own messages are ignored.
func (b *Bot) handleMessage(ctx context.Context, event messaging.Event) {
	if event.Sender == b.userID {
		return
	}
	var content messaging.MessageContent
	if err := json.Unmarshal(event.Content, &content); err != nil {
		return
	}
	if !strings.HasPrefix(content.Body, b.config.CommandPrefix) {
		return
	}
	b.handleCommand(ctx, event.Sender, strings.TrimPrefix(content.Body, b.config.CommandPrefix))
}
