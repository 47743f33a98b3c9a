// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/callboard/callboard/lib/clock"
	"github.com/callboard/callboard/lib/config"
	"github.com/callboard/callboard/lib/display"
	"github.com/callboard/callboard/lib/jobstore"
	"github.com/callboard/callboard/lib/ref"
	"github.com/callboard/callboard/messaging"
)

// Bot is the core service state. Event handlers run on the sync loop
// goroutine except page navigation, which runs in a per-listing
// goroutine fed through navInput channels.
type Bot struct {
	session messaging.Session
	store   jobstore.Store
	config  *config.Config
	clock   clock.Clock
	logger  *slog.Logger

	roomID    ref.RoomID
	userID    ref.UserID
	startedAt time.Time

	mu sync.Mutex

	// reactions correlates reaction event IDs to their target, key,
	// and sender so that later redactions can be resolved back to an
	// attendance change. Seeded from sync timelines.
	reactions map[ref.EventID]reactionRecord

	// paginators routes navigation reactions to the goroutine driving
	// the corresponding job listing, keyed by listing message event ID.
	paginators map[ref.EventID]chan navInput

	// dmRooms caches direct-message room IDs per user so private
	// notices don't create a new room every time.
	dmRooms map[ref.UserID]ref.RoomID
}

// reactionRecord is one entry of the reaction index.
type reactionRecord struct {
	Target ref.EventID
	Key    string
	Sender ref.UserID
}

// NewBot assembles a bot for the given room. Call initialSync before
// starting the sync loop.
func NewBot(session messaging.Session, store jobstore.Store, cfg *config.Config, roomID ref.RoomID, userID ref.UserID, clk clock.Clock, logger *slog.Logger) *Bot {
	return &Bot{
		session:    session,
		store:      store,
		config:     cfg,
		clock:      clk,
		logger:     logger,
		roomID:     roomID,
		userID:     userID,
		startedAt:  clk.Now(),
		reactions:  make(map[ref.EventID]reactionRecord),
		paginators: make(map[ref.EventID]chan navInput),
		dmRooms:    make(map[ref.UserID]ref.RoomID),
	}
}

// renderJobMessage converts a job record into the announcement message
// content: Markdown fallback body, HTML formatted body with the
// configured accent color, and the structured job ID key. Attendance
// sets store Matrix user IDs; display names are resolved here, at
// render time, so a rename shows up on the next refresh.
func (b *Bot) renderJobMessage(ctx context.Context, job *jobstore.Job) messaging.MessageContent {
	return b.renderDocument(display.RenderJob(b.resolveMembers(ctx, job)), job.ID)
}

// resolveMembers returns a render-only copy of job with attendance
// member user IDs replaced by current display names. The stored
// record is never modified.
func (b *Bot) resolveMembers(ctx context.Context, job *jobstore.Job) *jobstore.Job {
	resolved := *job
	resolved.Accepted = b.memberNames(ctx, job.Accepted)
	resolved.Declined = b.memberNames(ctx, job.Declined)
	resolved.Tentative = b.memberNames(ctx, job.Tentative)
	return &resolved
}

func (b *Bot) memberNames(ctx context.Context, userIDs []string) []string {
	if len(userIDs) == 0 {
		return nil
	}
	names := make([]string, len(userIDs))
	for i, raw := range userIDs {
		userID, err := ref.ParseUserID(raw)
		if err != nil {
			names[i] = raw
			continue
		}
		names[i] = b.displayName(ctx, userID)
	}
	return names
}

func (b *Bot) renderDocument(doc display.Document, jobID int) messaging.MessageContent {
	body := display.Markdown(doc)
	html, err := display.HTML(doc, b.config.AccentColor)
	if err != nil {
		// Markdown body still renders; clients just lose the styling.
		b.logger.Error("rendering document HTML", "error", err)
		content := messaging.NewTextMessage(body)
		content.JobID = jobID
		return content
	}
	content := messaging.NewHTMLMessage(body, html)
	content.JobID = jobID
	return content
}
