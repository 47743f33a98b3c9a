// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/callboard/callboard/lib/jobstore"
	"github.com/callboard/callboard/lib/ref"
	"github.com/callboard/callboard/messaging"
)

// indexReaction records a reaction event in the reaction index so a
// later redaction can be resolved back to its target and key. Returns
// whether the event was a well-formed reaction. All reactions are
// indexed, including the bot's own seeds: those carry most of the
// redaction traffic when listings retire their navigation controls.
func (b *Bot) indexReaction(event messaging.Event) bool {
	var content messaging.ReactionContent
	if err := json.Unmarshal(event.Content, &content); err != nil {
		return false
	}
	relation := content.RelatesTo
	if relation.RelType != messaging.RelAnnotation || relation.EventID.IsZero() || relation.Key == "" {
		return false
	}

	b.mu.Lock()
	b.reactions[event.EventID] = reactionRecord{
		Target: relation.EventID,
		Key:    relation.Key,
		Sender: event.Sender,
	}
	b.mu.Unlock()
	return true
}

// handleReaction processes a new m.reaction event: index it, route
// navigation arrows to the listing's paginator, and apply attendance
// emoji to the job record.
func (b *Bot) handleReaction(ctx context.Context, event messaging.Event) {
	if !b.indexReaction(event) {
		return
	}

	b.mu.Lock()
	record := b.reactions[event.EventID]
	paginator := b.paginators[record.Target]
	b.mu.Unlock()

	if paginator != nil && event.Sender != b.userID {
		if delta, ok := navDelta(record.Key); ok {
			select {
			case paginator <- navInput{delta: delta, reaction: event.EventID, sender: event.Sender}:
			case <-ctx.Done():
			}
		}
		return
	}

	if event.Sender == b.userID {
		return
	}
	category, ok := jobstore.CategoryForEmoji(record.Key)
	if !ok {
		return
	}
	b.applyAttendance(ctx, record, event.Sender, category, true)
}

// handleRedaction processes an m.room.redaction event. Redactions of
// events the bot never indexed are silently ignored.
func (b *Bot) handleRedaction(ctx context.Context, event messaging.Event) {
	redacted := event.RedactsEvent()
	if redacted.IsZero() {
		return
	}

	b.mu.Lock()
	record, ok := b.reactions[redacted]
	if ok {
		delete(b.reactions, redacted)
	}
	b.mu.Unlock()
	if !ok || record.Sender == b.userID {
		return
	}

	category, found := jobstore.CategoryForEmoji(record.Key)
	if !found {
		return
	}
	b.applyAttendance(ctx, record, record.Sender, category, false)
}

// applyAttendance adds or removes a user in one attendance category of
// the job announced by the target message, then refreshes the
// announcement. No-op changes (already present, already absent) skip
// the refresh.
func (b *Bot) applyAttendance(ctx context.Context, record reactionRecord, user ref.UserID, category jobstore.Category, add bool) {
	jobID, err := b.jobIDForMessage(ctx, record.Target)
	if err != nil {
		b.logger.Debug("reaction target is not a job announcement",
			"target", record.Target, "error", err)
		return
	}

	// Attendance sets are keyed by user ID, not display name: names
	// are mutable and non-unique, so a rename between the add and the
	// remove would otherwise strand the old entry.
	member := user.String()

	var job *jobstore.Job
	changed := false
	err = b.store.Update(func(c *jobstore.Collection) error {
		job = c.Find(jobID)
		if job == nil {
			return errJobNotFound
		}
		if add {
			changed = job.Add(category, member)
		} else {
			changed = job.Remove(category, member)
		}
		return nil
	})
	if errors.Is(err, errJobNotFound) {
		// The job was deleted after its announcement was rendered.
		b.logger.Debug("reaction for deleted job", "job", jobID)
		return
	}
	if err != nil {
		b.logger.Error("updating attendance", "job", jobID, "category", category, "error", err)
		return
	}
	if !changed {
		return
	}

	if _, err := b.session.EditMessage(ctx, b.roomID, record.Target, b.renderJobMessage(ctx, job)); err != nil {
		b.logger.Error("refreshing announcement after attendance change",
			"job", jobID, "error", err)
	}
}

// jobIDForMessage fetches the reacted-to message and extracts the job
// ID it announces.
func (b *Bot) jobIDForMessage(ctx context.Context, eventID ref.EventID) (int, error) {
	event, err := b.session.GetEvent(ctx, b.roomID, eventID)
	if err != nil {
		return 0, err
	}
	if event.Sender != b.userID || event.Type != "m.room.message" {
		return 0, fmt.Errorf("event %s is not a bot announcement", eventID)
	}
	id, ok := announcementJobID(event.Content)
	if !ok {
		return 0, fmt.Errorf("event %s carries no job id", eventID)
	}
	return id, nil
}
