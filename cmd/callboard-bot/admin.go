// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/callboard/callboard/lib/ref"
	"github.com/callboard/callboard/messaging"
)

// isAdmin reports whether a user may run privileged commands. A user
// qualifies by being on the configured admin list, by having created
// the room, or by holding at least the configured power level in it.
// Room state lookups only happen when the static list doesn't settle
// the question.
func (b *Bot) isAdmin(ctx context.Context, user ref.UserID) (bool, error) {
	if slices.Contains(b.config.AdminUsers, user.String()) {
		return true, nil
	}

	creator, err := b.roomCreator(ctx)
	if err != nil {
		return false, err
	}
	if !creator.IsZero() && creator == user {
		return true, nil
	}

	level, err := b.powerLevel(ctx, user)
	if err != nil {
		return false, err
	}
	return level >= b.config.AdminPowerLevel, nil
}

// roomCreator reads the room's m.room.create state. Room versions 11
// and later drop the creator field from create content; a zero user ID
// means the caller must fall back to power levels.
func (b *Bot) roomCreator(ctx context.Context) (ref.UserID, error) {
	raw, err := b.session.GetStateEvent(ctx, b.roomID, "m.room.create", "")
	if err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
			return ref.UserID{}, nil
		}
		return ref.UserID{}, fmt.Errorf("fetching room create event: %w", err)
	}
	var content messaging.RoomCreateContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return ref.UserID{}, fmt.Errorf("parsing room create event: %w", err)
	}
	return content.Creator, nil
}

// powerLevel reads a user's power level from room state. A missing
// power-levels event means everyone sits at the default of zero.
func (b *Bot) powerLevel(ctx context.Context, user ref.UserID) (int, error) {
	raw, err := b.session.GetStateEvent(ctx, b.roomID, "m.room.power_levels", "")
	if err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("fetching power levels: %w", err)
	}
	var content messaging.PowerLevelsContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return 0, fmt.Errorf("parsing power levels: %w", err)
	}
	return content.Level(user), nil
}
