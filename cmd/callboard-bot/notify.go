// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/callboard/callboard/lib/ref"
	"github.com/callboard/callboard/messaging"
)

// notify sends a private notice to a user, creating (and caching) a
// direct-message room on first contact. Notices are best-effort: a
// user who blocks invites simply stops receiving feedback.
func (b *Bot) notify(ctx context.Context, user ref.UserID, text string) {
	roomID, err := b.dmRoom(ctx, user)
	if err != nil {
		b.logger.Error("opening direct message room", "user", user, "error", err)
		return
	}
	if _, err := b.session.SendMessage(ctx, roomID, messaging.NewNoticeMessage(text)); err != nil {
		b.logger.Error("sending notice", "user", user, "error", err)
	}
}

func (b *Bot) dmRoom(ctx context.Context, user ref.UserID) (ref.RoomID, error) {
	b.mu.Lock()
	roomID, ok := b.dmRooms[user]
	b.mu.Unlock()
	if ok {
		return roomID, nil
	}

	response, err := b.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Preset:   "trusted_private_chat",
		Invite:   []ref.UserID{user},
		IsDirect: true,
	})
	if err != nil {
		return ref.RoomID{}, err
	}

	b.mu.Lock()
	b.dmRooms[user] = response.RoomID
	b.mu.Unlock()
	return response.RoomID, nil
}

// displayName resolves a user's profile display name, falling back to
// the localpart of their user ID when the profile has none or the
// lookup fails. Attendance lists and the created-by footer use the
// result, so a lookup failure must not block the operation.
func (b *Bot) displayName(ctx context.Context, user ref.UserID) string {
	name, err := b.session.GetDisplayName(ctx, user)
	if err != nil {
		b.logger.Debug("display name lookup failed", "user", user, "error", err)
		return user.Localpart()
	}
	if name == "" {
		return user.Localpart()
	}
	return name
}
