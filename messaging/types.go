// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"

	"github.com/callboard/callboard/lib/ref"
)

// FormatHTML is the only formatted_body format the Matrix spec defines.
const FormatHTML = "org.matrix.custom.html"

// JobIDKey is the content key announcements carry so that job messages
// can be identified without parsing display text.
const JobIDKey = "works.callboard.job_id"

// Relation types used by this client.
const (
	RelReplace    = "m.replace"
	RelAnnotation = "m.annotation"
)

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id,omitempty"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// MessageContent is the content body of a Matrix message event
// (m.room.message). For edits, NewContent carries the replacement and
// RelatesTo points at the event being replaced.
//
// JobID ties an announcement message to its job record. Zero means the
// message is not a job announcement.
type MessageContent struct {
	MsgType       string          `json:"msgtype"`
	Body          string          `json:"body"`
	Format        string          `json:"format,omitempty"`
	FormattedBody string          `json:"formatted_body,omitempty"`
	JobID         int             `json:"works.callboard.job_id,omitempty"`
	NewContent    *MessageContent `json:"m.new_content,omitempty"`
	RelatesTo     *RelatesTo      `json:"m.relates_to,omitempty"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewNoticeMessage creates an m.notice message. Notices are for bot
// output that other bots should not react to; the bot uses them for
// private replies.
func NewNoticeMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.notice",
		Body:    body,
	}
}

// NewHTMLMessage creates a text message with an HTML formatted body.
// body is the plain-text fallback.
func NewHTMLMessage(body, formattedBody string) MessageContent {
	return MessageContent{
		MsgType:       "m.text",
		Body:          body,
		Format:        FormatHTML,
		FormattedBody: formattedBody,
	}
}

// RelatesTo expresses relationships between events. For edits, RelType
// is "m.replace" and EventID is the event being replaced. For
// reactions, RelType is "m.annotation" and Key is the reaction emoji.
type RelatesTo struct {
	RelType string      `json:"rel_type"`
	EventID ref.EventID `json:"event_id"`
	Key     string      `json:"key,omitempty"`
}

// ReactionContent is the content body of an m.reaction event.
type ReactionContent struct {
	RelatesTo RelatesTo `json:"m.relates_to"`
}

// RedactRequest is the request body for event redaction.
type RedactRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CreateRoomRequest holds parameters for creating a Matrix room.
type CreateRoomRequest struct {
	Name       string       `json:"name,omitempty"`
	Topic      string       `json:"topic,omitempty"`
	Preset     string       `json:"preset,omitempty"` // "private_chat", "public_chat", "trusted_private_chat"
	Invite     []ref.UserID `json:"invite,omitempty"`
	IsDirect   bool         `json:"is_direct,omitempty"`
	Visibility string       `json:"visibility,omitempty"` // "public" or "private"
}

// CreateRoomResponse is returned by CreateRoom.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// Event represents a Matrix event from the server. Content is kept
// raw: the event type determines its shape, and callers unmarshal into
// MessageContent, ReactionContent, or state-specific types as needed.
type Event struct {
	EventID        ref.EventID     `json:"event_id"`
	Type           ref.EventType   `json:"type"`
	Sender         ref.UserID      `json:"sender"`
	OriginServerTS int64           `json:"origin_server_ts"`
	Content        json.RawMessage `json:"content"`
	RoomID         ref.RoomID      `json:"room_id,omitempty"`
	StateKey       *string         `json:"state_key,omitempty"`
	Redacts        ref.EventID     `json:"redacts,omitempty"`
}

// RedactsEvent returns the event ID an m.room.redaction event targets.
// Old room versions put it at the top level of the event, v11 moved it
// into content; both placements are checked.
func (e *Event) RedactsEvent() ref.EventID {
	if !e.Redacts.IsZero() {
		return e.Redacts
	}
	var content struct {
		Redacts ref.EventID `json:"redacts"`
	}
	if err := json.Unmarshal(e.Content, &content); err != nil {
		return ref.EventID{}
	}
	return content.Redacts
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds; 0 for immediate return
	SetTimeout bool   // if true, send the timeout parameter (needed to distinguish "not set" from "0")
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains per-room sync data. Map keys are room IDs;
// encoding/json uses ref.RoomID's TextUnmarshaler for automatic
// validation at deserialization.
type RoomsSection struct {
	Join map[ref.RoomID]JoinedRoom `json:"join,omitempty"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// RoomMessagesOptions controls pagination for room message fetching.
type RoomMessagesOptions struct {
	From      string // pagination token; empty means "from now"
	Direction string // "b" (backward/older) or "f" (forward/newer)
	Limit     int    // max events to return; 0 uses server default
}

// RoomMessagesResponse is returned by RoomMessages.
type RoomMessagesResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Chunk []Event `json:"chunk"`
}

// SendEventResponse is returned by SendMessage, SendEvent, EditMessage,
// React, and RedactEvent.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// ResolveAliasResponse is returned by ResolveAlias.
type ResolveAliasResponse struct {
	RoomID  ref.RoomID `json:"room_id"`
	Servers []string   `json:"servers"`
}

// DisplayNameResponse is returned by the /profile/{userId}/displayname endpoint.
type DisplayNameResponse struct {
	DisplayName string `json:"displayname"`
}

// ServerVersionsResponse is returned by Client.ServerVersions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}

// PowerLevelsContent is the content of an m.room.power_levels state
// event, trimmed to what authorization checks read.
type PowerLevelsContent struct {
	Users        map[string]int `json:"users,omitempty"`
	UsersDefault int            `json:"users_default,omitempty"`
}

// Level returns the power level of the given user, falling back to the
// room default.
func (p *PowerLevelsContent) Level(userID ref.UserID) int {
	if level, ok := p.Users[userID.String()]; ok {
		return level
	}
	return p.UsersDefault
}

// RoomCreateContent is the content of the m.room.create state event.
// Creator was dropped from content in room version v11 — use the
// event's sender on newer rooms.
type RoomCreateContent struct {
	Creator     ref.UserID `json:"creator,omitempty"`
	RoomVersion string     `json:"room_version,omitempty"`
}
