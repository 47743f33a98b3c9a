// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseUserID(t *testing.T) {
	valid := []string{
		"@alice:example.com",
		"@job-admin:callboard.local",
		"@a:b",
	}
	for _, raw := range valid {
		userID, err := ParseUserID(raw)
		if err != nil {
			t.Errorf("ParseUserID(%q) failed: %v", raw, err)
			continue
		}
		if userID.String() != raw {
			t.Errorf("ParseUserID(%q).String() = %q", raw, userID.String())
		}
	}

	invalid := []string{
		"",
		"alice:example.com",
		"@alice",
		"@:example.com",
		"@alice:",
	}
	for _, raw := range invalid {
		if _, err := ParseUserID(raw); err == nil {
			t.Errorf("ParseUserID(%q) succeeded, want error", raw)
		}
	}
}

func TestUserIDLocalpart(t *testing.T) {
	userID := MustParseUserID("@callboard:example.com")
	if got := userID.Localpart(); got != "callboard" {
		t.Errorf("Localpart() = %q, want %q", got, "callboard")
	}
}

func TestParseRoomID(t *testing.T) {
	roomID, err := ParseRoomID("!abc123:example.com")
	if err != nil {
		t.Fatalf("ParseRoomID failed: %v", err)
	}
	if roomID.String() != "!abc123:example.com" {
		t.Errorf("unexpected room ID: %s", roomID)
	}

	invalid := []string{"", "abc:example.com", "!:example.com", "!abc", "!abc:"}
	for _, raw := range invalid {
		if _, err := ParseRoomID(raw); err == nil {
			t.Errorf("ParseRoomID(%q) succeeded, want error", raw)
		}
	}
}

func TestParseRoomAlias(t *testing.T) {
	alias, err := ParseRoomAlias("#jobs:example.com")
	if err != nil {
		t.Fatalf("ParseRoomAlias failed: %v", err)
	}
	if alias.String() != "#jobs:example.com" {
		t.Errorf("unexpected alias: %s", alias)
	}

	if _, err := ParseRoomAlias("!abc:example.com"); err == nil {
		t.Error("ParseRoomAlias accepted a room ID")
	}
}

func TestParseEventID(t *testing.T) {
	for _, raw := range []string{"$abc123", "$legacy:example.com"} {
		eventID, err := ParseEventID(raw)
		if err != nil {
			t.Errorf("ParseEventID(%q) failed: %v", raw, err)
			continue
		}
		if eventID.String() != raw {
			t.Errorf("ParseEventID(%q).String() = %q", raw, eventID.String())
		}
	}

	for _, raw := range []string{"", "$", "abc123"} {
		if _, err := ParseEventID(raw); err == nil {
			t.Errorf("ParseEventID(%q) succeeded, want error", raw)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type payload struct {
		Room  RoomID  `json:"room"`
		User  UserID  `json:"user"`
		Event EventID `json:"event"`
	}

	original := payload{
		Room:  MustParseRoomID("!room:example.com"),
		User:  MustParseUserID("@alice:example.com"),
		Event: MustParseEventID("$event1"),
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	var room RoomID
	if err := json.Unmarshal([]byte(`"not-a-room"`), &room); err == nil {
		t.Error("unmarshal accepted an invalid room ID")
	}
}

func TestZeroValues(t *testing.T) {
	if !(RoomID{}).IsZero() || !(UserID{}).IsZero() || !(EventID{}).IsZero() || !(RoomAlias{}).IsZero() {
		t.Error("zero values must report IsZero")
	}
	if (MustParseRoomID("!r:s")).IsZero() {
		t.Error("parsed room ID reports IsZero")
	}
}
