// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/callboard/callboard/lib/clock"
	"github.com/callboard/callboard/lib/config"
	"github.com/callboard/callboard/lib/jobstore"
	"github.com/callboard/callboard/lib/ref"
	"github.com/callboard/callboard/messaging"
)

// fakeSession is an in-memory messaging.Session for bot tests. It
// records every message, reaction, and redaction so tests can assert
// on the room state the bot produced, and it serves GetEvent and
// RoomMessages from the same records so announcement lookups work.
type fakeSession struct {
	mu      sync.Mutex
	userID  ref.UserID
	counter int

	order        []ref.EventID
	messages     map[ref.EventID]*fakeMessage
	reactions    map[ref.EventID]fakeReaction
	redacted     map[ref.EventID]bool
	state        map[string]json.RawMessage
	displayNames map[ref.UserID]string
	dmRooms      map[ref.UserID]ref.RoomID

	// edited receives the target event ID of every EditMessage call,
	// letting tests wait on asynchronous paginator updates.
	edited chan ref.EventID

	// syncResponse, when set, is served by Sync.
	syncResponse *messaging.SyncResponse
}

type fakeMessage struct {
	room    ref.RoomID
	sender  ref.UserID
	content messaging.MessageContent
}

type fakeReaction struct {
	room   ref.RoomID
	target ref.EventID
	key    string
}

func newFakeSession(userID ref.UserID) *fakeSession {
	return &fakeSession{
		userID:       userID,
		messages:     make(map[ref.EventID]*fakeMessage),
		reactions:    make(map[ref.EventID]fakeReaction),
		redacted:     make(map[ref.EventID]bool),
		state:        make(map[string]json.RawMessage),
		displayNames: make(map[ref.UserID]string),
		dmRooms:      make(map[ref.UserID]ref.RoomID),
		edited:       make(chan ref.EventID, 16),
	}
}

var _ messaging.Session = (*fakeSession)(nil)

func (s *fakeSession) nextEventID() ref.EventID {
	s.counter++
	return ref.MustParseEventID(fmt.Sprintf("$fake-%d", s.counter))
}

func (s *fakeSession) UserID() ref.UserID { return s.userID }

func (s *fakeSession) Close() error { return nil }

func (s *fakeSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	return s.userID, nil
}

func (s *fakeSession) ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	return ref.RoomID{}, fmt.Errorf("fake: no alias %s", alias)
}

func (s *fakeSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	return roomID, nil
}

func (s *fakeSession) CreateRoom(ctx context.Context, request messaging.CreateRoomRequest) (*messaging.CreateRoomResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	roomID := ref.MustParseRoomID(fmt.Sprintf("!dm-%d:test.local", s.counter))
	if request.IsDirect && len(request.Invite) == 1 {
		s.dmRooms[request.Invite[0]] = roomID
	}
	return &messaging.CreateRoomResponse{RoomID: roomID}, nil
}

func (s *fakeSession) SendMessage(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID := s.nextEventID()
	s.messages[eventID] = &fakeMessage{room: roomID, sender: s.userID, content: content}
	s.order = append(s.order, eventID)
	return eventID, nil
}

func (s *fakeSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextEventID(), nil
}

func (s *fakeSession) EditMessage(ctx context.Context, roomID ref.RoomID, target ref.EventID, content messaging.MessageContent) (ref.EventID, error) {
	s.mu.Lock()
	message, ok := s.messages[target]
	if ok {
		message.content = content
	}
	eventID := s.nextEventID()
	s.mu.Unlock()
	if !ok {
		return ref.EventID{}, &messaging.MatrixError{
			Code: messaging.ErrCodeNotFound, Message: "no such message", StatusCode: http.StatusNotFound,
		}
	}
	s.edited <- target
	return eventID, nil
}

func (s *fakeSession) React(ctx context.Context, roomID ref.RoomID, target ref.EventID, key string) (ref.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID := s.nextEventID()
	s.reactions[eventID] = fakeReaction{room: roomID, target: target, key: key}
	return eventID, nil
}

func (s *fakeSession) RedactEvent(ctx context.Context, roomID ref.RoomID, target ref.EventID, reason string) (ref.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redacted[target] = true
	delete(s.reactions, target)
	return s.nextEventID(), nil
}

func (s *fakeSession) GetEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID) (*messaging.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	message, ok := s.messages[eventID]
	if !ok || s.redacted[eventID] {
		return nil, &messaging.MatrixError{
			Code: messaging.ErrCodeNotFound, Message: "event not found", StatusCode: http.StatusNotFound,
		}
	}
	content, err := json.Marshal(message.content)
	if err != nil {
		return nil, err
	}
	return &messaging.Event{
		EventID: eventID,
		Type:    "m.room.message",
		Sender:  message.sender,
		RoomID:  message.room,
		Content: content,
	}, nil
}

func (s *fakeSession) RoomMessages(ctx context.Context, roomID ref.RoomID, options messaging.RoomMessagesOptions) (*messaging.RoomMessagesResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := options.Limit
	if limit <= 0 {
		limit = 10
	}
	response := &messaging.RoomMessagesResponse{}
	for i := len(s.order) - 1; i >= 0 && len(response.Chunk) < limit; i-- {
		eventID := s.order[i]
		message := s.messages[eventID]
		if message.room != roomID || s.redacted[eventID] {
			continue
		}
		content, err := json.Marshal(message.content)
		if err != nil {
			return nil, err
		}
		response.Chunk = append(response.Chunk, messaging.Event{
			EventID: eventID,
			Type:    "m.room.message",
			Sender:  message.sender,
			RoomID:  message.room,
			Content: content,
		})
	}
	return response, nil
}

func (s *fakeSession) GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, stateKey string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.state[eventType.String()+"/"+stateKey]
	if !ok {
		return nil, &messaging.MatrixError{
			Code: messaging.ErrCodeNotFound, Message: "state not found", StatusCode: http.StatusNotFound,
		}
	}
	return raw, nil
}

func (s *fakeSession) GetDisplayName(ctx context.Context, userID ref.UserID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayNames[userID], nil
}

func (s *fakeSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncResponse != nil {
		return s.syncResponse, nil
	}
	return &messaging.SyncResponse{NextBatch: "s1"}, nil
}

func (s *fakeSession) setDisplayName(user ref.UserID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayNames[user] = name
}

func (s *fakeSession) setState(eventType, stateKey string, content any) {
	raw, err := json.Marshal(content)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[eventType+"/"+stateKey] = raw
}

// messagesIn returns the bodies of all unredacted messages in a room,
// oldest first.
func (s *fakeSession) messagesIn(roomID ref.RoomID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var bodies []string
	for _, eventID := range s.order {
		message := s.messages[eventID]
		if message.room == roomID && !s.redacted[eventID] {
			bodies = append(bodies, message.content.Body)
		}
	}
	return bodies
}

// noticesTo returns the notices the bot sent to a user's direct
// message room, oldest first.
func (s *fakeSession) noticesTo(user ref.UserID) []string {
	s.mu.Lock()
	roomID, ok := s.dmRooms[user]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.messagesIn(roomID)
}

// lastMessageIn returns the newest unredacted message in a room.
func (s *fakeSession) lastMessageIn(t *testing.T, roomID ref.RoomID) (ref.EventID, messaging.MessageContent) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		eventID := s.order[i]
		message := s.messages[eventID]
		if message.room == roomID && !s.redacted[eventID] {
			return eventID, message.content
		}
	}
	t.Fatalf("no message in room %s", roomID)
	return ref.EventID{}, messaging.MessageContent{}
}

// reactionsOn returns the keys of the bot's live reactions targeting
// an event, in creation order.
func (s *fakeSession) reactionsOn(target ref.EventID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []ref.EventID
	for eventID := range s.reactions {
		if s.reactions[eventID].target == target {
			ids = append(ids, eventID)
		}
	}
	// Map order is random; sort by the numeric suffix baked into the
	// fake event IDs.
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if ids[j].String() < ids[i].String() {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}
	var keys []string
	for _, eventID := range ids {
		keys = append(keys, s.reactions[eventID].key)
	}
	return keys
}

var (
	testRoom  = ref.MustParseRoomID("!jobs:test.local")
	botUser   = ref.MustParseUserID("@callboard:test.local")
	adminUser = ref.MustParseUserID("@alice:test.local")
	plainUser = ref.MustParseUserID("@bob:test.local")
)

// newTestBot builds a bot on a fake session, a temp-file store, and a
// fake clock. The admin list contains adminUser.
func newTestBot(t *testing.T) (*Bot, *fakeSession, *clock.FakeClock) {
	t.Helper()
	session := newFakeSession(botUser)
	session.displayNames[adminUser] = "alice"
	session.displayNames[plainUser] = "bob"

	cfg := config.Default()
	cfg.StorePath = t.TempDir() + "/jobs.json"
	cfg.AdminUsers = []string{adminUser.String()}

	clk := clock.Fake(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	bot := NewBot(session, jobstore.NewFileStore(cfg.StorePath), cfg, testRoom, botUser, clk, logger)
	return bot, session, clk
}

// testWriter routes bot logs through t.Logf so failures carry context.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}

// messageEvent builds an m.room.message timeline event.
func messageEvent(t *testing.T, id string, sender ref.UserID, body string) messaging.Event {
	t.Helper()
	content, err := json.Marshal(messaging.NewTextMessage(body))
	if err != nil {
		t.Fatalf("marshaling message content: %v", err)
	}
	return messaging.Event{
		EventID: ref.MustParseEventID(id),
		Type:    "m.room.message",
		Sender:  sender,
		RoomID:  testRoom,
		Content: content,
	}
}

// reactionEvent builds an m.reaction timeline event annotating target.
func reactionEvent(t *testing.T, id string, sender ref.UserID, target ref.EventID, key string) messaging.Event {
	t.Helper()
	content, err := json.Marshal(messaging.ReactionContent{
		RelatesTo: messaging.RelatesTo{
			RelType: messaging.RelAnnotation,
			EventID: target,
			Key:     key,
		},
	})
	if err != nil {
		t.Fatalf("marshaling reaction content: %v", err)
	}
	return messaging.Event{
		EventID: ref.MustParseEventID(id),
		Type:    "m.reaction",
		Sender:  sender,
		RoomID:  testRoom,
		Content: content,
	}
}

// redactionEvent builds an m.room.redaction event removing target.
func redactionEvent(id string, sender ref.UserID, target ref.EventID) messaging.Event {
	return messaging.Event{
		EventID: ref.MustParseEventID(id),
		Type:    "m.room.redaction",
		Sender:  sender,
		RoomID:  testRoom,
		Redacts: target,
	}
}
