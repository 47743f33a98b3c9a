// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/callboard/callboard/lib/jobstore"
	"github.com/callboard/callboard/lib/service"
)

// statusResult is the payload of the "status" socket action.
type statusResult struct {
	UserID        string `cbor:"user_id"`
	Room          string `cbor:"room"`
	UptimeSeconds int64  `cbor:"uptime_seconds"`
	Jobs          int    `cbor:"jobs"`
}

// jobResult is one entry in the "jobs" socket action payload.
type jobResult struct {
	ID        int      `cbor:"id"`
	Time      string   `cbor:"time"`
	Location  string   `cbor:"location"`
	Details   string   `cbor:"details"`
	CreatedBy string   `cbor:"created_by"`
	Accepted  []string `cbor:"accepted"`
	Declined  []string `cbor:"declined"`
	Tentative []string `cbor:"tentative"`
}

// registerActions wires the bot's operator queries into the socket
// server. Actions are read-only: mutation stays in the chat room where
// members can see it happen.
func (b *Bot) registerActions(server *service.SocketServer) {
	server.Handle("status", b.actionStatus)
	server.Handle("jobs", b.actionJobs)
}

func (b *Bot) actionStatus(ctx context.Context, raw []byte) (any, error) {
	collection, err := b.store.Load()
	if err != nil {
		return nil, err
	}
	return statusResult{
		UserID:        b.userID.String(),
		Room:          b.roomID.String(),
		UptimeSeconds: int64(b.clock.Now().Sub(b.startedAt) / time.Second),
		Jobs:          len(collection.Jobs),
	}, nil
}

func (b *Bot) actionJobs(ctx context.Context, raw []byte) (any, error) {
	collection, err := b.store.Load()
	if err != nil {
		return nil, err
	}
	results := make([]jobResult, 0, len(collection.Jobs))
	for _, job := range collection.Jobs {
		results = append(results, jobResult{
			ID:        job.ID,
			Time:      job.Time,
			Location:  job.Location,
			Details:   job.Details,
			CreatedBy: job.CreatedBy,
			Accepted:  members(job, jobstore.Accepted),
			Declined:  members(job, jobstore.Declined),
			Tentative: members(job, jobstore.Tentative),
		})
	}
	return results, nil
}

// members copies a category's member list so the socket encoder never
// aliases store-owned slices.
func members(job *jobstore.Job, category jobstore.Category) []string {
	source := job.Members(category)
	if len(source) == 0 {
		return nil
	}
	out := make([]string, len(source))
	copy(out, source)
	return out
}
