// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/callboard/callboard/lib/display"
	"github.com/callboard/callboard/lib/jobstore"
	"github.com/callboard/callboard/lib/ref"
)

const (
	navPrevious = "◀️"
	navNext     = "▶️"

	// retireTimeout bounds the reaction cleanup when a listing stops
	// serving navigation.
	retireTimeout = 10 * time.Second
)

// navInput is one navigation request routed from the sync loop to a
// listing's paginator goroutine.
type navInput struct {
	delta    int         // -1 previous page, +1 next page
	reaction ref.EventID // the arrow reaction event, redacted once consumed
	sender   ref.UserID
}

// navDelta maps a reaction key to a page delta.
func navDelta(key string) (int, bool) {
	switch key {
	case navPrevious:
		return -1, true
	case navNext:
		return 1, true
	}
	return 0, false
}

// cmdViewJobs handles:
//
//	!viewjobs [page]
//
// Posts a paginated listing with arrow reactions and spawns a
// paginator goroutine that serves navigation until the idle timeout.
func (b *Bot) cmdViewJobs(ctx context.Context, sender ref.UserID, args []string) {
	page := 1
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			b.notify(ctx, sender, fmt.Sprintf("Invalid page number %q.", args[0]))
			return
		}
		page = parsed
	}

	jobs, err := b.activeJobs()
	if err != nil {
		b.logger.Error("loading jobs for listing", "error", err)
		b.notify(ctx, sender, "Could not load the job list, try again later.")
		return
	}
	if len(jobs) == 0 {
		b.notify(ctx, sender, "There are no active jobs.")
		return
	}

	doc, page := display.RenderJobList(jobs, page, b.config.PageSize)
	eventID, err := b.session.SendMessage(ctx, b.roomID, b.renderDocument(doc, 0))
	if err != nil {
		b.logger.Error("posting job listing", "error", err)
		return
	}

	// Single-page listings need no navigation.
	if display.PageCount(len(jobs), b.config.PageSize) == 1 {
		return
	}

	var arrows []ref.EventID
	for _, key := range []string{navPrevious, navNext} {
		reactionID, err := b.session.React(ctx, b.roomID, eventID, key)
		if err != nil {
			b.logger.Error("seeding navigation reaction", "listing", eventID, "error", err)
			return
		}
		arrows = append(arrows, reactionID)
	}

	input := make(chan navInput, 4)
	b.mu.Lock()
	b.paginators[eventID] = input
	b.mu.Unlock()

	go b.runPaginator(ctx, eventID, sender, arrows, input, page)
}

// runPaginator drives one listing message: it waits for navigation
// input and re-renders the listing at the requested page. Only the
// listing's invoker may turn pages; other users' arrow presses are
// cleaned up without effect. After the idle timeout the listing
// retires, removing its arrow reactions and unregistering from the
// router.
func (b *Bot) runPaginator(ctx context.Context, listing ref.EventID, owner ref.UserID, arrows []ref.EventID, input <-chan navInput, page int) {
	defer b.retirePaginator(listing, arrows)

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.clock.After(b.config.NavigationTimeout):
			return
		case nav := <-input:
			// The arrow reaction is consumed: redact it so the same
			// user can press the arrow again.
			if _, err := b.session.RedactEvent(ctx, b.roomID, nav.reaction, ""); err != nil {
				b.logger.Debug("removing consumed navigation reaction",
					"listing", listing, "error", err)
			}
			if nav.sender != owner {
				continue
			}

			jobs, err := b.activeJobs()
			if err != nil {
				b.logger.Error("loading jobs for navigation", "listing", listing, "error", err)
				continue
			}
			if len(jobs) == 0 {
				return
			}

			doc, landed := display.RenderJobList(jobs, page+nav.delta, b.config.PageSize)
			if landed == page {
				continue
			}
			page = landed
			if _, err := b.session.EditMessage(ctx, b.roomID, listing, b.renderDocument(doc, 0)); err != nil {
				b.logger.Error("updating job listing page", "listing", listing, "error", err)
			}
		}
	}
}

// retirePaginator unregisters a listing from the navigation router and
// removes the bot's arrow reactions. Uses a fresh context: retirement
// also runs when the bot's root context is cancelled, and a short
// best-effort cleanup is still worth attempting then.
func (b *Bot) retirePaginator(listing ref.EventID, arrows []ref.EventID) {
	b.mu.Lock()
	delete(b.paginators, listing)
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), retireTimeout)
	defer cancel()
	for _, arrow := range arrows {
		if _, err := b.session.RedactEvent(ctx, b.roomID, arrow, ""); err != nil {
			b.logger.Debug("removing navigation reaction on retire",
				"listing", listing, "error", err)
		}
	}
}

// activeJobs loads the current job list from the store.
func (b *Bot) activeJobs() ([]*jobstore.Job, error) {
	collection, err := b.store.Load()
	if err != nil {
		return nil, err
	}
	return collection.Jobs, nil
}
