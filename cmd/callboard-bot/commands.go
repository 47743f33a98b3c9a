// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/callboard/callboard/lib/display"
	"github.com/callboard/callboard/lib/jobstore"
	"github.com/callboard/callboard/lib/ref"
	"github.com/callboard/callboard/messaging"
)

// handleCommand parses and dispatches one chat command. input is the
// message body with the command prefix already stripped.
func (b *Bot) handleCommand(ctx context.Context, sender ref.UserID, input string) {
	tokens, err := tokenize(input)
	if err != nil {
		b.notify(ctx, sender, fmt.Sprintf("Could not parse command: %v", err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	command, args := tokens[0], tokens[1:]
	switch command {
	case "createjob":
		b.cmdCreateJob(ctx, sender, args)
	case "editjob":
		b.cmdEditJob(ctx, sender, args)
	case "deletejob":
		b.cmdDeleteJob(ctx, sender, args)
	case "viewjobs":
		b.cmdViewJobs(ctx, sender, args)
	case "info":
		b.cmdInfo(ctx)
	default:
		// Unknown commands are ignored: the prefix may be shared with
		// other bots in the room.
	}
}

// tokenize splits a command line into tokens, honoring single and
// double quotes so locations and details can contain spaces.
func tokenize(input string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c-quoted string", quote)
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}

// requireAdmin checks authorization for a privileged command and
// notifies the sender on denial. Returns true when the command may
// proceed. The check happens before any store access.
func (b *Bot) requireAdmin(ctx context.Context, sender ref.UserID) bool {
	admin, err := b.isAdmin(ctx, sender)
	if err != nil {
		b.logger.Error("authorization check failed", "user", sender, "error", err)
		b.notify(ctx, sender, "Could not verify your permissions, try again later.")
		return false
	}
	if !admin {
		b.notify(ctx, sender, "You do not have permission to use this command.")
		return false
	}
	return true
}

// cmdCreateJob handles:
//
//	!createjob <DD/MM/YYYY> <HH:mm> <location...> [--details "..."]
func (b *Bot) cmdCreateJob(ctx context.Context, sender ref.UserID, args []string) {
	if !b.requireAdmin(ctx, sender) {
		return
	}

	flags := pflag.NewFlagSet("createjob", pflag.ContinueOnError)
	details := flags.String("details", "", "additional job details")
	if err := flags.Parse(args); err != nil {
		b.notify(ctx, sender, fmt.Sprintf("Invalid arguments: %v", err))
		return
	}
	positional := flags.Args()
	if len(positional) < 3 {
		b.notify(ctx, sender, "Usage: createjob <DD/MM/YYYY> <HH:mm> <location> [--details \"...\"]")
		return
	}

	schedule, err := jobstore.ParseSchedule(positional[0]+" "+positional[1], b.config.Location())
	if err != nil {
		b.notify(ctx, sender, err.Error())
		return
	}
	location := strings.Join(positional[2:], " ")

	jobDetails := *details
	if jobDetails == "" {
		jobDetails = jobstore.NoDetails
	}

	creator := b.displayName(ctx, sender)

	var job *jobstore.Job
	err = b.store.Update(func(c *jobstore.Collection) error {
		job = &jobstore.Job{
			ID:        c.NextID(),
			Time:      schedule,
			Location:  location,
			Details:   jobDetails,
			CreatedBy: creator,
		}
		c.Jobs = append(c.Jobs, job)
		return nil
	})
	if err != nil {
		b.logger.Error("storing new job", "error", err)
		b.notify(ctx, sender, "Could not save the job, try again later.")
		return
	}

	eventID, err := b.session.SendMessage(ctx, b.roomID, b.renderJobMessage(ctx, job))
	if err != nil {
		b.logger.Error("posting job announcement", "job", job.ID, "error", err)
		b.notify(ctx, sender, fmt.Sprintf("Job %d was saved but the announcement could not be posted.", job.ID))
		return
	}

	// Seed the attendance reactions so members can click instead of
	// typing emoji. A seeding failure leaves the job fully functional,
	// so it is reported but nothing is rolled back.
	for _, category := range []jobstore.Category{jobstore.Accepted, jobstore.Declined, jobstore.Tentative} {
		if _, err := b.session.React(ctx, b.roomID, eventID, category.Emoji()); err != nil {
			b.logger.Error("seeding reaction", "job", job.ID, "emoji", category.Emoji(), "error", err)
			b.notify(ctx, sender, "The job was posted but its reactions could not all be added.")
			break
		}
	}

	b.notify(ctx, sender, fmt.Sprintf("Job %d created.", job.ID))
}

// cmdEditJob handles:
//
//	!editjob <id> [--time "DD/MM/YYYY HH:mm"] [--location "..."] [--details "..."]
func (b *Bot) cmdEditJob(ctx context.Context, sender ref.UserID, args []string) {
	if !b.requireAdmin(ctx, sender) {
		return
	}

	flags := pflag.NewFlagSet("editjob", pflag.ContinueOnError)
	newTime := flags.String("time", "", "new time (DD/MM/YYYY HH:mm)")
	newLocation := flags.String("location", "", "new location")
	newDetails := flags.String("details", "", "new details")
	if err := flags.Parse(args); err != nil {
		b.notify(ctx, sender, fmt.Sprintf("Invalid arguments: %v", err))
		return
	}
	if flags.NArg() != 1 {
		b.notify(ctx, sender, "Usage: editjob <id> [--time \"DD/MM/YYYY HH:mm\"] [--location \"...\"] [--details \"...\"]")
		return
	}
	id, err := strconv.Atoi(flags.Arg(0))
	if err != nil {
		b.notify(ctx, sender, fmt.Sprintf("Invalid job id %q.", flags.Arg(0)))
		return
	}

	// Validate the new time before touching the store so a malformed
	// value cannot partially apply the edit.
	var schedule string
	if *newTime != "" {
		schedule, err = jobstore.ParseSchedule(*newTime, b.config.Location())
		if err != nil {
			b.notify(ctx, sender, err.Error())
			return
		}
	}

	var job *jobstore.Job
	err = b.store.Update(func(c *jobstore.Collection) error {
		job = c.Find(id)
		if job == nil {
			return errJobNotFound
		}
		if schedule != "" {
			job.Time = schedule
		}
		if *newLocation != "" {
			job.Location = *newLocation
		}
		if *newDetails != "" {
			job.Details = *newDetails
		}
		return nil
	})
	if errors.Is(err, errJobNotFound) {
		b.notify(ctx, sender, fmt.Sprintf("Job %d does not exist.", id))
		return
	}
	if err != nil {
		b.logger.Error("updating job", "job", id, "error", err)
		b.notify(ctx, sender, "Could not save the job, try again later.")
		return
	}

	// Best-effort: refresh the announcement in place. The record is
	// already saved, so a lookup miss only leaves the display stale.
	if eventID, ok := b.findAnnouncement(ctx, id); ok {
		if _, err := b.session.EditMessage(ctx, b.roomID, eventID, b.renderJobMessage(ctx, job)); err != nil {
			b.logger.Error("refreshing announcement after edit", "job", id, "error", err)
		}
	} else {
		b.logger.Info("announcement not found after edit", "job", id)
	}

	b.notify(ctx, sender, fmt.Sprintf("Job %d has been updated successfully.", id))
}

// cmdDeleteJob handles:
//
//	!deletejob <id>
func (b *Bot) cmdDeleteJob(ctx context.Context, sender ref.UserID, args []string) {
	if !b.requireAdmin(ctx, sender) {
		return
	}
	if len(args) != 1 {
		b.notify(ctx, sender, "Usage: deletejob <id>")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		b.notify(ctx, sender, fmt.Sprintf("Invalid job id %q.", args[0]))
		return
	}

	err = b.store.Update(func(c *jobstore.Collection) error {
		if !c.Remove(id) {
			return errJobNotFound
		}
		return nil
	})
	if errors.Is(err, errJobNotFound) {
		b.notify(ctx, sender, fmt.Sprintf("Job %d does not exist.", id))
		return
	}
	if err != nil {
		b.logger.Error("deleting job", "job", id, "error", err)
		b.notify(ctx, sender, "Could not delete the job, try again later.")
		return
	}

	if eventID, ok := b.findAnnouncement(ctx, id); ok {
		if _, err := b.session.RedactEvent(ctx, b.roomID, eventID, "job deleted"); err != nil {
			b.logger.Error("redacting announcement after delete", "job", id, "error", err)
		}
	}

	b.notify(ctx, sender, fmt.Sprintf("Job %d deleted.", id))
}

// cmdInfo posts the command guide to the room.
func (b *Bot) cmdInfo(ctx context.Context) {
	doc := display.Document{
		Title: "Bot Functionality Guide",
		Fields: []display.Field{
			{Name: "createjob", Value: "Create a new job: `" + b.config.CommandPrefix + "createjob <DD/MM/YYYY> <HH:mm> <location> [--details \"...\"]` (admin only)."},
			{Name: "editjob", Value: "Edit a job's time, location, or details: `" + b.config.CommandPrefix + "editjob <id> [--time \"...\"] [--location \"...\"] [--details \"...\"]` (admin only)."},
			{Name: "deletejob", Value: "Delete a job and its announcement: `" + b.config.CommandPrefix + "deletejob <id>` (admin only)."},
			{Name: "viewjobs", Value: "List active jobs with ◀️ ▶️ page navigation: `" + b.config.CommandPrefix + "viewjobs [page]`."},
		},
	}
	if _, err := b.session.SendMessage(ctx, b.roomID, b.renderDocument(doc, 0)); err != nil {
		b.logger.Error("posting info guide", "error", err)
	}
}

var errJobNotFound = errors.New("job not found")

// announcementScanLimit bounds the history scan when locating a job's
// announcement message. Announcements older than this many events
// simply stop being editable, which matches how far back anyone
// scrolls in practice.
const announcementScanLimit = 200

// findAnnouncement scans recent room history for the bot's
// announcement message for the given job. Matches on the structured
// job ID content key, falling back to parsing the footer out of the
// body for messages posted by older builds.
func (b *Bot) findAnnouncement(ctx context.Context, jobID int) (ref.EventID, bool) {
	from := ""
	scanned := 0
	for scanned < announcementScanLimit {
		response, err := b.session.RoomMessages(ctx, b.roomID, messaging.RoomMessagesOptions{
			From:      from,
			Direction: "b",
			Limit:     50,
		})
		if err != nil {
			b.logger.Error("scanning history for announcement", "job", jobID, "error", err)
			return ref.EventID{}, false
		}
		for _, event := range response.Chunk {
			scanned++
			if event.Type != "m.room.message" || event.Sender != b.userID {
				continue
			}
			if id, ok := announcementJobID(event.Content); ok && id == jobID {
				return event.EventID, true
			}
		}
		if response.End == "" || len(response.Chunk) == 0 {
			break
		}
		from = response.End
	}
	return ref.EventID{}, false
}

// announcementJobID extracts the job ID from announcement message
// content. The structured key is authoritative; the footer text is
// the legacy fallback.
func announcementJobID(content json.RawMessage) (int, bool) {
	var message messaging.MessageContent
	if err := json.Unmarshal(content, &message); err != nil {
		return 0, false
	}
	if message.JobID != 0 {
		return message.JobID, true
	}
	return display.ParseJobID(message.Body)
}
