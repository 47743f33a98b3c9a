// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package display renders job records into display documents and
// converts those documents to Matrix message bodies. The job
// announcement footer doubles as a wire protocol: the job ID is
// recovered from it with ParseJobID, so its format is part of the
// package's contract, not a cosmetic choice.
package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/callboard/callboard/lib/jobstore"
)

// jobIDDelimiter is the load-bearing marker inside announcement
// footers. ParseJobID keys on it exactly; changing it orphans every
// announcement already posted.
const jobIDDelimiter = "Job ID: "

// Document is a structured message: a title, a list of named fields,
// and a footer line.
type Document struct {
	Title  string
	Fields []Field
	Footer string
}

// Field is one labeled section of a document. Inline fields are laid
// out side by side by clients that support it; the Markdown
// rendering treats both the same.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// RenderJob renders a job announcement. Pure: the same job always
// produces the same document.
func RenderJob(job *jobstore.Job) Document {
	return Document{
		Title: "Job Scheduling",
		Fields: []Field{
			{Name: "Time", Value: job.Time},
			{Name: "Location", Value: job.Location},
			attendanceField(job, jobstore.Accepted),
			attendanceField(job, jobstore.Declined),
			attendanceField(job, jobstore.Tentative),
		},
		Footer: fmt.Sprintf("Created by %s | %s%d", job.CreatedBy, jobIDDelimiter, job.ID),
	}
}

func attendanceField(job *jobstore.Job, category jobstore.Category) Field {
	members := job.Members(category)
	value := "No one yet"
	if len(members) > 0 {
		value = strings.Join(members, "\n")
	}
	label := strings.ToUpper(string(category)[:1]) + string(category)[1:]
	return Field{
		Name:   fmt.Sprintf("%s %s (%d)", category.Emoji(), label, len(members)),
		Value:  value,
		Inline: true,
	}
}

// ParseJobID recovers the job ID from an announcement footer.
// Returns false if the footer does not carry the job ID marker or
// the trailing text is not an integer — both mean the message is not
// one of ours.
func ParseJobID(footer string) (int, bool) {
	index := strings.LastIndex(footer, jobIDDelimiter)
	if index < 0 {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(footer[index+len(jobIDDelimiter):]))
	if err != nil {
		return 0, false
	}
	return id, true
}

// PageCount returns the number of fixed-size pages needed for n
// items. Zero items still occupy one (empty) page so that page
// numbering stays 1-based.
func PageCount(n, pageSize int) int {
	if n <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// RenderJobList renders one page of the active-job listing and
// returns the page actually shown. Pages outside 1..PageCount clamp
// to the nearest bound rather than erroring, so navigation past
// either end is a harmless no-op.
func RenderJobList(jobs []*jobstore.Job, page, pageSize int) (Document, int) {
	total := PageCount(len(jobs), pageSize)
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	doc := Document{
		Title:  "Active Jobs",
		Footer: fmt.Sprintf("Page %d/%d", page, total),
	}
	start := (page - 1) * pageSize
	end := min(start+pageSize, len(jobs))
	for _, job := range jobs[start:end] {
		doc.Fields = append(doc.Fields, Field{
			Name:  fmt.Sprintf("Job %d", job.ID),
			Value: fmt.Sprintf("Time: %s\nLocation: %s", job.Time, job.Location),
		})
	}
	return doc, page
}
