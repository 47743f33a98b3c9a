// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package jobstore

import (
	"slices"
	"strings"
)

// NoDetails is stored when a job is created without details.
const NoDetails = "No details provided"

// Job is the sole persisted entity: a schedulable work event with
// three attendance categories. Attendance slices are ordered sets —
// membership mutation goes through Add and Remove, which preserve
// set semantics.
type Job struct {
	ID        int      `json:"id"`
	Time      string   `json:"time"`
	Location  string   `json:"location"`
	Details   string   `json:"details"`
	Accepted  []string `json:"accepted"`
	Declined  []string `json:"declined"`
	Tentative []string `json:"tentative"`

	// CreatedBy is the creator's display name captured at creation
	// time, not a live reference.
	CreatedBy string `json:"created_by"`
}

// Category is one of the three attendance categories.
type Category string

const (
	Accepted  Category = "accepted"
	Declined  Category = "declined"
	Tentative Category = "tentative"
)

// Emoji returns the reaction emoji associated with the category.
func (c Category) Emoji() string {
	switch c {
	case Accepted:
		return "✅"
	case Declined:
		return "❌"
	case Tentative:
		return "❓"
	}
	return ""
}

// CategoryForEmoji maps a reaction emoji to its attendance category.
// The U+FE0F variation selector some clients append to emoji keys is
// tolerated. Returns false for any other emoji — unrelated reactions
// are not an error.
func CategoryForEmoji(emoji string) (Category, bool) {
	const variationSelector = "️"
	switch strings.TrimSuffix(emoji, variationSelector) {
	case "✅":
		return Accepted, true
	case "❌":
		return Declined, true
	case "❓":
		return Tentative, true
	}
	return "", false
}

// Members returns the user IDs in the given category. The returned
// slice is the job's own backing storage; callers must not mutate it.
func (j *Job) Members(category Category) []string {
	switch category {
	case Accepted:
		return j.Accepted
	case Declined:
		return j.Declined
	case Tentative:
		return j.Tentative
	}
	return nil
}

// Add inserts user into the category if not already present. Reports
// whether the job changed — adding an existing member is a no-op.
func (j *Job) Add(category Category, user string) bool {
	members := j.Members(category)
	if slices.Contains(members, user) {
		return false
	}
	j.setMembers(category, append(members, user))
	return true
}

// Remove deletes user from the category if present. Reports whether
// the job changed — removing an absent member is a no-op.
func (j *Job) Remove(category Category, user string) bool {
	members := j.Members(category)
	index := slices.Index(members, user)
	if index < 0 {
		return false
	}
	j.setMembers(category, slices.Delete(members, index, index+1))
	return true
}

func (j *Job) setMembers(category Category, members []string) {
	switch category {
	case Accepted:
		j.Accepted = members
	case Declined:
		j.Declined = members
	case Tentative:
		j.Tentative = members
	}
}
