// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

package jobstore

import (
	"fmt"
	"time"
)

// Schedule layouts. Input is day-first because that is what the
// crews entering jobs actually type; display spells the date out so
// there is no day/month ambiguity in the announcement.
const (
	ScheduleInputLayout   = "02/01/2006 15:04"
	ScheduleDisplayLayout = "Monday 02 January 2006 15:04"
)

// ParseSchedule parses a DD/MM/YYYY HH:mm schedule string in the
// given location and returns it formatted for display. The error
// message is user-facing: it names the expected shape rather than
// echoing Go layout syntax.
func ParseSchedule(input string, loc *time.Location) (string, error) {
	t, err := time.ParseInLocation(ScheduleInputLayout, input, loc)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: expected DD/MM/YYYY HH:mm", input)
	}
	return t.Format(ScheduleDisplayLayout), nil
}
