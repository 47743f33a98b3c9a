// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobstore persists Callboard's job records.
//
// A [Job] is a schedulable work event: a pre-formatted time, a
// location, free-text details, and three attendance categories
// (accepted, declined, tentative), each an ordered set of Matrix user
// IDs. Jobs live in a [Collection] alongside an id counter; ids are
// assigned monotonically and never reused, even after deletion.
//
// [FileStore] is the JSON-file implementation of [Store]. It has no
// transactional isolation beyond a single process-wide mutex: callers
// perform a full load-mutate-save cycle inside [Store.Update], which
// serializes all access. A missing store file reads as an empty
// collection, not an error. Saves replace the whole file through a
// temp-file rename so a crash mid-write never truncates the store.
package jobstore
