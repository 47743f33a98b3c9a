// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

// Command callboard-bot is a Matrix bot for job announcements. Admins
// post jobs (time, location, details) into a configured room with
// !createjob; members signal attendance by reacting with ✅, ❌, or ❓
// on the announcement, and the bot keeps the displayed message in
// sync with the stored attendance sets.
//
// Job records persist to a single JSON file. The bot also exposes a
// CBOR operator socket for local status and job queries.
package main
