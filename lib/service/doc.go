// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package service holds the runtime plumbing shared by the bot
// process: session file persistence, the Matrix /sync long-poll loop
// with backoff, and the Unix-socket operator protocol.
//
// The pieces are independent — main wires them together. The sync
// loop takes a clock.Clock so tests can drive backoff without real
// sleeps, and the socket server speaks one CBOR request-response
// cycle per connection.
package service
