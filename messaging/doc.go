// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is a minimal Matrix client-server API wrapper
// covering what the announcement bot needs: password login, long-poll
// sync, room messages with HTML formatted bodies, message edits
// (m.replace), reactions (m.annotation), redactions, and a handful of
// read endpoints (event fetch, state, display names).
//
// Client is the unauthenticated entry point; Login and
// SessionFromToken produce a DirectSession holding the access token
// in mmap-backed memory. Bot code consumes the Session interface so
// tests can substitute a fake.
//
// Server errors carry the Matrix errcode and HTTP status as
// *MatrixError; use IsMatrixError to branch on specific codes.
package messaging
