// Copyright 2026 The Callboard Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identifier types for
// the Matrix identifiers Callboard works with: user IDs, room IDs,
// room aliases, event IDs, and event types.
//
// All constructors validate their inputs and return errors for invalid
// identifiers. Once constructed, a ref is immutable. Identifiers arrive
// from the Matrix homeserver (sync responses, send acknowledgments,
// alias resolution) or from operator configuration, and are parsed into
// these types at the boundary — the rest of the code never handles raw
// identifier strings.
//
// JSON marshaling uses the canonical Matrix form (@user:server,
// !room:server, #alias:server, $event) via encoding.TextMarshaler.
package ref
