// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache provides the in-memory query cache used to avoid repeated
// remote fetches: per-key freshness, request deduplication, retry, and
// listener notification on every state change.
package cache
