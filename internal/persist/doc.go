// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package persist bridges the in-memory query cache and the durable record
// store. At startup it hydrates the cache from a record younger than the TTL;
// afterwards it writes every successful fetch back to the store.
package persist
