// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"time"
)

const (
	// Key is the fixed identifier shared by the query cache entry and the
	// durable record holding the project list.
	Key = "projects"

	// TimestampKey holds the epoch milliseconds of the last durable write.
	TimestampKey = Key + "_timestamp"

	// ContentType is the CMS content type the projects are stored under.
	ContentType = "project"

	// TTL governs both hydration trust and query cache staleness. Keep them on
	// the same constant.
	TTL = 5 * time.Minute
)

// Project is the flattened record handed to the presentation layer. Img is
// empty when the entry has no image.
type Project struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Img   string `json:"img,omitempty"`
}

// HasImage reports whether the project carries an image URL.
func (p Project) HasImage() bool {
	return p.Img != ""
}

// CacheRecord is the durable unit written after every successful fetch.
type CacheRecord struct {
	Key      string    `json:"key"`
	Data     []Project `json:"data"`
	StoredAt int64     `json:"storedAt"`
}

// Age returns how long ago the record was written relative to now.
func (r CacheRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.StoredTime())
}

// StoredTime converts StoredAt to a time.Time.
func (r CacheRecord) StoredTime() time.Time {
	return time.UnixMilli(r.StoredAt)
}

// Fresh reports whether now - StoredAt < ttl.
func (r CacheRecord) Fresh(now time.Time, ttl time.Duration) bool {
	return r.Age(now) < ttl
}
