// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package project

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/showcase/internal/contentful"
)

func entry(id, title, url, img string) contentful.Entry {
	e := contentful.Entry{
		Sys:    contentful.Sys{ID: id},
		Fields: contentful.Fields{Title: title, URL: url},
	}
	if img != "" {
		e.Fields.Image = &contentful.Asset{File: &contentful.File{URL: img}}
	}
	return e
}

func TestFromEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry contentful.Entry
		want  Project
	}{
		{
			name:  "all fields",
			entry: entry("a", "Alpha", "https://a.example", "https://img.example/a.png"),
			want:  Project{ID: "a", Title: "Alpha", URL: "https://a.example", Img: "https://img.example/a.png"},
		},
		{
			name:  "protocol relative image",
			entry: entry("a", "Alpha", "https://a.example", "//images.ctfassets.net/a.png"),
			want:  Project{ID: "a", Title: "Alpha", URL: "https://a.example", Img: "https://images.ctfassets.net/a.png"},
		},
		{
			name:  "no image",
			entry: entry("b", "Beta", "https://b.example", ""),
			want:  Project{ID: "b", Title: "Beta", URL: "https://b.example"},
		},
		{
			name: "image without file",
			entry: contentful.Entry{
				Sys:    contentful.Sys{ID: "c"},
				Fields: contentful.Fields{Title: "Gamma", URL: "u", Image: &contentful.Asset{}},
			},
			want: Project{ID: "c", Title: "Gamma", URL: "u"},
		},
		{
			name:  "missing required fields",
			entry: entry("d", "", "", ""),
			want:  Project{ID: "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromEntry(tt.entry)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Img != "", got.HasImage())
		})
	}
}

func TestFromEntries_OrderAndIsolation(t *testing.T) {
	entries := []contentful.Entry{
		entry("3", "Three", "https://3", ""),
		entry("1", "", "https://1", "//img/1.png"),
		entry("2", "Two", "https://2", ""),
	}

	got := FromEntries(entries)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"3", "1", "2"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, "", got[1].Title)
	assert.Equal(t, "https://1", got[1].URL)
	assert.Equal(t, "https://img/1.png", got[1].Img)
}

func TestFromEntries_Empty(t *testing.T) {
	got := FromEntries(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestProjectJSON(t *testing.T) {
	b, err := json.Marshal([]Project{{ID: "a", Title: "T", URL: "https://x"}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","title":"T","url":"https://x"}]`, string(b))
}

func TestCacheRecord_Fresh(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	ms := time.Millisecond

	fresh := CacheRecord{StoredAt: now.Add(-TTL + ms).UnixMilli()}
	assert.True(t, fresh.Fresh(now, TTL))

	edge := CacheRecord{StoredAt: now.Add(-TTL).UnixMilli()}
	assert.False(t, edge.Fresh(now, TTL))

	stale := CacheRecord{StoredAt: now.Add(-TTL - ms).UnixMilli()}
	assert.False(t, stale.Fresh(now, TTL))
	assert.Equal(t, TTL+ms, stale.Age(now))
}
