// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"strings"

	"github.com/staranto/showcase/internal/contentful"
)

// FromEntry flattens a single entry. It never fails: missing fields map to
// empty strings and a missing image maps to no image.
func FromEntry(e contentful.Entry) Project {
	p := Project{
		ID:    e.Sys.ID,
		Title: e.Fields.Title,
		URL:   e.Fields.URL,
	}
	if img := e.Fields.Image; img != nil && img.File != nil {
		p.Img = normalizeAssetURL(img.File.URL)
	}
	return p
}

// FromEntries maps entries one-to-one into a new slice, preserving order.
func FromEntries(entries []contentful.Entry) []Project {
	projects := make([]Project, 0, len(entries))
	for _, e := range entries {
		projects = append(projects, FromEntry(e))
	}
	return projects
}

// normalizeAssetURL gives protocol-relative asset URLs an https scheme.
func normalizeAssetURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
