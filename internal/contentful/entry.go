// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package contentful

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Sys is the system metadata section carried by every entry and asset.
type Sys struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	ContentType string    `json:"contentType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Entry is a single content entry as returned by the delivery API, with its
// image link already resolved against the payload includes.
type Entry struct {
	Sys    Sys    `json:"sys"`
	Fields Fields `json:"fields"`
}

// Fields are the project fields of an entry. Title and URL are empty when the
// entry does not carry them.
type Fields struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Image *Asset `json:"image,omitempty"`
}

// Asset is a resolved media asset.
type Asset struct {
	Sys   Sys    `json:"sys"`
	Title string `json:"title,omitempty"`
	File  *File  `json:"file,omitempty"`
}

// File describes the binary behind an asset.
type File struct {
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
	FileName    string `json:"fileName,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// page is one page of the entries collection.
type page struct {
	Total   int
	Skip    int
	Limit   int
	Entries []Entry
}

// parsePage decodes an entries collection payload. The payload itself must
// be an object with an items array. Past that decoding is tolerant: a field
// of the wrong type or a missing field yields a zero value instead of failing
// the page, so one malformed entry never hides the others.
func parsePage(raw []byte) (page, error) {
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() || !doc.Get("items").IsArray() {
		return page{}, fmt.Errorf("%w: no items array", ErrMalformedResponse)
	}

	assets := make(map[string]*Asset)
	for _, a := range doc.Get("includes.Asset").Array() {
		asset := parseAsset(a)
		if asset.Sys.ID != "" {
			assets[asset.Sys.ID] = asset
		}
	}

	items := doc.Get("items").Array()
	p := page{
		Total:   int(doc.Get("total").Int()),
		Skip:    int(doc.Get("skip").Int()),
		Limit:   int(doc.Get("limit").Int()),
		Entries: make([]Entry, 0, len(items)),
	}

	for _, item := range items {
		p.Entries = append(p.Entries, parseEntry(item, assets))
	}

	return p, nil
}

func parseEntry(item gjson.Result, assets map[string]*Asset) Entry {
	e := Entry{
		Sys: parseSys(item.Get("sys")),
		Fields: Fields{
			Title: item.Get("fields.title").String(),
			URL:   item.Get("fields.url").String(),
		},
	}

	// The image is either a link into includes.Asset or, when the payload was
	// produced by a link-resolving proxy, the asset itself.
	image := item.Get("fields.image")
	switch {
	case !image.Exists() || !image.IsObject():
	case image.Get("sys.type").String() == "Link":
		if a, ok := assets[image.Get("sys.id").String()]; ok {
			e.Fields.Image = a
		}
	case image.Get("fields.file").Exists():
		e.Fields.Image = parseAsset(image)
	}

	return e
}

func parseAsset(a gjson.Result) *Asset {
	asset := &Asset{
		Sys:   parseSys(a.Get("sys")),
		Title: a.Get("fields.title").String(),
	}
	if f := a.Get("fields.file"); f.IsObject() {
		asset.File = &File{
			URL:         f.Get("url").String(),
			ContentType: f.Get("contentType").String(),
			FileName:    f.Get("fileName").String(),
			Size:        f.Get("details.size").Int(),
		}
	}
	return asset
}

func parseSys(s gjson.Result) Sys {
	sys := Sys{
		ID:          s.Get("id").String(),
		Type:        s.Get("type").String(),
		ContentType: s.Get("contentType.sys.id").String(),
	}
	if t, err := time.Parse(time.RFC3339, s.Get("createdAt").String()); err == nil {
		sys.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, s.Get("updatedAt").String()); err == nil {
		sys.UpdatedAt = t
	}
	return sys
}
