// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/apex/log"
)

// maxSchemaDepth bounds how far DumpSchemaWalker descends into nested structs.
const maxSchemaDepth = 1

// Tag is one json-tagged field discovered for --schema.
type Tag struct {
	Kind     string
	Name     string
	Encoding string
}

// NewTag builds a Tag from a raw json struct tag. h, when set, prefixes the
// name with its holder (h.name). Fields tagged "-" or without a name are not
// attributes and come back with an empty Kind.
func NewTag(h string, s string) Tag {
	name, encoding, _ := strings.Cut(s, ",")
	if name == "" || name == "-" {
		return Tag{}
	}
	if h != "" {
		name = h + "." + name
	}
	return Tag{Kind: "attr", Name: name, Encoding: encoding}
}

// Print renders the tag for the schema listing.
func (t Tag) Print() string {
	if t.Encoding == "omitempty" {
		return strings.TrimSpace(t.Name + " (optional)")
	}
	return t.Name
}

// DumpSchema lists the attributes of typ, sorted by name.
func DumpSchema(w io.Writer, prefix string, typ reflect.Type) {
	if w == nil {
		w = os.Stdout
	}

	tags := DumpSchemaWalker(prefix, typ, 0)
	if len(tags) == 0 {
		log.Debugf("No tags found for type: %s", typ.Name())
		return
	}
	slices.SortFunc(tags, func(a, b Tag) int { return strings.Compare(a.Name, b.Name) })

	fmt.Fprintln(w, "Schema for", typ.Name(), "--")
	for _, tag := range tags {
		fmt.Fprintln(w, tag.Print())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Attributes available to the --attrs, --filter and --sort flags.")
	fmt.Fprintln(w, "Use --output=raw to see the records as they are cached.")
}

// DumpSchemaWalker collects the json tags of typ, descending into struct (or
// pointer to struct) fields up to maxSchemaDepth.
func DumpSchemaWalker(holder string, typ reflect.Type, depth int) []Tag {
	tags := make([]Tag, 0, typ.NumField())

	for field := range fields(typ) {
		raw, ok := field.Tag.Lookup("json")
		if !ok {
			continue
		}
		tag := NewTag(holder, raw)
		if tag.Kind != "attr" {
			continue
		}
		tags = append(tags, tag)

		if depth >= maxSchemaDepth {
			continue
		}
		ft := field.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			tags = append(tags, DumpSchemaWalker(tag.Name, ft, depth+1)...)
		}
	}

	return tags
}

func fields(typ reflect.Type) func(func(reflect.StructField) bool) {
	return func(yield func(reflect.StructField) bool) {
		for i := range typ.NumField() {
			if !yield(typ.Field(i)) {
				return
			}
		}
	}
}
