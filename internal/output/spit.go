// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/staranto/showcase/internal/attrs"
	"github.com/staranto/showcase/internal/filters"
)

// ColorDefault reports whether table output should be colored when --color
// is not given: only on a terminal and only when NO_COLOR is unset.
func ColorDefault() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// encoders render the visible rows for the structured --output formats.
var encoders = map[string]func(any) ([]byte, error){
	"json": func(v any) ([]byte, error) {
		b, err := json.Marshal(v)
		return append(b, '\n'), err
	},
	"yaml": yaml.Marshal,
}

// SliceDiceSpit renders raw, a JSON document (or the array at parent within
// it), per the command's --output, --filter, --attrs and --sort flags.
//
// The pipeline is filter, transform, sort and then encode. raw output skips
// the pipeline entirely.
func SliceDiceSpit(raw []byte,
	al attrs.AttrList,
	cmd *cli.Command,
	parent string,
	w io.Writer) {

	if w == nil {
		w = os.Stdout
	}

	format := cmd.String("output")
	if format == "raw" {
		_, _ = w.Write(raw)
		fmt.Fprintln(w)
		return
	}

	dataset := gjson.ParseBytes(raw)
	if parent != "" {
		dataset = dataset.Get(parent)
	}

	// Filtering first leaves less to transform and sort.
	rows := filters.FilterDataset(dataset, al, cmd.String("filter"))
	for _, row := range rows {
		for i := range al {
			if al[i].TransformSpec != "" {
				row[al[i].OutputKey] = al[i].Transform(row[al[i].OutputKey])
			}
		}
	}
	SortDataset(rows, cmd.String("sort"))

	encode, ok := encoders[format]
	if !ok {
		TableWriter(rows, al, cmd, w)
		return
	}

	// Hidden attrs are only there for filtering and sorting.
	b, err := encode(visibleRows(rows, al))
	if err != nil {
		log.WithError(err).Errorf("failed to marshal %s", format)
		return
	}
	_, _ = w.Write(b)
}

// visibleRows drops the attributes that are not included in output. It
// always returns a non-nil slice so an empty result encodes as [].
func visibleRows(rows []map[string]interface{}, al attrs.AttrList) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		v := make(map[string]interface{}, len(al))
		for _, attr := range al {
			if attr.Include {
				v[attr.OutputKey] = row[attr.OutputKey]
			}
		}
		out = append(out, v)
	}
	return out
}
