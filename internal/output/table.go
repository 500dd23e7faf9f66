// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/urfave/cli/v3"

	"github.com/staranto/showcase/internal/attrs"
	"github.com/staranto/showcase/internal/config"
)

// borderless returns a table with every border hidden. Headers are left to
// the caller.
func borderless() *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers()
}

// DumpExamples renders the --examples table.
func DumpExamples(w io.Writer, examples [][2]string) {
	if len(examples) == 0 {
		return
	}
	if w == nil {
		w = os.Stdout
	}

	t := borderless()
	for _, ex := range examples {
		t = t.Row(ex[0], ex[1])
	}
	fmt.Fprintln(w, t.Headers("Command", "Description").BorderHeader(false))
}

// rowStyles holds the header and alternating row styles of a table.
type rowStyles struct {
	header, even, odd lipgloss.Style
	pad               int
}

func newRowStyles(color bool) rowStyles {
	base := lipgloss.NewStyle().Align(lipgloss.Left)
	rs := rowStyles{header: base, even: base, odd: base}
	rs.pad, _ = config.GetInt("padding", 0)

	if color {
		header, even, odd := getColors("colors")
		rs.header = rs.header.Foreground(lipgloss.Color(header))
		rs.even = rs.even.Foreground(lipgloss.Color(even))
		rs.odd = rs.odd.Foreground(lipgloss.Color(odd))
	}
	return rs
}

func (rs rowStyles) styleFunc(row, col int) lipgloss.Style {
	style := rs.odd
	switch {
	case row == table.HeaderRow:
		style = rs.header
	case row%2 == 0:
		style = rs.even
	}
	if col > 0 {
		style = style.PaddingLeft(rs.pad)
	}
	return style
}

// TableWriter renders the included attrs of resultSet as an aligned table.
// --color and --titles come from cmd; padding and colors from config.
func TableWriter(
	resultSet []map[string]interface{},
	al attrs.AttrList,
	cmd *cli.Command,
	w io.Writer) {

	if len(resultSet) == 0 {
		return
	}

	var headers []string
	for _, attr := range al {
		if attr.Include {
			headers = append(headers, attr.OutputKey)
		}
	}

	t := borderless().StyleFunc(newRowStyles(cmd.Bool("color")).styleFunc)
	for _, result := range resultSet {
		cells := make([]string, 0, len(headers))
		for _, key := range headers {
			cells = append(cells, InterfaceToString(result[key], "-"))
		}
		t = t.Row(cells...)
	}

	if cmd.Bool("titles") {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns the configured title, even and odd row colors under key.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(key+".title", "#f6be00")
	even, _ = config.GetString(key+".even", "#ffffff")
	odd, _ = config.GetString(key+".odd", "#00c8f0")
	return
}

// InterfaceToString renders a cell value. Zero values render as emptyValue
// (default "").
func InterfaceToString(value interface{}, emptyValue ...string) string {
	empty := ""
	if len(emptyValue) > 0 {
		empty = emptyValue[0]
	}
	if value == nil || reflect.ValueOf(value).IsZero() {
		return empty
	}

	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		// Project records carry no real floats.
		return strconv.FormatFloat(v, 'f', 0, 64)
	case bool:
		return strconv.FormatBool(v)
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}
