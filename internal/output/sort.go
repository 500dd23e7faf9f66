// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"sort"
	"strings"
)

// sortKey is one comma-separated term of a --sort spec.
type sortKey struct {
	name          string
	descending    bool
	caseSensitive bool
}

// parseSortSpec parses a --sort spec. Each term is an output key optionally
// prefixed with - (descending) and/or ! (case-sensitive), in either order.
func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, term := range strings.Split(spec, ",") {
		term = strings.TrimSpace(term)
		k := sortKey{}
		for len(term) > 0 && (term[0] == '-' || term[0] == '!') {
			if term[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			term = term[1:]
		}
		if term == "" {
			continue
		}
		k.name = term
		keys = append(keys, k)
	}
	return keys
}

// SortDataset sorts the rows in place per spec. The sort is stable, so rows
// that compare equal on every key keep their incoming order. An empty spec
// leaves the dataset alone.
func SortDataset(dataset []map[string]interface{}, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(dataset, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(dataset[i][k.name], dataset[j][k.name], k.caseSensitive)
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders nil before anything else, numbers numerically, bools
// false before true, and everything else by its string form.
func compareValues(a, b interface{}, caseSensitive bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := toNumber(a); ok {
		if fb, ok := toNumber(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			}
			return 1
		}
	}

	sa, sb := InterfaceToString(a), InterfaceToString(b)
	if !caseSensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
