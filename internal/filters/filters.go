// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/showcase/internal/attrs"
)

// filterRegex splits an expression into key, operator and target. Operators
// are one of = ^ ~ < > @ or /, optionally negated with a leading '!'.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Filter is a single parsed --filter expression.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// String renders f back into --filter form.
func (f Filter) String() string {
	op := f.Operand
	if f.Negate {
		op = "!" + op
	}
	return f.Key + op + f.Target
}

// delimiter separates expressions in a spec. SHOWCASE_FILTER_DELIM overrides
// the default "," for targets that contain commas.
func delimiter() string {
	if d, ok := os.LookupEnv("SHOWCASE_FILTER_DELIM"); ok && d != "" {
		return d
	}
	return ","
}

// BuildFilters parses spec. Malformed expressions are logged and skipped.
func BuildFilters(spec string) []Filter {
	if spec == "" {
		return nil
	}

	exprs := strings.Split(spec, delimiter())
	filters := make([]Filter, 0, len(exprs))
	for _, expr := range exprs {
		parts := filterRegex.FindStringSubmatch(expr)
		if parts == nil {
			log.Error("invalid filter: " + expr)
			continue
		}

		op, negate := strings.CutPrefix(parts[2], "!")
		filters = append(filters, Filter{
			Key:     parts[1],
			Negate:  negate,
			Operand: op,
			Target:  parts[3],
		})
	}

	return filters
}

// FilterDataset returns one row per project in candidates that passes every
// filter in spec. Rows are keyed by OutputKey and hold untransformed values;
// transforms happen at output time.
func FilterDataset(candidates gjson.Result, al attrs.AttrList, spec string) []map[string]interface{} {
	filters := resolveKeys(BuildFilters(spec), al)

	var rows []map[string]interface{}
	candidates.ForEach(func(_, candidate gjson.Result) bool {
		if !matchAll(candidate, filters) {
			return true
		}
		row := make(map[string]interface{}, len(al))
		for _, attr := range al {
			row[attr.OutputKey] = candidate.Get(attr.Key).Value()
		}
		rows = append(rows, row)
		return true
	})

	return rows
}

// resolveKeys rewrites each filter's key from an output key (what the user
// sees as a column title) to the gjson path behind it. Filters naming an
// unknown column are reported and dropped.
func resolveKeys(filters []Filter, al attrs.AttrList) []Filter {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		i := slices.IndexFunc(al, func(a attrs.Attr) bool { return a.OutputKey == f.Key })
		if i < 0 {
			msg := fmt.Sprintf("filter key not found: %s", f.Key)
			log.Error(msg)
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
			continue
		}
		f.Key = al[i].Key
		out = append(out, f)
	}
	return out
}

// matchAll reports whether candidate passes every filter. Keys must already
// be gjson paths.
func matchAll(candidate gjson.Result, filters []Filter) bool {
	for _, f := range filters {
		if !match(candidate.Get(f.Key), f) {
			return false
		}
	}
	return true
}

// match tests one value. A missing or null value compares as the empty
// string, so img= selects projects without an image and img!= those with one.
func match(value gjson.Result, f Filter) bool {
	switch value.Type {
	case gjson.Null:
		return checkStringOperand("", f)
	case gjson.Number:
		return checkNumericOperand(value.Num, f)
	case gjson.True, gjson.False:
		return checkStringOperand(value.String(), f)
	case gjson.JSON:
		if f.Operand != "@" {
			log.Errorf("operand %s cannot be applied to %s", f.Operand, f.Key)
			return false
		}
		return checkContainsOperand(value, f)
	}
	return checkStringOperand(value.Str, f)
}

// checkContainsOperand tests membership: an array element equal to the
// target, or an object key named by it.
func checkContainsOperand(value gjson.Result, f Filter) bool {
	found := false
	switch {
	case value.IsArray():
		for _, item := range value.Array() {
			if item.String() == f.Target {
				found = true
				break
			}
		}
	case value.IsObject():
		_, found = value.Map()[f.Target]
	default:
		log.Errorf("unsupported type for contains filtering: %s", value.Type)
		return false
	}
	return found != f.Negate
}

// checkNumericOperand supports =, > and < (and their negations).
func checkNumericOperand(value float64, f Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(f.Target), 64)
	if err != nil {
		log.Error("invalid numeric target: " + f.Target)
		return false
	}

	var ok bool
	switch f.Operand {
	case "=":
		ok = value == tgt
	case ">":
		ok = value > tgt
	case "<":
		ok = value < tgt
	default:
		log.Error("unsupported numeric operand: " + f.Operand)
		return false
	}
	return ok != f.Negate
}

func checkStringOperand(value string, f Filter) bool {
	var ok bool
	switch f.Operand {
	case "=":
		ok = value == f.Target
	case "~":
		ok = strings.EqualFold(value, f.Target)
	case "^":
		ok = strings.HasPrefix(value, f.Target)
	case ">":
		ok = value > f.Target
	case "<":
		ok = value < f.Target
	case "@":
		ok = strings.Contains(value, f.Target)
	case "/":
		re, err := regexp.Compile(f.Target)
		if err != nil {
			log.Error("invalid regex: " + f.Target)
			return false
		}
		ok = re.MatchString(value)
	default:
		log.Error("unsupported filtering operand: " + f.Operand)
		return false
	}
	return ok != f.Negate
}
