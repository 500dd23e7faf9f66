// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
)

// Attr represents each of the keys to be included in the output. Keys are
// gjson paths into the JSON form of a project (id, title, url, img).
type Attr struct {
	// The JSON key to extract from the result JSON object.
	Key string
	// Should this Attr be included in output or is it just
	// intended for filtering and sorting?
	Include bool
	// The key to use in the output. This is also the column title when
	// output=text.
	OutputKey string
	// Transformation spec to apply to the output value.
	TransformSpec string
}

// lengthRe finds the length directives in a transform spec.
var lengthRe = regexp.MustCompile(`-?\d+`)

// Transform applies the attr's TransformSpec to value. Only strings are
// transformed. The steps run in a fixed order: url (h host, b base name),
// time zone (t), case (l/u) and finally length.
func (a *Attr) Transform(value interface{}) interface{} {
	result, ok := value.(string)
	if !ok {
		return value
	}
	if a.TransformSpec == "" {
		return result
	}

	result = transformURL(a.TransformSpec, result)

	if strings.ContainsAny(a.TransformSpec, "tT") {
		var parsed bool
		result, parsed = transformTime(result)
		if !parsed {
			// Don't keep retrying a value that isn't a timestamp.
			a.TransformSpec = strings.NewReplacer("t", "", "T", "").Replace(a.TransformSpec)
		}
	}

	result = transformCase(a.TransformSpec, result)
	return transformLength(a.TransformSpec, result)
}

// transformURL reduces an asset or project URL to its host (h) or to the
// last path element (b). Values that are not absolute URLs pass through.
func transformURL(spec, value string) string {
	lastH := strings.LastIndexAny(spec, "hH")
	lastB := strings.LastIndexAny(spec, "bB")
	if lastH < 0 && lastB < 0 {
		return value
	}

	// Contentful asset URLs are protocol relative.
	raw := value
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return value
	}

	if lastH > lastB {
		return u.Host
	}
	if base := path.Base(u.Path); base != "/" && base != "." {
		return base
	}
	return u.Host
}

// transformTime converts an RFC3339 value to SHOWCASE_TIMEZONE (or TZ). With
// neither set the value is returned untouched. The bool is false only when a
// zone is configured and value isn't a timestamp.
func transformTime(value string) (string, bool) {
	tz := os.Getenv("SHOWCASE_TIMEZONE")
	if tz == "" {
		tz = os.Getenv("TZ")
	}
	if tz == "" {
		return value, true
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.WithError(err).Debugf("unknown time zone %q", tz)
		return value, true
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Error("failed to parse time: " + value)
		return value, false
	}
	return t.In(loc).Format("2006-01-02T15:04:05MST"), true
}

// transformCase honors whichever of l/u appears last, so an attr's own spec
// wins over a global one prepended to it (--attrs '*::U,title::l' is lower).
func transformCase(spec, value string) string {
	lastL := strings.LastIndexAny(spec, "lL")
	lastU := strings.LastIndexAny(spec, "uU")

	switch {
	case lastL > lastU:
		return strings.ToLower(value)
	case lastU > lastL:
		return strings.ToUpper(value)
	}
	return value
}

// transformLength truncates to the last length in spec. A negative length
// keeps both ends and joins them with "..".
func transformLength(spec, value string) string {
	match := lengthRe.FindAllString(spec, -1)
	if len(match) == 0 {
		return value
	}

	l, _ := strconv.Atoi(match[len(match)-1])
	abs := int(math.Abs(float64(l)))
	if len(value) <= abs {
		return value
	}
	if l >= 0 {
		return value[:l]
	}

	keep := max(abs/2-1, 0)
	return value[:keep] + ".." + value[len(value)-keep:]
}

// AttrList is the value of the --attrs flag: a command's default attrs with
// the user's specs applied on top.
type AttrList []Attr

// String renders the list in --attrs form (key:output:transform,...).
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// parseAttr parses one key[:output[:transform]] spec. A leading ! keeps the
// attr for filtering and sorting but hides it from output, and a leading .
// is accepted and dropped since projects are flat. Without an output field
// the output key is the last dotted segment of the key.
func parseAttr(spec string) Attr {
	fields := strings.SplitN(spec, ":", 3)

	key := strings.TrimSpace(fields[0])
	key, hidden := strings.CutPrefix(key, "!")
	key = strings.TrimPrefix(key, ".")

	attr := Attr{
		Key:     key,
		Include: !hidden && key != "*",
	}

	switch {
	case len(fields) == 1:
		attr.OutputKey = key[strings.LastIndex(key, ".")+1:]
	case strings.TrimSpace(fields[1]) != "":
		attr.OutputKey = strings.TrimSpace(fields[1])
	default:
		attr.OutputKey = key
	}

	if len(fields) == 3 {
		attr.TransformSpec = strings.TrimSpace(fields[2])
	}
	return attr
}

// Set applies a comma separated list of attr specs. A spec naming an attr
// already in the list (by key or output key) updates it in place, so the
// user can restyle, rename or hide a command's default attrs.
func (a *AttrList) Set(value string) error {
	if value == "" || value == "*" {
		return nil
	}

	for _, spec := range strings.Split(value, ",") {
		attr := parseAttr(spec)

		i := slices.IndexFunc(*a, func(existing Attr) bool {
			return existing.Key == attr.Key || existing.OutputKey == attr.Key
		})
		if i < 0 {
			*a = append(*a, attr)
			continue
		}

		(*a)[i].Include = attr.Include
		(*a)[i].OutputKey = attr.OutputKey
		(*a)[i].TransformSpec = attr.TransformSpec
	}

	return nil
}

// SetGlobalTransformSpec prepends the transform of the first "*" attr to every
// attr in the list. Per-attr directives come later in the spec and so win.
func (a *AttrList) SetGlobalTransformSpec() error {
	i := slices.IndexFunc(*a, func(attr Attr) bool { return attr.Key == "*" })
	if i < 0 || (*a)[i].TransformSpec == "" {
		return nil
	}

	global := (*a)[i].TransformSpec
	for j := range *a {
		(*a)[j].TransformSpec = global + "," + (*a)[j].TransformSpec
	}
	return nil
}

func (a *AttrList) Type() string {
	return "list"
}
