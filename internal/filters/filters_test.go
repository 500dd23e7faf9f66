// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/staranto/showcase/internal/attrs"
)

const dataset = `[
	{"id":"a1","title":"Harbor Lights","url":"https://harbor.example","img":"https://images.ctfassets.net/x/harbor.png"},
	{"id":"b2","title":"Night Market","url":"https://market.example"},
	{"id":"c3","title":"harbor tours","url":"http://tours.example","img":"https://images.ctfassets.net/x/tours.jpg"}
]`

func projectAttrs() attrs.AttrList {
	var al attrs.AttrList
	_ = al.Set("id,title,url,img")
	return al
}

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		delimiter string
		want      []Filter
	}{
		{name: "empty spec", spec: ""},
		{
			name: "exact",
			spec: "title=Night Market",
			want: []Filter{{Key: "title", Operand: "=", Target: "Night Market"}},
		},
		{
			name: "negated prefix",
			spec: "url!^https://",
			want: []Filter{{Key: "url", Operand: "^", Target: "https://", Negate: true}},
		},
		{
			name: "multiple",
			spec: "title@harbor,img/\\.png$",
			want: []Filter{
				{Key: "title", Operand: "@", Target: "harbor"},
				{Key: "img", Operand: "/", Target: "\\.png$"},
			},
		},
		{
			name: "invalid entries are skipped",
			spec: "title=x,garbage,id>a",
			want: []Filter{
				{Key: "title", Operand: "=", Target: "x"},
				{Key: "id", Operand: ">", Target: "a"},
			},
		},
		{
			name:      "custom delimiter",
			spec:      "url@example,com|id=a1",
			delimiter: "|",
			want: []Filter{
				{Key: "url", Operand: "@", Target: "example,com"},
				{Key: "id", Operand: "=", Target: "a1"},
			},
		},
		{
			name: "empty target",
			spec: "img=",
			want: []Filter{{Key: "img", Operand: "=", Target: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delimiter != "" {
				t.Setenv("SHOWCASE_FILTER_DELIM", tt.delimiter)
			}
			got := BuildFilters(tt.spec)
			assert.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i], got[i])
			}
		})
	}
}

func TestCheckStringOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		filter Filter
		want   bool
	}{
		{"equal", "Harbor Lights", Filter{Operand: "=", Target: "Harbor Lights"}, true},
		{"not equal", "Harbor Lights", Filter{Operand: "=", Target: "Harbor Lights", Negate: true}, false},
		{"case fold", "harbor lights", Filter{Operand: "~", Target: "HARBOR LIGHTS"}, true},
		{"prefix", "https://a", Filter{Operand: "^", Target: "https://"}, true},
		{"prefix miss", "http://a", Filter{Operand: "^", Target: "https://"}, false},
		{"greater", "b", Filter{Operand: ">", Target: "a"}, true},
		{"less", "b", Filter{Operand: "<", Target: "a"}, false},
		{"contains", "Night Market", Filter{Operand: "@", Target: "Market"}, true},
		{"not contains", "Night Market", Filter{Operand: "@", Target: "Market", Negate: true}, false},
		{"regex", "harbor.png", Filter{Operand: "/", Target: `\.png$`}, true},
		{"bad regex", "x", Filter{Operand: "/", Target: "("}, false},
		{"unknown operand", "x", Filter{Operand: "?", Target: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkStringOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckNumericOperand(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		filter Filter
		want   bool
	}{
		{"equal", 3, Filter{Operand: "=", Target: "3"}, true},
		{"not equal", 3, Filter{Operand: "=", Target: "3", Negate: true}, false},
		{"greater", 3, Filter{Operand: ">", Target: "2.5"}, true},
		{"less", 3, Filter{Operand: "<", Target: " 2 "}, false},
		{"bad target", 3, Filter{Operand: "=", Target: "three"}, false},
		{"unsupported", 3, Filter{Operand: "^", Target: "3"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkNumericOperand(tt.value, tt.filter))
		})
	}
}

func TestCheckContainsOperand(t *testing.T) {
	list := gjson.Parse(`["a","b"]`)
	obj := gjson.Parse(`{"k":1}`)

	assert.True(t, checkContainsOperand(list, Filter{Operand: "@", Target: "b"}))
	assert.False(t, checkContainsOperand(list, Filter{Operand: "@", Target: "c"}))
	assert.True(t, checkContainsOperand(list, Filter{Operand: "@", Target: "c", Negate: true}))
	assert.True(t, checkContainsOperand(obj, Filter{Operand: "@", Target: "k"}))
	assert.False(t, checkContainsOperand(obj, Filter{Operand: "@", Target: "k", Negate: true}))
	assert.False(t, checkContainsOperand(gjson.Parse(`42`), Filter{Operand: "@", Target: "k"}))
}

func TestFilter_String(t *testing.T) {
	for _, spec := range []string{"title=Night Market", "url!^https://", "img="} {
		got := BuildFilters(spec)
		if assert.Len(t, got, 1) {
			assert.Equal(t, spec, got[0].String())
		}
	}
}

func TestMatchAll(t *testing.T) {
	candidate := gjson.Parse(dataset).Array()[1]

	tests := []struct {
		name    string
		filters []Filter
		want    bool
	}{
		{name: "no filters", want: true},
		{name: "match", filters: []Filter{{Key: "title", Operand: "^", Target: "Night"}}, want: true},
		{name: "miss", filters: []Filter{{Key: "title", Operand: "^", Target: "Day"}}, want: false},
		{name: "all must match", filters: []Filter{
			{Key: "title", Operand: "^", Target: "Night"},
			{Key: "id", Operand: "=", Target: "zz"},
		}, want: false},
		{name: "missing value is empty", filters: []Filter{{Key: "img", Operand: "="}}, want: true},
		{name: "missing value has no image", filters: []Filter{{Key: "img", Operand: "=", Negate: true}}, want: false},
		{name: "missing value contains nothing", filters: []Filter{{Key: "img", Operand: "@", Target: "png"}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchAll(candidate, tt.filters))
		})
	}
}

func TestMatch_NonStringValues(t *testing.T) {
	row := gjson.Parse(`{"n":3,"ok":true,"tags":["a","b"]}`)

	assert.True(t, match(row.Get("n"), Filter{Operand: ">", Target: "2"}))
	assert.True(t, match(row.Get("ok"), Filter{Operand: "=", Target: "true"}))
	assert.True(t, match(row.Get("tags"), Filter{Operand: "@", Target: "a"}))
	assert.False(t, match(row.Get("tags"), Filter{Operand: "=", Target: "a"}))
}

func TestResolveKeys(t *testing.T) {
	al := projectAttrs()
	_ = al.Set("title:Name")

	got := resolveKeys([]Filter{
		{Key: "Name", Operand: "=", Target: "x"},
		{Key: "owner", Operand: "=", Target: "x"},
	}, al)

	assert.Equal(t, []Filter{{Key: "title", Operand: "=", Target: "x"}}, got)
}

func TestFilterDataset(t *testing.T) {
	al := projectAttrs()
	_ = al.Set("title:Name")

	tests := []struct {
		name    string
		spec    string
		wantIDs []string
	}{
		{name: "no filter", spec: "", wantIDs: []string{"a1", "b2", "c3"}},
		{name: "case-insensitive contains via regex", spec: "Name/(?i)harbor", wantIDs: []string{"a1", "c3"}},
		{name: "has image", spec: "img^https://", wantIDs: []string{"a1", "c3"}},
		{name: "insecure url", spec: "url!^https://", wantIDs: []string{"c3"}},
		{name: "combined", spec: "Name/(?i)harbor,img/\\.png$", wantIDs: []string{"a1"}},
		{name: "without image", spec: "img=", wantIDs: []string{"b2"}},
		{name: "unknown key is ignored", spec: "owner=x", wantIDs: []string{"a1", "b2", "c3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterDataset(gjson.Parse(dataset), al, tt.spec)
			ids := make([]string, 0, len(got))
			for _, row := range got {
				ids = append(ids, row["id"].(string))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	rows := FilterDataset(gjson.Parse(dataset), al, "id=b2")
	assert.Equal(t, "Night Market", rows[0]["Name"])
	assert.Nil(t, rows[0]["img"])
}
