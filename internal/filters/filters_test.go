// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package filters

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staranto/locspoof/internal/country"
)

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		delimiter string
		want      []Filter
	}{
		{
			name: "empty spec",
			spec: "",
		},
		{
			name: "single exact match filter",
			spec: "code=MY",
			want: []Filter{{Key: "code", Operand: "=", Target: "MY"}},
		},
		{
			name: "prefix match filter",
			spec: "name^Ma",
			want: []Filter{{Key: "name", Operand: "^", Target: "Ma"}},
		},
		{
			name: "negated exact match",
			spec: "code!=SG",
			want: []Filter{{Key: "code", Operand: "=", Target: "SG", Negate: true}},
		},
		{
			name: "key is lowercased",
			spec: "NAME~malta",
			want: []Filter{{Key: "name", Operand: "~", Target: "malta"}},
		},
		{
			name: "multiple filters",
			spec: "name@land, code!^T",
			want: []Filter{
				{Key: "name", Operand: "@", Target: "land"},
				{Key: "code", Operand: "^", Target: "T", Negate: true},
			},
		},
		{
			name: "regex operand",
			spec: "name/^S.*e$",
			want: []Filter{{Key: "name", Operand: "/", Target: "^S.*e$"}},
		},
		{
			name: "invalid filter skipped",
			spec: "code=MY,garbage,name^S",
			want: []Filter{
				{Key: "code", Operand: "=", Target: "MY"},
				{Key: "name", Operand: "^", Target: "S"},
			},
		},
		{
			name: "missing key skipped",
			spec: "=MY",
		},
		{
			name:      "custom delimiter",
			spec:      "name/a,b|code=MY",
			delimiter: "|",
			want: []Filter{
				{Key: "name", Operand: "/", Target: "a,b"},
				{Key: "code", Operand: "=", Target: "MY"},
			},
		},
		{
			name: "empty target",
			spec: "name=",
			want: []Filter{{Key: "name", Operand: "=", Target: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.delimiter != "" {
				t.Setenv("LOCSPOOF_FILTER_DELIM", tt.delimiter)
			}

			got := BuildFilters(tt.spec)
			assert.Len(t, got, len(tt.want))
			for i, filter := range tt.want {
				assert.Equal(t, filter, got[i])
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
		{"exact match true", "MY", Filter{Operand: "=", Target: "MY"}, true},
		{"exact match is case sensitive", "MY", Filter{Operand: "=", Target: "my"}, false},
		{"negated exact match", "MY", Filter{Operand: "=", Target: "SG", Negate: true}, true},
		{"prefix match true", "Malaysia", Filter{Operand: "^", Target: "Mal"}, true},
		{"prefix match false", "Singapore", Filter{Operand: "^", Target: "Mal"}, false},
		{"case insensitive match true", "MALTA", Filter{Operand: "~", Target: "malta"}, true},
		{"case insensitive match false", "Maltese", Filter{Operand: "~", Target: "malta"}, false},
		{"contains ignores case", "New Zealand", Filter{Operand: "@", Target: "ZEAL"}, true},
		{"negated contains", "Chad", Filter{Operand: "@", Target: "land", Negate: true}, true},
		{"regex match true", "Saint Lucia", Filter{Operand: "/", Target: `^Saint\s`}, true},
		{"negated regex match", "Peru", Filter{Operand: "/", Target: `^Saint\s`, Negate: true}, true},
		{"greater than true", "Z", Filter{Operand: ">", Target: "M"}, true},
		{"less than true", "A", Filter{Operand: "<", Target: "M"}, true},
		{"invalid regex", "test", Filter{Operand: "/", Target: "[invalid"}, false},
		{"unsupported operand", "test", Filter{Operand: "?", Target: "test"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkStringOperand(tt.value, tt.filter))
		})
	}
}

func TestFilterCountries(t *testing.T) {
	countries := []country.Country{
		{Name: "Malaysia", Code: "MY", FlagImage: "/f/flag_my.png"},
		{Name: "Malta", Code: "MT", FlagImage: "default_flag.png"},
		{Name: "Singapore", Code: "SG", FlagImage: "/f/flag_sg.png"},
		{Name: "Thailand", Code: "TH", FlagImage: "/f/flag_th.png"},
	}

	codes := func(cs []country.Country) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Code)
		}
		return out
	}

	tests := []struct {
		spec string
		want []string
	}{
		{"", []string{"MY", "MT", "SG", "TH"}},
		{"name^Mal", []string{"MY", "MT"}},
		{"name^Mal,code!=MT", []string{"MY"}},
		{"flag=default_flag.png", []string{"MT"}},
		{"code>S", []string{"SG", "TH"}},
		{"name@zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(FilterCountries(countries, tt.spec)))
		})
	}
}

func TestFilterCountries_UnknownKeyWarns(t *testing.T) {
	var buf bytes.Buffer
	old := Warnings
	Warnings = &buf
	t.Cleanup(func() { Warnings = old })

	countries := []country.Country{{Name: "Chad", Code: "TD"}}
	got := FilterCountries(countries, "capital=N'Djamena")

	assert.Equal(t, countries, got, "unknown keys do not reject rows")
	assert.Contains(t, buf.String(), "filter key not found: capital")
}

func TestValue(t *testing.T) {
	c := country.Country{Name: "Peru", Code: "PE", FlagImage: "p.png"}
	for _, k := range Keys {
		_, ok := Value(c, k)
		assert.True(t, ok, k)
	}
	v, _ := Value(c, "CODE")
	assert.Equal(t, "PE", v)
	v, _ = Value(c, "map")
	assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=Peru", v)
	_, ok := Value(c, "region")
	assert.False(t, ok)
}
