// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package country

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// UnknownName is used when the upstream document has no common name.
const UnknownName = "Unknown"

// MapSearchURL is the Google Maps search endpoint used by MapURL.
const MapSearchURL = "https://www.google.com/maps/search/?api=1&query="

// ErrMalformed is returned when a country document is not a JSON array.
var ErrMalformed = errors.New("malformed country document")

// Entry is the raw triple extracted from one element of the country document.
type Entry struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	ImageURL string `json:"image_url"`
}

// Country is a single country as presented to the user. FlagImage is either a
// local file path or a placeholder reference.
type Country struct {
	Name      string `json:"name" yaml:"name"`
	Code      string `json:"code" yaml:"code"`
	FlagImage string `json:"flag" yaml:"flag"`
}

// MapURL returns the external map search URL for the country.
func (c Country) MapURL() string {
	return MapURL(c.Name)
}

// MapURL returns the map search URL for a free-text place name. The name is
// percent-encoded as a single query value, spaces as %20.
func MapURL(name string) string {
	return MapSearchURL + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// ValidCode reports whether code is a two letter ISO 3166-1 alpha-2 code.
// Surrounding space is ignored.
func ValidCode(code string) bool {
	c := strings.TrimSpace(code)
	if len(c) != 2 { //nolint:mnd
		return false
	}
	for i := 0; i < len(c); i++ {
		b := c[i] | 0x20
		if b < 'a' || b > 'z' {
			return false
		}
	}
	return true
}

// Parse extracts name.common, cca2 and flags.png from each element of a
// country document. Elements without a valid code or an image URL are
// dropped.
func Parse(doc []byte) ([]Entry, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("invalid JSON: %w", ErrMalformed)
	}
	root := gjson.ParseBytes(doc)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected array, found %s: %w", root.Type, ErrMalformed)
	}

	//nolint:prealloc // Dropped elements make the final size unknown.
	var entries []Entry
	for _, obj := range root.Array() {
		name := obj.Get("name.common")
		code := strings.TrimSpace(obj.Get("cca2").String())
		imageURL := strings.TrimSpace(obj.Get("flags.png").String())

		if !ValidCode(code) || imageURL == "" {
			continue
		}

		e := Entry{Name: UnknownName, Code: code, ImageURL: imageURL}
		if name.Exists() && name.Type == gjson.String {
			e.Name = name.String()
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// SortByName orders countries by name, case-insensitively, with the code as a
// tie breaker so the order is deterministic.
func SortByName(countries []Country) {
	sort.SliceStable(countries, func(i, j int) bool {
		a, b := strings.ToLower(countries[i].Name), strings.ToLower(countries[j].Name)
		if a == b {
			return countries[i].Code < countries[j].Code
		}
		return a < b
	})
}

// MatchName reports whether the country name contains query, ignoring case.
// A blank query matches everything.
func MatchName(c Country, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(q))
}

// Find returns the first country whose code matches key (case-insensitive),
// falling back to an exact case-insensitive name match.
func Find(countries []Country, key string) (Country, bool) {
	k := strings.TrimSpace(key)
	if k == "" {
		return Country{}, false
	}
	for _, c := range countries {
		if strings.EqualFold(c.Code, k) {
			return c, true
		}
	}
	for _, c := range countries {
		if strings.EqualFold(c.Name, k) {
			return c, true
		}
	}
	return Country{}, false
}
