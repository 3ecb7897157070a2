// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package differ reports what changed between two country documents.
package differ

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/staranto/locspoof/internal/country"
)

// Summary lists country codes by kind of change.
type Summary struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty reports whether nothing changed.
func (s Summary) Empty() bool {
	return len(s.Added) == 0 && len(s.Removed) == 0 && len(s.Changed) == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("%d added, %d removed, %d changed", len(s.Added), len(s.Removed), len(s.Changed))
}

// Index keys the elements of a country document by cca2. A nil or empty
// document yields an empty index.
func Index(doc []byte) (map[string]interface{}, error) {
	index := make(map[string]interface{})
	if len(strings.TrimSpace(string(doc))) == 0 {
		return index, nil
	}

	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("invalid JSON: %w", country.ErrMalformed)
	}
	root := gjson.ParseBytes(doc)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected array, found %s: %w", root.Type, country.ErrMalformed)
	}

	for _, obj := range root.Array() {
		code := strings.TrimSpace(obj.Get("cca2").String())
		if code == "" {
			continue
		}
		if _, dup := index[code]; dup {
			log.Warnf("duplicate country code %s, keeping the first", code)
			continue
		}
		index[code] = obj.Value()
	}
	return index, nil
}

// Summarize compares two indexes.
func Summarize(previous, current map[string]interface{}) Summary {
	var s Summary
	for code, v := range current {
		old, ok := previous[code]
		switch {
		case !ok:
			s.Added = append(s.Added, code)
		case !reflect.DeepEqual(old, v):
			s.Changed = append(s.Changed, code)
		}
	}
	for code := range previous {
		if _, ok := current[code]; !ok {
			s.Removed = append(s.Removed, code)
		}
	}
	sort.Strings(s.Added)
	sort.Strings(s.Removed)
	sort.Strings(s.Changed)
	return s
}

// Diff writes an ASCII delta of current against previous to w and returns
// the summary. Nothing is written when the documents are equivalent.
func Diff(w io.Writer, previous, current []byte, color bool) (Summary, error) {
	left, err := Index(previous)
	if err != nil {
		return Summary{}, fmt.Errorf("previous document: %w", err)
	}
	right, err := Index(current)
	if err != nil {
		return Summary{}, fmt.Errorf("current document: %w", err)
	}

	summary := Summarize(left, right)

	d := gojsondiff.New().CompareObjects(left, right)
	if !d.Modified() {
		log.Debug("no differences")
		return summary, nil
	}

	f := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	text, err := f.Format(d)
	if err != nil {
		return summary, fmt.Errorf("failed to format diff: %w", err)
	}

	if _, err := io.WriteString(w, text); err != nil {
		return summary, err
	}
	return summary, nil
}
