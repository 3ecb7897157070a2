// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"sort"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/locspoof/internal/country"
	"github.com/staranto/locspoof/internal/filters"
)

type sortKey struct {
	key           string
	descending    bool
	caseSensitive bool
}

// parseSortSpec splits a --sort spec such as "-code,!name" into keys. A
// leading - sorts descending and a leading ! compares case sensitively.
func parseSortSpec(spec string) []sortKey {
	var keys []sortKey
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		var k sortKey
		for len(part) > 0 && (part[0] == '-' || part[0] == '!') {
			if part[0] == '-' {
				k.descending = true
			} else {
				k.caseSensitive = true
			}
			part = part[1:]
		}
		k.key = strings.ToLower(part)

		if _, ok := filters.Value(country.Country{}, k.key); !ok {
			log.Errorf("invalid sort key: %s", part)
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// SortCountries orders countries in place per spec. An empty spec leaves the
// order untouched.
func SortCountries(countries []country.Country, spec string) {
	keys := parseSortSpec(spec)
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(countries, func(i, j int) bool {
		for _, k := range keys {
			a, _ := filters.Value(countries[i], k.key)
			b, _ := filters.Value(countries[j], k.key)
			if !k.caseSensitive {
				a, b = strings.ToLower(a), strings.ToLower(b)
			}
			if a == b {
				continue
			}
			if k.descending {
				return a > b
			}
			return a < b
		}
		return false
	})
}
