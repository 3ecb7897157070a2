// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/locspoof/internal/country"
)

// filterRegex is the pattern used to parse filter expressions into key, operator, and target components.
// It matches: key + operator + target, where operator can be negated with !
// Operators are one of = ^ ~ < > @ or /, optionally prefixed with '!'.
// This allows forms like '=', '!=', '^', '!^', etc.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Keys are the country fields a filter can address.
var Keys = []string{"name", "code", "flag", "map"}

// Warnings receives user facing notices about filters that were ignored.
var Warnings io.Writer = os.Stderr

// Filter represents a single parsed --filter expression including the key,
// operand, optional negation and target value.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Invalid specs (unsupported operand or malformed expression) are skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if strings.TrimSpace(spec) == "" {
		return filters
	}

	// Default delimiter is ",", allow an override.
	delim := ","
	if d, ok := os.LookupEnv("LOCSPOOF_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(strings.TrimSpace(filterSpec))
		if parts == nil || parts[1] == "" {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		// parts[2] is the operand. It may have a leading negation.
		negate := strings.HasPrefix(parts[2], "!")
		if negate {
			parts[2] = strings.TrimPrefix(parts[2], "!")
		}

		filters = append(filters, Filter{
			Key:     strings.ToLower(parts[1]),
			Negate:  negate,
			Operand: parts[2],
			Target:  parts[3],
		})
	}

	return filters
}

// FilterCountries returns the countries that satisfy every filter in spec,
// preserving order.
func FilterCountries(countries []country.Country, spec string) []country.Country {
	filters := BuildFilters(spec)
	if len(filters) == 0 {
		return countries
	}

	filtered := make([]country.Country, 0, len(countries))
	for _, c := range countries {
		if applyFilters(c, filters) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Value returns the field of c addressed by key.
func Value(c country.Country, key string) (string, bool) {
	switch strings.ToLower(key) {
	case "name":
		return c.Name, true
	case "code":
		return c.Code, true
	case "flag":
		return c.FlagImage, true
	case "map":
		return c.MapURL(), true
	default:
		return "", false
	}
}

// applyFilters returns true if the candidate matches all of the provided
// filters. Filters on unknown keys are reported and skipped.
func applyFilters(candidate country.Country, filters []Filter) bool {
	for _, filter := range filters {
		value, ok := Value(candidate, filter.Key)
		if !ok {
			msg := fmt.Sprintf("filter key not found: %s", filter.Key)
			log.Error(msg)
			fmt.Fprintf(Warnings, "warning: %s\n", msg)
			continue
		}

		if !checkStringOperand(value, filter) {
			return false
		}
	}

	return true
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(strings.ToLower(value), strings.ToLower(filter.Target)) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
