// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"

	"github.com/staranto/locspoof/internal/country"
)

// Detail is the expanded view of a single country.
type Detail struct {
	Name     string `json:"name" yaml:"name"`
	Code     string `json:"code" yaml:"code"`
	Flag     string `json:"flag" yaml:"flag"`
	FlagSize string `json:"flag_size,omitempty" yaml:"flag_size,omitempty"`
	MapURL   string `json:"map_url" yaml:"map_url"`
}

// NewDetail builds the detail view for c. FlagSize is only set when the flag
// is a file on disk.
func NewDetail(c country.Country) Detail {
	d := Detail{
		Name:   c.Name,
		Code:   c.Code,
		Flag:   c.FlagImage,
		MapURL: c.MapURL(),
	}
	if fi, err := os.Stat(c.FlagImage); err == nil && fi.Mode().IsRegular() {
		d.FlagSize = humanize.Bytes(uint64(fi.Size())) //nolint:gosec
	}
	return d
}

// DetailWriter renders one country as key/value pairs in the requested format.
func DetailWriter(c country.Country, opts Options, w io.Writer) error {
	d := NewDetail(c)

	pairs := [][2]string{
		{"name", d.Name},
		{"code", d.Code},
		{"flag", dash(d.Flag)},
	}
	if d.FlagSize != "" {
		pairs = append(pairs, [2]string{"flag size", d.FlagSize})
	}
	pairs = append(pairs, [2]string{"map", d.MapURL})

	return Emit(d, pairs, opts, w)
}

// Emit writes v as json or yaml, or pairs as a two column table for text
// output.
func Emit(v any, pairs [][2]string, opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	switch opts.Format {
	case "json":
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "", "text", "raw":
		rows := make([][]string, 0, len(pairs))
		for _, p := range pairs {
			rows = append(rows, []string{p[0], p[1]})
		}
		fmt.Fprintln(w, newTable(opts.Color).Rows(rows...))
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}
