// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v2"

	"github.com/staranto/locspoof/internal/attrs"
	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/country"
	"github.com/staranto/locspoof/internal/filters"
)

// Formats accepted by --output.
var Formats = []string{"text", "json", "yaml", "raw"}

// Options controls how a country list is rendered.
type Options struct {
	Format string
	Filter string
	Sort   string
	Titles bool
	Color  bool
	// Attrs selects and transforms the columns. Empty means the whole
	// country for json and yaml and the default columns for text.
	Attrs attrs.AttrList
}

// OptionsFromCommand reads the output related flags from cmd. Unknown
// --attrs keys are rejected by the flag's validator, so they are only logged
// here.
func OptionsFromCommand(cmd *cli.Command) Options {
	al, err := attrs.Build(cmd.String("attrs"))
	if err != nil {
		log.WithError(err).Warn("ignoring invalid attrs")
	}
	return Options{
		Format: cmd.String("output"),
		Filter: cmd.String("filter"),
		Sort:   cmd.String("sort"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
		Attrs:  al,
	}
}

// DumpExamples renders a table of example command usages.
func DumpExamples(_ context.Context, w io.Writer, examples [][2]string) {
	if len(examples) == 0 {
		return
	}
	if w == nil {
		w = os.Stdout
	}

	var rows [][]string
	for _, ex := range examples {
		rows = append(rows, []string{ex[0], ex[1]})
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		Headers().
		Rows(rows...)

	// Set headers and disable the header border for a cleaner look.
	t = t.Headers("Command", "Description").BorderHeader(false)

	fmt.Fprintln(w, t)
}

// SliceDiceSpit filters, sorts and renders countries according to the
// command's flags.
func SliceDiceSpit(countries []country.Country, raw []byte, cmd *cli.Command, w io.Writer) error {
	return Spit(countries, raw, OptionsFromCommand(cmd), w)
}

// Spit filters, sorts and renders countries. raw is the document the list was
// built from and is only used by the raw format.
func Spit(countries []country.Country, raw []byte, opts Options, w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}

	// If raw, just dump it and go home.
	if opts.Format == "raw" {
		_, err := w.Write(raw)
		return err
	}

	// Work on a copy so callers' slices keep their order.
	rows := append([]country.Country(nil), countries...)
	rows = filters.FilterCountries(rows, opts.Filter)
	SortCountries(rows, opts.Sort)

	var doc any = rows
	if rows == nil {
		doc = []country.Country{}
	}
	if len(opts.Attrs) > 0 {
		doc = project(rows, opts.Attrs.Included())
	}

	switch opts.Format {
	case "json":
		if ms, ok := doc.([]yaml.MapSlice); ok {
			objs, err := jsonObjects(ms)
			if err != nil {
				return err
			}
			doc = objs
		}
		jsonOutput, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(jsonOutput))
		return err
	case "yaml":
		yamlOutput, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(yamlOutput)
		return err
	case "", "text":
		TableWriter(rows, opts, w)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// TableWriter renders the countries in a tabular form honoring color and
// titles options.
func TableWriter(countries []country.Country, opts Options, w io.Writer) {
	if len(countries) == 0 {
		return
	}

	al := opts.Attrs.Included()
	if len(opts.Attrs) == 0 {
		al, _ = attrs.Build("")
	}

	rows := make([][]string, 0, len(countries))
	for _, c := range countries {
		row := make([]string, 0, len(al))
		for _, a := range al {
			row = append(row, dash(cell(c, a)))
		}
		rows = append(rows, row)
	}

	t := newTable(opts.Color).Rows(rows...)

	if opts.Titles {
		headers := make([]string, 0, len(al))
		for _, a := range al {
			headers = append(headers, strings.ToUpper(a.OutputKey))
		}
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// cell returns the transformed value of a for c.
func cell(c country.Country, a attrs.Attr) string {
	v, _ := filters.Value(c, a.Key)
	return a.Transform(v)
}

// jsonObjects renders each row as a JSON object keeping the column order.
func jsonObjects(rows []yaml.MapSlice) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		var b bytes.Buffer
		b.WriteByte('{')
		for i, item := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			k, err := json.Marshal(fmt.Sprint(item.Key))
			if err != nil {
				return nil, fmt.Errorf("failed to marshal json: %w", err)
			}
			v, err := json.Marshal(item.Value)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal json: %w", err)
			}
			b.Write(k)
			b.WriteByte(':')
			b.Write(v)
		}
		b.WriteByte('}')
		out = append(out, b.Bytes())
	}
	return out, nil
}

// project turns countries into ordered key/value rows holding only the
// included attrs.
func project(countries []country.Country, al attrs.AttrList) []yaml.MapSlice {
	out := make([]yaml.MapSlice, 0, len(countries))
	for _, c := range countries {
		row := make(yaml.MapSlice, 0, len(al))
		for _, a := range al {
			row = append(row, yaml.MapItem{Key: a.OutputKey, Value: cell(c, a)})
		}
		out = append(out, row)
	}
	return out
}

func newTable(color bool) *table.Table {
	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 2) //nolint:mnd
	log.Debugf("padding: %v", pad)

	return table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers()
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
