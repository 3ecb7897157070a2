// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/country"
	"github.com/staranto/locspoof/internal/fetcher"
	"github.com/staranto/locspoof/internal/flagcache"
	"github.com/staranto/locspoof/internal/meta"
	"github.com/staranto/locspoof/internal/output"
	"github.com/staranto/locspoof/internal/viewmodel"
)

// ShortCircuitTLDR checks the --tldr flag and, if present, runs
// `tldr locspoof <subcmd>` and returns true so the caller can exit early.
// Without tldr installed the command's examples are printed instead.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string, examples [][2]string) bool {
	if !cmd.Bool("tldr") {
		return false
	}

	if pathHas("tldr") {
		c := exec.CommandContext(ctx, "tldr", "locspoof", subcmd)
		c.Stdout = writer(cmd)
		c.Stderr = os.Stderr
		if err := c.Run(); err == nil {
			return true
		}
		log.Debugf("tldr page for %s unavailable, showing examples", subcmd)
	}

	output.DumpExamples(ctx, writer(cmd), examples)
	return true
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// writer returns where command output goes, stdout unless the root command
// was given another writer.
func writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec
}

// outputOptions reads the output flags. Color is dropped when output is not
// going to a terminal.
func outputOptions(cmd *cli.Command) output.Options {
	opts := output.OptionsFromCommand(cmd)
	opts.Color = opts.Color && isTerminal(writer(cmd))
	return opts
}

// joinArgs joins the positional arguments so multi-word names need no quotes.
func joinArgs(cmd *cli.Command) string {
	return strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
}

// ErrNoCountry is returned when a command needs a country argument and got
// none.
var ErrNoCountry = errors.New("a country code or name is required")

// recordingFetcher remembers the last successful load so commands can print
// the raw document or diff it.
type recordingFetcher struct {
	*fetcher.Fetcher
	last *fetcher.Result
}

func (r *recordingFetcher) Fetch(ctx context.Context) ([]country.Entry, error) {
	res, err := r.Load(ctx, false)
	if err != nil {
		return nil, err
	}
	r.last = res
	return res.Entries, nil
}

// services are the components one command invocation works with.
type services struct {
	settings config.Settings
	fetcher  *recordingFetcher
	flags    *flagcache.Cache
	vm       *viewmodel.ViewModel
}

// newServices wires the fetcher, flag cache and view-model from the
// command's settings, honoring an --endpoint override.
func newServices(cmd *cli.Command) *services {
	s := GetMeta(cmd).Settings
	if cmd.IsSet("endpoint") {
		s.Endpoint = cmd.String("endpoint")
	}

	f := &recordingFetcher{Fetcher: fetcher.New(s)}
	flags := flagcache.New(s)
	return &services{
		settings: s,
		fetcher:  f,
		flags:    flags,
		vm:       viewmodel.New(f, flags, s.DebounceDelay),
	}
}

// raw returns the document behind the current list.
func (s *services) raw() []byte {
	if s.fetcher.last == nil {
		return nil
	}
	return s.fetcher.last.Raw
}

func (s *services) close() {
	s.vm.Close()
}

// lookup refreshes the list and finds the country named by the positional
// arguments.
func lookup(ctx context.Context, cmd *cli.Command, svc *services) (country.Country, error) {
	key := joinArgs(cmd)
	if key == "" {
		return country.Country{}, ErrNoCountry
	}
	if err := svc.vm.Refresh(ctx); err != nil {
		return country.Country{}, err
	}
	return svc.vm.Lookup(key)
}

// CountryCommandBuilder is a helper that constructs a cli.Command for the
// country subcommands using a consistent pattern. The builder wires
// metadata, adds the tldr flag and, when Global is set, the output flags.
type CountryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Global    bool
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (ccb *CountryCommandBuilder) Build() *cli.Command {
	flags := append([]cli.Flag{newTLDRFlag()}, ccb.Flags...)
	if ccb.Global {
		flags = append(flags, NewGlobalFlags(ccb.Name, ccb.Meta.Config.Source)...)
	}

	return &cli.Command{
		Name:      ccb.Name,
		Usage:     ccb.Usage,
		UsageText: ccb.UsageText,
		Metadata: map[string]any{
			"meta": ccb.Meta,
		},
		Flags: flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: ccb.Action,
	}
}
