// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/locspoof/internal/cacheutil"
	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/differ"
	"github.com/staranto/locspoof/internal/flagcache"
	"github.com/staranto/locspoof/internal/meta"
	"github.com/staranto/locspoof/internal/output"
)

var cacheExamples = [][2]string{
	{"locspoof cache info", "where the cache lives and how fresh it is"},
	{"locspoof cache refresh --diff", "refetch and show what changed"},
	{"locspoof cache purge --hours 48", "remove cache files older than two days"},
	{"locspoof cache clear", "remove the country cache and every flag image"},
}

// flagPattern matches the flag images written by the flag cache.
var flagPattern = flagcache.FileName("*")

// now is the clock used by the cache subcommands.
var now = time.Now

// CacheInfo describes the state of the on-disk caches.
type CacheInfo struct {
	File      string    `json:"file" yaml:"file"`
	Exists    bool      `json:"exists" yaml:"exists"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	Modified  time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	Size      int64     `json:"size" yaml:"size"`
	Fresh     bool      `json:"fresh" yaml:"fresh"`
	TTL       string    `json:"ttl" yaml:"ttl"`
	Flags     string    `json:"flags" yaml:"flags"`
	FlagCount int       `json:"flag_count" yaml:"flag_count"`
	FlagSize  int64     `json:"flag_size" yaml:"flag_size"`
}

// NewCacheInfo inspects the cache file and flag folder named by s.
func NewCacheInfo(s config.Settings, at time.Time) (CacheInfo, error) {
	info := CacheInfo{
		File:    s.CacheFilePath,
		Enabled: cacheutil.Enabled(),
		TTL:     s.CacheTTL.String(),
		Flags:   s.ImageFolderPath,
	}

	if fi, err := os.Stat(s.CacheFilePath); err == nil {
		info.Exists = true
		info.Modified = fi.ModTime()
		info.Size = fi.Size()
		_, info.Fresh = cacheutil.Fresh(s.CacheFilePath, s.CacheTTL, at)
	}

	count, size, err := cacheutil.Usage(s.ImageFolderPath, flagPattern)
	if err != nil {
		return info, err
	}
	info.FlagCount = count
	info.FlagSize = size

	return info, nil
}

// pairs renders info for text output.
func (ci CacheInfo) pairs() [][2]string {
	modified := "-"
	if ci.Exists {
		modified = humanize.Time(ci.Modified)
	}
	return [][2]string{
		{"file", ci.File},
		{"enabled", strconv.FormatBool(ci.Enabled)},
		{"exists", strconv.FormatBool(ci.Exists)},
		{"modified", modified},
		{"size", humanize.Bytes(uint64(ci.Size))}, //nolint:gosec
		{"fresh", strconv.FormatBool(ci.Fresh)},
		{"ttl", ci.TTL},
		{"flags", ci.Flags},
		{"flag count", humanize.Comma(int64(ci.FlagCount))},
		{"flag size", humanize.Bytes(uint64(ci.FlagSize))}, //nolint:gosec
	}
}

// CacheInfoAction reports the cache location, age and usage.
func CacheInfoAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s", cmd.FullName())

	if ShortCircuitTLDR(ctx, cmd, "cache", cacheExamples) {
		return nil
	}

	info, err := NewCacheInfo(GetMeta(cmd).Settings, now())
	if err != nil {
		return err
	}
	return output.Emit(info, info.pairs(), outputOptions(cmd), writer(cmd))
}

// CacheRefreshAction refetches the country list regardless of freshness and
// downloads any missing flags. With --diff the change against the replaced
// cache file is printed.
func CacheRefreshAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s", cmd.FullName())

	svc := newServices(cmd)
	defer svc.close()

	res, err := svc.fetcher.Load(ctx, true)
	if err != nil {
		return err
	}

	failed := 0
	if _, err := svc.flags.EnsureFolder(); err != nil {
		log.WithError(err).Warn("flag images unavailable")
	} else {
		for _, r := range svc.flags.EnsureAll(ctx, res.Entries) {
			if r.Err != nil {
				failed++
			}
		}
	}

	w := writer(cmd)
	fmt.Fprintf(w, "fetched %d countries", len(res.Entries))
	if failed > 0 {
		fmt.Fprintf(w, ", %d flag downloads failed", failed)
	}
	fmt.Fprintln(w)

	if !cmd.Bool("diff") {
		return nil
	}
	if res.Previous == nil {
		fmt.Fprintln(w, "no previous cache to compare")
		return nil
	}

	summary, err := differ.Diff(w, res.Previous, res.Raw, outputOptions(cmd).Color)
	if err != nil {
		return err
	}
	if summary.Empty() {
		fmt.Fprintln(w, "no changes")
		return nil
	}
	fmt.Fprintln(w, summary)
	return nil
}

// PurgeCache removes the country cache file and cached flag images older than
// hours. Only locspoof's own files are considered, so a cache file or image
// folder that shares a directory with other data leaves that data alone.
func PurgeCache(s config.Settings, hours int, at time.Time) (int, error) {
	removed, err := cacheutil.PurgeFile(s.CacheFilePath, hours, at)
	if err != nil {
		return removed, err
	}

	seen := map[string]bool{}
	for _, dir := range append([]string{s.ImageFolderPath}, s.FallbackImageFolders...) {
		if dir == "" || seen[filepath.Clean(dir)] {
			continue
		}
		seen[filepath.Clean(dir)] = true

		n, err := cacheutil.Purge(dir, flagPattern, hours, at)
		removed += n
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// CachePurgeAction removes cache files older than --hours.
func CachePurgeAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s", cmd.FullName())

	s := GetMeta(cmd).Settings
	hours := cmd.Int("hours")
	if hours == 0 {
		fmt.Fprintln(writer(cmd), "purge disabled, set --hours or cache.clean")
		return nil
	}

	removed, err := PurgeCache(s, hours, now())
	if err != nil {
		return err
	}

	fmt.Fprintf(writer(cmd), "removed %d files older than %d hours\n", removed, hours)
	return nil
}

// CacheClearAction removes the country cache file and every flag image.
func CacheClearAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s", cmd.FullName())

	svc := newServices(cmd)
	defer svc.close()

	if err := cacheutil.Remove(svc.settings.CacheFilePath); err != nil {
		return err
	}
	removed, err := svc.flags.Clear()
	if err != nil {
		return err
	}

	fmt.Fprintf(writer(cmd), "removed %s and %d flag images\n", svc.settings.CacheFilePath, removed)
	return nil
}

// CacheCommandBuilder constructs the "cache" command and its subcommands.
func CacheCommandBuilder(_ *cli.Command, m meta.Meta) *cli.Command {
	info := (&CountryCommandBuilder{
		Name:      "info",
		Usage:     "show cache location, age and usage",
		UsageText: `locspoof cache info [options]`,
		Flags: []cli.Flag{
			&cli.BoolWithInverseFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "enable colored text output",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output format",
				Value:   "text",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator, OutputValidator)
				},
			},
		},
		Action: CacheInfoAction,
		Meta:   m,
	}).Build()

	refresh := (&CountryCommandBuilder{
		Name:      "refresh",
		Usage:     "refetch the country list and missing flags",
		UsageText: `locspoof cache refresh [--diff] [options]`,
		Flags: []cli.Flag{
			NewEndpointFlag(m.Settings.Endpoint, "cache", m.Config.Source),
			&cli.BoolFlag{
				Name:  "diff",
				Usage: "show what changed against the previous cache",
			},
			&cli.BoolWithInverseFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "enable colored diff output",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("color", altsrc.StringSourcer(m.Config.Source)),
				),
			},
		},
		Action: CacheRefreshAction,
		Meta:   m,
	}).Build()

	purge := (&CountryCommandBuilder{
		Name:      "purge",
		Usage:     "remove cache files older than --hours",
		UsageText: `locspoof cache purge [--hours N]`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "hours",
				Usage: "age in hours beyond which files are removed, 0 disables",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("cache.clean", altsrc.StringSourcer(m.Config.Source)),
				),
				Value: m.Settings.CleanHours,
				Validator: func(value int) error {
					return FlagValidators(value, NonNegativeValidator)
				},
			},
		},
		Action: CachePurgeAction,
		Meta:   m,
	}).Build()

	clr := (&CountryCommandBuilder{
		Name:      "clear",
		Usage:     "remove the country cache and all flag images",
		UsageText: `locspoof cache clear`,
		Action:    CacheClearAction,
		Meta:      m,
	}).Build()

	return &cli.Command{
		Name:      "cache",
		Usage:     "inspect and maintain the local caches",
		UsageText: `locspoof cache <info|refresh|purge|clear> [options]`,
		Metadata: map[string]any{
			"meta": m,
		},
		Flags:    []cli.Flag{newTLDRFlag()},
		Commands: []*cli.Command{info, refresh, purge, clr},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if ShortCircuitTLDR(ctx, cmd, "cache", cacheExamples) {
				return nil
			}
			return cli.ShowSubcommandHelp(cmd)
		},
	}
}
