// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	// The arg[1] immediately following the binary (arg[0]) is the locspoof
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg := config.Config
	cfg.Namespace = ns

	settings, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	m := meta.Meta{
		Args:     args,
		Config:   cfg,
		Context:  ctx,
		Settings: settings,
	}

	return NewApp(m), nil
}

// NewApp builds the command tree around m.
func NewApp(m meta.Meta) *cli.Command {
	app := &cli.Command{
		Name:  "locspoof",
		Usage: "Location Spoof country browser",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "locspoof version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		ListCommandBuilder(app, m),
		ShowCommandBuilder(app, m),
		MapCommandBuilder(app, m),
		BrowseCommandBuilder(app, m),
		CacheCommandBuilder(app, m),
		CompletionCommandBuilder(app, m),
	)

	// Make sure flags are sorted for the --help text.
	var sortFlags func(cmds []*cli.Command)
	sortFlags = func(cmds []*cli.Command) {
		for _, cmd := range cmds {
			sort.Slice(cmd.Flags, func(i, j int) bool {
				return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
			})
			sortFlags(cmd.Commands)
		}
	}
	sortFlags(app.Commands)

	return app
}
