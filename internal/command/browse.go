// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/meta"
	"github.com/staranto/locspoof/internal/tui"
)

var ErrNotTerminal = errors.New("browse needs an interactive terminal")

var browseExamples = [][2]string{
	{"locspoof browse", "type to search, enter for detail, m to open the map"},
	{"LOCSPOOF_CACHE=0 locspoof browse", "browse without the country cache"},
}

// runBrowser starts the interactive browser. Tests replace it.
var runBrowser = tui.Run

// BrowseCommandAction is the action handler for the "browse" subcommand.
func BrowseCommandAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s", cmd.FullName())

	if ShortCircuitTLDR(ctx, cmd, "browse", browseExamples) {
		return nil
	}

	config.Config.Namespace = "browse"

	if !isTerminal(writer(cmd)) && !cmd.Bool("force") {
		return ErrNotTerminal
	}

	svc := newServices(cmd)
	defer svc.close()

	return runBrowser(ctx, svc.vm, newOpener())
}

// BrowseCommandBuilder constructs the cli.Command for "browse".
func BrowseCommandBuilder(_ *cli.Command, m meta.Meta) *cli.Command {
	return (&CountryCommandBuilder{
		Name:      "browse",
		Usage:     "browse countries interactively",
		UsageText: `locspoof browse [options]`,
		Flags: []cli.Flag{
			NewEndpointFlag(m.Settings.Endpoint, "browse", m.Config.Source),
			&cli.BoolFlag{
				Name:   "force",
				Usage:  "start even when stdout is not a terminal",
				Hidden: true,
			},
		},
		Action: BrowseCommandAction,
		Meta:   m,
	}).Build()
}
