// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/launcher"
	"github.com/staranto/locspoof/internal/meta"
	"github.com/staranto/locspoof/internal/output"
	"github.com/staranto/locspoof/internal/tui"
)

var showExamples = [][2]string{
	{"locspoof show MY", "details for Malaysia by code"},
	{"locspoof show united kingdom", "details by name, no quoting needed"},
	{"locspoof show fr -o yaml", "details as YAML"},
}

var mapExamples = [][2]string{
	{"locspoof map JP", "open Japan in the default browser"},
	{"locspoof map new zealand --print", "print the map URL only"},
}

// ShowCommandAction is the action handler for the "show" subcommand.
func ShowCommandAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s", cmd.FullName())

	if ShortCircuitTLDR(ctx, cmd, "show", showExamples) {
		return nil
	}

	config.Config.Namespace = "show"

	svc := newServices(cmd)
	defer svc.close()

	c, err := lookup(ctx, cmd, svc)
	if err != nil {
		return err
	}

	return output.DetailWriter(c, outputOptions(cmd), writer(cmd))
}

// ShowCommandBuilder constructs the cli.Command for "show".
func ShowCommandBuilder(_ *cli.Command, m meta.Meta) *cli.Command {
	return (&CountryCommandBuilder{
		Name:      "show",
		Usage:     "show one country by code or name",
		UsageText: `locspoof show <code|name> [options]`,
		Flags: []cli.Flag{
			NewEndpointFlag(m.Settings.Endpoint, "show", m.Config.Source),
		},
		Global: true,
		Action: ShowCommandAction,
		Meta:   m,
	}).Build()
}

// newOpener returns the map opener used by map and browse. Tests replace it.
var newOpener = func() tui.MapOpener {
	return launcher.New()
}

// MapCommandAction is the action handler for the "map" subcommand. It opens
// the country's map search in the platform URL handler, or prints the URL
// with --print.
func MapCommandAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s", cmd.FullName())

	if ShortCircuitTLDR(ctx, cmd, "map", mapExamples) {
		return nil
	}

	config.Config.Namespace = "map"

	svc := newServices(cmd)
	defer svc.close()

	c, err := lookup(ctx, cmd, svc)
	if err != nil {
		return err
	}

	if cmd.Bool("print") {
		_, err = fmt.Fprintln(writer(cmd), c.MapURL())
		return err
	}

	log.WithField("country", c.Code).Debug("opening map")
	return newOpener().OpenMap(ctx, c)
}

// MapCommandBuilder constructs the cli.Command for "map".
func MapCommandBuilder(_ *cli.Command, m meta.Meta) *cli.Command {
	return (&CountryCommandBuilder{
		Name:      "map",
		Usage:     "open a country in the map service",
		UsageText: `locspoof map <code|name> [options]`,
		Flags: []cli.Flag{
			NewEndpointFlag(m.Settings.Endpoint, "map", m.Config.Source),
			&cli.BoolFlag{
				Name:    "print",
				Aliases: []string{"p"},
				Usage:   "print the map URL instead of opening it",
			},
		},
		Action: MapCommandAction,
		Meta:   m,
	}).Build()
}
