// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/locspoof/internal/config"
	"github.com/staranto/locspoof/internal/meta"
	"github.com/staranto/locspoof/internal/output"
)

var listExamples = [][2]string{
	{"locspoof list", "all countries, by name"},
	{"locspoof list mal", "countries whose name contains 'mal'"},
	{"locspoof list -f 'code^S' -s -name", "codes starting with S, reverse name order"},
	{"locspoof list -o json", "the list as JSON"},
	{"locspoof list -o raw", "the cached API document"},
	{"locspoof list @asia", "arguments stored under list.asia in locspoof.yaml"},
}

// ListCommandAction is the action handler for the "list" subcommand. It
// refreshes the country list, narrows it by the optional query and emits it
// per the output flags.
func ListCommandAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s", cmd.FullName())

	if ShortCircuitTLDR(ctx, cmd, "list", listExamples) {
		return nil
	}

	config.Config.Namespace = "list"

	svc := newServices(cmd)
	defer svc.close()

	if err := svc.vm.Refresh(ctx); err != nil {
		return err
	}

	countries := svc.vm.Countries()
	if q := joinArgs(cmd); q != "" {
		countries = svc.vm.SearchNow(q)
	}
	log.Debugf("listing %d countries", len(countries))

	return output.Spit(countries, svc.raw(), outputOptions(cmd), writer(cmd))
}

// ListCommandBuilder constructs the cli.Command for "list".
func ListCommandBuilder(_ *cli.Command, m meta.Meta) *cli.Command {
	return (&CountryCommandBuilder{
		Name:      "list",
		Usage:     "list countries, optionally narrowed by a search query",
		UsageText: `locspoof list [query...] [options]`,
		Flags: []cli.Flag{
			NewEndpointFlag(m.Settings.Endpoint, "list", m.Config.Source),
		},
		Global: true,
		Action: ListCommandAction,
		Meta:   m,
	}).Build()
}
