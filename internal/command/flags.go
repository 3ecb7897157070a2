// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

// newTLDRFlag returns the --tldr flag. Flags hold parse state, so every
// command gets its own.
func newTLDRFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page, or examples when tldr is not installed",
		HideDefault: true,
	}
}

// NewGlobalFlags returns the output flags shared by commands that print
// countries. ns is the command's config namespace and path the config file.
func NewGlobalFlags(ns string, path string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of columns, key[:title[:transform]]",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"attrs", altsrc.StringSourcer(path)),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, AttrsValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(path)),
				yaml.YAML("color", altsrc.StringSourcer(path)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(path)),
				yaml.YAML("output", altsrc.StringSourcer(path)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"sort", altsrc.StringSourcer(path)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(path)),
				yaml.YAML("titles", altsrc.StringSourcer(path)),
			),
			Value: false,
		},
	}

	return
}

// NewEndpointFlag constructs the "endpoint" flag that overrides the country
// API endpoint, optionally namespaced to a command and config file.
func NewEndpointFlag(def string, params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "endpoint",
		Usage: "country API endpoint",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("LOCSPOOF_ENDPOINT"),
		),
		Value: def,
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator, URLValidator)
		},
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas checks if the given binary is on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
