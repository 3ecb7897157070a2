// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/locspoof/internal/attrs"
	"github.com/staranto/locspoof/internal/output"
)

// GlobalFlagsValidator checks flag combinations that no single flag
// validator can see.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.IsSet("titles") && c.IsSet("output") && c.String("output") != "text" {
		return fmt.Errorf("--titles only applies to text output, not %s", c.String("output"))
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func AttrsValidator(value any) error {
	_, err := attrs.Build(value.(string))
	return err
}

func NonNegativeValidator(value any) error {
	if value.(int) < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func OutputValidator(value any) error {
	if !slices.Contains(output.Formats, value.(string)) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

func URLValidator(value any) error {
	u, err := url.Parse(value.(string))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an http or https URL")
	}
	return nil
}
