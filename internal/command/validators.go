// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/inventory"
)

// GlobalFlagsValidator checks flags shared by several commands once they are
// all parsed.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.Int("days") < 0 {
		return errors.New("--days must not be negative")
	}
	if c.Bool("all") && len(c.StringSlice("agent-id")) > 0 {
		return errors.New("--all and --agent-id are mutually exclusive")
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

func OutputValidator(value any) error {
	var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}
	valid := false
	for _, v := range validOutputFlagValues {
		if v == value {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}

// DateValidator accepts what inventory.ParseCutoff accepts.
func DateValidator(value any) error {
	s := value.(string)
	if s == "" {
		return nil
	}
	_, err := inventory.ParseCutoff(s)
	return err
}
