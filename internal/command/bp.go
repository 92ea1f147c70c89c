// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/tidwall/jsonc"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/meta"
	"github.com/staranto/foundryctl/internal/policy"
)

var ErrPolicyNotSet = errors.New("policy is not set; use --policy")

var stdin io.Reader = os.Stdin

// BpCommandAction is the action handler for the "bp" subcommand. It applies a
// body policy to a JSON request body and prints the result, or the change with
// --diff.
func BpCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, "bp") {
		return nil
	}

	path := cmd.String("policy")
	if path == "" {
		return ErrPolicyNotSet
	}
	p, err := policy.Load(path)
	if err != nil {
		return err
	}
	log.Debugf("policy %q: %d rules", p.Name, len(p.Rules))

	body, err := readBody(cmd.Args().First())
	if err != nil {
		return err
	}

	out, err := p.Apply(body)
	var rej *policy.Rejection
	if errors.As(err, &rej) {
		log.Infof("rule on %s rejected the body", rej.Field)
		return rej
	}
	if err != nil {
		return err
	}

	if !cmd.Bool("diff") {
		_, err = stdout.Write(out)
		return err
	}

	d, err := policy.Diff(body, out, cmd.Bool("color"))
	if err != nil {
		return err
	}
	if d == "" {
		log.Info("policy made no changes")
		return nil
	}
	_, err = fmt.Fprint(stdout, d)
	return err
}

// readBody reads name, or stdin for "" and "-". Comments are stripped.
func readBody(name string) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if name == "" || name == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return jsonc.ToJSON(b), nil
}

// BpCommandBuilder constructs the cli.Command definition for the "bp"
// command.
func BpCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "bp",
		Usage:     "body policy simulation",
		UsageText: `foundryctl bp --policy rules.yaml [body.json|-] [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("bp", meta.Config.Source, &cli.StringFlag{
				Name:    "policy",
				Aliases: []string{"p"},
				Usage:   "body policy rules file",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			}),
			&cli.BoolFlag{
				Name:        "diff",
				Aliases:     []string{"d"},
				Usage:       "print the change instead of the body",
				HideDefault: true,
			},
			&cli.BoolWithInverseFlag{
				Name:    "color",
				Aliases: []string{"c"},
				Usage:   "enable colored diff output",
				Value:   false,
			},
			tldrFlag,
		},
		Action: BpCommandAction,
	}
}
