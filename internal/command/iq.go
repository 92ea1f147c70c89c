// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"

	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/meta"
	"github.com/staranto/foundryctl/internal/template"
)

// IqCommandAction is the action handler for the "iq" subcommand. It lists the
// parameters and outputs declared by the templates under a directory.
func IqCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &QueryActionRunner[*template.Param]{
		CommandName:  "iq",
		SchemaType:   reflect.TypeOf(template.Param{}),
		DefaultAttrs: []string{"file", "kind", "name", "type", "default", "required"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*template.Param, error) {
			dir := cmd.Args().First()
			if dir == "" {
				dir = GetMeta(cmd).StartingDir
			}
			if dir == "" {
				dir = "."
			}

			params, err := template.Scan(dir)
			if err != nil {
				return nil, err
			}
			if !cmd.Bool("lint") {
				return params, nil
			}

			var flagged []*template.Param
			for _, p := range params {
				if p.Hungarian {
					flagged = append(flagged, p)
				}
			}
			return flagged, nil
		},
	}
	return runner.Run(ctx, cmd)
}

// IqCommandBuilder constructs the cli.Command definition for the "iq"
// command.
func IqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "iq",
		Usage:     "infrastructure template query",
		UsageText: `foundryctl iq [dir] [@set] [options]`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "lint",
				Usage:       "only names that repeat their type, e.g. string_name",
				HideDefault: true,
			},
		},
		Action: IqCommandAction,
		Meta:   meta,
	}).Build()
}
