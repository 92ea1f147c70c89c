// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/catalog"
	"github.com/staranto/foundryctl/internal/meta"
)

// KqCommandAction is the action handler for the "kq" subcommand. It compares
// deployed capacity with the catalog quota per region, model, version and
// SKU.
func KqCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &QueryActionRunner[*catalog.QuotaRow]{
		CommandName: "kq",
		SchemaType:  reflect.TypeOf(catalog.QuotaRow{}),
		DefaultAttrs: []string{
			"region", "model", "version", "sku", "deployed", "quota_max:quota", "remaining", "status",
		},
		FetchFn: fetchCapacity,
	}
	return runner.Run(ctx, cmd)
}

func fetchCapacity(ctx context.Context, cmd *cli.Command) ([]*catalog.QuotaRow, error) {
	c, err := newCatalog(cmd)
	if err != nil {
		return nil, err
	}

	kinds := catalog.OpenAIKinds
	if cmd.Bool("all-kinds") {
		kinds = catalog.AllKinds
	}

	rows, err := c.Capacity(ctx, kinds)
	if err != nil {
		return nil, err
	}

	if path := cmd.String("csv"); path != "" {
		if err := writeCapacityCSV(path, rows); err != nil {
			return nil, err
		}
		log.Infof("wrote %d rows to %s", len(rows), path)
	}
	return rows, nil
}

func writeCapacityCSV(path string, rows []*catalog.QuotaRow) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return catalog.WriteCSV(f, rows)
}

// KqCommandBuilder constructs the cli.Command definition for the "kq"
// command.
func KqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "kq",
		Usage:     "capacity query, deployments against quota",
		UsageText: `foundryctl kq [@set] [options]`,
		Flags: append([]cli.Flag{
			&cli.BoolFlag{
				Name:        "all-kinds",
				Usage:       "include AIServices accounts, not only OpenAI",
				HideDefault: true,
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "also write the rows to this CSV file",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
		}, NewARMFlags("kq", meta.Config.Source)...),
		Action: KqCommandAction,
		Meta:   meta,
	}).Build()
}
