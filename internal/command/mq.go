// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"reflect"

	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/catalog"
	"github.com/staranto/foundryctl/internal/meta"
)

var ErrLocationNotSet = errors.New("location is not set; use --location or AZURE_LOCATION")

// MqCommandAction is the action handler for the "mq" subcommand. It lists the
// model catalog of a region, or its SKUs or providers.
func MqCommandAction(ctx context.Context, cmd *cli.Command) error {
	models := func(ctx context.Context, cmd *cli.Command) ([]catalog.Model, error) {
		location := cmd.String("location")
		if location == "" {
			return nil, ErrLocationNotSet
		}
		c, err := newCatalog(cmd)
		if err != nil {
			return nil, err
		}
		return c.Models(ctx, location)
	}

	switch {
	case cmd.Bool("providers"):
		runner := &QueryActionRunner[*catalog.ProviderRow]{
			CommandName:  "mq",
			SchemaType:   reflect.TypeOf(catalog.ProviderRow{}),
			DefaultAttrs: []string{".id:provider"},
			FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*catalog.ProviderRow, error) {
				m, err := models(ctx, cmd)
				if err != nil {
					return nil, err
				}
				return catalog.ProviderRows(m), nil
			},
		}
		return runner.Run(ctx, cmd)

	case cmd.Bool("skus"):
		runner := &QueryActionRunner[*catalog.SKURow]{
			CommandName:  "mq",
			SchemaType:   reflect.TypeOf(catalog.SKURow{}),
			DefaultAttrs: []string{"model", "version", "sku", "min", "max", "default"},
			FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*catalog.SKURow, error) {
				m, err := models(ctx, cmd)
				if err != nil {
					return nil, err
				}
				return catalog.SKURows(m), nil
			},
		}
		return runner.Run(ctx, cmd)
	}

	runner := &QueryActionRunner[*catalog.ModelRow]{
		CommandName:  "mq",
		SchemaType:   reflect.TypeOf(catalog.ModelRow{}),
		DefaultAttrs: []string{"provider", "name", "version", "sku", "max_capacity:max"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*catalog.ModelRow, error) {
			m, err := models(ctx, cmd)
			if err != nil {
				return nil, err
			}
			return catalog.ModelRows(m), nil
		},
	}
	return runner.Run(ctx, cmd)
}

// MqCommandBuilder constructs the cli.Command definition for the "mq" command,
// wiring flags, metadata, and the action/validator handlers.
func MqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "mq",
		Usage:     "model catalog query",
		UsageText: `foundryctl mq [@set] [options]`,
		Flags: append([]cli.Flag{
			NewLocationFlag("mq", meta.Config.Source),
			&cli.BoolFlag{
				Name:        "providers",
				Usage:       "only list the model providers",
				HideDefault: true,
			},
			&cli.BoolFlag{
				Name:        "skus",
				Usage:       "one row per model SKU with its capacity range",
				HideDefault: true,
			},
		}, NewARMFlags("mq", meta.Config.Source)...),
		Action: MqCommandAction,
		Meta:   meta,
	}).Build()
}
