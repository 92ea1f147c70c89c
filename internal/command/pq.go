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

// PqCommandAction is the action handler for the "pq" subcommand. It compares
// the provisioned throughput deployed on one account with what is reserved,
// per SKU, and ends with a TOTAL row.
func PqCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &QueryActionRunner[*catalog.ThroughputRow]{
		CommandName:  "pq",
		SchemaType:   reflect.TypeOf(catalog.ThroughputRow{}),
		DefaultAttrs: []string{"sku", "deployed", "reserved", "delta"},
		FetchFn:      fetchThroughput,
	}
	return runner.Run(ctx, cmd)
}

func fetchThroughput(ctx context.Context, cmd *cli.Command) ([]*catalog.ThroughputRow, error) {
	acct := catalog.Account{
		Name:          cmd.String("account"),
		ResourceGroup: cmd.String("resource-group"),
	}
	if acct.Name == "" || acct.ResourceGroup == "" {
		return nil, catalog.ErrAccountNotSet
	}

	c, err := newCatalog(cmd)
	if err != nil {
		return nil, err
	}

	rows, err := c.Throughput(ctx, acct, catalog.ReservationFilter{
		ResourceType: cmd.String("reserved-resource-type"),
		State:        cmd.String("reservation-state"),
	})
	if err != nil {
		return nil, err
	}
	rows = append(rows, catalog.ThroughputTotal(rows))

	if path := cmd.String("csv"); path != "" {
		if err := writeThroughputCSV(path, rows); err != nil {
			return nil, err
		}
		log.Infof("wrote %d rows to %s", len(rows), path)
	}
	return rows, nil
}

func writeThroughputCSV(path string, rows []*catalog.ThroughputRow) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return catalog.WriteThroughputCSV(f, rows)
}

// PqCommandBuilder constructs the cli.Command definition for the "pq"
// command.
func PqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "pq",
		Usage:     "provisioned throughput query, deployed against reserved",
		UsageText: `foundryctl pq [@set] --resource-group RG --account NAME [options]`,
		Flags: append([]cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("pq", meta.Config.Source, &cli.StringFlag{
				Name:    "resource-group",
				Aliases: []string{"g"},
				Usage:   "resource group of the account",
				Sources: cli.NewValueSourceChain(cli.EnvVar("AZURE_RESOURCE_GROUP")),
			}),
			NameSpacedValueChainFlagFromConfigFile("pq", meta.Config.Source, &cli.StringFlag{
				Name:    "account",
				Usage:   "Cognitive Services account name",
				Sources: cli.NewValueSourceChain(cli.EnvVar("AZURE_AI_ACCOUNT")),
			}),
			&cli.StringFlag{
				Name:  "reserved-resource-type",
				Usage: "only reservations of this reserved resource type",
				Value: catalog.DefaultReservedResourceType,
			},
			&cli.StringFlag{
				Name:  "reservation-state",
				Usage: "only reservations in this provisioning state, e.g. Succeeded",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "also write the rows to this CSV file",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
		}, NewARMFlags("pq", meta.Config.Source)...),
		Action: PqCommandAction,
		Meta:   meta,
	}).Build()
}
