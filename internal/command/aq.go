// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/inventory"
	"github.com/staranto/foundryctl/internal/meta"
)

// AqCommandAction is the action handler for the "aq" subcommand. It lists
// agents, all of them or those matching --name or created before the cutoff.
func AqCommandAction(ctx context.Context, cmd *cli.Command) error {
	defaults := []string{".id", "name", "model", "created_at:created:t"}
	if cmd.String("name") != "" {
		defaults = append(defaults, "latest")
	}

	runner := &QueryActionRunner[*foundry.Agent]{
		CommandName:  "aq",
		SchemaType:   reflect.TypeOf(foundry.Agent{}),
		DefaultAttrs: defaults,
		FetchFn:      fetchAgents,
	}
	return runner.Run(ctx, cmd)
}

func fetchAgents(ctx context.Context, cmd *cli.Command) ([]*foundry.Agent, error) {
	client, err := newFoundryClient(cmd)
	if err != nil {
		return nil, err
	}
	inv := inventory.New(client)

	if name := cmd.String("name"); name != "" {
		agents, err := inv.AgentsByName(ctx, name)
		if err != nil {
			return nil, friendly(cmd, err, "find agents by name", "project", "")
		}
		if len(agents) == 0 {
			log.Infof("no agents named %q", name)
			return nil, nil
		}
		return agents, nil
	}

	if cutoffRequested(cmd) {
		cutoff, err := resolveCutoff(cmd)
		if err != nil {
			return nil, err
		}
		log.Infof("agents created before %s", cutoff.Format(time.RFC3339))
		agents, err := inv.AgentsCreatedBefore(ctx, cutoff)
		if err != nil {
			return nil, friendly(cmd, err, "find agents by date", "project", "")
		}
		return agents, nil
	}

	agents, err := client.ListAgents(ctx, foundry.ListOptions{
		Order: foundry.Descending,
		Limit: cmd.Int("limit"),
	})
	if err != nil {
		return nil, friendly(cmd, err, "list agents", "project", "")
	}
	return agents, nil
}

// AqCommandBuilder constructs the cli.Command definition for the "aq"
// command.
func AqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "aq",
		Usage:     "agent query",
		UsageText: `foundryctl aq [@set] [options]`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "only agents with exactly this name, newest first",
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			NewBeforeDateFlag(),
			NewDaysFlag("aq", meta.Config.Source, 0),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "limit agents returned when listing",
				Value: 0,
			},
		}, NewConnectionFlags("aq", meta.Config.Source)...),
		Action: AqCommandAction,
		Meta:   meta,
	}).Build()
}
