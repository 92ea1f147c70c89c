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

// completionRow is an agent with its latest completed run.
type completionRow struct {
	ID              string     `jsonapi:"primary,completions"`
	Name            string     `jsonapi:"attr,name"`
	Model           string     `jsonapi:"attr,model"`
	LastCompletedAt *time.Time `jsonapi:"attr,last_completed_at,iso8601,omitempty"`
	ThreadID        string     `jsonapi:"attr,thread_id,omitempty"`
	RunID           string     `jsonapi:"attr,run_id,omitempty"`
}

func newCompletionRow(a *foundry.Agent, c *inventory.Completion) *completionRow {
	row := &completionRow{ID: a.ID, Name: a.Name, Model: a.Model}
	if c != nil {
		at := c.CompletedAt
		row.LastCompletedAt = &at
		row.ThreadID = c.ThreadID
		row.RunID = c.RunID
	}
	return row
}

// LqCommandAction is the action handler for the "lq" subcommand. With a
// cutoff it lists agents whose latest completion predates it, otherwise every
// agent with its latest completion, if any.
func LqCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &QueryActionRunner[*completionRow]{
		CommandName: "lq",
		SchemaType:  reflect.TypeOf(completionRow{}),
		DefaultAttrs: []string{
			".id:agent", "name", "last_completed_at:completed:t", "thread_id", "run_id",
		},
		FetchFn: fetchCompletions,
	}
	return runner.Run(ctx, cmd)
}

func fetchCompletions(ctx context.Context, cmd *cli.Command) ([]*completionRow, error) {
	client, err := newFoundryClient(cmd)
	if err != nil {
		return nil, err
	}
	inv := inventory.New(client)

	var rows []*completionRow

	if cutoffRequested(cmd) {
		cutoff, err := resolveCutoff(cmd)
		if err != nil {
			return nil, err
		}
		log.Infof("agents last completed before %s", cutoff.Format(time.RFC3339))

		stale, err := inv.AgentsLastCompletedBefore(ctx, cutoff)
		if err != nil {
			return nil, friendly(cmd, err, "correlate completions", "project", "")
		}
		for _, ac := range stale {
			rows = append(rows, newCompletionRow(ac.Agent, &ac.Completion))
		}
		return rows, nil
	}

	agents, err := client.ListAgents(ctx, foundry.ListOptions{Order: foundry.Descending})
	if err != nil {
		return nil, friendly(cmd, err, "list agents", "project", "")
	}
	latest, err := inv.LatestCompletions(ctx)
	if err != nil {
		return nil, friendly(cmd, err, "correlate completions", "project", "")
	}

	for _, a := range agents {
		var c *inventory.Completion
		if got, ok := latest[a.ID]; ok {
			c = &got
		}
		rows = append(rows, newCompletionRow(a, c))
	}
	return rows, nil
}

// LqCommandBuilder constructs the cli.Command definition for the "lq"
// command.
func LqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "lq",
		Usage:     "last completion query",
		UsageText: `foundryctl lq [@set] [options]`,
		Flags: append([]cli.Flag{
			NewBeforeDateFlag(),
			NewDaysFlag("lq", meta.Config.Source, 0),
		}, NewConnectionFlags("lq", meta.Config.Source)...),
		Action: LqCommandAction,
		Meta:   meta,
	}).Build()
}
