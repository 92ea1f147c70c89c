// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"reflect"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/inventory"
	"github.com/staranto/foundryctl/internal/meta"
)

// threadRow is a thread with its message activity.
type threadRow struct {
	ID              string     `jsonapi:"primary,threads"`
	AgentID         string     `jsonapi:"attr,agent_id,omitempty"`
	CreatedAt       *time.Time `jsonapi:"attr,created_at,iso8601,omitempty"`
	LatestMessageAt *time.Time `jsonapi:"attr,latest_message_at,iso8601,omitempty"`
	Messages        int        `jsonapi:"attr,messages"`
	Stale           bool       `jsonapi:"attr,stale"`
	Error           string     `jsonapi:"attr,error,omitempty"`
}

func newThreadRow(a inventory.Activity, cutoff time.Time, skipEmpty bool) *threadRow {
	row := &threadRow{
		ID:              a.Thread.ID,
		AgentID:         a.Thread.AgentID,
		CreatedAt:       a.Thread.CreatedAt,
		LatestMessageAt: a.Latest,
		Messages:        a.Messages,
		Stale:           a.Stale(cutoff, skipEmpty),
	}
	if a.Err != nil {
		row.Error = a.Err.Error()
	}
	return row
}

// TqCommandAction is the action handler for the "tq" subcommand. It lists
// threads with the time of their latest message and whether that makes them
// stale at the cutoff.
func TqCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &QueryActionRunner[*threadRow]{
		CommandName: "tq",
		SchemaType:  reflect.TypeOf(threadRow{}),
		DefaultAttrs: []string{
			".id", "latest_message_at:latest:t", "messages", "stale",
		},
		FetchFn: fetchThreads,
	}
	return runner.Run(ctx, cmd)
}

func fetchThreads(ctx context.Context, cmd *cli.Command) ([]*threadRow, error) {
	cutoff, err := resolveCutoff(cmd)
	if err != nil {
		return nil, err
	}
	skipEmpty := cmd.Bool("skip-empty")
	log.Debugf("cutoff: %s", cutoff.Format(time.RFC3339))

	client, err := newFoundryClient(cmd)
	if err != nil {
		return nil, err
	}

	acts, err := inventory.New(client).ThreadActivity(ctx)
	if err != nil {
		return nil, friendly(cmd, err, "list threads", "project", "")
	}

	var rows []*threadRow
	for _, a := range acts {
		row := newThreadRow(a, cutoff, skipEmpty)
		if cmd.Bool("stale") && !row.Stale {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TqCommandBuilder constructs the cli.Command definition for the "tq"
// command.
func TqCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "tq",
		Usage:     "thread query",
		UsageText: `foundryctl tq [@set] [options]`,
		Flags: append([]cli.Flag{
			NewBeforeDateFlag(),
			NewDaysFlag("tq", meta.Config.Source, inventory.DefaultDays),
			NewSkipEmptyFlag(),
			&cli.BoolFlag{
				Name:        "stale",
				Usage:       "only threads that thread cleanup would delete",
				HideDefault: true,
			},
		}, NewConnectionFlags("tq", meta.Config.Source)...),
		Action: TqCommandAction,
		Meta:   meta,
	}).Build()
}
