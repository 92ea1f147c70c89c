// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"reflect"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/cleanup"
	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/meta"
	"github.com/staranto/foundryctl/internal/picker"
	"github.com/staranto/foundryctl/internal/prompt"
)

// pick shows the interactive agent picker. Replaced in tests.
var pick = func(title string, items []picker.Item) ([]string, error) {
	t := terminal()
	if !t.IsTerminal() {
		return nil, fmt.Errorf("--pick: %w", prompt.ErrNoTerminal)
	}
	return picker.Run(title, items, t.In, t.Out)
}

// AcCommandAction is the action handler for the "ac" subcommand. It deletes
// agents together with their threads and messages.
func AcCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, "ac") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(cleanup.Action{})) {
		return nil
	}

	attrs := BuildAttrs(cmd, "kind", ".id", "parent", "status", "detail")
	log.Debugf("attrs: %v", attrs)

	client, err := newFoundryClient(cmd)
	if err != nil {
		return err
	}

	targets, err := agentTargets(ctx, cmd, client)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		log.Info("no agents to delete")
		return nil
	}

	if err := confirmDestructive(cmd,
		fmt.Sprintf("Delete %d agents with all their threads and messages?", len(targets)),
		len(targets)); err != nil {
		return err
	}

	arch, err := newArchiveWriter(ctx, cmd, client.Endpoint())
	if err != nil {
		return err
	}

	j := cleanup.New(client, cleanup.Options{DryRun: cmd.Bool("dry-run"), Archive: arch})

	failed := 0
	for _, id := range targets {
		log.Infof("deleting agent %s", id)
		if err := j.PurgeAgent(ctx, id); err != nil {
			log.WithError(friendly(cmd, err, "delete agent", "agent", id)).Error("agent cleanup aborted")
			failed++
		}
	}

	if err := EmitJSONAPISlice(j.Actions(), attrs, cmd); err != nil {
		return err
	}

	log.Infof("agents: %v threads: %v messages: %v",
		j.Summary(cleanup.KindAgent), j.Summary(cleanup.KindThread), j.Summary(cleanup.KindMessage))

	if failed > 0 {
		return fmt.Errorf("%d of %d agents could not be deleted", failed, len(targets))
	}
	return nil
}

// agentTargets resolves --agent-id, --all or --pick to agent ids.
func agentTargets(ctx context.Context, cmd *cli.Command, client *foundry.Client) ([]string, error) {
	if ids := cmd.StringSlice("agent-id"); len(ids) > 0 {
		return ids, nil
	}
	if !cmd.Bool("all") && !cmd.Bool("pick") {
		return nil, ErrNoTarget
	}

	agents, err := client.ListAgents(ctx, foundry.ListOptions{Order: foundry.Descending})
	if err != nil {
		return nil, friendly(cmd, err, "list agents", "project", "")
	}

	if cmd.Bool("all") {
		ids := make([]string, 0, len(agents))
		for _, a := range agents {
			ids = append(ids, a.ID)
		}
		return ids, nil
	}

	items := make([]picker.Item, 0, len(agents))
	for _, a := range agents {
		label := fmt.Sprintf("%s  %s  %s", a.ID, a.Name, a.Model)
		if a.CreatedAt != nil {
			label += "  " + humanize.Time(*a.CreatedAt)
		}
		items = append(items, picker.Item{ID: a.ID, Label: label})
	}
	return pick("Select agents to delete", items)
}

// AcCommandBuilder constructs the cli.Command definition for the "ac"
// command.
func AcCommandBuilder(meta meta.Meta) *cli.Command {
	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "agent-id",
			Usage: "agent to delete, repeatable",
		},
		&cli.BoolFlag{
			Name:        "all",
			Usage:       "delete every agent in the project",
			HideDefault: true,
		},
		&cli.BoolFlag{
			Name:        "pick",
			Usage:       "choose the agents to delete interactively",
			HideDefault: true,
		},
	}
	flags = append(flags, NewCleanupFlags("ac", meta.Config.Source)...)
	flags = append(flags, NewConnectionFlags("ac", meta.Config.Source)...)

	return (&QueryCommandBuilder{
		Name:      "ac",
		Usage:     "agent cleanup",
		UsageText: `foundryctl ac [@set] (--agent-id ID... | --all | --pick) [options]`,
		Flags:     flags,
		Action:    AcCommandAction,
		Meta:      meta,
	}).Build()
}
