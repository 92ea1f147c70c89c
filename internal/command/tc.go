// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/cleanup"
	"github.com/staranto/foundryctl/internal/inventory"
	"github.com/staranto/foundryctl/internal/meta"
)

// TcCommandAction is the action handler for the "tc" subcommand. It deletes
// threads whose latest message predates the cutoff.
func TcCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, "tc") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(cleanup.Action{})) {
		return nil
	}

	attrs := BuildAttrs(cmd, "kind", ".id", "status", "detail")
	log.Debugf("attrs: %v", attrs)

	cutoff, err := resolveCutoff(cmd)
	if err != nil {
		return err
	}
	log.Infof("deleting threads whose latest message is before %s", cutoff.Format(time.RFC3339))

	client, err := newFoundryClient(cmd)
	if err != nil {
		return err
	}

	stale, err := inventory.New(client).StaleThreads(ctx, cutoff, cmd.Bool("skip-empty"))
	if err != nil {
		return friendly(cmd, err, "list threads", "project", "")
	}

	if err := confirmDestructive(cmd,
		fmt.Sprintf("Delete %d threads last active before %s?", len(stale), cutoff.Format(time.DateOnly)),
		len(stale)); err != nil {
		return err
	}

	arch, err := newArchiveWriter(ctx, cmd, client.Endpoint())
	if err != nil {
		return err
	}

	j := cleanup.New(client, cleanup.Options{DryRun: cmd.Bool("dry-run"), Archive: arch})

	failed := 0
	for _, a := range stale {
		reason := staleReason(a)
		log.Infof("deleting thread %s: %s", a.Thread.ID, reason)
		if err := j.PurgeThread(ctx, a.Thread.ID, reason); err != nil {
			log.WithError(err).Errorf("failed to delete thread %s", a.Thread.ID)
			failed++
		}
	}

	if err := EmitJSONAPISlice(j.Actions(), attrs, cmd); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d threads could not be deleted", failed, len(stale))
	}
	return nil
}

func staleReason(a inventory.Activity) string {
	if a.Latest == nil {
		return "no messages or timestamp available"
	}
	return fmt.Sprintf("latest message at %s is before cutoff", a.Latest.Format(time.RFC3339))
}

// TcCommandBuilder constructs the cli.Command definition for the "tc"
// command.
func TcCommandBuilder(meta meta.Meta) *cli.Command {
	flags := []cli.Flag{
		NewBeforeDateFlag(),
		NewDaysFlag("tc", meta.Config.Source, inventory.DefaultDays),
		NewSkipEmptyFlag(),
	}
	flags = append(flags, NewCleanupFlags("tc", meta.Config.Source)...)
	flags = append(flags, NewConnectionFlags("tc", meta.Config.Source)...)

	return (&QueryCommandBuilder{
		Name:      "tc",
		Usage:     "thread cleanup",
		UsageText: `foundryctl tc [@set] [--before-date DATE | --days N] [options]`,
		Flags:     flags,
		Action:    TcCommandAction,
		Meta:      meta,
	}).Build()
}
