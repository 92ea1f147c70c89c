// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/archive"
	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/meta"
)

var ErrNoArchive = errors.New("no archive file given")

// AvCommandAction is the action handler for the "av" subcommand. It decodes a
// thread archive and prints its messages.
func AvCommandAction(ctx context.Context, cmd *cli.Command) error {
	runner := &QueryActionRunner[*foundry.Message]{
		CommandName:  "av",
		SchemaType:   reflect.TypeOf(foundry.Message{}),
		DefaultAttrs: []string{".id", "created_at:created:t", "role", "text::60"},
		FetchFn:      readArchive,
	}
	return runner.Run(ctx, cmd)
}

func readArchive(ctx context.Context, cmd *cli.Command) ([]*foundry.Message, error) {
	path := cmd.Args().First()
	if path == "" {
		return nil, ErrNoArchive
	}

	pass, err := passphrase(cmd, false, false)
	if err != nil {
		return nil, err
	}

	tr, err := archive.ReadFile(path, pass)
	if errors.Is(err, archive.ErrPassphraseRequired) {
		if pass, err = passphrase(cmd, true, false); err != nil {
			return nil, err
		}
		tr, err = archive.ReadFile(path, pass)
	}
	if err != nil {
		return nil, err
	}

	log.Infof("thread %s of agent %s at %s, archived %s",
		tr.ThreadID, tr.AgentID, tr.Endpoint, tr.ArchivedAt.Format(time.RFC3339))

	return tr.DecodeMessages()
}

// AvCommandBuilder constructs the cli.Command definition for the "av"
// command.
func AvCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "av",
		Usage:     "archive view",
		UsageText: `foundryctl av <file> [options]`,
		Flags: []cli.Flag{
			NewPassphraseFlag(),
		},
		Action: AvCommandAction,
		Meta:   meta,
	}).Build()
}
