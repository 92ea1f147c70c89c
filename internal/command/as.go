// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/meta"
)

var ErrModelNotSet = errors.New("model deployment is not set; use --model or MODEL_DEPLOYMENT_NAME")

// AsCommandAction is the action handler for the "as" subcommand. It creates a
// test agent, runs it on --thread-count new threads and reports the messages
// of every thread.
func AsCommandAction(ctx context.Context, cmd *cli.Command) error {
	var failed []int
	runner := &QueryActionRunner[*foundry.Message]{
		CommandName:  "as",
		SchemaType:   reflect.TypeOf(foundry.Message{}),
		DefaultAttrs: []string{"thread_id:thread", "role", "text::60"},
		FetchFn: func(ctx context.Context, cmd *cli.Command) ([]*foundry.Message, error) {
			return setupAgent(ctx, cmd, &failed)
		},
	}
	if err := runner.Run(ctx, cmd); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d threads failed: %v", len(failed), cmd.Int("thread-count"), failed)
	}
	return nil
}

// setupAgent appends the index of every thread that fails to failed and
// carries on with the next one.
func setupAgent(ctx context.Context, cmd *cli.Command, failed *[]int) ([]*foundry.Message, error) {
	model := cmd.String("model")
	if model == "" {
		return nil, ErrModelNotSet
	}

	client, err := newFoundryClient(cmd)
	if err != nil {
		return nil, err
	}

	agent, err := client.CreateAgent(ctx, foundry.AgentRequest{
		Model:        model,
		Name:         cmd.String("agent-name"),
		Instructions: cmd.String("instructions"),
	})
	if err != nil {
		return nil, friendly(cmd, err, "create agent", "project", "")
	}
	log.Infof("created agent %s (%s)", agent.ID, agent.Name)

	var rows []*foundry.Message
	count := cmd.Int("thread-count")
	for i := 1; i <= count; i++ {
		msgs, err := seedThread(ctx, cmd, client, agent.ID, i)
		if err != nil {
			log.WithError(err).Errorf("thread %d of %d failed", i, count)
			*failed = append(*failed, i)
			continue
		}
		rows = append(rows, msgs...)
	}
	return rows, nil
}

// seedThread creates thread index with one user message, waits for the run
// and returns the thread messages oldest first.
func seedThread(ctx context.Context, cmd *cli.Command, client *foundry.Client, agentID string, index int) ([]*foundry.Message, error) {
	text := strings.ReplaceAll(cmd.String("message-template"), "{index}", strconv.Itoa(index))

	run, err := client.CreateThreadAndRun(ctx, agentID, text)
	if err != nil {
		return nil, friendly(cmd, err, "create thread and run", "agent", agentID)
	}
	log.Infof("thread %s: run %s %s", run.ThreadID, run.ID, run.Status)

	run, err = client.WaitRun(ctx, run, cmd.Duration("poll-interval"), func(r *foundry.Run) {
		log.Debugf("thread %s: run %s %s", r.ThreadID, r.ID, r.Status)
	})
	if err != nil {
		return nil, fmt.Errorf("thread %s: %w", run.ThreadID, err)
	}
	log.Infof("thread %s: run %s %s", run.ThreadID, run.ID, run.Status)

	msgs, err := client.ListMessages(ctx, run.ThreadID, foundry.ListOptions{Order: foundry.Ascending})
	if err != nil {
		return nil, friendly(cmd, err, "list messages", "thread", run.ThreadID)
	}
	return msgs, nil
}

// AsCommandBuilder constructs the cli.Command definition for the "as"
// command.
func AsCommandBuilder(meta meta.Meta) *cli.Command {
	return (&QueryCommandBuilder{
		Name:      "as",
		Usage:     "agent setup",
		UsageText: `foundryctl as [@set] [options]`,
		Flags: append([]cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("as", meta.Config.Source, &cli.StringFlag{
				Name:  "agent-name",
				Usage: "name of the agent to create",
				Value: "cleanup-test-agent",
			}),
			&cli.StringFlag{
				Name:  "instructions",
				Usage: "instructions for the agent",
				Value: "You are a test assistant that responds cheerfully.",
			},
			NameSpacedValueChainFlagFromConfigFile("as", meta.Config.Source, &cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "model deployment the agent runs on",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("MODEL_DEPLOYMENT_NAME"),
				),
			}),
			&cli.IntFlag{
				Name:  "thread-count",
				Usage: "number of threads to create",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "message-template",
				Usage: "user message of each thread; {index} is the thread number",
				Value: "Hello from test thread {index}!",
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: "time between run status checks",
				Value: time.Second,
			},
		}, NewConnectionFlags("as", meta.Config.Source)...),
		Action: AsCommandAction,
		Meta:   meta,
	}).Build()
}
