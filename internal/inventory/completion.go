// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/apex/log"

	"github.com/staranto/foundryctl/internal/foundry"
)

// Completion is the latest completed run of an agent.
type Completion struct {
	AgentID     string
	ThreadID    string
	RunID       string
	CompletedAt time.Time
}

// AgentCompletion pairs an agent with its latest completion.
type AgentCompletion struct {
	Agent      *foundry.Agent
	Completion Completion
}

// LatestCompletions walks threads newest first and, per thread, runs newest
// first. The first completed run with an agent and a completion time is the
// thread's latest; the newest across threads wins per agent.
func (inv *Inventory) LatestCompletions(ctx context.Context) (map[string]Completion, error) {
	threads, err := inv.svc.ListThreads(ctx, foundry.ListOptions{Order: foundry.Descending})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	latest := map[string]Completion{}
	for _, t := range threads {
		if t.ID == "" {
			continue
		}

		runs, err := inv.svc.ListRuns(ctx, t.ID, foundry.ListOptions{Order: foundry.Descending})
		if err != nil {
			log.WithError(err).Warnf("unable to list runs for thread %s", t.ID)
			continue
		}

		for _, r := range runs {
			if r.Status != foundry.RunCompleted || r.AgentID == "" || r.CompletedAt == nil {
				continue
			}
			if cur, ok := latest[r.AgentID]; !ok || r.CompletedAt.After(cur.CompletedAt) {
				latest[r.AgentID] = Completion{
					AgentID:     r.AgentID,
					ThreadID:    t.ID,
					RunID:       r.ID,
					CompletedAt: *r.CompletedAt,
				}
			}
			break
		}
	}

	return latest, nil
}

// AgentsLastCompletedBefore returns the agents whose latest completion is
// before cutoff, oldest first. Agents that never completed a run are left out.
func (inv *Inventory) AgentsLastCompletedBefore(ctx context.Context, cutoff time.Time) ([]AgentCompletion, error) {
	latest, err := inv.LatestCompletions(ctx)
	if err != nil {
		return nil, err
	}

	agents, err := inv.svc.ListAgents(ctx, foundry.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	var matches []AgentCompletion
	for _, a := range agents {
		c, ok := latest[a.ID]
		if !ok {
			continue
		}
		if c.CompletedAt.Before(cutoff) {
			matches = append(matches, AgentCompletion{Agent: a, Completion: c})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Completion.CompletedAt.Before(matches[j].Completion.CompletedAt)
	})
	return matches, nil
}
