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

// Lister is the read side of the data plane.
type Lister interface {
	ListAgents(ctx context.Context, opts foundry.ListOptions) ([]*foundry.Agent, error)
	ListThreads(ctx context.Context, opts foundry.ListOptions) ([]*foundry.Thread, error)
	ListMessages(ctx context.Context, threadID string, opts foundry.ListOptions) ([]*foundry.Message, error)
	PageMessages(ctx context.Context, threadID string, opts foundry.ListOptions, fn func([]*foundry.Message) bool) error
	ListRuns(ctx context.Context, threadID string, opts foundry.ListOptions) ([]*foundry.Run, error)
}

// Inventory correlates agents, threads, messages and runs without changing
// anything.
type Inventory struct {
	svc Lister
}

// New returns an Inventory reading through svc.
func New(svc Lister) *Inventory {
	return &Inventory{svc: svc}
}

// AgentsByName returns agents whose name equals name exactly, newest first.
// Agents without a creation time sort last. The first match is marked Latest.
func (inv *Inventory) AgentsByName(ctx context.Context, name string) ([]*foundry.Agent, error) {
	agents, err := inv.svc.ListAgents(ctx, foundry.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	var matches []*foundry.Agent
	for _, a := range agents {
		if a.Name == name {
			matches = append(matches, a)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return after(matches[i].CreatedAt, matches[j].CreatedAt)
	})
	if len(matches) > 0 {
		matches[0].Latest = true
	}
	return matches, nil
}

// AgentsCreatedBefore returns agents created strictly before cutoff, oldest
// first. Agents without a creation time are skipped.
func (inv *Inventory) AgentsCreatedBefore(ctx context.Context, cutoff time.Time) ([]*foundry.Agent, error) {
	agents, err := inv.svc.ListAgents(ctx, foundry.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	var matches []*foundry.Agent
	for _, a := range agents {
		if a.CreatedAt == nil {
			log.Debugf("agent %s has no created_at; skipping", a.ID)
			continue
		}
		if a.CreatedAt.Before(cutoff) {
			matches = append(matches, a)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(*matches[j].CreatedAt)
	})
	return matches, nil
}

// after orders non-nil times newest first with nil last.
func after(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

// ThreadOwners maps each agent id to the ids of the threads it owns, in
// listing order. A thread is owned by its agent_id and by every agent that
// ran on it. Threads are listed once and deduplicated. A run listing failure
// is logged and the thread keeps only its agent_id owner.
func (inv *Inventory) ThreadOwners(ctx context.Context) (map[string][]string, error) {
	threads, err := inv.svc.ListThreads(ctx, foundry.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	owners := map[string][]string{}
	seen := map[string]bool{}

	for _, t := range threads {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true

		agents := map[string]bool{}
		if t.AgentID != "" {
			agents[t.AgentID] = true
		}

		runs, err := inv.svc.ListRuns(ctx, t.ID, foundry.ListOptions{})
		if err != nil {
			log.WithError(err).Warnf("unable to list runs for thread %s", t.ID)
		}
		for _, r := range runs {
			if r.AgentID != "" {
				agents[r.AgentID] = true
			}
		}

		for a := range agents {
			owners[a] = append(owners[a], t.ID)
		}
	}

	return owners, nil
}

// ThreadIDsForAgent returns the ids of the threads owned by agentID.
func (inv *Inventory) ThreadIDsForAgent(ctx context.Context, agentID string) ([]string, error) {
	owners, err := inv.ThreadOwners(ctx)
	if err != nil {
		return nil, err
	}
	return owners[agentID], nil
}
