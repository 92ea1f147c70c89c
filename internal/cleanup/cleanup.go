// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cleanup

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"github.com/staranto/foundryctl/internal/archive"
	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/inventory"
)

// Action kinds.
const (
	KindAgent   = "agent"
	KindThread  = "thread"
	KindMessage = "message"
)

// Action statuses.
const (
	StatusDeleted     = "deleted"
	StatusWouldDelete = "would-delete"
	StatusArchived    = "archived"
	StatusSkipped     = "skipped"
	StatusFailed      = "failed"
)

// Service is the part of the data plane the janitor needs.
type Service interface {
	inventory.Lister
	GetThread(ctx context.Context, threadID string) (*foundry.Thread, error)
	DeleteAgent(ctx context.Context, agentID string) error
	DeleteThread(ctx context.Context, threadID string) error
	DeleteMessage(ctx context.Context, threadID, messageID string) error
}

// Action is one resource the janitor touched.
type Action struct {
	ID     string `jsonapi:"primary,actions"`
	Kind   string `jsonapi:"attr,kind"`
	Parent string `jsonapi:"attr,parent,omitempty"`
	Status string `jsonapi:"attr,status"`
	Detail string `jsonapi:"attr,detail,omitempty"`
}

// Options control how a Janitor deletes.
type Options struct {
	DryRun bool
	// Archive, when set, receives each thread transcript before deletion.
	Archive *archive.Writer
}

// Janitor deletes agents and threads in dependency order and records an
// Action per resource. In a dry run it records what it would delete.
type Janitor struct {
	svc     Service
	inv     *inventory.Inventory
	opts    Options
	owners  map[string][]string
	actions []*Action
}

// New returns a Janitor working through svc.
func New(svc Service, opts Options) *Janitor {
	return &Janitor{svc: svc, inv: inventory.New(svc), opts: opts}
}

// Actions returns the rows recorded so far, in order.
func (j *Janitor) Actions() []*Action {
	return j.actions
}

// Summary counts the recorded rows of kind by status.
func (j *Janitor) Summary(kind string) map[string]int {
	counts := map[string]int{}
	for _, a := range j.actions {
		if a.Kind == kind {
			counts[a.Status]++
		}
	}
	return counts
}

func (j *Janitor) record(kind, id, parent, status, detail string) {
	j.actions = append(j.actions, &Action{ID: id, Kind: kind, Parent: parent, Status: status, Detail: detail})
}

func (j *Janitor) fail(kind, id, parent string, err error) error {
	j.record(kind, id, parent, StatusFailed, err.Error())
	return err
}

// PurgeAgent deletes every message and thread the agent owns, then the agent.
// The first API failure stops the agent and is returned; the failure and the
// agent are both recorded as failed.
func (j *Janitor) PurgeAgent(ctx context.Context, agentID string) error {
	if j.owners == nil {
		owners, err := j.inv.ThreadOwners(ctx)
		if err != nil {
			return j.fail(KindAgent, agentID, "", err)
		}
		j.owners = owners
	}

	threads := j.owners[agentID]
	log.Infof("agent %s owns %d thread(s)", agentID, len(threads))

	for _, tid := range threads {
		if err := j.purgeThreadContents(ctx, tid, agentID); err != nil {
			j.record(KindAgent, agentID, "", StatusFailed, fmt.Sprintf("aborted at thread %s", tid))
			return err
		}
	}

	if j.opts.DryRun {
		j.record(KindAgent, agentID, "", StatusWouldDelete, fmt.Sprintf("%d thread(s)", len(threads)))
		return nil
	}

	if err := j.svc.DeleteAgent(ctx, agentID); err != nil {
		if foundry.IsNotFound(err) {
			j.record(KindAgent, agentID, "", StatusSkipped, "already deleted")
			return nil
		}
		return j.fail(KindAgent, agentID, "", fmt.Errorf("failed to delete agent %s: %w", agentID, err))
	}
	j.record(KindAgent, agentID, "", StatusDeleted, fmt.Sprintf("%d thread(s)", len(threads)))
	return nil
}

// purgeThreadContents archives a thread, deletes its messages oldest first
// and then the thread. Threads already gone are skipped.
func (j *Janitor) purgeThreadContents(ctx context.Context, threadID, agentID string) error {
	msgs, err := j.svc.ListMessages(ctx, threadID, foundry.ListOptions{Order: foundry.Ascending})
	if err != nil {
		if foundry.IsNotFound(err) {
			j.record(KindThread, threadID, agentID, StatusSkipped, "already deleted")
			return nil
		}
		return j.fail(KindThread, threadID, agentID, fmt.Errorf("failed to list messages for thread %s: %w", threadID, err))
	}

	if j.opts.DryRun {
		for _, m := range msgs {
			j.record(KindMessage, m.ID, threadID, StatusWouldDelete, m.Role)
		}
		j.record(KindThread, threadID, agentID, StatusWouldDelete, fmt.Sprintf("%d message(s)", len(msgs)))
		return nil
	}

	if err := j.archive(ctx, threadID, agentID, msgs); err != nil {
		return err
	}

	for _, m := range msgs {
		if err := j.svc.DeleteMessage(ctx, threadID, m.ID); err != nil {
			if foundry.IsNotFound(err) {
				j.record(KindMessage, m.ID, threadID, StatusSkipped, "already deleted")
				continue
			}
			return j.fail(KindMessage, m.ID, threadID, fmt.Errorf("failed to delete message %s: %w", m.ID, err))
		}
		j.record(KindMessage, m.ID, threadID, StatusDeleted, m.Role)
	}

	return j.deleteThread(ctx, threadID, agentID, fmt.Sprintf("%d message(s)", len(msgs)))
}

// PurgeThread archives and deletes one thread. reason is carried into the
// action detail. A thread that is already gone is recorded as skipped and is
// not an error.
func (j *Janitor) PurgeThread(ctx context.Context, threadID, reason string) error {
	if j.opts.DryRun {
		j.record(KindThread, threadID, "", StatusWouldDelete, reason)
		return nil
	}

	if j.opts.Archive != nil {
		msgs, err := j.svc.ListMessages(ctx, threadID, foundry.ListOptions{Order: foundry.Ascending})
		if err != nil {
			if foundry.IsNotFound(err) {
				j.record(KindThread, threadID, "", StatusSkipped, "already deleted")
				return nil
			}
			return j.fail(KindThread, threadID, "", fmt.Errorf("failed to list messages for thread %s: %w", threadID, err))
		}
		if err := j.archive(ctx, threadID, "", msgs); err != nil {
			return err
		}
	}

	return j.deleteThread(ctx, threadID, "", reason)
}

func (j *Janitor) deleteThread(ctx context.Context, threadID, parent, detail string) error {
	if err := j.svc.DeleteThread(ctx, threadID); err != nil {
		if foundry.IsNotFound(err) {
			log.Infof("thread %s already deleted or missing; skipping", threadID)
			j.record(KindThread, threadID, parent, StatusSkipped, "already deleted")
			return nil
		}
		return j.fail(KindThread, threadID, parent, fmt.Errorf("failed to delete thread %s: %w", threadID, err))
	}
	j.record(KindThread, threadID, parent, StatusDeleted, detail)
	return nil
}

// archive writes the transcript when an archive is configured. A thread is
// never deleted when its archive could not be written.
func (j *Janitor) archive(ctx context.Context, threadID, parent string, msgs []*foundry.Message) error {
	if j.opts.Archive == nil {
		return nil
	}

	thread, err := j.svc.GetThread(ctx, threadID)
	if err != nil {
		return j.fail(KindThread, threadID, parent, fmt.Errorf("failed to get thread %s: %w", threadID, err))
	}

	loc, err := j.opts.Archive.Thread(ctx, thread, msgs)
	if err != nil {
		return j.fail(KindThread, threadID, parent, fmt.Errorf("failed to archive thread %s: %w", threadID, err))
	}
	log.Debugf("archived thread %s to %s", threadID, loc)
	j.record(KindThread, threadID, parent, StatusArchived, loc)
	return nil
}
