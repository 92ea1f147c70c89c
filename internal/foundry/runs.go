// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package foundry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/apex/log"
)

// ErrRunFailed is wrapped by WaitRun when a run ends in the failed state.
var ErrRunFailed = errors.New("run failed")

// ListRuns lists the runs on threadID.
func (c *Client) ListRuns(ctx context.Context, threadID string, opts ListOptions) ([]*Run, error) {
	return listAll(ctx, c, "/threads/"+url.PathEscape(threadID)+"/runs", opts,
		func(r *Run) string { return r.ID })
}

// GetRun reads one run of threadID.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var r Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

type threadMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type threadAndRunRequest struct {
	AssistantID string `json:"assistant_id"`
	Thread      struct {
		Messages []threadMessage `json:"messages"`
	} `json:"thread"`
}

// CreateThreadAndRun creates a thread seeded with user messages and starts a
// run of agentID on it.
func (c *Client) CreateThreadAndRun(ctx context.Context, agentID string, messages ...string) (*Run, error) {
	req := threadAndRunRequest{AssistantID: agentID}
	for _, m := range messages {
		req.Thread.Messages = append(req.Thread.Messages, threadMessage{Role: "user", Content: m})
	}

	var r Run
	if err := c.do(ctx, http.MethodPost, "/threads/runs", nil, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// WaitRun polls run every interval while it is pending. onPoll, if set, sees
// every refreshed run. A failed run returns the run and an error wrapping
// ErrRunFailed.
func (c *Client) WaitRun(ctx context.Context, run *Run, interval time.Duration, onPoll func(*Run)) (*Run, error) {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for run.Pending() {
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-ticker.C:
		}

		next, err := c.GetRun(ctx, run.ThreadID, run.ID)
		if err != nil {
			return run, err
		}
		run = next
		log.Debugf("run %s status: %s", run.ID, run.Status)
		if onPoll != nil {
			onPoll(run)
		}
	}

	if run.Status == RunFailed {
		return run, fmt.Errorf("run %s: %s: %w", run.ID, run.LastError, ErrRunFailed)
	}
	return run, nil
}
