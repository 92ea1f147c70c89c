// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package foundry

import (
	"context"
	"net/http"
	"net/url"
)

// ListThreads lists every thread in the project, following the list cursor.
func (c *Client) ListThreads(ctx context.Context, opts ListOptions) ([]*Thread, error) {
	return listAll(ctx, c, "/threads", opts, func(t *Thread) string { return t.ID })
}

// GetThread reads one thread. A missing thread is an *APIError with status 404.
func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	var t Thread
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteThread deletes a thread with its messages and runs.
func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	return c.delete(ctx, "/threads/"+url.PathEscape(threadID))
}

// ListMessages lists the messages of threadID in opts.Order.
func (c *Client) ListMessages(ctx context.Context, threadID string, opts ListOptions) ([]*Message, error) {
	return listAll(ctx, c, "/threads/"+url.PathEscape(threadID)+"/messages", opts,
		func(m *Message) string { return m.ID })
}

// PageMessages hands the messages of threadID to fn a page at a time and
// stops early when fn returns false.
func (c *Client) PageMessages(ctx context.Context, threadID string, opts ListOptions, fn func([]*Message) bool) error {
	return eachPage(ctx, c, "/threads/"+url.PathEscape(threadID)+"/messages", opts,
		func(m *Message) string { return m.ID }, fn)
}

// DeleteMessage deletes one message of threadID.
func (c *Client) DeleteMessage(ctx context.Context, threadID, messageID string) error {
	return c.delete(ctx, "/threads/"+url.PathEscape(threadID)+"/messages/"+url.PathEscape(messageID))
}
