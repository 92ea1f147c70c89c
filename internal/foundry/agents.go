// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package foundry

import (
	"context"
	"net/http"
	"net/url"
)

// AgentRequest is the body of a create agent call.
type AgentRequest struct {
	Model        string            `json:"model"`
	Name         string            `json:"name,omitempty"`
	Description  string            `json:"description,omitempty"`
	Instructions string            `json:"instructions,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ListAgents lists the agents of the project, following the list cursor until
// opts.Limit agents were read or the listing ends.
func (c *Client) ListAgents(ctx context.Context, opts ListOptions) ([]*Agent, error) {
	return listAll(ctx, c, "/assistants", opts, func(a *Agent) string { return a.ID })
}

// GetAgent reads one agent by id.
func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	var a Agent
	if err := c.do(ctx, http.MethodGet, "/assistants/"+url.PathEscape(agentID), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAgent creates an agent from req and returns it as stored.
func (c *Client) CreateAgent(ctx context.Context, req AgentRequest) (*Agent, error) {
	var a Agent
	if err := c.do(ctx, http.MethodPost, "/assistants", nil, req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAgent deletes an agent. Its threads are left in place.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) error {
	return c.delete(ctx, "/assistants/"+url.PathEscape(agentID))
}

// delete issues a DELETE and checks the deleted flag of the response.
func (c *Client) delete(ctx context.Context, path string) error {
	var st deleteStatus
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &st); err != nil {
		return err
	}
	if !st.Deleted {
		return &NotDeletedError{Path: path}
	}
	return nil
}
