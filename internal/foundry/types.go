// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package foundry

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sort orders accepted by the list endpoints.
const (
	Ascending  = "asc"
	Descending = "desc"
)

// Run statuses.
const (
	RunQueued         = "queued"
	RunInProgress     = "in_progress"
	RunRequiresAction = "requires_action"
	RunCompleted      = "completed"
	RunFailed         = "failed"
	RunCancelled      = "cancelled"
	RunExpired        = "expired"
)

// Agent is an agent definition. The data plane still names it assistant.
type Agent struct {
	ID           string            `jsonapi:"primary,agents" json:"id"`
	Name         string            `jsonapi:"attr,name" json:"name"`
	Description  string            `jsonapi:"attr,description,omitempty" json:"description,omitempty"`
	Model        string            `jsonapi:"attr,model" json:"model"`
	Instructions string            `jsonapi:"attr,instructions,omitempty" json:"instructions,omitempty"`
	Tools        []string          `jsonapi:"attr,tools,omitempty" json:"-"`
	Metadata     map[string]string `jsonapi:"attr,metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt    *time.Time        `jsonapi:"attr,created_at,iso8601,omitempty" json:"-"`
	// Latest marks the newest of several agents sharing a name.
	Latest       bool              `jsonapi:"attr,latest,omitempty" json:"-"`
}

func (a *Agent) UnmarshalJSON(b []byte) error {
	type alias Agent
	aux := struct {
		*alias
		CreatedAt *int64 `json:"created_at"`
		Tools     []struct {
			Type string `json:"type"`
		} `json:"tools"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	a.CreatedAt = unixTime(aux.CreatedAt)
	a.Tools = a.Tools[:0]
	for _, t := range aux.Tools {
		a.Tools = append(a.Tools, t.Type)
	}
	return nil
}

// Thread is a conversation container. AgentID is only set by services that
// record the owning agent on the thread.
type Thread struct {
	ID        string            `jsonapi:"primary,threads" json:"id"`
	AgentID   string            `jsonapi:"attr,agent_id,omitempty" json:"agent_id,omitempty"`
	Metadata  map[string]string `jsonapi:"attr,metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt *time.Time        `jsonapi:"attr,created_at,iso8601,omitempty" json:"-"`
}

func (t *Thread) UnmarshalJSON(b []byte) error {
	type alias Thread
	aux := struct {
		*alias
		CreatedAt *int64 `json:"created_at"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.CreatedAt = unixTime(aux.CreatedAt)
	return nil
}

// Message is one thread message. Raw keeps the service document so callers
// can probe fields this type does not model.
type Message struct {
	ID        string          `jsonapi:"primary,messages" json:"id"`
	ThreadID  string          `jsonapi:"attr,thread_id" json:"thread_id"`
	Role      string          `jsonapi:"attr,role" json:"role"`
	Text      string          `jsonapi:"attr,text,omitempty" json:"-"`
	AgentID   string          `jsonapi:"attr,agent_id,omitempty" json:"assistant_id,omitempty"`
	RunID     string          `jsonapi:"attr,run_id,omitempty" json:"run_id,omitempty"`
	CreatedAt *time.Time      `jsonapi:"attr,created_at,iso8601,omitempty" json:"-"`
	Raw       json.RawMessage `json:"-"`
}

func (m *Message) UnmarshalJSON(b []byte) error {
	type alias Message
	aux := struct {
		*alias
		CreatedAt *int64 `json:"created_at"`
		Content   []struct {
			Type string `json:"type"`
			Text *struct {
				Value string `json:"value"`
			} `json:"text"`
		} `json:"content"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	m.CreatedAt = unixTime(aux.CreatedAt)
	m.Raw = append(json.RawMessage(nil), b...)

	// The last text part is the preview.
	m.Text = ""
	for _, c := range aux.Content {
		if c.Type == "text" && c.Text != nil {
			m.Text = c.Text.Value
		}
	}
	if m.Text == "" && len(aux.Content) > 0 {
		m.Text = "<non-text payload>"
	}
	return nil
}

// Run is one execution of an agent on a thread.
type Run struct {
	ID          string     `jsonapi:"primary,runs" json:"id"`
	ThreadID    string     `jsonapi:"attr,thread_id" json:"thread_id"`
	AgentID     string     `jsonapi:"attr,agent_id" json:"-"`
	Status      string     `jsonapi:"attr,status" json:"status"`
	LastError   string     `jsonapi:"attr,last_error,omitempty" json:"-"`
	CreatedAt   *time.Time `jsonapi:"attr,created_at,iso8601,omitempty" json:"-"`
	CompletedAt *time.Time `jsonapi:"attr,completed_at,iso8601,omitempty" json:"-"`
}

func (r *Run) UnmarshalJSON(b []byte) error {
	type alias Run
	aux := struct {
		*alias
		AssistantID string `json:"assistant_id"`
		AgentID     string `json:"agent_id"`
		CreatedAt   *int64 `json:"created_at"`
		CompletedAt *int64 `json:"completed_at"`
		LastError   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"last_error"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.AgentID = aux.AssistantID
	if r.AgentID == "" {
		r.AgentID = aux.AgentID
	}
	r.CreatedAt = unixTime(aux.CreatedAt)
	r.CompletedAt = unixTime(aux.CompletedAt)
	r.LastError = ""
	if aux.LastError != nil && (aux.LastError.Code != "" || aux.LastError.Message != "") {
		r.LastError = fmt.Sprintf("%s: %s", aux.LastError.Code, aux.LastError.Message)
	}
	return nil
}

// Pending reports whether the run is still being worked on.
func (r *Run) Pending() bool {
	switch r.Status {
	case RunQueued, RunInProgress, RunRequiresAction:
		return true
	}
	return false
}

// ListOptions bound a paginated listing. Limit <= 0 means everything.
type ListOptions struct {
	Order string
	Limit int
}

type page[T any] struct {
	Data    []T    `json:"data"`
	FirstID string `json:"first_id"`
	LastID  string `json:"last_id"`
	HasMore bool   `json:"has_more"`
}

type deleteStatus struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

func unixTime(v *int64) *time.Time {
	if v == nil || *v <= 0 {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}
