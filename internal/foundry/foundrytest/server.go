// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package foundrytest is an in-memory agents data plane for tests.
package foundrytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/staranto/foundryctl/internal/azure"
	"github.com/staranto/foundryctl/internal/foundry"
)

// ProjectPath is the endpoint path the fake serves.
const ProjectPath = "/api/projects/test"

type record struct {
	seq  int
	id   string
	body map[string]any
}

func (r *record) created() int64 {
	switch v := r.body["created_at"].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Server is an httptest server with agents, threads, messages and runs held
// in memory.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	seq      int
	agents   []*record
	threads  []*record
	messages map[string][]*record
	runs     map[string][]*record
	faults   map[string]int
	hits     map[string]int
	deletes  []string
	outcome  string
	now      func() time.Time
}

// New starts a fake and stops it when t finishes.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		messages: map[string][]*record{},
		runs:     map[string][]*record{},
		faults:   map[string]int{},
		hits:     map[string]int{},
		outcome:  foundry.RunCompleted,
		now:      time.Now,
	}

	r := chi.NewRouter()
	r.Route(ProjectPath, func(r chi.Router) {
		r.Use(s.checkRequest)

		r.Get("/assistants", s.listAgents)
		r.Post("/assistants", s.createAgent)
		r.Get("/assistants/{id}", s.getAgent)
		r.Delete("/assistants/{id}", s.deleteAgent)

		r.Post("/threads/runs", s.createThreadAndRun)
		r.Get("/threads", s.listThreads)
		r.Get("/threads/{tid}", s.getThread)
		r.Delete("/threads/{tid}", s.deleteThread)
		r.Get("/threads/{tid}/messages", s.listMessages)
		r.Delete("/threads/{tid}/messages/{mid}", s.deleteMessage)
		r.Get("/threads/{tid}/runs", s.listRuns)
		r.Get("/threads/{tid}/runs/{rid}", s.getRun)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Endpoint is the project endpoint to hand to foundry.NewClient.
func (s *Server) Endpoint() string {
	return s.URL + ProjectPath
}

// NewClient returns a client wired to the fake with retries disabled.
func (s *Server) NewClient(t testing.TB, opts ...foundry.Option) *foundry.Client {
	t.Helper()
	opts = append([]foundry.Option{
		foundry.WithHTTPClient(s.Server.Client()),
		foundry.WithRetryMax(0),
	}, opts...)
	c, err := foundry.NewClient(s.Endpoint(), azure.StaticTokenCredential{Token: "test-token"}, opts...)
	if err != nil {
		t.Fatalf("foundrytest: %v", err)
	}
	return c
}

// Fail makes method+path (relative to the project, e.g. "/threads/t1")
// answer with status until cleared with status 0.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.faults, key)
		return
	}
	s.faults[key] = status
}

// RunOutcome sets the terminal status new runs reach, completed by default.
func (s *Server) RunOutcome(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcome = status
}

func unix(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

func (s *Server) next() int {
	s.seq++
	return s.seq
}

func (s *Server) AddAgent(id, name string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = append(s.agents, &record{seq: s.next(), id: id, body: map[string]any{
		"id": id, "object": "assistant", "name": name, "model": "gpt-4o",
		"created_at": unix(createdAt), "tools": []any{}, "metadata": map[string]any{},
	}})
}

// AddThread adds a thread. extra fields, e.g. agent_id, are merged in.
func (s *Server) AddThread(id string, createdAt time.Time, extra ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := map[string]any{"id": id, "object": "thread", "created_at": unix(createdAt), "metadata": map[string]any{}}
	for _, e := range extra {
		for k, v := range e {
			body[k] = v
		}
	}
	s.threads = append(s.threads, &record{seq: s.next(), id: id, body: body})
}

func (s *Server) AddMessage(threadID, id, role, text string, createdAt time.Time) {
	s.AddRawMessage(threadID, map[string]any{
		"id": id, "role": role, "created_at": unix(createdAt),
		"content": []any{map[string]any{"type": "text", "text": map[string]any{"value": text, "annotations": []any{}}}},
	})
}

// AddRawMessage adds a message document as is, for timestamp probing tests.
func (s *Server) AddRawMessage(threadID string, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body["object"] = "thread.message"
	body["thread_id"] = threadID
	id, _ := body["id"].(string)
	s.messages[threadID] = append(s.messages[threadID], &record{seq: s.next(), id: id, body: body})
}

func (s *Server) AddRun(threadID, id, agentID, status string, createdAt, completedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[threadID] = append(s.runs[threadID], &record{seq: s.next(), id: id, body: map[string]any{
		"id": id, "object": "thread.run", "thread_id": threadID, "assistant_id": agentID,
		"status": status, "created_at": unix(createdAt), "completed_at": unix(completedAt),
	}})
}

func (s *Server) HasAgent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.agents, id) >= 0
}

func (s *Server) HasThread(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find(s.threads, id) >= 0
}

func (s *Server) MessageCount(threadID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[threadID])
}

// Requests counts the authenticated requests made to method+path.
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Deletes returns the relative paths of every successful DELETE, in order.
func (s *Server) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

func find(recs []*record, id string) int {
	for i, r := range recs {
		if r.id == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"code": code, "message": message}})
}

func (s *Server) checkRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if r.URL.Query().Get("api-version") == "" {
			writeError(w, http.StatusBadRequest, "missing_api_version", "api-version is required")
			return
		}

		rel := strings.TrimPrefix(r.URL.Path, ProjectPath)
		s.mu.Lock()
		s.hits[r.Method+" "+rel]++
		status, fail := s.faults[r.Method+" "+rel]
		s.mu.Unlock()
		if fail {
			writeError(w, status, "injected", http.StatusText(status))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// list pages recs per the limit/order/after query parameters. Callers hold mu.
func list(w http.ResponseWriter, r *http.Request, recs []*record) {
	sorted := append([]*record(nil), recs...)
	desc := r.URL.Query().Get("order") != foundry.Ascending
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.created() != b.created() {
			if desc {
				return a.created() > b.created()
			}
			return a.created() < b.created()
		}
		if desc {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})

	if after := r.URL.Query().Get("after"); after != "" {
		idx := find(sorted, after)
		if idx < 0 {
			writeError(w, http.StatusBadRequest, "invalid_cursor", "unknown after cursor "+after)
			return
		}
		sorted = sorted[idx+1:]
	}

	limit := 20
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	hasMore := len(sorted) > limit
	if hasMore {
		sorted = sorted[:limit]
	}

	data := make([]any, 0, len(sorted))
	for _, rec := range sorted {
		data = append(data, rec.body)
	}

	resp := map[string]any{"object": "list", "data": data, "has_more": hasMore, "first_id": nil, "last_id": nil}
	if len(sorted) > 0 {
		resp["first_id"] = sorted[0].id
		resp["last_id"] = sorted[len(sorted)-1].id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleted(w http.ResponseWriter, r *http.Request, id, object string) {
	s.deletes = append(s.deletes, strings.TrimPrefix(r.URL.Path, ProjectPath))
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "object": object, "deleted": true})
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list(w, r, s.agents)
}

func (s *Server) getAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := find(s.agents, chi.URLParam(r, "id"))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "not_found", "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, s.agents[idx].body)
}

func (s *Server) createAgent(w http.ResponseWriter, r *http.Request) {
	var req foundry.AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "model is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("asst_%03d", s.next())
	body := map[string]any{
		"id": id, "object": "assistant", "name": req.Name, "model": req.Model,
		"instructions": req.Instructions, "created_at": s.now().Unix(), "tools": []any{},
		"metadata": map[string]any{},
	}
	s.agents = append(s.agents, &record{seq: s.seq, id: id, body: body})
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) deleteAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	idx := find(s.agents, id)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "not_found", "agent not found")
		return
	}
	s.agents = append(s.agents[:idx], s.agents[idx+1:]...)
	s.deleted(w, r, id, "assistant.deleted")
}

func (s *Server) listThreads(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list(w, r, s.threads)
}

func (s *Server) getThread(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := find(s.threads, chi.URLParam(r, "tid"))
	if idx < 0 {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}
	writeJSON(w, http.StatusOK, s.threads[idx].body)
}

func (s *Server) deleteThread(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "tid")
	idx := find(s.threads, id)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}
	s.threads = append(s.threads[:idx], s.threads[idx+1:]...)
	delete(s.messages, id)
	delete(s.runs, id)
	s.deleted(w, r, id, "thread.deleted")
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tid := chi.URLParam(r, "tid")
	if find(s.threads, tid) < 0 {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}
	list(w, r, s.messages[tid])
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tid, mid := chi.URLParam(r, "tid"), chi.URLParam(r, "mid")
	msgs := s.messages[tid]
	idx := find(msgs, mid)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "not_found", "message not found")
		return
	}
	s.messages[tid] = append(msgs[:idx], msgs[idx+1:]...)
	s.deleted(w, r, mid, "thread.message.deleted")
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tid := chi.URLParam(r, "tid")
	if find(s.threads, tid) < 0 {
		writeError(w, http.StatusNotFound, "not_found", "thread not found")
		return
	}
	list(w, r, s.runs[tid])
}

// getRun advances a pending run to the configured outcome, adding the agent's
// reply on completion.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tid, rid := chi.URLParam(r, "tid"), chi.URLParam(r, "rid")
	runs := s.runs[tid]
	idx := find(runs, rid)
	if idx < 0 {
		writeError(w, http.StatusNotFound, "not_found", "run not found")
		return
	}

	run := runs[idx].body
	if run["status"] == foundry.RunQueued || run["status"] == foundry.RunInProgress {
		now := s.now().Unix()
		run["status"] = s.outcome
		switch s.outcome {
		case foundry.RunCompleted:
			run["completed_at"] = now
			mid := fmt.Sprintf("msg_%03d", s.next())
			s.messages[tid] = append(s.messages[tid], &record{seq: s.seq, id: mid, body: map[string]any{
				"id": mid, "object": "thread.message", "thread_id": tid, "role": "assistant",
				"assistant_id": run["assistant_id"], "run_id": rid, "created_at": now,
				"content": []any{map[string]any{"type": "text", "text": map[string]any{"value": "Happy to help!"}}},
			}})
		case foundry.RunFailed:
			run["failed_at"] = now
			run["last_error"] = map[string]any{"code": "server_error", "message": "model unavailable"}
		}
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) createThreadAndRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssistantID string `json:"assistant_id"`
		Thread      struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		} `json:"thread"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if find(s.agents, req.AssistantID) < 0 {
		writeError(w, http.StatusNotFound, "not_found", "agent not found")
		return
	}

	now := s.now().Unix()
	tid := fmt.Sprintf("thread_%03d", s.next())
	s.threads = append(s.threads, &record{seq: s.seq, id: tid, body: map[string]any{
		"id": tid, "object": "thread", "created_at": now, "metadata": map[string]any{},
	}})
	for _, m := range req.Thread.Messages {
		mid := fmt.Sprintf("msg_%03d", s.next())
		s.messages[tid] = append(s.messages[tid], &record{seq: s.seq, id: mid, body: map[string]any{
			"id": mid, "object": "thread.message", "thread_id": tid, "role": m.Role, "created_at": now,
			"content": []any{map[string]any{"type": "text", "text": map[string]any{"value": m.Content}}},
		}})
	}

	rid := fmt.Sprintf("run_%03d", s.next())
	run := map[string]any{
		"id": rid, "object": "thread.run", "thread_id": tid, "assistant_id": req.AssistantID,
		"status": foundry.RunQueued, "created_at": now, "completed_at": nil,
	}
	s.runs[tid] = append(s.runs[tid], &record{seq: s.seq, id: rid, body: run})
	writeJSON(w, http.StatusOK, run)
}
