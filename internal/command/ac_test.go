// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/foundryctl/internal/archive"
	"github.com/staranto/foundryctl/internal/cleanup"
	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/foundry/foundrytest"
	"github.com/staranto/foundryctl/internal/picker"
)

// seedOwned gives asst_1 a thread by agent_id and asst_2 a thread by run.
func seedOwned(t *testing.T) *foundrytest.Server {
	srv := foundrytest.New(t)
	srv.AddAgent("asst_1", "support", day(1))
	srv.AddAgent("asst_2", "sales", day(2))

	srv.AddThread("t_1", day(1), map[string]any{"agent_id": "asst_1"})
	srv.AddMessage("t_1", "m_1", "user", "hi", day(1))
	srv.AddMessage("t_1", "m_2", "assistant", "hello", day(1))

	srv.AddThread("t_2", day(2))
	srv.AddMessage("t_2", "m_3", "user", "quote?", day(2))
	srv.AddRun("t_2", "run_1", "asst_2", foundry.RunCompleted, day(2), day(2))
	return srv
}

func TestAc_NoTarget(t *testing.T) {
	srv := seedOwned(t)

	_, err := run(t, srv, "ac", "-o", "json")
	assert.ErrorIs(t, err, ErrNoTarget)

	_, err = run(t, srv, "ac", "--all", "--agent-id", "asst_1", "-o", "json")
	assert.ErrorContains(t, err, "mutually exclusive")
	assert.Empty(t, srv.Deletes())
}

func TestAc_SingleAgent(t *testing.T) {
	srv := seedOwned(t)

	out, err := run(t, srv, "ac", "--agent-id", "asst_1", "-o", "json")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/threads/t_1/messages/m_1",
		"/threads/t_1/messages/m_2",
		"/threads/t_1",
		"/assistants/asst_1",
	}, srv.Deletes(), "messages oldest first, then the thread, then the agent")
	assert.True(t, srv.HasAgent("asst_2"))
	assert.True(t, srv.HasThread("t_2"))

	rows := decodeRows(t, out)
	last := rows[len(rows)-1]
	assert.Equal(t, cleanup.KindAgent, last["kind"])
	assert.Equal(t, cleanup.StatusDeleted, last["status"])
}

func TestAc_AllNeedsConfirmation(t *testing.T) {
	srv := seedOwned(t)

	_, err := run(t, srv, "ac", "--all", "-o", "json")
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Empty(t, srv.Deletes())
}

func TestAc_AllDryRun(t *testing.T) {
	srv := seedOwned(t)

	out, err := run(t, srv, "ac", "--all", "--dry-run", "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, srv.Deletes())

	rows := decodeRows(t, out)
	assert.Len(t, rows, 7, "3 messages, 2 threads and 2 agents")
	for _, r := range rows {
		assert.Equal(t, cleanup.StatusWouldDelete, r["status"])
	}
}

func TestAc_AllYes(t *testing.T) {
	srv := seedOwned(t)

	_, err := run(t, srv, "ac", "--all", "--yes", "-o", "json")
	require.NoError(t, err)
	assert.False(t, srv.HasAgent("asst_1"))
	assert.False(t, srv.HasAgent("asst_2"))
	assert.False(t, srv.HasThread("t_1"))
	assert.False(t, srv.HasThread("t_2"))
}

func TestAc_Pick(t *testing.T) {
	srv := seedOwned(t)

	saved := pick
	t.Cleanup(func() { pick = saved })
	var offered []picker.Item
	pick = func(title string, items []picker.Item) ([]string, error) {
		offered = items
		return []string{"asst_2"}, nil
	}

	_, err := run(t, srv, "ac", "--pick", "-o", "json")
	require.NoError(t, err)
	require.Len(t, offered, 2)
	assert.Equal(t, "asst_2", offered[0].ID, "newest first")
	assert.Contains(t, offered[0].Label, "sales")
	assert.False(t, srv.HasAgent("asst_2"))
	assert.True(t, srv.HasAgent("asst_1"))

	pick = func(string, []picker.Item) ([]string, error) { return nil, picker.ErrCancelled }
	_, err = run(t, srv, "ac", "--pick", "-o", "json")
	assert.ErrorIs(t, err, picker.ErrCancelled)
}

func TestAc_FailureStopsAgent(t *testing.T) {
	srv := seedOwned(t)
	srv.Fail(http.MethodDelete, "/threads/t_1", http.StatusInternalServerError)

	out, err := run(t, srv, "ac", "--agent-id", "asst_1", "--agent-id", "asst_2", "--yes", "-o", "json")
	assert.ErrorContains(t, err, "1 of 2 agents could not be deleted")
	assert.True(t, srv.HasAgent("asst_1"), "agent kept when a thread failed")
	assert.False(t, srv.HasAgent("asst_2"))

	failed := 0
	for _, r := range decodeRows(t, out) {
		if r["status"] == cleanup.StatusFailed {
			failed++
		}
	}
	assert.Equal(t, 2, failed, "the thread and its agent")
}

func TestAc_ArchiveThenView(t *testing.T) {
	srv := seedOwned(t)
	dir := t.TempDir()

	_, err := run(t, srv, "ac", "--agent-id", "asst_1", "--archive", dir, "--passphrase", "s3cret", "-o", "json")
	require.NoError(t, err)

	path := filepath.Join(dir, "t_1"+archive.Extension)
	require.FileExists(t, path)

	out, err := run(t, nil, "av", "--passphrase", "s3cret", "-o", "json", path)
	require.NoError(t, err)
	rows := decodeRows(t, out)
	assert.Equal(t, []string{"m_1", "m_2"}, column(rows, "id"))
	assert.Equal(t, []string{"user", "assistant"}, column(rows, "role"))
}
