// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/foundry/foundrytest"
)

func seedAgents(t *testing.T) *foundrytest.Server {
	srv := foundrytest.New(t)
	srv.AddAgent("asst_1", "support", day(1))
	srv.AddAgent("asst_3", "sales", day(3))
	srv.AddAgent("asst_5", "support", day(5))
	return srv
}

func TestAq_List(t *testing.T) {
	srv := seedAgents(t)

	out, err := run(t, srv, "aq", "-o", "json")
	require.NoError(t, err)
	rows := decodeRows(t, out)
	assert.Equal(t, []string{"asst_5", "asst_3", "asst_1"}, column(rows, "id"))
	assert.Equal(t, "gpt-4o", rows[0]["model"])

	out, err = run(t, srv, "aq", "--limit", "2", "-o", "json")
	require.NoError(t, err)
	assert.Len(t, decodeRows(t, out), 2)
}

func TestAq_Name(t *testing.T) {
	srv := seedAgents(t)

	out, err := run(t, srv, "aq", "--name", "support", "-o", "json")
	require.NoError(t, err)
	rows := decodeRows(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"asst_5", "asst_1"}, column(rows, "id"))
	assert.Equal(t, true, rows[0]["latest"])
	assert.NotEqual(t, true, rows[1]["latest"])

	out, err = run(t, srv, "aq", "--name", "nobody", "-o", "json")
	require.NoError(t, err)
	assert.Empty(t, decodeRows(t, out))
}

func TestAq_BeforeDate(t *testing.T) {
	srv := seedAgents(t)

	out, err := run(t, srv, "aq", "--before-date", "2024-06-05", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"asst_1", "asst_3"}, column(decodeRows(t, out), "id"))

	// asst_3 was created exactly at the cutoff.
	out, err = run(t, srv, "aq", "--before-date", "2024-06-04", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"asst_1"}, column(decodeRows(t, out), "id"))

	_, err = run(t, srv, "aq", "--before-date", "last tuesday", "-o", "json")
	assert.Error(t, err)
}

func TestAq_Days(t *testing.T) {
	srv := seedAgents(t)
	srv.AddAgent("asst_new", "fresh", today.AddDate(0, 0, -1))

	// day(40) less 36 days is day(4).
	out, err := run(t, srv, "aq", "--days", "36", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"asst_1", "asst_3"}, column(decodeRows(t, out), "id"))
}

func TestLq(t *testing.T) {
	srv := seedAgents(t)
	srv.AddThread("t_1", day(2))
	srv.AddRun("t_1", "run_a", "asst_1", foundry.RunCompleted, day(2), day(2))
	srv.AddRun("t_1", "run_b", "asst_1", foundry.RunCompleted, day(6), day(6))
	srv.AddThread("t_3", day(3))
	srv.AddRun("t_3", "run_c", "asst_3", foundry.RunCompleted, day(20), day(20))
	srv.AddRun("t_3", "run_d", "asst_3", foundry.RunFailed, day(30), time.Time{})

	out, err := run(t, srv, "lq", "-o", "json")
	require.NoError(t, err)
	rows := decodeRows(t, out)
	require.Len(t, rows, 3)
	byAgent := map[string]map[string]any{}
	for _, r := range rows {
		byAgent[r["agent"].(string)] = r
	}
	assert.Equal(t, "run_b", byAgent["asst_1"]["run_id"])
	assert.Equal(t, "run_c", byAgent["asst_3"]["run_id"])
	assert.Nil(t, byAgent["asst_5"]["run_id"], "never completed")

	out, err = run(t, srv, "lq", "--before-date", "2024-06-10", "-o", "json")
	require.NoError(t, err)
	rows = decodeRows(t, out)
	assert.Equal(t, []string{"asst_1"}, column(rows, "agent"))
	assert.Equal(t, "t_1", rows[0]["thread_id"])
}
