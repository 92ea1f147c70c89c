// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/foundry/foundrytest"
)

func TestAs(t *testing.T) {
	srv := foundrytest.New(t)

	out, err := run(t, srv, "as",
		"--model", "gpt-4o",
		"--thread-count", "2",
		"--message-template", "Ping {index}",
		"--poll-interval", "1ms",
		"-o", "json",
	)
	require.NoError(t, err)

	rows := decodeRows(t, out)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"user", "assistant", "user", "assistant"}, column(rows, "role"))
	assert.Equal(t, "Ping 1", rows[0]["text"])
	assert.Equal(t, "Ping 2", rows[2]["text"])
	assert.NotEqual(t, rows[0]["thread"], rows[2]["thread"])
}

func TestAs_FailedRuns(t *testing.T) {
	srv := foundrytest.New(t)
	srv.RunOutcome(foundry.RunFailed)

	out, err := run(t, srv, "as", "--model", "gpt-4o", "--thread-count", "2", "--poll-interval", "1ms", "-o", "json")
	assert.ErrorContains(t, err, "2 of 2 threads failed")
	assert.Empty(t, decodeRows(t, out))
}

func TestAs_ModelRequired(t *testing.T) {
	t.Setenv("MODEL_DEPLOYMENT_NAME", "")
	srv := foundrytest.New(t)

	_, err := run(t, srv, "as", "-o", "json")
	assert.ErrorIs(t, err, ErrModelNotSet)
}
