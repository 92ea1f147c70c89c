// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yeah\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := confirm(strings.NewReader(tt.input), &out, "Delete 3 agents?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Delete 3 agents? [y/N]: ", out.String())
		})
	}
}

func TestNoTerminal(t *testing.T) {
	// -1 is never a terminal.
	term := &Terminal{In: strings.NewReader("y\n"), Out: &bytes.Buffer{}, Fd: -1}
	assert.False(t, term.IsTerminal())

	_, err := term.Confirm("sure?")
	assert.ErrorIs(t, err, ErrNoTerminal)

	_, err = term.Passphrase("Passphrase", false)
	assert.ErrorIs(t, err, ErrNoTerminal)
}
