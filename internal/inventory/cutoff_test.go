// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCutoff(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-05-01", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2024-05-01T12:34", want: time.Date(2024, 5, 1, 12, 34, 0, 0, time.UTC)},
		{in: "2024-05-01T12:34:56", want: time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)},
		{in: "2024-05-01 12:34:56", want: time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)},
		{in: "2024-05-01T12:34:56.5", want: time.Date(2024, 5, 1, 12, 34, 56, 500000000, time.UTC)},
		{in: "2024-05-01T12:34:56Z", want: time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)},
		{in: "2024-05-01T12:34:56+02:00", want: time.Date(2024, 5, 1, 10, 34, 56, 0, time.UTC)},
		{in: " 2024-05-01 ", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{in: "", wantErr: true},
		{in: "05/01/2024", wantErr: true},
		{in: "2024-13-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCutoff(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestResolveCutoff(t *testing.T) {
	now := time.Date(2024, 6, 30, 8, 0, 0, 0, time.UTC)

	got, err := ResolveCutoff("", DefaultDays, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 31, 8, 0, 0, 0, time.UTC), got)

	got, err = ResolveCutoff("2024-01-01", 7, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ResolveCutoff("yesterday", 7, now)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ResolveCutoff("", -1, now)
	assert.Error(t, err)
}
