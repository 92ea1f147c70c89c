// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cacheutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withCacheDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FOUNDRYCTL_CACHE_DIR", dir)
	t.Setenv("FOUNDRYCTL_CACHE", "")
	return dir
}

func TestEnabled(t *testing.T) {
	for _, tt := range []struct {
		value string
		want  bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"0", false},
		{"false", false},
	} {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FOUNDRYCTL_CACHE", tt.value)
			assert.Equal(t, tt.want, Enabled())
		})
	}
}

func TestDir_Override(t *testing.T) {
	dir := withCacheDir(t)
	got, ok := Dir()
	assert.True(t, ok)
	assert.Equal(t, dir, got)
}

func TestWriteRead(t *testing.T) {
	dir := withCacheDir(t)
	subdirs := []string{"models", "sub-1"}

	_, ok := Read(subdirs, "eastus")
	assert.False(t, ok)

	require.NoError(t, Write(subdirs, "eastus", []byte("[1,2,3]\n")))

	e, ok := Read(subdirs, "eastus")
	require.True(t, ok)
	assert.Equal(t, []byte("[1,2,3]"), e.Data)
	assert.Equal(t, encodeKey("eastus"), e.EncodedKey)
	assert.Equal(t, filepath.Join(dir, "models", "sub-1", encodeKey("eastus")), e.Path)
}

func TestWrite_Disabled(t *testing.T) {
	dir := withCacheDir(t)
	t.Setenv("FOUNDRYCTL_CACHE", "0")

	require.NoError(t, Write(nil, "k", []byte("v")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, ok := Read(nil, "k")
	assert.False(t, ok)
}

func TestRemember(t *testing.T) {
	withCacheDir(t)

	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte(`{"models":[]}`), nil
	}

	data, hit, err := Remember([]string{"models"}, "sub/eastus", fetch)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, `{"models":[]}`, string(data))

	data, hit, err = Remember([]string{"models"}, "sub/eastus", fetch)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, `{"models":[]}`, string(data))
	assert.Equal(t, 1, calls)
}

func TestRemember_FetchError(t *testing.T) {
	withCacheDir(t)

	boom := errors.New("boom")
	_, _, err := Remember(nil, "k", func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := Read(nil, "k")
	assert.False(t, ok)
}

func TestPurge(t *testing.T) {
	withCacheDir(t)

	require.NoError(t, Write([]string{"models"}, "old", []byte("x")))
	require.NoError(t, Write([]string{"models"}, "new", []byte("y")))

	oldPath, ok := EntryPath([]string{"models"}, "old")
	require.True(t, ok)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	require.NoError(t, Purge(0))
	_, ok = EntryPath([]string{"models"}, "old")
	assert.True(t, ok, "purge disabled for hours <= 0")

	require.NoError(t, Purge(24))
	_, ok = EntryPath([]string{"models"}, "old")
	assert.False(t, ok)
	_, ok = EntryPath([]string{"models"}, "new")
	assert.True(t, ok)
}

func TestPurge_MissingDir(t *testing.T) {
	t.Setenv("FOUNDRYCTL_CACHE_DIR", filepath.Join(t.TempDir(), "missing"))
	assert.NoError(t, Purge(1))
}
