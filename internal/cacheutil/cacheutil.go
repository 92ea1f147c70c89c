// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cacheutil is a disposable on-disk cache. Entries are files named by
// the MD5 of their clear-text key beneath optional subdirectories.
package cacheutil

import (
	"bytes"
	"crypto/md5" //nolint:gosec
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// Entry is a cached artifact on disk.
type Entry struct {
	Key        string
	EncodedKey string
	Path       string
	Data       []byte
	ModTime    time.Time
}

// Dir resolves the base cache directory: FOUNDRYCTL_CACHE_DIR, else
// os.UserCacheDir()/foundryctl. ("", false) means caching is unavailable.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("FOUNDRYCTL_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "foundryctl"), true
	}
	return "", false
}

// Enabled is true unless FOUNDRYCTL_CACHE is "0" or "false".
func Enabled() bool {
	v := os.Getenv("FOUNDRYCTL_CACHE")
	return v != "0" && v != "false"
}

// EnsureBaseDir creates the base directory when caching is enabled.
func EnsureBaseDir() (string, bool, error) {
	if !Enabled() {
		return "", false, nil
	}
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// EntryPath returns where the entry for clearKey lives and whether it exists.
func EntryPath(subdirs []string, clearKey string) (string, bool) {
	base, ok := Dir()
	if !ok {
		return "", false
	}
	p := filepath.Join(append(append([]string{base}, subdirs...), encodeKey(clearKey))...)
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return p, false
}

// Purge removes entries older than hours. hours <= 0 disables purging.
func Purge(hours int) error {
	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return nil
	}
	base, ok := Dir()
	if !ok {
		return nil
	}

	maxAge := time.Duration(hours) * time.Hour
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if time.Since(info.ModTime()) > maxAge {
			if err := os.Remove(path); err != nil {
				log.WithError(err).Warnf("failed to remove cache file %s", path)
			} else {
				log.Debugf("removed cache file %s", path)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Read returns the cached entry for clearKey.
func Read(subdirs []string, clearKey string) (*Entry, bool) {
	if !Enabled() {
		return nil, false
	}
	p, ok := EntryPath(subdirs, clearKey)
	if !ok {
		return nil, false
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return &Entry{
		Key:        clearKey,
		EncodedKey: encodeKey(clearKey),
		Path:       p,
		Data:       bytes.TrimSpace(b),
		ModTime:    info.ModTime(),
	}, true
}

// Write stores data for clearKey, creating directories as needed. A disabled
// cache silently drops the write.
func Write(subdirs []string, clearKey string, data []byte) error {
	if !Enabled() {
		return nil
	}
	base, ok := Dir()
	if !ok {
		return nil
	}
	dir := filepath.Join(append([]string{base}, subdirs...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	p := filepath.Join(dir, encodeKey(clearKey))
	if err := os.WriteFile(p, data, 0o600); err != nil { //nolint:mnd
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Remember returns the cached data for clearKey, or calls fetch and caches its
// result. hit reports whether the data came from the cache. Cache write
// failures are logged, not returned.
func Remember(subdirs []string, clearKey string, fetch func() ([]byte, error)) (data []byte, hit bool, err error) {
	if e, ok := Read(subdirs, clearKey); ok && len(e.Data) > 0 {
		log.Debugf("cache hit: %s", clearKey)
		return e.Data, true, nil
	}

	data, err = fetch()
	if err != nil {
		return nil, false, err
	}

	if werr := Write(subdirs, clearKey, data); werr != nil {
		log.WithError(werr).Warn("cache write failed")
	}
	return data, false, nil
}

func encodeKey(k string) string {
	sum := md5.Sum([]byte(k)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
