// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is wrapped by ParseCutoff for unparseable input.
var ErrInvalidDate = errors.New("invalid date; expect ISO-8601 such as 2024-05-01 or 2024-05-01T12:34:56")

// DefaultDays is the cutoff age used when no explicit date is given.
const DefaultDays = 30

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999Z07:00",
}

var localLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05.999999999",
}

// ParseCutoff parses an ISO-8601 date or datetime. A value without a zone is
// taken as UTC. The result is always in UTC.
func ParseCutoff(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ResolveCutoff returns the parsed before date, or now minus days when before
// is empty.
func ResolveCutoff(before string, days int, now time.Time) (time.Time, error) {
	if before != "" {
		return ParseCutoff(before)
	}
	if days < 0 {
		return time.Time{}, fmt.Errorf("days must not be negative: %d", days)
	}
	return now.UTC().AddDate(0, 0, -days), nil
}
