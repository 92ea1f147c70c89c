// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/foundryctl/internal/foundry"
)

// timestampFields are probed on each message, then metadataFields under
// metadata.
var (
	timestampFields = []string{
		"created_at", "created_on", "created_datetime", "modified_at",
		"updated_at", "last_modified", "timestamp",
	}
	metadataFields = []string{"created_at", "created_on", "timestamp"}
)

// Activity is a thread with the time of its latest message. Messages counts
// the messages read to find it.
type Activity struct {
	Thread   *foundry.Thread
	Latest   *time.Time
	Messages int
	Err      error
}

// Stale reports whether the thread qualifies for cleanup at cutoff. Threads
// without a timestamp qualify unless skipEmpty. Threads whose messages could
// not be listed never qualify.
func (a Activity) Stale(cutoff time.Time, skipEmpty bool) bool {
	if a.Err != nil {
		return false
	}
	if a.Latest == nil {
		return !skipEmpty
	}
	return a.Latest.Before(cutoff)
}

// MessageTime probes raw for the first usable timestamp. Numbers are unix
// seconds, zero being the epoch, strings ISO-8601 with UTC assumed when the zone is absent.
func MessageTime(raw []byte) *time.Time {
	doc := gjson.ParseBytes(raw)
	for _, f := range timestampFields {
		if t := normalize(doc.Get(f)); t != nil {
			return t
		}
	}
	meta := doc.Get("metadata")
	if meta.IsObject() {
		for _, f := range metadataFields {
			if t := normalize(meta.Get(f)); t != nil {
				return t
			}
		}
	}
	return nil
}

func normalize(v gjson.Result) *time.Time {
	switch v.Type {
	case gjson.Number:
		sec := int64(v.Float())
		nsec := int64((v.Float() - float64(sec)) * 1e9)
		t := time.Unix(sec, nsec).UTC()
		return &t
	case gjson.String:
		t, err := ParseCutoff(v.String())
		if err != nil {
			return nil
		}
		return &t
	}
	return nil
}

// LatestMessageTime returns the timestamp of the newest message that carries
// one, nil when no message does. Messages are read newest first a page at a
// time and the walk stops at the first page holding a timestamp, so the count
// returned is the number of messages read rather than the thread total.
func (inv *Inventory) LatestMessageTime(ctx context.Context, threadID string) (*time.Time, int, error) {
	var latest *time.Time
	read := 0
	err := inv.svc.PageMessages(ctx, threadID, foundry.ListOptions{Order: foundry.Descending},
		func(msgs []*foundry.Message) bool {
			for _, m := range msgs {
				read++
				if latest == nil {
					latest = MessageTime(m.Raw)
				}
			}
			return latest == nil
		})
	if err != nil {
		return nil, read, fmt.Errorf("failed to list messages for thread %s: %w", threadID, err)
	}
	return latest, read, nil
}

// ThreadActivity lists every thread once with its latest message time. A
// message listing failure is kept on the row rather than aborting.
func (inv *Inventory) ThreadActivity(ctx context.Context) ([]Activity, error) {
	threads, err := inv.svc.ListThreads(ctx, foundry.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	seen := map[string]bool{}
	result := make([]Activity, 0, len(threads))
	for _, t := range threads {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		seen[t.ID] = true

		latest, n, err := inv.LatestMessageTime(ctx, t.ID)
		if err != nil {
			log.WithError(err).Warnf("unable to enumerate messages for thread %s", t.ID)
		}
		result = append(result, Activity{Thread: t, Latest: latest, Messages: n, Err: err})
	}
	return result, nil
}

// StaleThreads returns the threads whose latest message predates cutoff,
// plus threads with no messages or timestamps unless skipEmpty.
func (inv *Inventory) StaleThreads(ctx context.Context, cutoff time.Time, skipEmpty bool) ([]Activity, error) {
	all, err := inv.ThreadActivity(ctx)
	if err != nil {
		return nil, err
	}

	var stale []Activity
	for _, a := range all {
		if a.Stale(cutoff, skipEmpty) {
			stale = append(stale, a)
		}
	}
	return stale, nil
}
