// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package foundry

import (
	"context"
	"net/url"
	"strconv"

	"github.com/apex/log"
)

// listAll follows has_more/last_id cursors until the listing is exhausted or
// opts.Limit items were collected.
func listAll[T any](ctx context.Context, c *Client, path string, opts ListOptions, id func(T) string) ([]T, error) {
	var results []T
	err := eachPage(ctx, c, path, opts, id, func(data []T) bool {
		results = append(results, data...)
		return opts.Limit <= 0 || len(results) < opts.Limit
	})
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// eachPage hands every page under path to fn until fn returns false or the
// listing is exhausted.
func eachPage[T any](ctx context.Context, c *Client, path string, opts ListOptions, id func(T) string, fn func([]T) bool) error {
	after := ""
	seen := 0

	for {
		size := c.pageSize
		if opts.Limit > 0 && opts.Limit-seen < size {
			size = opts.Limit - seen
		}

		q := url.Values{}
		q.Set("limit", strconv.Itoa(size))
		if opts.Order != "" {
			q.Set("order", opts.Order)
		}
		if after != "" {
			q.Set("after", after)
		}

		var p page[T]
		if err := c.do(ctx, "GET", path, q, nil, &p); err != nil {
			return err
		}
		seen += len(p.Data)

		log.Debugf("%s: page of %d, total %d, has_more %v", path, len(p.Data), seen, p.HasMore)

		if !fn(p.Data) || !p.HasMore || len(p.Data) == 0 {
			return nil
		}

		after = p.LastID
		if after == "" {
			after = id(p.Data[len(p.Data)-1])
		}
	}
}
