// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package cleanup deletes agents and threads and records what it did, or in
// dry run what it would have done, as action rows.
package cleanup
