// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package inventory correlates agents, threads, messages and runs. The data
// plane cannot list threads by agent, so ownership is derived from the
// thread's agent_id and from the runs executed on it.
package inventory
