// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package foundry is a small client for the Azure AI Foundry agents data
// plane: agents (assistants), threads, messages and runs.
package foundry
