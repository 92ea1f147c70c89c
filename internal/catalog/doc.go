// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package catalog queries Azure Resource Manager for the Cognitive Services
// model catalog, accounts and deployments, and compares deployed capacity to
// the catalog maximums.
package catalog
