// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package output filters, transforms, sorts and renders JSON:API result sets
// as text tables, JSON, YAML or the raw document.
package output
