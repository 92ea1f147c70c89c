// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package policy simulates gateway body policies against a JSON request
// body. A policy is an ordered list of rules, each of which adds, sets or
// removes a field or rejects the request, optionally guarded by a condition
// on the body.
//
// Fields are dotted paths into nested objects, e.g. stream_options.include_usage.
package policy
