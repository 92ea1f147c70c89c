// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package template lists the inputs and outputs declared by infrastructure
// templates: Terraform variable and output blocks, and ARM deployment
// template parameters and outputs. Bicep sources are skipped.
package template
