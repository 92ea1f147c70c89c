// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package meta holds the invocation state shared by every subcommand.
package meta

import (
	"context"

	"github.com/staranto/foundryctl/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	// StartingDir is the working directory at startup. Relative paths given
	// to iq and av resolve against it.
	StartingDir string
}
