// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/config"
	"github.com/staranto/foundryctl/internal/foundry"
)

func init() {
	cfg, _ = config.Load("")
}

var (
	cfg config.Type

	schemaFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the schema",
		HideDefault: true,
	}

	tldrFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}

	deviceCodeFlag *cli.BoolFlag = &cli.BoolFlag{
		Name:        "device-code",
		Usage:       "fall back to an interactive device code login",
		HideDefault: true,
	}
)

func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"color", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.BoolFlag{
			Name:        "local",
			Usage:       "show times in the local timezone instead of the configured one",
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"sort", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(params[0]+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: false,
		},
	}

	return
}

// NewEndpointFlag constructs the project endpoint flag, namespaced to a
// command and config file when params[1] is given.
func NewEndpointFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:    "endpoint",
		Aliases: []string{"e"},
		Usage:   "project endpoint, https://<resource>.services.ai.azure.com/api/projects/<project>",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("FOUNDRYCTL_ENDPOINT"),
			cli.EnvVar("PROJECT_ENDPOINT"),
		),
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

func NewAPIVersionFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:    "api-version",
		Usage:   "agents API version",
		Sources: cli.NewValueSourceChain(),
		Value:   foundry.DefaultAPIVersion,
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

func NewTenantFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "tenant",
		Usage: "Entra tenant to authenticate against",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("AZURE_TENANT_ID"),
		),
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewConnectionFlags returns the flags every agents data plane command needs.
func NewConnectionFlags(ns string, path string) []cli.Flag {
	return []cli.Flag{
		NewEndpointFlag(ns, path),
		NewAPIVersionFlag(ns, path),
		NewTenantFlag(ns, path),
		deviceCodeFlag,
	}
}

func NewSubscriptionFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "subscription",
		Usage: "Azure subscription id",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("AZURE_SUBSCRIPTION_ID"),
		),
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

func NewLocationFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:    "location",
		Aliases: []string{"l"},
		Usage:   "Azure region, e.g. eastus",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("AZURE_LOCATION"),
			cli.EnvVar("LOCATION"),
		),
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewARMFlags returns the flags every resource manager command needs.
func NewARMFlags(ns string, path string) []cli.Flag {
	return []cli.Flag{
		NewSubscriptionFlag(ns, path),
		NewTenantFlag(ns, path),
		deviceCodeFlag,
	}
}

func NewBeforeDateFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "before-date",
		Usage: "ISO-8601 date or datetime cutoff, UTC when no zone is given",
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator, DateValidator)
		},
	}
}

// NewDaysFlag constructs the --days flag. A zero value means no default
// cutoff.
func NewDaysFlag(ns string, path string, value int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:  "days",
		Usage: "cutoff in days before now when --before-date is not given",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+".days", altsrc.StringSourcer(path)),
		),
		Value: value,
	}
}

func NewArchiveFlag(params ...string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "archive",
		Usage: "archive each thread to a directory or s3://bucket/prefix before deleting it",
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}

	if len(params) == 2 {
		flag = NameSpacedValueChainFlagFromConfigFile(params[0], params[1], flag)
	}

	return
}

// NewCleanupFlags returns the safety and archive flags of destructive
// commands.
func NewCleanupFlags(ns string, path string) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "enumerate what would be deleted but do not delete it",
			HideDefault: true,
		},
		&cli.BoolFlag{
			Name:        "yes",
			Aliases:     []string{"y"},
			Usage:       "do not ask for confirmation",
			HideDefault: true,
		},
		NewArchiveFlag(ns, path),
		NewPassphraseFlag(),
	}
}

// NewPassphraseFlag constructs the archive passphrase flag.
func NewPassphraseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "passphrase",
		Usage: "archive passphrase. Prompted for when an encrypted archive needs one",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("FOUNDRYCTL_PASSPHRASE"),
		),
	}
}

// NewSkipEmptyFlag constructs --skip-empty.
func NewSkipEmptyFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "skip-empty",
		Usage:       "leave threads without messages or timestamps alone",
		HideDefault: true,
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas reports whether target is on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
