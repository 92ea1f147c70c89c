// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"reflect"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/apex/log"
	"github.com/hashicorp/jsonapi"
	"github.com/urfave/cli/v3"

	"github.com/staranto/foundryctl/internal/archive"
	"github.com/staranto/foundryctl/internal/attrs"
	"github.com/staranto/foundryctl/internal/azure"
	"github.com/staranto/foundryctl/internal/catalog"
	"github.com/staranto/foundryctl/internal/foundry"
	"github.com/staranto/foundryctl/internal/inventory"
	"github.com/staranto/foundryctl/internal/meta"
	"github.com/staranto/foundryctl/internal/output"
	"github.com/staranto/foundryctl/internal/prompt"
)

var (
	ErrNoTarget     = errors.New("no target; use --agent-id, --all or --pick")
	ErrNotConfirmed = errors.New("not confirmed; nothing was deleted")
)

var (
	stdout io.Writer = os.Stdout
	now              = time.Now

	// terminal is where confirmations and passphrases are asked.
	terminal = prompt.Stdio

	// clientOptions are appended to every data plane client.
	clientOptions []foundry.Option

	// armOptions is handed to every resource manager client.
	armOptions *arm.ClientOptions
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr foundryctl <subcmd>` and returns true so the caller can exit
// early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "foundryctl", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// DumpSchemaIfRequested prints the attribute names of the provided type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(stdout, "", t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// EmitJSONAPISlice marshals a slice as JSONAPI and passes it to the common
// output routine.
func EmitJSONAPISlice(results any, al attrs.AttrList, cmd *cli.Command) error {
	var raw bytes.Buffer
	if err := jsonapi.MarshalPayload(&raw, results); err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return output.SliceDiceSpit(raw, al, cmd, "data", stdout)
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// QueryCommandBuilder is a helper that constructs a cli.Command for query
// subcommands using a consistent pattern. The builder wires metadata, adds
// tldr/schema flags, applies global flags, and sets up validators.
type QueryCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (qcb *QueryCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      qcb.Name,
		Usage:     qcb.Usage,
		UsageText: qcb.UsageText,
		Metadata: map[string]any{
			"meta": qcb.Meta,
		},
		Flags: append(qcb.Flags, append([]cli.Flag{
			tldrFlag,
			schemaFlag,
		}, NewGlobalFlags(qcb.Name)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: qcb.Action,
	}
}

// QueryActionRunner[T] encapsulates the common query action pattern. It
// handles GetMeta, short-circuit checks, BuildAttrs, schema dumping, and
// output emission, with data fetching provided by FetchFn.
type QueryActionRunner[T any] struct {
	CommandName  string
	SchemaType   reflect.Type
	DefaultAttrs []string
	FetchFn      func(context.Context, *cli.Command) ([]T, error)
}

// Run executes the query action with the provided context and command.
func (qar *QueryActionRunner[T]) Run(
	ctx context.Context,
	cmd *cli.Command,
) error {
	m := GetMeta(cmd)
	if len(m.Args) > 1 {
		log.Debugf("Executing action for %v", m.Args[1:])
	}

	if ShortCircuitTLDR(ctx, cmd, qar.CommandName) {
		return nil
	}
	if DumpSchemaIfRequested(cmd, qar.SchemaType) {
		return nil
	}

	attrs := BuildAttrs(cmd, qar.DefaultAttrs...)
	log.Debugf("attrs: %v", attrs)

	results, err := qar.FetchFn(ctx, cmd)
	if err != nil {
		return err
	}

	// Always emit an array, even when nothing matched.
	if results == nil {
		results = []T{}
	}
	return EmitJSONAPISlice(results, attrs, cmd)
}

// newCredential resolves the Azure credential from --tenant and
// --device-code.
func newCredential(cmd *cli.Command) (azcore.TokenCredential, error) {
	return azure.NewCredential(
		azure.WithTenant(cmd.String("tenant")),
		azure.WithDeviceCode(cmd.Bool("device-code")),
	)
}

// newFoundryClient builds the agents data plane client from the connection
// flags.
func newFoundryClient(cmd *cli.Command) (*foundry.Client, error) {
	endpoint := cmd.String("endpoint")
	if endpoint == "" {
		return nil, foundry.ErrEndpointNotSet
	}

	cred, err := newCredential(cmd)
	if err != nil {
		return nil, err
	}

	opts := append([]foundry.Option{
		foundry.WithAPIVersion(cmd.String("api-version")),
	}, clientOptions...)

	client, err := foundry.NewClient(endpoint, cred, opts...)
	if err != nil {
		return nil, err
	}
	log.Debugf("client: %s", client.Endpoint())
	return client, nil
}

// newCatalog builds the resource manager catalog from the ARM flags.
func newCatalog(cmd *cli.Command) (*catalog.Catalog, error) {
	sub := cmd.String("subscription")
	if sub == "" {
		return nil, catalog.ErrSubscriptionNotSet
	}

	cred, err := newCredential(cmd)
	if err != nil {
		return nil, err
	}
	return catalog.New(sub, cred, armOptions)
}

// friendly decorates err with the endpoint of cmd and an operator hint.
func friendly(cmd *cli.Command, err error, operation, resource, id string) error {
	return foundry.Friendly(err, foundry.ErrorContext{
		Endpoint:  cmd.String("endpoint"),
		Operation: operation,
		Resource:  resource,
		ID:        id,
	})
}

// cutoffRequested reports whether --before-date or a positive --days was
// given.
func cutoffRequested(cmd *cli.Command) bool {
	return cmd.String("before-date") != "" || cmd.Int("days") > 0
}

// resolveCutoff turns --before-date, else --days, into a UTC instant.
func resolveCutoff(cmd *cli.Command) (time.Time, error) {
	return inventory.ResolveCutoff(cmd.String("before-date"), cmd.Int("days"), now())
}

// confirmDestructive asks before deleting count resources. Dry runs, single
// resources and --yes pass without asking. Without a terminal --yes is
// required.
func confirmDestructive(cmd *cli.Command, question string, count int) error {
	if cmd.Bool("dry-run") || cmd.Bool("yes") || count <= 1 {
		return nil
	}

	ok, err := terminal().Confirm(question)
	if errors.Is(err, prompt.ErrNoTerminal) {
		return fmt.Errorf("%w: pass --yes to delete %d resources without a terminal", ErrNotConfirmed, count)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotConfirmed
	}
	return nil
}

// passphrase returns --passphrase, else asks for one when ask is set and a
// terminal is available. An empty result means no encryption.
func passphrase(cmd *cli.Command, ask bool, confirmAgain bool) (string, error) {
	if p := cmd.String("passphrase"); p != "" || !ask {
		return p, nil
	}

	t := terminal()
	if !t.IsTerminal() {
		return "", nil
	}
	return t.Passphrase("Archive passphrase (empty for none)", confirmAgain)
}

// newArchiveWriter opens --archive, or returns nil when it is not set. Dry
// runs never archive.
func newArchiveWriter(ctx context.Context, cmd *cli.Command, endpoint string) (*archive.Writer, error) {
	target := cmd.String("archive")
	if target == "" || cmd.Bool("dry-run") {
		return nil, nil
	}

	sink, err := archive.Open(ctx, target)
	if err != nil {
		return nil, err
	}

	pass, err := passphrase(cmd, true, true)
	if err != nil {
		return nil, err
	}
	if pass == "" {
		log.Warnf("archives in %s are not encrypted", target)
	}

	return &archive.Writer{Sink: sink, Passphrase: pass, Endpoint: endpoint}, nil
}
