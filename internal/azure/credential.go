// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/apex/log"
)

// ErrTokenEmpty is returned by a StaticTokenCredential with no token.
var ErrTokenEmpty = errors.New("access token is empty")

// StaticTokenCredential hands out a pre-issued bearer token. It serves
// AZURE_ACCESS_TOKEN and tests.
type StaticTokenCredential struct {
	Token     string
	ExpiresOn time.Time
}

func (c StaticTokenCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if c.Token == "" {
		return azcore.AccessToken{}, ErrTokenEmpty
	}
	exp := c.ExpiresOn
	if exp.IsZero() {
		exp = time.Now().Add(time.Hour)
	}
	return azcore.AccessToken{Token: c.Token, ExpiresOn: exp}, nil
}

type options struct {
	tenantID   string
	deviceCode bool
}

// Option customizes credential resolution.
type Option func(*options)

// WithTenant pins the Entra tenant. Defaults to AZURE_TENANT_ID via the SDK.
func WithTenant(tenantID string) Option {
	return func(o *options) { o.tenantID = tenantID }
}

// WithDeviceCode chains an interactive device code login after the default
// credential chain.
func WithDeviceCode(enabled bool) Option {
	return func(o *options) { o.deviceCode = enabled }
}

// NewCredential resolves the token credential. Precedence:
//  1. AZURE_ACCESS_TOKEN or ARM_ACCESS_TOKEN, used as is
//  2. DefaultAzureCredential (env, workload identity, managed identity, az cli)
//  3. device code, when enabled
func NewCredential(opts ...Option) (azcore.TokenCredential, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	for _, env := range []string{"AZURE_ACCESS_TOKEN", "ARM_ACCESS_TOKEN"} {
		if tok := os.Getenv(env); tok != "" {
			log.Debugf("using static token from %s", env)
			return StaticTokenCredential{Token: tok}, nil
		}
	}

	def, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: o.tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create default azure credential: %w", err)
	}

	if !o.deviceCode {
		return def, nil
	}

	dc, err := azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
		TenantID: o.tenantID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create device code credential: %w", err)
	}

	chain, err := azidentity.NewChainedTokenCredential([]azcore.TokenCredential{def, dc}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to chain credentials: %w", err)
	}
	return chain, nil
}
