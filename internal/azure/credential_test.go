// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package azure

import (
	"context"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticTokenCredential(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, err := StaticTokenCredential{Token: "abc", ExpiresOn: exp}.GetToken(context.Background(), policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Token)
	assert.Equal(t, exp, tok.ExpiresOn)

	tok, err = StaticTokenCredential{Token: "abc"}.GetToken(context.Background(), policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.True(t, tok.ExpiresOn.After(time.Now()))

	_, err = StaticTokenCredential{}.GetToken(context.Background(), policy.TokenRequestOptions{})
	assert.ErrorIs(t, err, ErrTokenEmpty)
}

func TestNewCredential_StaticFromEnv(t *testing.T) {
	t.Setenv("AZURE_ACCESS_TOKEN", "")
	t.Setenv("ARM_ACCESS_TOKEN", "from-arm")

	cred, err := NewCredential(WithTenant("tenant"))
	require.NoError(t, err)

	static, ok := cred.(StaticTokenCredential)
	require.True(t, ok)
	assert.Equal(t, "from-arm", static.Token)
}
