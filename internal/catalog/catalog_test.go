// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package catalog

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/foundryctl/internal/azure"
)

const sub = "00000000-0000-0000-0000-000000000001"

// armFake answers ARM list calls from canned bodies keyed by URL path, with
// "?token" appended for $skiptoken pages.
type armFake struct {
	mu      sync.Mutex
	bodies  map[string]string
	calls   map[string]int
	queries map[string]url.Values
}

func (f *armFake) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := req.URL.Path
	if tok := req.URL.Query().Get("$skiptoken"); tok != "" {
		key += "?" + tok
	}
	f.calls[key]++
	if f.queries != nil {
		f.queries[key] = req.URL.Query()
	}

	body, ok := f.bodies[key]
	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
		body = `{"error":{"code":"NotFound","message":"no such path"}}`
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

const modelsEastUS = `{"value":[
 {"kind":"OpenAI","skuName":"Standard","model":{"name":"gpt-4o","version":"2024-11-20","format":"OpenAI","maxCapacity":3000,
   "skus":[{"name":"GlobalStandard","capacity":{"minimum":1,"maximum":450,"default":10}},{"name":"Standard","capacity":{"maximum":150}}]}},
 {"kind":"AIServices","model":{"name":"Phi-4","version":"7","format":"Microsoft","skus":[{"name":"GlobalStandard"}]}},
 {"kind":"OpenAI","model":{"name":"text-embedding-3-large","version":"1","format":"OpenAI","skus":[{"name":"Standard","capacity":{"maximum":350}}]}}
]}`

func newFake() *armFake {
	prefix := "/subscriptions/" + sub
	return &armFake{
		calls: map[string]int{},
		bodies: map[string]string{
			prefix + "/providers/Microsoft.CognitiveServices/locations/eastus/models": modelsEastUS,
			prefix + "/providers/Microsoft.CognitiveServices/accounts": `{"value":[
 {"id":"` + prefix + `/resourceGroups/rg-ai/providers/Microsoft.CognitiveServices/accounts/aoai-east","name":"aoai-east","kind":"OpenAI","location":"eastus"},
 {"id":"` + prefix + `/resourceGroups/rg-ai/providers/Microsoft.CognitiveServices/accounts/speech","name":"speech","kind":"SpeechServices","location":"eastus"}
]}`,
			prefix + "/resourceGroups/rg-ai/providers/Microsoft.CognitiveServices/accounts/aoai-east/deployments": `{"value":[
 {"name":"chat","sku":{"name":"GlobalStandard","capacity":300},"properties":{"model":{"name":"gpt-4o","version":"2024-11-20"}}},
 {"name":"chat-2","sku":{"name":"GlobalStandard","capacity":200},"properties":{"model":{"name":"gpt-4o","version":"2024-11-20"}}},
 {"name":"legacy","sku":{"name":"Standard","capacity":20},"properties":{"model":{"name":"gpt-35-turbo","version":"0125"}}},
 {"name":"small","sku":{"name":"Standard","capacity":100},"properties":{"model":{"name":"gpt-4o","version":"2024-11-20"}}}
]}`,
		},
	}
}

func newCatalog(t *testing.T, fake *armFake) *Catalog {
	t.Helper()
	t.Setenv("FOUNDRYCTL_CACHE_DIR", t.TempDir())
	c, err := New(sub, azure.StaticTokenCredential{Token: "arm-token"}, &arm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Transport: fake,
			Retry:     policy.RetryOptions{MaxRetries: -1},
		},
	})
	require.NoError(t, err)
	return c
}

func TestNew_SubscriptionRequired(t *testing.T) {
	_, err := New("", azure.StaticTokenCredential{Token: "x"}, nil)
	assert.ErrorIs(t, err, ErrSubscriptionNotSet)
}

func TestModels(t *testing.T) {
	fake := newFake()
	c := newCatalog(t, fake)

	models, err := c.Models(context.Background(), "eastus")
	require.NoError(t, err)
	require.Len(t, models, 3)

	gpt := models[0]
	assert.Equal(t, "OpenAI", gpt.Kind)
	assert.Equal(t, "gpt-4o", gpt.Name)
	assert.Equal(t, "Standard", gpt.SKUName)
	require.NotNil(t, gpt.MaxCapacity)
	assert.EqualValues(t, 3000, *gpt.MaxCapacity)
	require.Len(t, gpt.SKUs, 2)
	assert.EqualValues(t, 450, *gpt.SKUs[0].Maximum)
	assert.Nil(t, gpt.SKUs[1].Minimum)

	// Second call is served from the cache.
	_, err = c.Models(context.Background(), "eastus")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls["/subscriptions/"+sub+"/providers/Microsoft.CognitiveServices/locations/eastus/models"])
}

func TestModelRowsAndProviders(t *testing.T) {
	c := newCatalog(t, newFake())
	models, err := c.Models(context.Background(), "eastus")
	require.NoError(t, err)

	rows := ModelRows(models)
	require.Len(t, rows, 3)
	assert.Equal(t, "https://ai.azure.com/explore/models/gpt-4o", rows[0].CatalogURL)
	assert.Equal(t, "gpt-4o/2024-11-20/Standard", rows[0].ID)

	assert.Equal(t, []string{"AIServices", "OpenAI"}, Providers(models))
	assert.Len(t, ProviderRows(models), 2)

	skus := SKURows(models)
	require.Len(t, skus, 4)
	assert.Equal(t, "GlobalStandard", skus[0].SKU)
	assert.EqualValues(t, 10, *skus[0].Default)
}

func TestAccounts(t *testing.T) {
	c := newCatalog(t, newFake())

	accts, err := c.Accounts(context.Background(), OpenAIKinds...)
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, "aoai-east", accts[0].Name)
	assert.Equal(t, "rg-ai", accts[0].ResourceGroup)

	all, err := c.Accounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCapacity(t *testing.T) {
	c := newCatalog(t, newFake())

	rows, err := c.Capacity(context.Background(), OpenAIKinds)
	require.NoError(t, err)

	byID := map[string]*QuotaRow{}
	for _, r := range rows {
		byID[r.ID] = r
	}

	gs := byID["eastus/gpt-4o/2024-11-20/GlobalStandard"]
	require.NotNil(t, gs)
	assert.EqualValues(t, 500, gs.Deployed)
	assert.Equal(t, StatusExceedsQuota, gs.Status)
	assert.EqualValues(t, -50, *gs.Remaining)

	std := byID["eastus/gpt-4o/2024-11-20/Standard"]
	require.NotNil(t, std)
	assert.Equal(t, StatusOK, std.Status)
	assert.EqualValues(t, 50, *std.Remaining)

	legacy := byID["eastus/gpt-35-turbo/0125/Standard"]
	require.NotNil(t, legacy)
	assert.Equal(t, StatusNoQuotaInfo, legacy.Status)
	assert.Nil(t, legacy.QuotaMax)

	emb := byID["eastus/text-embedding-3-large/1/Standard"]
	require.NotNil(t, emb)
	assert.Equal(t, StatusNoDeployments, emb.Status)
	assert.EqualValues(t, 350, *emb.Remaining)

	phi := byID["eastus/Phi-4/7/GlobalStandard"]
	require.NotNil(t, phi)
	assert.Equal(t, StatusNoDeployments, phi.Status)
	assert.Nil(t, phi.QuotaMax)

	// Deployed rows first.
	assert.Equal(t, StatusNoQuotaInfo, rows[0].Status)
	assert.Equal(t, StatusNoDeployments, rows[len(rows)-1].Status)
}

func TestCompareQuota(t *testing.T) {
	k := func(model string) QuotaKey { return QuotaKey{"s", "r", model, "1", "Standard"} }
	ten := int64(10)

	rows := CompareQuota(
		map[QuotaKey]*int64{k("a"): &ten, k("b"): &ten, k("c"): nil},
		map[QuotaKey]int64{k("a"): 10, k("b"): 11, k("d"): 1},
	)
	var got []string
	for _, r := range rows {
		got = append(got, r.Model+":"+r.Status)
	}
	assert.Equal(t, []string{"a:OK", "b:EXCEEDS_QUOTA", "d:NO_QUOTA_INFO", "c:NO_DEPLOYMENTS"}, got)
}

func TestWriteCSV(t *testing.T) {
	ten := int64(10)
	rem := int64(4)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []*QuotaRow{
		{Subscription: "s", Region: "eastus", Model: "gpt-4o", Version: "1", SKU: "Standard", Deployed: 6, QuotaMax: &ten, Remaining: &rem, Status: StatusOK},
		{Subscription: "s", Region: "eastus", Model: "x", Version: "1", SKU: "Standard", Deployed: 2, Status: StatusNoQuotaInfo},
	}))
	assert.Equal(t,
		"subscription,region,model,version,sku,deployed,quota_max,remaining,status\n"+
			"s,eastus,gpt-4o,1,Standard,6,10,4,OK\n"+
			"s,eastus,x,1,Standard,2,,,NO_QUOTA_INFO\n",
		buf.String())
}
