// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package foundry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/apex/log"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	// Scope is the Entra scope for the agents data plane.
	Scope = "https://ai.azure.com/.default"

	DefaultAPIVersion = "v1"
	DefaultRetryMax   = 4

	// MaxPageSize is the largest limit the list endpoints accept.
	MaxPageSize = 100
)

// ErrEndpointNotSet is returned by NewClient without an endpoint.
var ErrEndpointNotSet = errors.New("project endpoint is not set")

// Client talks to one project endpoint, e.g.
// https://<resource>.services.ai.azure.com/api/projects/<project>.
type Client struct {
	endpoint   *url.URL
	apiVersion string
	pageSize   int
	cred       azcore.TokenCredential
	http       *retryablehttp.Client

	mu    sync.Mutex
	token azcore.AccessToken
}

type clientOptions struct {
	apiVersion string
	httpClient *http.Client
	retryMax   int
	retryWait  time.Duration
	pageSize   int
}

// Option customizes a Client.
type Option func(*clientOptions)

func WithAPIVersion(v string) Option {
	return func(o *clientOptions) { o.apiVersion = v }
}

// WithHTTPClient replaces the pooled transport, e.g. with an httptest client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

func WithRetryMax(n int) Option {
	return func(o *clientOptions) { o.retryMax = n }
}

// WithRetryWait sets the minimum backoff between retries.
func WithRetryWait(d time.Duration) Option {
	return func(o *clientOptions) { o.retryWait = d }
}

// WithPageSize sets the list page size, capped at MaxPageSize.
func WithPageSize(n int) Option {
	return func(o *clientOptions) { o.pageSize = n }
}

// NewClient builds a client for endpoint. cred supplies bearer tokens for
// Scope.
func NewClient(endpoint string, cred azcore.TokenCredential, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, ErrEndpointNotSet
	}
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme and host required", endpoint)
	}

	o := clientOptions{
		apiVersion: DefaultAPIVersion,
		retryMax:   DefaultRetryMax,
		pageSize:   MaxPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pageSize <= 0 || o.pageSize > MaxPageSize {
		o.pageSize = MaxPageSize
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultPooledClient()
	if o.httpClient != nil {
		rc.HTTPClient = o.httpClient
	}
	rc.RetryMax = o.retryMax
	if o.retryWait > 0 {
		rc.RetryWaitMin = o.retryWait
		rc.RetryWaitMax = 8 * o.retryWait
	}
	rc.Logger = retryLogger{}
	// Hand the last response back so its error body can be decoded.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		endpoint:   u,
		apiVersion: o.apiVersion,
		pageSize:   o.pageSize,
		cred:       cred,
		http:       rc,
	}, nil
}

// Endpoint returns the project endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Token != "" && time.Until(c.token.ExpiresOn) > 2*time.Minute {
		return c.token.Token, nil
	}
	if c.cred == nil {
		return "", errors.New("no credential configured")
	}

	tok, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{Scope}})
	if err != nil {
		return "", fmt.Errorf("failed to acquire token: %w", err)
	}
	c.token = tok
	return tok.Token, nil
}

// url joins path onto the endpoint and adds api-version plus q.
func (c *Client) url(path string, q url.Values) string {
	u := *c.endpoint
	u.Path = u.Path + path
	if q == nil {
		q = url.Values{}
	}
	q.Set("api-version", c.apiVersion)
	u.RawQuery = q.Encode()
	return u.String()
}

// do sends a request and decodes a 2xx JSON response into out. Non-2xx
// responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.url(path, q), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debugf("%s %s", method, req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, method, path, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// retryLogger routes retryablehttp's leveled logging through apex.
type retryLogger struct{}

func fields(kv []interface{}) log.Fields {
	f := log.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}

func (retryLogger) Error(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Error(msg) }
func (retryLogger) Info(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Debug(msg) }
func (retryLogger) Debug(msg string, kv ...interface{}) { log.WithFields(fields(kv)).Debug(msg) }
func (retryLogger) Warn(msg string, kv ...interface{})  { log.WithFields(fields(kv)).Warn(msg) }
