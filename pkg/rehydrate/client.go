package rehydrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-formflow/pkg/datasource"
	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// RulesClient fetches a rules-update document for a case context.
type RulesClient interface {
	Rehydrate(ctx context.Context, cc descriptor.CaseContext) (descriptor.RulesObject, error)
}

// RulesClientFunc adapts a function to the RulesClient interface.
type RulesClientFunc func(ctx context.Context, cc descriptor.CaseContext) (descriptor.RulesObject, error)

// Rehydrate delegates to the wrapped function.
func (fn RulesClientFunc) Rehydrate(ctx context.Context, cc descriptor.CaseContext) (descriptor.RulesObject, error) {
	if fn == nil {
		return descriptor.RulesObject{}, nil
	}
	return fn(ctx, cc)
}

// HTTPRulesClient posts the flat case context to the rules endpoint and
// decodes the returned RulesObject.
type HTTPRulesClient struct {
	endpoint string
	client   *http.Client
	auth     *descriptor.AuthConfig
}

// ClientOption customises the HTTP rules client.
type ClientOption func(*HTTPRulesClient)

// WithClientHTTP injects the HTTP client used for rules calls.
func WithClientHTTP(client *http.Client) ClientOption {
	return func(c *HTTPRulesClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithClientAuth configures authentication for rules calls.
func WithClientAuth(auth *descriptor.AuthConfig) ClientOption {
	return func(c *HTTPRulesClient) {
		c.auth = auth
	}
}

// NewHTTPRulesClient constructs a client for the given rules endpoint.
func NewHTTPRulesClient(endpoint string, options ...ClientOption) *HTTPRulesClient {
	c := &HTTPRulesClient{
		endpoint: strings.TrimSpace(endpoint),
		client:   http.DefaultClient,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Rehydrate performs the rules call. Non-success statuses surface as errors
// carrying the exact status text; they are never silently swallowed.
func (c *HTTPRulesClient) Rehydrate(ctx context.Context, cc descriptor.CaseContext) (descriptor.RulesObject, error) {
	if c.endpoint == "" {
		return descriptor.RulesObject{}, fmt.Errorf("rehydrate: rules endpoint is not configured")
	}

	payload, err := json.Marshal(cc)
	if err != nil {
		return descriptor.RulesObject{}, fmt.Errorf("rehydrate: encode case context: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return descriptor.RulesObject{}, fmt.Errorf("rehydrate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	datasource.ApplyAuth(req, c.auth)

	resp, err := c.client.Do(req)
	if err != nil {
		return descriptor.RulesObject{}, fmt.Errorf("rehydrate: call rules endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return descriptor.RulesObject{}, fmt.Errorf("rehydrate: rules endpoint %s: %s", c.endpoint, resp.Status)
	}

	var rules descriptor.RulesObject
	if err := json.NewDecoder(resp.Body).Decode(&rules); err != nil {
		return descriptor.RulesObject{}, fmt.Errorf("rehydrate: decode rules response: %w", err)
	}
	return rules, nil
}
