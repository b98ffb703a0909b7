package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/erni27/imcache"
	"github.com/mohae/deepcopy"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// PopinCache stores raw popin-load payloads keyed like the response cache.
type PopinCache struct {
	entries imcache.Cache[string, map[string]any]
	ttl     time.Duration
}

// NewPopinCache constructs an empty popin-load cache.
func NewPopinCache(ttl time.Duration) *PopinCache {
	return &PopinCache{ttl: ttl}
}

// Get returns a copy of the cached payload for key.
func (c *PopinCache) Get(key string) (map[string]any, bool) {
	if c == nil {
		return nil, false
	}
	payload, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return deepcopy.Copy(payload).(map[string]any), true
}

// Set stores a copy of the payload under key.
func (c *PopinCache) Set(key string, payload map[string]any) {
	if c == nil || payload == nil {
		return
	}
	expiration := imcache.WithNoExpiration()
	if c.ttl > 0 {
		expiration = imcache.WithExpiration(c.ttl)
	}
	c.entries.Set(key, deepcopy.Copy(payload).(map[string]any), expiration)
}

// Clear drops every cached payload.
func (c *PopinCache) Clear() {
	if c == nil {
		return
	}
	c.entries.RemoveAll()
}

// popinRequest is the body sent to the popin-load proxy.
type popinRequest struct {
	BlockID      string                 `json:"blockId"`
	DataSourceID string                 `json:"dataSourceId"`
	URLTemplate  string                 `json:"urlTemplate"`
	EvaluatedURL string                 `json:"evaluatedUrl"`
	FormContext  descriptor.FormContext `json:"formContext"`
}

// WithPopinCache injects the popin-load cache.
func WithPopinCache(cache *PopinCache) Option {
	return func(l *Loader) {
		if cache != nil {
			l.popinCache = cache
		}
	}
}

// PopinLoad resolves a popin block's load config through the trusted proxy.
// The returned object is merged into the form context by the caller; it is
// not transformed into an option list.
func (l *Loader) PopinLoad(ctx context.Context, blockID string, cfg descriptor.PopinLoadConfig, formCtx descriptor.FormContext) (map[string]any, error) {
	if l.evaluator == nil {
		return nil, errors.New("datasource: evaluator is required")
	}
	if cfg.DataSourceID == "" {
		return nil, fmt.Errorf("datasource: popin load for block %q is missing its dataSourceId", blockID)
	}
	if l.proxyURL == "" {
		return nil, errors.New("datasource: proxy url is not configured")
	}

	evaluated := l.evaluator.Evaluate(cfg.URL, formCtx)
	key := blockID + "|" + evaluated + "|" + authCacheKey(cfg.Auth)

	if payload, ok := l.popinCache.Get(key); ok {
		return payload, nil
	}

	body, err := json.Marshal(popinRequest{
		BlockID:      blockID,
		DataSourceID: cfg.DataSourceID,
		URLTemplate:  cfg.URL,
		EvaluatedURL: evaluated,
		FormContext:  formCtx,
	})
	if err != nil {
		return nil, fmt.Errorf("datasource: encode popin request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.proxyURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("datasource: build popin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datasource: popin fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: l.proxyURL}
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("datasource: decode popin response: %w", err)
	}

	l.popinCache.Set(key, payload)
	return payload, nil
}
