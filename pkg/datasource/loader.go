package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// StatusError reports a non-success HTTP response with the exact status text.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("datasource: fetch %s: %s", e.URL, e.Status)
}

// StatusCode returns the HTTP status code carried by the error.
func (e *StatusError) StatusCode() int { return e.Code }

// proxyRequest is the body sent to the trusted proxy; the server holds the
// credentials, the client sends only identifiers and the form context.
type proxyRequest struct {
	FieldID       string                 `json:"fieldId"`
	DataSourceID  string                 `json:"dataSourceId"`
	URLTemplate   string                 `json:"urlTemplate"`
	ItemsTemplate string                 `json:"itemsTemplate"`
	FormContext   descriptor.FormContext `json:"formContext"`
}

type proxyResponse struct {
	Items []descriptor.Item `json:"items"`
	Error string            `json:"error"`
}

// Option customises the loader configuration.
type Option func(*Loader)

// WithHTTPClient injects the HTTP client used for direct and proxy fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithCache injects the response cache. Pass a shared instance to suppress
// duplicate fetches across loaders.
func WithCache(cache *Cache) Option {
	return func(l *Loader) {
		if cache != nil {
			l.cache = cache
		}
	}
}

// WithEvaluator injects the template evaluator used for URL and items
// templates.
func WithEvaluator(evaluator descriptor.Evaluator) Option {
	return func(l *Loader) {
		if evaluator != nil {
			l.evaluator = evaluator
		}
	}
}

// WithProxyURL sets the trusted-proxy endpoint for data-source loads.
func WithProxyURL(url string) Option {
	return func(l *Loader) {
		l.proxyURL = strings.TrimSpace(url)
	}
}

// WithLogger injects the loader's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loader evaluates data-source URL templates, performs authenticated fetches
// (directly or through the trusted proxy), transforms responses into uniform
// option lists, and caches results. Concurrent loads for the same cache key
// are collapsed into a single request.
type Loader struct {
	client     *http.Client
	cache      *Cache
	popinCache *PopinCache
	evaluator  descriptor.Evaluator
	proxyURL   string
	logger     *slog.Logger
	group      singleflight.Group
}

// New constructs a Loader applying any provided options.
func New(options ...Option) *Loader {
	l := &Loader{
		client: http.DefaultClient,
		cache:  NewCache(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Load resolves a data-source config into an option list. The returned slice
// is always a copy; mutating it never affects the cache.
func (l *Loader) Load(ctx context.Context, cfg descriptor.DataSourceConfig, formCtx descriptor.FormContext, fieldID string) ([]descriptor.Item, error) {
	if l.evaluator == nil {
		return nil, errors.New("datasource: evaluator is required")
	}

	url := strings.TrimSpace(l.evaluator.Evaluate(cfg.URL, formCtx))
	key := url + "|" + authCacheKey(cfg.Auth)

	if items, ok := l.cache.Get(key); ok {
		return items, nil
	}

	result, err, _ := l.group.Do(key, func() (any, error) {
		if items, ok := l.cache.Get(key); ok {
			return items, nil
		}

		var (
			items []descriptor.Item
			err   error
		)
		if cfg.Proxy {
			items, err = l.loadViaProxy(ctx, cfg, formCtx, fieldID)
		} else {
			items, err = l.loadDirect(ctx, cfg, formCtx, url)
		}
		if err != nil {
			return nil, err
		}

		l.logger.Debug("data source loaded", "field", fieldID, "url", url, "items", len(items))
		l.cache.Set(key, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return copyItems(result.([]descriptor.Item)), nil
}

// Options satisfies the validation.OptionLister seam.
func (l *Loader) Options(ctx context.Context, field descriptor.FieldDescriptor, formCtx descriptor.FormContext) ([]descriptor.Item, error) {
	if len(field.Items) > 0 {
		return append([]descriptor.Item{}, field.Items...), nil
	}
	if field.DataSource == nil {
		return nil, nil
	}
	return l.Load(ctx, *field.DataSource, formCtx, field.ID)
}

// ClearCache drops every cached response.
func (l *Loader) ClearCache() {
	l.cache.Clear()
}

func (l *Loader) loadDirect(ctx context.Context, cfg descriptor.DataSourceConfig, formCtx descriptor.FormContext, url string) ([]descriptor.Item, error) {
	if url == "" {
		return nil, errors.New("datasource: url template evaluated to an empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("datasource: build request: %w", err)
	}
	ApplyAuth(req, cfg.Auth)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datasource: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: url}
	}

	var body any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("datasource: decode response from %s: %w", url, err)
	}

	return TransformResponse(body, TransformConfig{
		IteratorTemplate: cfg.Iterator,
		ItemsTemplate:    cfg.Items,
	}, l.evaluator, formCtx), nil
}

func (l *Loader) loadViaProxy(ctx context.Context, cfg descriptor.DataSourceConfig, formCtx descriptor.FormContext, fieldID string) ([]descriptor.Item, error) {
	if cfg.ID == "" {
		return nil, errors.New("datasource: proxied data source is missing its dataSourceId")
	}
	if l.proxyURL == "" {
		return nil, errors.New("datasource: proxy url is not configured")
	}

	payload, err := json.Marshal(proxyRequest{
		FieldID:       fieldID,
		DataSourceID:  cfg.ID,
		URLTemplate:   cfg.URL,
		ItemsTemplate: cfg.Items,
		FormContext:   formCtx,
	})
	if err != nil {
		return nil, fmt.Errorf("datasource: encode proxy request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.proxyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("datasource: build proxy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datasource: proxy fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: l.proxyURL}
	}

	var decoded proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("datasource: decode proxy response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("datasource: proxy error: %s", decoded.Error)
	}
	return decoded.Items, nil
}
