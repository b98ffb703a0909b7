package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// SourceKind discriminates where a descriptor document lives.
type SourceKind string

const (
	SourceKindFile  SourceKind = "file"
	SourceKindURL   SourceKind = "url"
	SourceKindFS    SourceKind = "fs"
	SourceKindBytes SourceKind = "bytes"
)

// Source identifies a descriptor document to load.
type Source struct {
	Kind     SourceKind
	Location string
	Data     []byte
}

// FromFile loads from a path on disk.
func FromFile(path string) Source { return Source{Kind: SourceKindFile, Location: path} }

// FromURL loads over HTTP(S).
func FromURL(url string) Source { return Source{Kind: SourceKindURL, Location: url} }

// FromFS loads from an fs.FS supplied at construction.
func FromFS(path string) Source { return Source{Kind: SourceKindFS, Location: path} }

// FromBytes wraps an in-memory document.
func FromBytes(data []byte) Source { return Source{Kind: SourceKindBytes, Data: data} }

// Option customises the loader.
type Option func(*Loader)

// WithFS supplies the filesystem backing FromFS sources.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithHTTPClient injects the HTTP client used for URL sources.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.http = client
		}
	}
}

// WithTimeout bounds URL loads.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// Loader reads GlobalFormDescriptor documents from files, URLs, filesystems,
// or raw bytes, in JSON or YAML, validating structure on load.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// New constructs a Loader applying any provided options.
func New(options ...Option) *Loader {
	l := &Loader{http: http.DefaultClient}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Load fetches, decodes, and validates a descriptor document.
func (l *Loader) Load(ctx context.Context, src Source) (descriptor.GlobalFormDescriptor, error) {
	data, hint, err := l.read(ctx, src)
	if err != nil {
		return descriptor.GlobalFormDescriptor{}, err
	}

	d, err := Decode(data, hint)
	if err != nil {
		return descriptor.GlobalFormDescriptor{}, err
	}
	if err := descriptor.Validate(d); err != nil {
		return descriptor.GlobalFormDescriptor{}, err
	}
	return d, nil
}

func (l *Loader) read(ctx context.Context, src Source) (data []byte, hint string, err error) {
	switch src.Kind {
	case SourceKindFile:
		data, err = loadFile(ctx, src.Location)
		return data, strings.ToLower(filepath.Ext(src.Location)), err
	case SourceKindFS:
		if l.fs == nil {
			return nil, "", errors.New("loader: filesystem is not configured")
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		default:
		}
		data, err = fs.ReadFile(l.fs, src.Location)
		return data, strings.ToLower(filepath.Ext(src.Location)), err
	case SourceKindURL:
		data, err = loadHTTP(ctx, l.http, src.Location, l.timeout)
		return data, strings.ToLower(filepath.Ext(src.Location)), err
	case SourceKindBytes:
		return src.Data, "", nil
	default:
		return nil, "", fmt.Errorf("loader: unsupported source kind %q", src.Kind)
	}
}

// Decode parses a descriptor document, choosing YAML or JSON from the
// extension hint or, when absent, from the payload shape.
func Decode(data []byte, hint string) (descriptor.GlobalFormDescriptor, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return descriptor.GlobalFormDescriptor{}, errors.New("loader: document is empty")
	}

	var d descriptor.GlobalFormDescriptor
	switch hint {
	case ".yaml", ".yml":
		return decodeYAML(data)
	case ".json":
		if err := json.Unmarshal(data, &d); err != nil {
			return descriptor.GlobalFormDescriptor{}, fmt.Errorf("loader: parse json descriptor: %w", err)
		}
		return d, nil
	default:
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			if err := json.Unmarshal(data, &d); err != nil {
				return descriptor.GlobalFormDescriptor{}, fmt.Errorf("loader: parse json descriptor: %w", err)
			}
			return d, nil
		}
		return decodeYAML(data)
	}
}

// decodeYAML parses YAML into a generic document and re-decodes it through
// encoding/json. yaml.v3 matches struct fields by lowercased name and never
// reads json tags, so decoding straight into the descriptor types would drop
// every camelCase key (isDiscriminant, dataSource, repeatableBlockRef, ...).
func decodeYAML(data []byte) (descriptor.GlobalFormDescriptor, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return descriptor.GlobalFormDescriptor{}, fmt.Errorf("loader: parse yaml descriptor: %w", err)
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		return descriptor.GlobalFormDescriptor{}, fmt.Errorf("loader: normalize yaml descriptor: %w", err)
	}

	var d descriptor.GlobalFormDescriptor
	if err := json.Unmarshal(buf, &d); err != nil {
		return descriptor.GlobalFormDescriptor{}, fmt.Errorf("loader: parse yaml descriptor: %w", err)
	}
	return d, nil
}

func loadFile(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("loader: file path is required")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func loadHTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	if url == "" {
		return nil, errors.New("loader: url is required")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("loader: unexpected status " + resp.Status)
	}
	return io.ReadAll(resp.Body)
}
