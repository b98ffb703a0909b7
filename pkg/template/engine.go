package template

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// Option customises the engine configuration.
type Option func(*Engine)

// WithLogger injects the logger used for recovered evaluation errors. The
// engine is silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine compiles and evaluates the descriptor template micro-language
// against a form context. Evaluation is pure: no I/O, and every compile or
// execute error is recovered locally by degrading to the empty string.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	logger      *slog.Logger
}

// Ensure the engine satisfies the descriptor evaluation seam.
var _ descriptor.Evaluator = (*Engine)(nil)

// New constructs an Engine applying any provided options.
func New(options ...Option) *Engine {
	e := &Engine{
		// NewSet requires at least one loader even though every template
		// here arrives as a string through FromString.
		templateSet: pongo2.NewSet("formflow", pongo2.MustNewLocalFileSystemLoader("")),
		templates:   make(map[string]*pongo2.Template),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	registerDefaultFilters()
	return e
}

// Evaluate renders the template against ctx. An empty template yields "";
// compilation and execution errors degrade to "" and are logged, never
// propagated.
func (e *Engine) Evaluate(template string, ctx descriptor.FormContext) string {
	if e == nil || strings.TrimSpace(template) == "" {
		return ""
	}

	tmpl, err := e.compiled(template)
	if err != nil {
		e.logger.Debug("template compile failed", "template", template, "error", err)
		return ""
	}

	rendered, err := tmpl.Execute(convertContext(ctx))
	if err != nil {
		e.logger.Debug("template execute failed", "template", template, "error", err)
		return ""
	}
	return rendered
}

// EvaluateBool renders the template and parses the result with ParseBool.
// An absent template is false.
func (e *Engine) EvaluateBool(template string, ctx descriptor.FormContext) bool {
	if strings.TrimSpace(template) == "" {
		return false
	}
	return ParseBool(e.Evaluate(template, ctx))
}

// Hidden reports whether the status templates evaluate the field as hidden.
func (e *Engine) Hidden(status *descriptor.StatusTemplates, ctx descriptor.FormContext) bool {
	if status == nil {
		return false
	}
	return e.EvaluateBool(status.Hidden, ctx)
}

// Disabled reports whether the status templates evaluate the field as disabled.
func (e *Engine) Disabled(status *descriptor.StatusTemplates, ctx descriptor.FormContext) bool {
	if status == nil {
		return false
	}
	return e.EvaluateBool(status.Disabled, ctx)
}

// Readonly reports whether the status templates evaluate the field as readonly.
func (e *Engine) Readonly(status *descriptor.StatusTemplates, ctx descriptor.FormContext) bool {
	if status == nil {
		return false
	}
	return e.EvaluateBool(status.Readonly, ctx)
}

// ParseBool implements the status truthiness rule: trimmed, case-insensitive,
// true iff the string equals "true" or "1".
func ParseBool(s string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	return trimmed == "true" || trimmed == "1"
}

func (e *Engine) compiled(template string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[template]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[template]; ok {
		return tmpl, nil
	}
	tmpl, err := e.templateSet.FromString(template)
	if err != nil {
		return nil, err
	}
	e.templates[template] = tmpl
	return tmpl, nil
}

// convertContext normalises a form context into a pongo2 context. Values that
// are not plain maps/slices/scalars are round-tripped through JSON so dotted
// path access works uniformly.
func convertContext(ctx descriptor.FormContext) pongo2.Context {
	out := make(pongo2.Context, len(ctx))
	for key, value := range ctx {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = convertValue(value)
	}
	return out
}

func convertValue(value any) any {
	switch v := value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, nested := range v {
			out[key] = convertValue(nested)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, nested := range v {
			out = append(out, convertValue(nested))
		}
		return out
	case []string:
		out := make([]any, 0, len(v))
		for _, nested := range v {
			out = append(out, nested)
		}
		return out
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return v
		}
		return convertValue(decoded)
	}
}
