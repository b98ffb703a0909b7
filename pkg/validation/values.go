package validation

import (
	"context"
	"io"
	"log/slog"
	"reflect"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// Issue is a single values-document validation finding.
type Issue struct {
	FieldID string `json:"fieldId"`
	Message string `json:"message"`
}

// OptionLister resolves the option list backing a data-source field. The
// datasource Loader satisfies this seam.
type OptionLister interface {
	Options(ctx context.Context, field descriptor.FieldDescriptor, formCtx descriptor.FormContext) ([]descriptor.Item, error)
}

// ValuesOption customises the values validator.
type ValuesOption func(*valuesConfig)

type valuesConfig struct {
	lister OptionLister
	logger *slog.Logger
}

// WithOptionLister enables the option-membership check for data-source
// backed fields.
func WithOptionLister(lister OptionLister) ValuesOption {
	return func(cfg *valuesConfig) {
		cfg.lister = lister
	}
}

// WithLogger injects the logger used when a data-source load is skipped.
func WithLogger(logger *slog.Logger) ValuesOption {
	return func(cfg *valuesConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// ValidateValues checks a values document against the descriptor at runtime:
// every field's rule list is applied to its value, and values of option-backed
// fields must be members of their option list. When a data source fails to
// load, the membership check is logged and skipped rather than reported, so
// transient outages do not produce false positives.
func ValidateValues(ctx context.Context, d descriptor.GlobalFormDescriptor, values map[string]any, formCtx descriptor.FormContext, options ...ValuesOption) []Issue {
	cfg := &valuesConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var issues []Issue
	for _, block := range d.Blocks {
		for _, field := range block.Fields {
			value := values[field.ID]

			if err := Translate(field.Validation, field.Type)(value); err != nil {
				issues = append(issues, Issue{FieldID: field.ID, Message: err.Error()})
				continue
			}
			if value == nil {
				continue
			}

			if issue, ok := checkMembership(ctx, cfg, field, value, formCtx); !ok {
				issues = append(issues, issue)
			}
		}
	}
	return issues
}

func checkMembership(ctx context.Context, cfg *valuesConfig, field descriptor.FieldDescriptor, value any, formCtx descriptor.FormContext) (Issue, bool) {
	var items []descriptor.Item
	switch {
	case len(field.Items) > 0:
		items = field.Items
	case field.DataSource != nil && cfg.lister != nil:
		loaded, err := cfg.lister.Options(ctx, field, formCtx)
		if err != nil {
			cfg.logger.Warn("data source load failed, skipping membership check",
				"field", field.ID, "error", err)
			return Issue{}, true
		}
		items = loaded
	default:
		return Issue{}, true
	}

	for _, item := range items {
		if reflect.DeepEqual(item.Value, value) || item.Label == value {
			return Issue{}, true
		}
	}
	return Issue{FieldID: field.ID, Message: "value is not in the field's option list"}, false
}
