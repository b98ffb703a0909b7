// Package openapi imports an OpenAPI operation's request schema as a
// GlobalFormDescriptor, so servers that already publish OpenAPI documents can
// drive dynamic forms without authoring descriptors by hand.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// Importer converts OpenAPI operations into form descriptors.
type Importer struct {
	resolveRefs bool
}

// Option customises the importer.
type Option func(*Importer)

// WithReferenceResolution validates the document and resolves external refs
// before conversion.
func WithReferenceResolution() Option {
	return func(i *Importer) {
		i.resolveRefs = true
	}
}

// New constructs an Importer applying any provided options.
func New(options ...Option) *Importer {
	i := &Importer{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(i)
	}
	return i
}

// Import loads an OpenAPI document and converts the named operation's JSON
// request body into a single-block descriptor whose submission points at the
// operation's path and method.
func (i *Importer) Import(ctx context.Context, raw []byte, operationID string) (descriptor.GlobalFormDescriptor, error) {
	if len(raw) == 0 {
		return descriptor.GlobalFormDescriptor{}, errors.New("openapi importer: document payload is empty")
	}
	if operationID == "" {
		return descriptor.GlobalFormDescriptor{}, errors.New("openapi importer: operation id is required")
	}

	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: i.resolveRefs}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return descriptor.GlobalFormDescriptor{}, fmt.Errorf("openapi importer: load document: %w", err)
	}
	if i.resolveRefs {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return descriptor.GlobalFormDescriptor{}, fmt.Errorf("openapi importer: validate: %w", err)
		}
	}

	path, method, op := findOperation(spec, operationID)
	if op == nil {
		return descriptor.GlobalFormDescriptor{}, fmt.Errorf("openapi importer: operation %q not found", operationID)
	}

	schema := requestSchema(op)
	if schema == nil {
		return descriptor.GlobalFormDescriptor{}, fmt.Errorf("openapi importer: operation %q has no JSON request body", operationID)
	}

	block := descriptor.BlockDescriptor{
		ID:     operationID,
		Title:  firstNonEmpty(op.Summary, operationID),
		Fields: convertProperties(schema),
	}

	return descriptor.GlobalFormDescriptor{
		Blocks: []descriptor.BlockDescriptor{block},
		Submission: &descriptor.SubmissionConfig{
			URL:    path,
			Method: strings.ToUpper(method),
		},
	}, nil
}

func findOperation(spec *openapi3.T, operationID string) (string, string, *openapi3.Operation) {
	if spec.Paths == nil {
		return "", "", nil
	}
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range map[string]*openapi3.Operation{
			"GET": item.Get, "PUT": item.Put, "POST": item.Post,
			"DELETE": item.Delete, "PATCH": item.Patch,
		} {
			if op != nil && op.OperationID == operationID {
				return path, method, op
			}
		}
	}
	return "", "", nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	return media.Schema.Value
}

func convertProperties(schema *openapi3.Schema) []descriptor.FieldDescriptor {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]descriptor.FieldDescriptor, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		fields = append(fields, convertProperty(name, ref.Value, required[name]))
	}
	return fields
}

func convertProperty(name string, prop *openapi3.Schema, required bool) descriptor.FieldDescriptor {
	field := descriptor.FieldDescriptor{
		ID:          name,
		Type:        fieldType(prop),
		Label:       firstNonEmpty(prop.Title, labelFromName(name)),
		Description: prop.Description,
	}
	if prop.Default != nil {
		field.DefaultValue = prop.Default
	}
	for _, value := range prop.Enum {
		field.Items = append(field.Items, descriptor.Item{
			Label: fmt.Sprintf("%v", value),
			Value: value,
		})
	}

	if required {
		field.Validation = append(field.Validation, descriptor.ValidationRule{
			Type:    descriptor.RuleRequired,
			Message: field.Label + " is required",
		})
	}
	if prop.MinLength > 0 {
		field.Validation = append(field.Validation, descriptor.ValidationRule{
			Type:  descriptor.RuleMinLength,
			Value: float64(prop.MinLength),
		})
	}
	if prop.MaxLength != nil {
		field.Validation = append(field.Validation, descriptor.ValidationRule{
			Type:  descriptor.RuleMaxLength,
			Value: float64(*prop.MaxLength),
		})
	}
	if prop.Pattern != "" {
		field.Validation = append(field.Validation, descriptor.ValidationRule{
			Type:  descriptor.RulePattern,
			Value: prop.Pattern,
		})
	}
	return field
}

func fieldType(prop *openapi3.Schema) descriptor.FieldType {
	if len(prop.Enum) > 0 {
		return descriptor.FieldTypeDropdown
	}

	var kind string
	if prop.Type != nil && len(prop.Type.Slice()) > 0 {
		kind = prop.Type.Slice()[0]
	}

	switch kind {
	case "boolean":
		return descriptor.FieldTypeCheckbox
	case "integer", "number":
		return descriptor.FieldTypeNumber
	case "string":
		switch prop.Format {
		case "date", "date-time":
			return descriptor.FieldTypeDate
		case "binary", "byte":
			return descriptor.FieldTypeFile
		default:
			return descriptor.FieldTypeText
		}
	default:
		return descriptor.FieldTypeText
	}
}

func labelFromName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
