// Package formflow drives dynamic, server-describable forms: a descriptor
// document declares blocks and fields, and a rules service returns
// incremental updates (validation rules, visibility conditions) keyed by a
// discriminant context extracted from the form's own values. The package
// re-exports the engine's building blocks so callers can start from a single
// import.
package formflow

import (
	"context"

	internalloader "github.com/goliatone/go-formflow/internal/loader"
	"github.com/goliatone/go-formflow/pkg/datasource"
	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/rehydrate"
	"github.com/goliatone/go-formflow/pkg/template"
)

// Descriptor document types.
type (
	GlobalFormDescriptor = descriptor.GlobalFormDescriptor
	BlockDescriptor      = descriptor.BlockDescriptor
	FieldDescriptor      = descriptor.FieldDescriptor
	ValidationRule       = descriptor.ValidationRule
	StatusTemplates      = descriptor.StatusTemplates
	DataSourceConfig     = descriptor.DataSourceConfig
	AuthConfig           = descriptor.AuthConfig
	RulesObject          = descriptor.RulesObject
	CaseContext          = descriptor.CaseContext
	FormContext          = descriptor.FormContext
	Item                 = descriptor.Item
)

// Field type constants.
const (
	FieldTypeText         = descriptor.FieldTypeText
	FieldTypeDropdown     = descriptor.FieldTypeDropdown
	FieldTypeAutocomplete = descriptor.FieldTypeAutocomplete
	FieldTypeRadio        = descriptor.FieldTypeRadio
	FieldTypeCheckbox     = descriptor.FieldTypeCheckbox
	FieldTypeDate         = descriptor.FieldTypeDate
	FieldTypeFile         = descriptor.FieldTypeFile
	FieldTypeNumber       = descriptor.FieldTypeNumber
	FieldTypeButton       = descriptor.FieldTypeButton
)

// Merge deep-merges a rules update into the base descriptor; see
// descriptor.Merge.
func Merge(base GlobalFormDescriptor, update RulesObject) GlobalFormDescriptor {
	return descriptor.Merge(base, update)
}

// Resolve expands repeatable block references; see descriptor.Resolve.
func Resolve(d GlobalFormDescriptor) (GlobalFormDescriptor, error) {
	return descriptor.Resolve(d)
}

// NewEngine constructs the template evaluator.
func NewEngine(options ...template.Option) *template.Engine {
	return template.New(options...)
}

// NewLoader constructs the data-source loader.
func NewLoader(options ...datasource.Option) *datasource.Loader {
	return datasource.New(options...)
}

// NewOrchestrator constructs the re-hydration orchestrator around a working
// descriptor.
func NewOrchestrator(d GlobalFormDescriptor, options ...rehydrate.Option) *rehydrate.Orchestrator {
	return rehydrate.New(d, options...)
}

// LoadDescriptorFile reads and validates a JSON or YAML descriptor from disk.
func LoadDescriptorFile(ctx context.Context, path string) (GlobalFormDescriptor, error) {
	return internalloader.New().Load(ctx, internalloader.FromFile(path))
}

// LoadDescriptorURL fetches and validates a JSON or YAML descriptor over
// HTTP(S).
func LoadDescriptorURL(ctx context.Context, url string) (GlobalFormDescriptor, error) {
	return internalloader.New().Load(ctx, internalloader.FromURL(url))
}

// DecodeDescriptor parses and validates an in-memory descriptor document.
func DecodeDescriptor(data []byte) (GlobalFormDescriptor, error) {
	return internalloader.New().Load(context.Background(), internalloader.FromBytes(data))
}
