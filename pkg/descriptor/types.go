package descriptor

// FieldType enumerates the form-friendly field kinds a descriptor may declare.
type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeDropdown     FieldType = "dropdown"
	FieldTypeAutocomplete FieldType = "autocomplete"
	FieldTypeRadio        FieldType = "radio"
	FieldTypeCheckbox     FieldType = "checkbox"
	FieldTypeDate         FieldType = "date"
	FieldTypeFile         FieldType = "file"
	FieldTypeNumber       FieldType = "number"
	FieldTypeButton       FieldType = "button"
)

// RuleType discriminates the validation-rule variants carried by a field.
type RuleType string

const (
	RuleRequired  RuleType = "required"
	RuleMinLength RuleType = "minLength"
	RuleMaxLength RuleType = "maxLength"
	RulePattern   RuleType = "pattern"
	RuleCustom    RuleType = "custom"
)

// CustomCheck is the injected capability carried by a custom validation rule.
// A non-empty message overrides the rule's own message on failure.
type CustomCheck interface {
	Check(value any) (ok bool, message string)
}

// CustomCheckFunc adapts a plain function to the CustomCheck interface.
type CustomCheckFunc func(value any) (bool, string)

// Check delegates to the wrapped function.
func (fn CustomCheckFunc) Check(value any) (bool, string) {
	if fn == nil {
		return true, ""
	}
	return fn(value)
}

// ValidationRule is a single constraint applied to a field value. Value holds
// the threshold (number), the pattern source (string), or a compiled regexp
// depending on Type; required rules carry no value. Check is only set for
// custom rules and is deliberately excluded from serialization so the rest of
// the variant stays JSON-transportable.
type ValidationRule struct {
	Type    RuleType    `json:"type"`
	Message string      `json:"message,omitempty"`
	Value   any         `json:"value,omitempty"`
	Check   CustomCheck `json:"-"`
}

// StatusTemplates holds the hidden/disabled/readonly condition templates.
// Each template evaluates to a boolean string; an absent template means false.
type StatusTemplates struct {
	Hidden   string `json:"hidden,omitempty"`
	Disabled string `json:"disabled,omitempty"`
	Readonly string `json:"readonly,omitempty"`
}

// AuthType enumerates the supported authentication strategies shared by data
// sources, popin loads, and submissions.
type AuthType string

const (
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "apikey"
	AuthBasic  AuthType = "basic"
)

// AuthConfig describes how outbound requests authenticate.
type AuthConfig struct {
	Type       AuthType `json:"type"`
	Token      string   `json:"token,omitempty"`
	HeaderName string   `json:"headerName,omitempty"`
	Username   string   `json:"username,omitempty"`
	Password   string   `json:"password,omitempty"`
}

// Item is the uniform option shape data sources resolve to.
type Item struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// DataSourceConfig describes how a field loads its options. URL and Items are
// templates evaluated against the form context; Iterator optionally points at
// the array inside the response body. When Proxy is true the load is delegated
// to the trusted proxy and ID identifies the server-side credential set.
type DataSourceConfig struct {
	ID       string      `json:"id,omitempty"`
	URL      string      `json:"url,omitempty"`
	Iterator string      `json:"iterator,omitempty"`
	Items    string      `json:"items,omitempty"`
	Auth     *AuthConfig `json:"auth,omitempty"`
	Proxy    bool        `json:"proxy,omitempty"`
}

// ButtonConfig carries the action configuration for button fields.
type ButtonConfig struct {
	Action  string      `json:"action,omitempty"`
	URL     string      `json:"url,omitempty"`
	Method  string      `json:"method,omitempty"`
	Payload string      `json:"payload,omitempty"`
	Auth    *AuthConfig `json:"auth,omitempty"`
}

// FieldDescriptor models an individual input inside a block. Exactly one of
// Items/DataSource may be present; Button is present only for button fields.
type FieldDescriptor struct {
	ID                string            `json:"id"`
	Type              FieldType         `json:"type"`
	Label             string            `json:"label"`
	Description       string            `json:"description,omitempty"`
	DefaultValue      any               `json:"defaultValue,omitempty"`
	Items             []Item            `json:"items,omitempty"`
	DataSource        *DataSourceConfig `json:"dataSource,omitempty"`
	Validation        []ValidationRule  `json:"validation,omitempty"`
	IsDiscriminant    bool              `json:"isDiscriminant,omitempty"`
	Status            *StatusTemplates  `json:"status,omitempty"`
	RepeatableGroupID string            `json:"repeatableGroupId,omitempty"`
	Button            *ButtonConfig     `json:"button,omitempty"`
}

// PopinLoadConfig describes the proxy call a popin block issues when opened.
type PopinLoadConfig struct {
	DataSourceID string      `json:"dataSourceId,omitempty"`
	URL          string      `json:"url,omitempty"`
	Auth         *AuthConfig `json:"auth,omitempty"`
}

// PopinSubmitConfig describes where a popin block posts its values.
type PopinSubmitConfig struct {
	URL     string      `json:"url,omitempty"`
	Method  string      `json:"method,omitempty"`
	Payload string      `json:"payload,omitempty"`
	Auth    *AuthConfig `json:"auth,omitempty"`
}

// BlockDescriptor groups an ordered set of fields. A block carrying
// RepeatableBlockRef clones the referenced block's fields per instance and
// must itself be marked Repeatable.
type BlockDescriptor struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Fields             []FieldDescriptor  `json:"fields,omitempty"`
	Status             *StatusTemplates   `json:"status,omitempty"`
	SubFormRef         string             `json:"subFormRef,omitempty"`
	SubFormInstanceID  string             `json:"subFormInstanceId,omitempty"`
	Popin              bool               `json:"popin,omitempty"`
	PopinLoad          *PopinLoadConfig   `json:"popinLoad,omitempty"`
	PopinSubmit        *PopinSubmitConfig `json:"popinSubmit,omitempty"`
	Repeatable         bool               `json:"repeatable,omitempty"`
	MinInstances       int                `json:"minInstances,omitempty"`
	MaxInstances       int                `json:"maxInstances,omitempty"`
	RepeatableBlockRef string             `json:"repeatableBlockRef,omitempty"`
}

// SubmissionConfig describes where the whole form posts. Payload is a template
// evaluated against the form context.
type SubmissionConfig struct {
	URL     string      `json:"url,omitempty"`
	Method  string      `json:"method,omitempty"`
	Payload string      `json:"payload,omitempty"`
	Auth    *AuthConfig `json:"auth,omitempty"`
}

// GlobalFormDescriptor is the authoritative structural document. It is never
// mutated in place; merges always produce a new document.
type GlobalFormDescriptor struct {
	Blocks     []BlockDescriptor `json:"blocks"`
	Submission *SubmissionConfig `json:"submission,omitempty"`
}

// BlockUpdate patches a block by id inside a RulesObject.
type BlockUpdate struct {
	ID     string           `json:"id"`
	Status *StatusTemplates `json:"status,omitempty"`
}

// FieldUpdate patches a field by id inside a RulesObject.
type FieldUpdate struct {
	ID         string           `json:"id"`
	Validation []ValidationRule `json:"validation,omitempty"`
	Status     *StatusTemplates `json:"status,omitempty"`
}

// RulesObject is the partial update document returned by the rules service.
// It is merged into the base descriptor, never applied as a replacement.
type RulesObject struct {
	Blocks []BlockUpdate `json:"blocks,omitempty"`
	Fields []FieldUpdate `json:"fields,omitempty"`
}

// CaseContext is the flat discriminant-value map the rules service keys on.
type CaseContext map[string]any

// FormContext is the template-evaluation environment: current field values
// plus the case context plus incidental helper data. Constructed fresh for
// each evaluation, never mutated.
type FormContext map[string]any

// Evaluator is the template seam the descriptor operations depend on; the
// pongo2-backed implementation lives in pkg/template.
type Evaluator interface {
	Evaluate(template string, ctx FormContext) string
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(template string, ctx FormContext) string

// Evaluate delegates to the underlying function.
func (fn EvaluatorFunc) Evaluate(template string, ctx FormContext) string {
	if fn == nil {
		return ""
	}
	return fn(template, ctx)
}
