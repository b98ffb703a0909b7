package template_test

import (
	"testing"

	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/template"
)

func TestNew_StringTemplatesNeedNoFiles(t *testing.T) {
	// Engines work purely from in-memory template strings; construction must
	// not depend on any template directory existing.
	first := template.New()
	second := template.New()

	if got := first.Evaluate("{{ name }}", descriptor.FormContext{"name": "Acme"}); got != "Acme" {
		t.Fatalf("first engine: got %q", got)
	}
	if got := second.Evaluate("{{ name }}", descriptor.FormContext{"name": "Globex"}); got != "Globex" {
		t.Fatalf("second engine: got %q", got)
	}
}

func TestEvaluate_Interpolation(t *testing.T) {
	engine := template.New()
	ctx := descriptor.FormContext{
		"name": "Ada",
		"company": map[string]any{
			"address": map[string]any{"country": "FR"},
		},
	}

	if got := engine.Evaluate("hello {{ name }}", ctx); got != "hello Ada" {
		t.Fatalf("interpolation: got %q", got)
	}
	if got := engine.Evaluate("{{ company.address.country }}", ctx); got != "FR" {
		t.Fatalf("dotted path: got %q", got)
	}
}

func TestEvaluate_ArrayAccess(t *testing.T) {
	engine := template.New()
	ctx := descriptor.FormContext{
		"owners": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second"},
		},
	}
	if got := engine.Evaluate("{{ owners.1.name }}", ctx); got != "second" {
		t.Fatalf("array path: got %q", got)
	}
}

func TestEvaluate_ConditionalBlock(t *testing.T) {
	engine := template.New()

	got := engine.Evaluate(`{% if country == "US" %}true{% endif %}`, descriptor.FormContext{"country": "US"})
	if got != "true" {
		t.Fatalf("conditional true branch: got %q", got)
	}

	got = engine.Evaluate(`{% if country == "US" %}true{% endif %}`, descriptor.FormContext{"country": "FR"})
	if got != "" {
		t.Fatalf("conditional false branch: got %q", got)
	}
}

func TestEvaluate_EmptyAndBrokenTemplates(t *testing.T) {
	engine := template.New()

	if got := engine.Evaluate("", nil); got != "" {
		t.Fatalf("empty template: got %q", got)
	}
	if got := engine.Evaluate("{% if %}", nil); got != "" {
		t.Fatalf("broken template should degrade to empty, got %q", got)
	}
	if got := engine.Evaluate("{{ missing.path.deep }}", descriptor.FormContext{}); got != "" {
		t.Fatalf("missing path: got %q", got)
	}
}

func TestParseBool(t *testing.T) {
	truthy := []string{"true", "TRUE", "True", "1", " true ", " 1"}
	for _, s := range truthy {
		if !template.ParseBool(s) {
			t.Fatalf("ParseBool(%q) = false, want true", s)
		}
	}
	falsy := []string{"", "false", "FALSE", "0", "yes", "null"}
	for _, s := range falsy {
		if template.ParseBool(s) {
			t.Fatalf("ParseBool(%q) = true, want false", s)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	engine := template.New()
	ctx := descriptor.FormContext{"country": "US"}

	status := &descriptor.StatusTemplates{
		Hidden:   `{% if country == "US" %}true{% endif %}`,
		Disabled: `{% if country == "FR" %}true{% endif %}`,
	}

	if !engine.Hidden(status, ctx) {
		t.Fatal("expected hidden to evaluate true")
	}
	if engine.Disabled(status, ctx) {
		t.Fatal("expected disabled to evaluate false")
	}
	if engine.Readonly(status, ctx) {
		t.Fatal("absent readonly template must default to false")
	}
	if engine.Hidden(nil, ctx) {
		t.Fatal("nil status must default to false")
	}
}

func TestFilters(t *testing.T) {
	engine := template.New()

	cases := []struct {
		name     string
		template string
		ctx      descriptor.FormContext
		want     bool
	}{
		{"empty nil", `{% if missing|empty %}true{% endif %}`, descriptor.FormContext{}, true},
		{"empty string", `{% if value|empty %}true{% endif %}`, descriptor.FormContext{"value": ""}, true},
		{"empty array", `{% if value|empty %}true{% endif %}`, descriptor.FormContext{"value": []any{}}, true},
		{"non-empty", `{% if value|empty %}true{% endif %}`, descriptor.FormContext{"value": "x"}, false},
		{"contains substring", `{% if value|contains:"bar" %}true{% endif %}`, descriptor.FormContext{"value": "foobarbaz"}, true},
		{"contains array member", `{% if value|contains:"FR" %}true{% endif %}`, descriptor.FormContext{"value": []any{"US", "FR"}}, true},
		{"contains miss", `{% if value|contains:"DE" %}true{% endif %}`, descriptor.FormContext{"value": []any{"US", "FR"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Evaluate(tc.template, tc.ctx) == "true"
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestJSONFilter(t *testing.T) {
	engine := template.New()

	got := engine.Evaluate(`{{ value|json }}`, descriptor.FormContext{"value": map[string]any{"a": 1}})
	if got != `{"a":1}` {
		t.Fatalf("json filter: got %q", got)
	}

	if got := engine.Evaluate(`{{ missing|json }}`, descriptor.FormContext{}); got != "null" {
		t.Fatalf("json nil: got %q", got)
	}
	if got := engine.Evaluate(`{{ missing|json:"{}" }}`, descriptor.FormContext{}); got != "{}" {
		t.Fatalf("json nil fallback: got %q", got)
	}
}
