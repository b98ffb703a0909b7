package datasource_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formflow/pkg/datasource"
	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/template"
)

func decodeBody(t *testing.T, raw string) any {
	t.Helper()
	var body any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestTransformResponse_IteratorAndItems(t *testing.T) {
	engine := template.New()
	body := decodeBody(t, `{"results": [{"title": "A", "identifier": "1"}, {"title": "B", "identifier": "2"}]}`)

	got := datasource.TransformResponse(body, datasource.TransformConfig{
		IteratorTemplate: "results",
		ItemsTemplate:    "{{ item.title }}:{{ item.identifier }}",
	}, engine, nil)

	want := []descriptor.Item{
		{Label: "A:1", Value: "A:1"},
		{Label: "B:2", Value: "B:2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("transform (-want +got):\n%s", diff)
	}
}

func TestTransformResponse_NestedIteratorPath(t *testing.T) {
	engine := template.New()
	body := decodeBody(t, `{"data": {"entries": [{"name": "one"}]}}`)

	got := datasource.TransformResponse(body, datasource.TransformConfig{
		IteratorTemplate: "data.entries",
	}, engine, nil)

	if len(got) != 1 || got[0].Label != "one" {
		t.Fatalf("nested path: %+v", got)
	}
}

func TestTransformResponse_ItemPropertiesSplatted(t *testing.T) {
	engine := template.New()
	body := decodeBody(t, `[{"code": "FR", "name": "France"}]`)

	got := datasource.TransformResponse(body, datasource.TransformConfig{
		ItemsTemplate: "{{ name }} ({{ code }})",
	}, engine, nil)

	if len(got) != 1 || got[0].Label != "France (FR)" {
		t.Fatalf("splatted props: %+v", got)
	}
	// The element carries a "name" property, so the value falls back to it.
	if got[0].Value != "France" {
		t.Fatalf("value fallback: %v", got[0].Value)
	}
}

func TestTransformResponse_LabelValueObject(t *testing.T) {
	engine := template.New()
	body := decodeBody(t, `[{"title": "France", "code": "FR"}]`)

	got := datasource.TransformResponse(body, datasource.TransformConfig{
		ItemsTemplate: `{"label": "{{ item.title }}", "value": "{{ item.code }}"}`,
	}, engine, nil)

	want := []descriptor.Item{{Label: "France", Value: "FR"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("label/value object (-want +got):\n%s", diff)
	}
}

func TestTransformResponse_FallbacksWithoutTemplates(t *testing.T) {
	engine := template.New()

	scalars := decodeBody(t, `["FR", "DE"]`)
	got := datasource.TransformResponse(scalars, datasource.TransformConfig{}, engine, nil)
	want := []descriptor.Item{
		{Label: "FR", Value: "FR"},
		{Label: "DE", Value: "DE"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scalar fallback (-want +got):\n%s", diff)
	}

	objects := decodeBody(t, `[{"label": "France", "value": "FR"}, {"name": "Germany"}]`)
	got = datasource.TransformResponse(objects, datasource.TransformConfig{}, engine, nil)
	want = []descriptor.Item{
		{Label: "France", Value: "FR"},
		{Label: "Germany", Value: "Germany"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("object fallback (-want +got):\n%s", diff)
	}
}

func TestTransformResponse_IteratorFallbackOnWrongPath(t *testing.T) {
	engine := template.New()

	// A missing iterator path degrades to treating the body as the array.
	arr := decodeBody(t, `["x"]`)
	got := datasource.TransformResponse(arr, datasource.TransformConfig{IteratorTemplate: "nope"}, engine, nil)
	if len(got) != 1 || got[0].Label != "x" {
		t.Fatalf("array fallback: %+v", got)
	}

	// A plain object is wrapped as a single element.
	obj := decodeBody(t, `{"name": "only"}`)
	got = datasource.TransformResponse(obj, datasource.TransformConfig{IteratorTemplate: "nope"}, engine, nil)
	if len(got) != 1 || got[0].Label != "only" {
		t.Fatalf("object wrap fallback: %+v", got)
	}
}

func TestTransformResponse_TemplateIterator(t *testing.T) {
	engine := template.New()
	body := decodeBody(t, `{"fr": [{"name": "Paris"}], "de": [{"name": "Berlin"}]}`)

	got := datasource.TransformResponse(body, datasource.TransformConfig{
		IteratorTemplate: `{% if country == "DE" %}de{% else %}fr{% endif %}`,
	}, engine, descriptor.FormContext{"country": "DE"})

	if len(got) != 1 || got[0].Label != "Berlin" {
		t.Fatalf("template iterator: %+v", got)
	}
}

func TestTransformResponse_ResponseAliases(t *testing.T) {
	engine := template.New()
	body := decodeBody(t, `{"currency": "EUR", "items": [{"name": "one"}]}`)

	got := datasource.TransformResponse(body, datasource.TransformConfig{
		IteratorTemplate: "items",
		ItemsTemplate:    "{{ item.name }}-{{ response.currency }}-{{ data.currency }}",
	}, engine, nil)

	if len(got) != 1 || got[0].Label != "one-EUR-EUR" {
		t.Fatalf("response aliases: %+v", got)
	}
}
