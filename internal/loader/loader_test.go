package loader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formflow/internal/loader"
	"github.com/goliatone/go-formflow/pkg/descriptor"
)

const jsonDescriptor = `{
  "blocks": [
    {
      "id": "company",
      "title": "Company",
      "fields": [
        {
          "id": "incorporationCountry",
          "type": "dropdown",
          "label": "Country",
          "isDiscriminant": true,
          "defaultValue": "FR",
          "items": [{"label": "France", "value": "FR"}]
        },
        {
          "id": "legalForm",
          "type": "dropdown",
          "label": "Legal form",
          "dataSource": {
            "id": "legal-forms",
            "url": "https://api.example.com/legal-forms?country={{ incorporationCountry }}"
          }
        }
      ]
    },
    {
      "id": "shareholders-block",
      "repeatable": true,
      "minInstances": 1,
      "maxInstances": 5,
      "fields": [{"id": "name", "type": "text", "label": "Name"}]
    }
  ]
}`

const yamlDescriptor = `
blocks:
  - id: company
    title: Company
    fields:
      - id: incorporationCountry
        type: dropdown
        label: Country
        isDiscriminant: true
        defaultValue: FR
        items:
          - label: France
            value: FR
      - id: legalForm
        type: dropdown
        label: Legal form
        dataSource:
          id: legal-forms
          url: "https://api.example.com/legal-forms?country={{ incorporationCountry }}"
  - id: shareholders-block
    repeatable: true
    minInstances: 1
    maxInstances: 5
    fields:
      - id: name
        type: text
        label: Name
`

// assertCompanyBlock checks the camelCase descriptor keys survived decoding
// regardless of the source format.
func assertCompanyBlock(t *testing.T, d descriptor.GlobalFormDescriptor) {
	t.Helper()
	if len(d.Blocks) != 2 || d.Blocks[0].ID != "company" {
		t.Fatalf("blocks: %+v", d.Blocks)
	}

	country := d.Blocks[0].Fields[0]
	if country.Type != descriptor.FieldTypeDropdown || !country.IsDiscriminant {
		t.Fatalf("country field: %+v", country)
	}
	if country.DefaultValue != "FR" {
		t.Fatalf("defaultValue: %v", country.DefaultValue)
	}
	if len(country.Items) != 1 || country.Items[0].Value != "FR" {
		t.Fatalf("items: %+v", country.Items)
	}

	legalForm := d.Blocks[0].Fields[1]
	if legalForm.DataSource == nil || legalForm.DataSource.ID != "legal-forms" {
		t.Fatalf("dataSource: %+v", legalForm.DataSource)
	}
	if !strings.Contains(legalForm.DataSource.URL, "{{ incorporationCountry }}") {
		t.Fatalf("dataSource url: %q", legalForm.DataSource.URL)
	}

	shareholders := d.Blocks[1]
	if !shareholders.Repeatable || shareholders.MinInstances != 1 || shareholders.MaxInstances != 5 {
		t.Fatalf("repeatable block: %+v", shareholders)
	}
}

func TestLoad_BytesJSON(t *testing.T) {
	d, err := loader.New().Load(context.Background(), loader.FromBytes([]byte(jsonDescriptor)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertCompanyBlock(t, d)
}

func TestLoad_BytesYAML(t *testing.T) {
	d, err := loader.New().Load(context.Background(), loader.FromBytes([]byte(yamlDescriptor)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertCompanyBlock(t, d)
}

func TestLoad_FS(t *testing.T) {
	fsys := fstest.MapFS{
		"forms/company.yaml": &fstest.MapFile{Data: []byte(yamlDescriptor)},
		"forms/company.json": &fstest.MapFile{Data: []byte(jsonDescriptor)},
	}
	l := loader.New(loader.WithFS(fsys))

	for _, path := range []string{"forms/company.yaml", "forms/company.json"} {
		d, err := l.Load(context.Background(), loader.FromFS(path))
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		assertCompanyBlock(t, d)
	}
}

func TestLoad_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(jsonDescriptor))
	}))
	defer server.Close()

	d, err := loader.New().Load(context.Background(), loader.FromURL(server.URL+"/descriptor.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertCompanyBlock(t, d)
}

func TestLoad_URLNonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := loader.New().Load(context.Background(), loader.FromURL(server.URL))
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoad_EmptyDocument(t *testing.T) {
	_, err := loader.New().Load(context.Background(), loader.FromBytes([]byte("  ")))
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty-document error, got %v", err)
	}
}

func TestLoad_InvalidDescriptorRejected(t *testing.T) {
	doc := `{"blocks": [{"id": "a", "fields": [{"id": "x"}, {"id": "x"}]}]}`
	_, err := loader.New().Load(context.Background(), loader.FromBytes([]byte(doc)))
	if err == nil || !strings.Contains(err.Error(), "duplicate field id") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecode_SniffsJSONWithoutHint(t *testing.T) {
	d, err := loader.Decode([]byte(jsonDescriptor), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	assertCompanyBlock(t, d)
}
