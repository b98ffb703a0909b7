package rehydrate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/rehydrate"
)

func TestHTTPRulesClient_Rehydrate(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"fields": [{"id": "vatNumber", "validation": [{"type": "required"}]}]}`))
	}))
	defer server.Close()

	client := rehydrate.NewHTTPRulesClient(server.URL,
		rehydrate.WithClientAuth(&descriptor.AuthConfig{Type: descriptor.AuthBearer, Token: "tok"}),
	)

	rules, err := client.Rehydrate(context.Background(), descriptor.CaseContext{"incorporationCountry": "FR"})
	if err != nil {
		t.Fatalf("rehydrate: %v", err)
	}

	if gotBody["incorporationCountry"] != "FR" {
		t.Fatalf("request body: %v", gotBody)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("authorization: %q", gotAuth)
	}
	if len(rules.Fields) != 1 || rules.Fields[0].ID != "vatNumber" {
		t.Fatalf("decoded rules: %+v", rules)
	}
	if rules.Fields[0].Validation[0].Type != descriptor.RuleRequired {
		t.Fatalf("decoded rule type: %+v", rules.Fields[0].Validation)
	}
}

func TestHTTPRulesClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	client := rehydrate.NewHTTPRulesClient(server.URL)
	_, err := client.Rehydrate(context.Background(), descriptor.CaseContext{})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestHTTPRulesClient_MissingEndpoint(t *testing.T) {
	client := rehydrate.NewHTTPRulesClient("  ")
	_, err := client.Rehydrate(context.Background(), descriptor.CaseContext{})
	if err == nil || !strings.Contains(err.Error(), "endpoint") {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
