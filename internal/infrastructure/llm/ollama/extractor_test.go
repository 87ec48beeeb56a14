package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/solvify/docpipe/internal/core/domain"
)

func generateServer(t *testing.T, response string) *Client {
	t.Helper()
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response": response})
	})
}

func TestExtractFlattensEnvelope(t *testing.T) {
	client := generateServer(t, `{"document_type": "Invoice", "extracted_data": {"invoice_number": "INV-9", "total_amount": 120.5}}`)

	result, err := NewExtractor(client).Extract(context.Background(), "Invoice INV-9 total $120.50")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Class != domain.ClassInvoice {
		t.Fatalf("Class = %q, want Invoice", result.Class)
	}
	if result.Extra["invoice_number"] != "INV-9" {
		t.Fatalf("invoice_number = %v", result.Extra["invoice_number"])
	}
	if result.Extra["total_amount"] != 120.5 {
		t.Fatalf("total_amount = %v", result.Extra["total_amount"])
	}
	if result.Extra["document_type"] != "Invoice" {
		t.Fatalf("document_type = %v", result.Extra["document_type"])
	}
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	client := generateServer(t, "```json\n{\"document_type\": \"Resume\", \"extracted_data\": {\"name\": \"Ada\"}}\n```")

	result, err := NewExtractor(client).Extract(context.Background(), "Ada Lovelace")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Class != domain.ClassResume {
		t.Fatalf("Class = %q, want Resume", result.Class)
	}
	if result.Extra["name"] != "Ada" {
		t.Fatalf("name = %v", result.Extra["name"])
	}
}

func TestExtractPassesThroughOffContractJSON(t *testing.T) {
	client := generateServer(t, `{"document_type": "Invoice", "summary": "no structured data"}`)

	result, err := NewExtractor(client).Extract(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Class != domain.ClassInvoice {
		t.Fatalf("Class = %q, want Invoice", result.Class)
	}
	if result.Extra["summary"] != "no structured data" {
		t.Fatalf("summary = %v", result.Extra["summary"])
	}
}

func TestExtractFailsOnUnparsableResponse(t *testing.T) {
	client := generateServer(t, "the model rambled instead of emitting JSON")

	_, err := NewExtractor(client).Extract(context.Background(), "text")
	if !errors.Is(err, domain.ErrGenerative) {
		t.Fatalf("error = %v, want ErrGenerative", err)
	}
}

func TestExtractFailsOnBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	client := New(server.URL, "gen-model", "embed-model", nil)

	_, err := NewExtractor(client).Extract(context.Background(), "text")
	if !errors.Is(err, domain.ErrGenerative) {
		t.Fatalf("error = %v, want ErrGenerative", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
