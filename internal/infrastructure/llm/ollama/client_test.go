package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

func TestGenerateReportsTokenCounts(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":" {\"isPolicyDocument\":true} ","model":"llama3","prompt_eval_count":12,"eval_count":30}`))
	}))
	defer server.Close()

	client := New(server.URL+"/", "llama3").WithJSONFormat()
	gen, err := client.Generate(context.Background(), "extract this")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Text != `{"isPolicyDocument":true}` || gen.TotalTokens != 42 || gen.Model != "llama3" {
		t.Fatalf("unexpected generation %+v", gen)
	}
	if payload["prompt"] != "extract this" || payload["format"] != "json" || payload["stream"] != false {
		t.Fatalf("unexpected request payload %v", payload)
	}
}

func TestGenerateOmitsFormatByDefault(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"response":"## SUMMARY"}`))
	}))
	defer server.Close()

	if _, err := New(server.URL, "llama3").Generate(context.Background(), "compare"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, ok := payload["format"]; ok {
		t.Fatalf("format must not be sent for narrative prompts: %v", payload)
	}
}

func TestGenerateIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, "llama3").Generate(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway || statusErr.Body != "model unavailable" {
		t.Fatalf("expected status error with body, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be wrapped as temporary, got %v", err)
	}
}

func TestGenerateRejectsEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"   "}`))
	}))
	defer server.Close()

	if _, err := New(server.URL, "llama3").Generate(context.Background(), "hello"); err == nil {
		t.Fatalf("expected error for empty response")
	}
}

func TestGenerateMissingModelIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'llama3' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, "llama3").Generate(context.Background(), "hello")
	if !domain.IsKind(err, domain.ErrAIUnavailable) || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent unavailable error, got %v", err)
	}
}
