package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"office-archive-indexer/internal/core/domain"
)

func testAnalyzer(url string) *Analyzer {
	return NewAnalyzer(New(url, "test-model"), AnalyzerOptions{
		CallInterval:     time.Millisecond,
		RateLimitRetries: 2,
		RateLimitBackoff: time.Millisecond,
	})
}

func TestAnalyzePromptAndParsing(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		resp := map[string]string{
			"response": `{"brand":"Ricoh","models":["MPC 3054","MPC 4054"],"category":"Tài liệu","topic":"HDSD","tags":["service manual"]}`,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	hint, err := testAnalyzer(server.URL).Analyze(context.Background(), "MPC 3054-4054.pdf", []string{"IT", "Tài liệu", "HDSD"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if hint.Brand != "Ricoh" {
		t.Fatalf("brand = %q", hint.Brand)
	}
	if !reflect.DeepEqual(hint.Models, []string{"MPC 3054", "MPC 4054"}) {
		t.Fatalf("models = %v", hint.Models)
	}
	if !strings.Contains(capturedPrompt, "MPC 3054-4054.pdf") || !strings.Contains(capturedPrompt, "Tài liệu") {
		t.Fatalf("prompt missing inputs: %s", capturedPrompt)
	}
}

func TestAnalyzeStripsCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]string{
			"response": "```json\n{\"brand\":\"Toshiba\",\"models\":[],\"category\":\"\",\"topic\":\"\",\"tags\":[]}\n```",
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	hint, err := testAnalyzer(server.URL).Analyze(context.Background(), "e-Studio 557.pdf", nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if hint.Brand != "Toshiba" {
		t.Fatalf("brand = %q", hint.Brand)
	}
}

func TestAnalyzeNullsOutWrongTypedFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]string{
			"response": `{"brand":42,"models":"MPC 3054","category":["x"],"topic":"ok","tags":["a",7,"b"]}`,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	hint, err := testAnalyzer(server.URL).Analyze(context.Background(), "x.pdf", nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if hint.Brand != "" || hint.Models != nil || hint.Category != "" {
		t.Fatalf("wrong-typed fields not dropped: %+v", hint)
	}
	if hint.Topic != "ok" {
		t.Fatalf("topic = %q", hint.Topic)
	}
	if !reflect.DeepEqual(hint.Tags, []string{"a", "b"}) {
		t.Fatalf("tags = %v", hint.Tags)
	}
}

func TestAnalyzeRetriesRateLimitThenSucceeds(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		resp := map[string]string{"response": `{"brand":"Canon","models":[],"category":"","topic":"","tags":[]}`}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	hint, err := testAnalyzer(server.URL).Analyze(context.Background(), "iR 2520.pdf", nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected retry, calls = %d", calls)
	}
	if hint.Brand != "Canon" {
		t.Fatalf("brand = %q", hint.Brand)
	}
}

func TestAnalyzeRateLimitExhaustionIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testAnalyzer(server.URL).Analyze(context.Background(), "x.pdf", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAnalyzeNonRateLimitFailureBubblesImmediately(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := testAnalyzer(server.URL).Analyze(context.Background(), "x.pdf", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("non-rate-limit errors must not retry, calls = %d", calls)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
