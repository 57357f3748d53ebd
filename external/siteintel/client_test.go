package siteintel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/marketpilot/journey-engine/internal/domain/profile"
	"github.com/marketpilot/journey-engine/internal/platform/logging"
	"github.com/marketpilot/journey-engine/internal/platform/resilience"
)

func TestClientAnalyze_MapsSuggestedFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/analyze" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req map[string]string
		if err := jsoniter.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if req["url"] != "https://acme.example" {
			t.Errorf("unexpected url: %s", req["url"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = jsoniter.NewEncoder(w).Encode(map[string]any{
			"summary":               "B2B anvil manufacturer",
			"company_name":          "Acme",
			"industry":              "manufacturing",
			"target_market":         "industrial buyers",
			"unique_selling_points": []string{"fast delivery"},
		})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	analysis, err := client.Analyze(context.Background(), "https://acme.example")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if analysis.Summary != "B2B anvil manufacturer" {
		t.Fatalf("unexpected summary: %s", analysis.Summary)
	}
	if analysis.SuggestedFields[profile.FieldCompanyName] != "Acme" {
		t.Fatalf("unexpected suggested fields: %v", analysis.SuggestedFields)
	}
	if _, ok := analysis.SuggestedFields[profile.FieldCompanyOverview]; ok {
		t.Fatal("empty fields must not be suggested")
	}
}

func TestClientAnalyze_RejectsBadURL(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{
		BaseURL:        "http://127.0.0.1:0",
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	for _, raw := range []string{"", "ftp://acme.example", "not a url at all ://"} {
		if _, err := client.Analyze(context.Background(), raw); err == nil {
			t.Fatalf("expected validation error for %q", raw)
		}
	}
}

func TestClientAnalyze_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = jsoniter.NewEncoder(w).Encode(map[string]any{"summary": "recovered"})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		MaxRetries:     2,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	analysis, err := client.Analyze(context.Background(), "https://acme.example")
	if err != nil {
		t.Fatalf("analyze failed after retry: %v", err)
	}
	if analysis.Summary != "recovered" {
		t.Fatalf("unexpected summary: %s", analysis.Summary)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestClientAnalyze_CircuitOpens(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL: srv.URL,
		Logger:  logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			HalfOpenMaxReq:   1,
		},
	})

	if _, err := client.Analyze(context.Background(), "https://acme.example"); err == nil {
		t.Fatal("expected error from failing analyze")
	}

	_, err := client.Analyze(context.Background(), "https://acme.example")
	if err == nil {
		t.Fatal("expected circuit-open rejection")
	}
}
