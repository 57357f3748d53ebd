package strategist

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

func TestClientGenerate_ParsesResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/strategies" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-123" {
			t.Errorf("unexpected authorization header: %s", got)
		}

		var req map[string]any
		if err := jsoniter.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if req["company_name"] != "Acme" {
			t.Errorf("unexpected company name: %v", req["company_name"])
		}

		w.Header().Set("Content-Type", "application/json")
		_ = jsoniter.NewEncoder(w).Encode(map[string]any{
			"headline": "Grow inbound",
			"summary":  "Focus on organic channels first.",
			"actions":  []string{"publish weekly", "set up analytics"},
		})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		APIKey:         "key-123",
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	strategy, err := client.Generate(context.Background(), profile.Profile{CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if strategy.Headline != "Grow inbound" {
		t.Fatalf("unexpected headline: %s", strategy.Headline)
	}
	if len(strategy.Actions) != 2 {
		t.Fatalf("unexpected actions: %v", strategy.Actions)
	}
}

func TestClientGenerate_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = jsoniter.NewEncoder(w).Encode(map[string]any{"headline": "Recovered"})
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		MaxRetries:     2,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	strategy, err := client.Generate(context.Background(), profile.Profile{})
	if err != nil {
		t.Fatalf("generate failed after retry: %v", err)
	}
	if strategy.Headline != "Recovered" {
		t.Fatalf("unexpected headline: %s", strategy.Headline)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestClientGenerate_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"profile rejected"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		MaxRetries:     3,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	if _, err := client.Generate(context.Background(), profile.Profile{}); err == nil {
		t.Fatal("expected error for 422 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls.Load())
	}
}
