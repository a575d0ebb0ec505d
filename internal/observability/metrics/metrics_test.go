package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/v1/policies/abc-123":               "/v1/policies/{id}",
		"/v1/policies/abc-123/question":      "/v1/policies/{id}/question",
		"/v1/policies/abc-123/conversations": "/v1/policies/{id}/conversations",
		"/v1/comparisons/c-1/export":         "/v1/comparisons/{id}/export",
		"/v1/conversations/cv-9":             "/v1/conversations/{id}",
		"/v1/policies":                       "/v1/policies",
		"/healthz":                           "/healthz",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func assertContains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestPipelineMetricsRecordAICall(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.Pipeline().RecordAICall(domain.UsageLogEntry{Endpoint: "policy_extraction", Model: "gemini-pro", TokensUsed: 120, Cost: 0.0009, Success: true, Elapsed: time.Second})
	m.Pipeline().RecordAICall(domain.UsageLogEntry{Endpoint: "policy_extraction", Success: false})

	assertContains(t, scrape(t, m.Handler()),
		`policybridge_ai_calls_total{endpoint="policy_extraction",model="gemini-pro",service="api",status="success"} 1`,
		`policybridge_ai_calls_total{endpoint="policy_extraction",model="unknown",service="api",status="error"} 1`,
		`policybridge_ai_tokens_total{endpoint="policy_extraction",model="gemini-pro",service="api"} 120`,
	)
}

func TestHTTPMiddlewareExposesMetrics(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.Pipeline().RecordComparison(domain.StrategyLexical, "compared")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/policies/p-1", nil))

	assertContains(t, scrape(t, m.Handler()),
		`policybridge_http_requests_total{method="GET",path="/v1/policies/{id}",service="api",status="201"} 1`,
		`policybridge_comparison_total{outcome="compared",service="api",strategy="lexical"} 1`,
	)
}

func TestWorkerMetricsJobLifecycle(t *testing.T) {
	m := NewWorkerMetrics("worker")
	if err := m.TrackJob(func() error { return nil }); err != nil {
		t.Fatalf("TrackJob() error = %v", err)
	}
	missing := domain.WrapError(domain.ErrPolicyNotFound, "process policy", errors.New("id=p-9"))
	if err := m.TrackJob(func() error { return missing }); !errors.Is(err, missing) {
		t.Fatalf("TrackJob must return the job error, got %v", err)
	}
	m.ObserveQueueLag(-time.Second)
	m.ObserveQueueLag(3 * time.Second)
	m.Pipeline().RecordExtraction(domain.StageHeuristic, domain.OutcomeFallback)

	assertContains(t, scrape(t, m.Handler()),
		`policybridge_worker_extraction_jobs_total{service="worker",status="success"} 1`,
		`policybridge_worker_extraction_jobs_total{service="worker",status="not_found"} 1`,
		`policybridge_worker_extraction_jobs_in_flight{service="worker"} 0`,
		`policybridge_worker_queue_lag_seconds_count{service="worker"} 1`,
		`policybridge_extraction_outcomes_total{kind="fallback",service="worker",stage="heuristic"} 1`,
	)
}

func TestPipelineMetricsBreakerState(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.Pipeline().RecordBreakerState("ai.policy_extraction", true)
	m.Pipeline().RecordBreakerState("ai.comparison", false)

	assertContains(t, scrape(t, m.Handler()),
		`policybridge_ai_breaker_open{operation="ai.policy_extraction",service="worker"} 1`,
		`policybridge_ai_breaker_open{operation="ai.comparison",service="worker"} 0`,
	)
}
