package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

const namespace = "policybridge"

// PipelineMetrics covers AI calls, extraction outcomes and comparisons. The
// API and the worker each register one on their own registry.
type PipelineMetrics struct {
	service string

	aiCallsTotal     *prometheus.CounterVec
	aiTokensTotal    *prometheus.CounterVec
	aiCostTotal      *prometheus.CounterVec
	aiDuration       *prometheus.HistogramVec
	extractionsTotal *prometheus.CounterVec
	comparisonsTotal *prometheus.CounterVec
	breakerOpen      *prometheus.GaugeVec
}

func newPipelineMetrics(service string, registry *prometheus.Registry) *PipelineMetrics {
	aiCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "Total AI invocation attempts by endpoint, model and status.",
		},
		[]string{"service", "endpoint", "model", "status"},
	)
	aiTokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "tokens_total",
			Help:      "Tokens consumed by AI calls.",
		},
		[]string{"service", "endpoint", "model"},
	)
	aiCostTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "cost_total",
			Help:      "Estimated AI cost in USD.",
		},
		[]string{"service", "endpoint", "model"},
	)
	aiDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "call_duration_seconds",
			Help:      "AI call duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"service", "endpoint"},
	)
	extractionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "outcomes_total",
			Help:      "Extraction outcomes by producing stage and kind.",
		},
		[]string{"service", "stage", "kind"},
	)
	comparisonsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "total",
			Help:      "Policy comparisons by strategy and outcome.",
		},
		[]string{"service", "strategy", "outcome"},
	)

	breakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker for an AI operation is open.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(aiCallsTotal, aiTokensTotal, aiCostTotal, aiDuration, extractionsTotal, comparisonsTotal, breakerOpen)

	return &PipelineMetrics{
		service:          service,
		aiCallsTotal:     aiCallsTotal,
		aiTokensTotal:    aiTokensTotal,
		aiCostTotal:      aiCostTotal,
		aiDuration:       aiDuration,
		extractionsTotal: extractionsTotal,
		comparisonsTotal: comparisonsTotal,
		breakerOpen:      breakerOpen,
	}
}

func (m *PipelineMetrics) RecordAICall(entry domain.UsageLogEntry) {
	model := entry.Model
	if model == "" {
		model = "unknown"
	}
	status := "success"
	if !entry.Success {
		status = "error"
	}
	m.aiCallsTotal.WithLabelValues(m.service, entry.Endpoint, model, status).Inc()
	if entry.TokensUsed > 0 {
		m.aiTokensTotal.WithLabelValues(m.service, entry.Endpoint, model).Add(float64(entry.TokensUsed))
	}
	if entry.Cost > 0 {
		m.aiCostTotal.WithLabelValues(m.service, entry.Endpoint, model).Add(entry.Cost)
	}
	m.aiDuration.WithLabelValues(m.service, entry.Endpoint).Observe(entry.Elapsed.Seconds())
}

func (m *PipelineMetrics) RecordExtraction(stage domain.ExtractionStage, kind domain.OutcomeKind) {
	m.extractionsTotal.WithLabelValues(m.service, string(stage), string(kind)).Inc()
}

func (m *PipelineMetrics) RecordComparison(strategy domain.ComparisonStrategy, outcome string) {
	m.comparisonsTotal.WithLabelValues(m.service, string(strategy), outcome).Inc()
}

func (m *PipelineMetrics) RecordBreakerState(operation string, open bool) {
	value := 0.0
	if open {
		value = 1
	}
	m.breakerOpen.WithLabelValues(m.service, operation).Set(value)
}
