package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

// WorkerMetrics covers extraction jobs consumed from the queue.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry
	pipeline *PipelineMetrics

	jobsTotal    *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobsInFlight prometheus.Gauge
	queueLag     prometheus.Observer
	now          func() time.Time
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	jobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "extraction_jobs_total",
			Help:        "Extraction jobs by status.",
			ConstLabels: labels,
		},
		[]string{"status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "extraction_job_duration_seconds",
			Help:        "Extraction job duration in seconds by status.",
			Buckets:     []float64{0.5, 1, 2, 5, 10, 20, 45, 90, 180, 300},
			ConstLabels: labels,
		},
		[]string{"status"},
	)
	jobsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "extraction_jobs_in_flight",
			Help:        "Extraction jobs currently running.",
			ConstLabels: labels,
		},
	)
	queueLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "queue_lag_seconds",
			Help:        "Delay between policy upload and extraction start.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: labels,
		},
	)

	registry.MustRegister(jobsTotal, jobDuration, jobsInFlight, queueLag)

	return &WorkerMetrics{
		service:      service,
		registry:     registry,
		pipeline:     newPipelineMetrics(service, registry),
		jobsTotal:    jobsTotal,
		jobDuration:  jobDuration,
		jobsInFlight: jobsInFlight,
		queueLag:     queueLag,
		now:          time.Now,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Pipeline() *PipelineMetrics {
	return m.pipeline
}

// TrackJob runs one extraction job and records its status and duration.
func (m *WorkerMetrics) TrackJob(job func() error) error {
	m.jobsInFlight.Inc()
	defer m.jobsInFlight.Dec()

	start := m.now()
	err := job()
	status := jobStatus(err)
	m.jobsTotal.WithLabelValues(status).Inc()
	m.jobDuration.WithLabelValues(status).Observe(m.now().Sub(start).Seconds())
	return err
}

func jobStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrPolicyNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (m *WorkerMetrics) ObserveQueueLag(lag time.Duration) {
	if lag >= 0 {
		m.queueLag.Observe(lag.Seconds())
	}
}
