package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/policy-bridge/internal/config"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
	"github.com/kirillkom/policy-bridge/internal/observability/metrics"
)

const (
	serviceName  = "api"
	userIDHeader = "X-User-Id"
)

// Services groups the inbound ports the API exposes.
type Services struct {
	Ingestor      ports.PolicyIngestor
	Policies      ports.PolicyReader
	Extractor     ports.PolicyExtractor
	Comparer      ports.PolicyComparer
	Advisor       ports.PolicyAdvisor
	Conversations ports.ConversationReader
	Usage         ports.UsageReader
	Exporter      ports.ComparisonExporter
}

type Router struct {
	svc     Services
	metrics *metrics.HTTPServerMetrics
	logger  *slog.Logger

	maxUploadBytes   int64
	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
}

func NewRouter(cfg config.Config, svc Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	maxUpload := int64(cfg.MaxUploadMB) << 20
	if maxUpload <= 0 {
		maxUpload = 25 << 20
	}
	return &Router{
		svc:              svc,
		metrics:          httpMetrics,
		logger:           slog.Default().With("component", "http"),
		maxUploadBytes:   maxUpload,
		rateLimitRPS:     cfg.APIRateLimitRPS,
		rateLimitBurst:   cfg.APIRateLimitBurst,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
	}
}

// Handler builds the full middleware chain. Health, metrics and the OpenAPI
// document bypass traffic control.
func (rt *Router) Handler() (http.Handler, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/policies", rt.uploadPolicy)
	api.HandleFunc("GET /v1/policies/{id}", rt.getPolicy)
	api.HandleFunc("POST /v1/policies/{id}/extract", rt.extractPolicy)
	api.HandleFunc("GET /v1/policies/{id}/extraction", rt.getExtraction)
	api.HandleFunc("POST /v1/policies/{id}/query", rt.askPolicy)
	api.HandleFunc("GET /v1/policies/{id}/conversations", rt.listConversations)
	api.HandleFunc("GET /v1/conversations/{id}", rt.getConversation)
	api.HandleFunc("DELETE /v1/conversations/{id}", rt.deleteConversation)
	api.HandleFunc("POST /v1/comparisons", rt.createComparison)
	api.HandleFunc("GET /v1/comparisons/{id}", rt.getComparison)
	api.HandleFunc("GET /v1/comparisons/{id}/export", rt.exportComparison)
	api.HandleFunc("GET /v1/usage", rt.listUsage)

	var onReject rejectionRecorder
	if rt.metrics != nil {
		onReject = func(reason string) { rt.metrics.RecordRejected(serviceName, reason) }
	}
	var guarded http.Handler = validator.middleware(api)
	guarded = backpressureMiddleware(guarded, rt.maxInFlight, rt.backpressureWait, onReject)
	guarded = rateLimitMiddleware(guarded, rt.rateLimitRPS, rt.rateLimitBurst, onReject)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	root.HandleFunc("GET /openapi.yaml", rt.serveOpenAPI)
	if rt.metrics != nil {
		root.Handle("GET /metrics", rt.metrics.Handler())
	}
	root.Handle("/", guarded)

	var handler http.Handler = root
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = recoverMiddleware(rt.logger, handler)
	handler = accessLogMiddleware(rt.logger, handler)
	handler = requestIDMiddleware(handler)
	return handler, nil
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("http_handler_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", op,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf("%s: %v", op, err)})
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userIDHeader))
}

func decodeJSONBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}
