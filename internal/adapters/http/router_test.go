package httpadapter

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/policy-bridge/internal/config"
	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

func serve(handler http.Handler, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(userIDHeader, "u-1")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", res.Body.String(), err)
	}
	return out
}

func TestHealthzAndRequestID(t *testing.T) {
	handler, _ := newTestHandler(t, config.Config{})
	res := serve(handler, http.MethodGet, "/healthz", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestUploadPolicyMultipart(t *testing.T) {
	handler, deps := newTestHandler(t, config.Config{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("name", "Gold")
	_ = mw.WriteField("policy_type", "health")
	_ = mw.WriteField("premium_amount", "$1,200")
	_ = mw.WriteField("start_date", "2024-01-15")
	part, _ := mw.CreateFormFile("file", "gold.txt")
	_, _ = part.Write([]byte("Deductible: $500"))
	_ = mw.Close()

	res := serve(handler, http.MethodPost, "/v1/policies", mw.FormDataContentType(), body.Bytes())
	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	got := deps.ingest.got
	if got.Filename != "gold.txt" || got.UserID != "u-1" || string(deps.ingest.raw) != "Deductible: $500" {
		t.Fatalf("unexpected upload %+v", got)
	}
	if got.Metadata.PremiumAmount == nil || *got.Metadata.PremiumAmount != 1200 || got.Metadata.StartDate == nil {
		t.Fatalf("metadata not parsed: %+v", got.Metadata)
	}
}

func TestUploadPolicyRejectsBadAmount(t *testing.T) {
	handler, _ := newTestHandler(t, config.Config{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("coverage_amount", "lots")
	part, _ := mw.CreateFormFile("file", "gold.txt")
	_, _ = part.Write([]byte("x"))
	_ = mw.Close()

	res := serve(handler, http.MethodPost, "/v1/policies", mw.FormDataContentType(), body.Bytes())
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetPolicyNotFoundMapsTo404(t *testing.T) {
	handler, _ := newTestHandler(t, config.Config{})
	res := serve(handler, http.MethodGet, "/v1/policies/missing", "", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if msg, _ := decodeBody(t, res)["error"].(string); !strings.Contains(msg, "policy not found") {
		t.Fatalf("unexpected error body %q", msg)
	}
}

func TestExtractionEndpoints(t *testing.T) {
	handler, _ := newTestHandler(t, config.Config{})

	res := serve(handler, http.MethodPost, "/v1/policies/p-1/extract", "", nil)
	if res.Code != http.StatusOK || decodeBody(t, res)["stage"] != "heuristic" {
		t.Fatalf("unexpected extract response %d %s", res.Code, res.Body.String())
	}

	res = serve(handler, http.MethodGet, "/v1/policies/p-1/extraction", "", nil)
	if res.Code != http.StatusOK || decodeBody(t, res)["summary"] != "Covers hospital stays" {
		t.Fatalf("unexpected extraction response %d %s", res.Code, res.Body.String())
	}

	res = serve(handler, http.MethodGet, "/v1/policies/p-2/extraction", "", nil)
	if res.Code != http.StatusNotFound || decodeBody(t, res)["extraction_status"] != "pending" {
		t.Fatalf("pending extraction must be 404, got %d %s", res.Code, res.Body.String())
	}
}

func TestAskPolicyValidatesBody(t *testing.T) {
	handler, deps := newTestHandler(t, config.Config{})

	res := serve(handler, http.MethodPost, "/v1/policies/p-1/query", "application/json", []byte(`{"question":"Is surgery covered?","analysis_type":"coverage"}`))
	if res.Code != http.StatusOK || deps.advisor.question != "Is surgery covered?" {
		t.Fatalf("unexpected ask response %d %s", res.Code, res.Body.String())
	}

	if deps.advisor.got.UserID != "u-1" || deps.advisor.got.PolicyID != "p-1" {
		t.Fatalf("question must carry the caller and policy, got %+v", deps.advisor.got)
	}
	if body := decodeBody(t, res); body["conversation_id"] != "cv-1" {
		t.Fatalf("answer missing conversation id: %v", body)
	}

	res = serve(handler, http.MethodPost, "/v1/policies/p-1/query", "application/json", []byte(`{"analysis_type":"coverage"}`))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("missing question must fail schema validation, got %d", res.Code)
	}

	res = serve(handler, http.MethodPost, "/v1/policies/p-1/query", "application/json", []byte(`{"question":"And vision?","conversation_id":" cv-1 "}`))
	if res.Code != http.StatusOK || deps.advisor.got.ConversationID != "cv-1" {
		t.Fatalf("conversation id not forwarded: %d %+v", res.Code, deps.advisor.got)
	}
}

func TestListConversations(t *testing.T) {
	handler, deps := newTestHandler(t, config.Config{})

	res := serve(handler, http.MethodGet, "/v1/policies/p-1/conversations", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", res.Code, res.Body.String())
	}
	convs, ok := decodeBody(t, res)["conversations"].([]any)
	if !ok || len(convs) != 1 || deps.conversations.caller != "u-1" {
		t.Fatalf("unexpected conversations %s", res.Body.String())
	}

	res = serve(handler, http.MethodGet, "/v1/policies/missing/conversations", "", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("unknown policy must be 404, got %d", res.Code)
	}
}

func TestGetAndDeleteConversation(t *testing.T) {
	handler, deps := newTestHandler(t, config.Config{})

	res := serve(handler, http.MethodGet, "/v1/conversations/cv-1", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", res.Code, res.Body.String())
	}
	body := decodeBody(t, res)
	if body["title"] != "Chat about Gold" {
		t.Fatalf("unexpected conversation %v", body)
	}
	if msgs, ok := body["messages"].([]any); !ok || len(msgs) != 2 {
		t.Fatalf("expected two messages, got %v", body["messages"])
	}

	req := httptest.NewRequest(http.MethodDelete, "/v1/conversations/cv-1", nil)
	req.Header.Set(userIDHeader, "intruder")
	other := httptest.NewRecorder()
	handler.ServeHTTP(other, req)
	if other.Code != http.StatusNotFound {
		t.Fatalf("foreign delete must be 404, got %d", other.Code)
	}

	res = serve(handler, http.MethodDelete, "/v1/conversations/cv-1", "", nil)
	if res.Code != http.StatusNoContent || len(deps.conversations.deleted) != 1 {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	res = serve(handler, http.MethodGet, "/v1/conversations/cv-1", "", nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("deleted conversation must be 404, got %d", res.Code)
	}
}

func TestCreateComparison(t *testing.T) {
	handler, deps := newTestHandler(t, config.Config{})

	res := serve(handler, http.MethodPost, "/v1/comparisons", "application/json", []byte(`{"policy1_id":"p-1","policy2_id":"p-2","strategy":"narrative","strict":true}`))
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if deps.comparer.got.Strategy != domain.StrategyNarrative || !deps.comparer.got.Strict || deps.comparer.got.UserID != "u-1" {
		t.Fatalf("unexpected request %+v", deps.comparer.got)
	}

	res = serve(handler, http.MethodPost, "/v1/comparisons", "application/json", []byte(`{"policy1_id":"p-1","policy2_id":"p-2","strategy":"magic"}`))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("unknown strategy must be rejected, got %d", res.Code)
	}
}

func TestStrictComparisonFailureMapsTo422(t *testing.T) {
	handler, deps := newTestHandler(t, config.Config{})
	deps.comparer.err = domain.WrapError(domain.ErrValidation, "compare policies", bytes.ErrTooLarge)

	res := serve(handler, http.MethodPost, "/v1/comparisons", "application/json", []byte(`{"policy1_id":"p-1","policy2_id":"p-2"}`))
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
}

func TestComparisonReadAndExport(t *testing.T) {
	handler, _ := newTestHandler(t, config.Config{})

	if res := serve(handler, http.MethodGet, "/v1/comparisons/c-1", "", nil); res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res := serve(handler, http.MethodGet, "/v1/comparisons/nope", "", nil); res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}

	res := serve(handler, http.MethodGet, "/v1/comparisons/c-1/export", "", nil)
	if res.Code != http.StatusOK || res.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("unexpected export response %d %q", res.Code, res.Header().Get("Content-Type"))
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "comparison-c-1.xlsx") {
		t.Fatalf("unexpected disposition %q", res.Header().Get("Content-Disposition"))
	}
}

func TestListUsageBindsLimit(t *testing.T) {
	handler, deps := newTestHandler(t, config.Config{})

	res := serve(handler, http.MethodGet, "/v1/usage?limit=25", "", nil)
	if res.Code != http.StatusOK || deps.usage.limit != 25 {
		t.Fatalf("unexpected usage response %d limit=%d", res.Code, deps.usage.limit)
	}
	if res := serve(handler, http.MethodGet, "/v1/usage?limit=abc", "", nil); res.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric limit must be rejected, got %d", res.Code)
	}
	if res := serve(handler, http.MethodGet, "/v1/usage?limit=900", "", nil); res.Code != http.StatusBadRequest {
		t.Fatalf("limit above maximum must be rejected, got %d", res.Code)
	}
}

func TestMetricsAndOpenAPIEndpoints(t *testing.T) {
	handler, _ := newTestHandler(t, config.Config{})
	serve(handler, http.MethodGet, "/v1/policies/p-1", "", nil)
	serve(handler, http.MethodGet, "/v1/conversations/cv-1", "", nil)

	res := serve(handler, http.MethodGet, "/metrics", "", nil)
	if !strings.Contains(res.Body.String(), `path="/v1/policies/{id}"`) {
		t.Fatalf("metrics missing normalized path")
	}
	if !strings.Contains(res.Body.String(), `path="/v1/conversations/{id}"`) {
		t.Fatalf("metrics missing normalized conversation path")
	}
	res = serve(handler, http.MethodGet, "/openapi.yaml", "", nil)
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "openapi: 3.0.3") {
		t.Fatalf("unexpected openapi response %d", res.Code)
	}
}
