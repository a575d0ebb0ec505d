package httpadapter

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type comparisonRequest struct {
	Policy1ID string `json:"policy1_id"`
	Policy2ID string `json:"policy2_id"`
	Strategy  string `json:"strategy"`
	Strict    bool   `json:"strict"`
}

func (rt *Router) createComparison(w http.ResponseWriter, r *http.Request) {
	var req comparisonRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	strategy, ok := domain.ParseStrategy(req.Strategy)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown comparison strategy: " + req.Strategy})
		return
	}

	result, err := rt.svc.Comparer.Compare(r.Context(), domain.ComparisonRequest{
		Policy1ID: req.Policy1ID,
		Policy2ID: req.Policy2ID,
		Strategy:  strategy,
		Strict:    req.Strict,
		UserID:    userID(r),
	})
	if err != nil {
		rt.writeError(w, r, "compare policies", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (rt *Router) getComparison(w http.ResponseWriter, r *http.Request) {
	result, err := rt.svc.Comparer.GetComparison(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "get comparison", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) exportComparison(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := rt.svc.Comparer.GetComparison(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, "export comparison", err)
		return
	}
	raw, err := rt.svc.Exporter.ExportComparison(r.Context(), result)
	if err != nil {
		rt.writeError(w, r, "export comparison", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="comparison-`+url.PathEscape(id)+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

type usageResponse struct {
	Entries []domain.UsageLogEntry `json:"entries"`
	Summary domain.UsageSummary    `json:"summary"`
}

func (rt *Router) listUsage(w http.ResponseWriter, r *http.Request) {
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	entries, err := rt.svc.Usage.ListUsage(r.Context(), limit)
	if err != nil {
		rt.writeError(w, r, "list usage", err)
		return
	}
	summary, err := rt.svc.Usage.SummarizeUsage(r.Context())
	if err != nil {
		rt.writeError(w, r, "summarize usage", err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{Entries: entries, Summary: summary})
}
