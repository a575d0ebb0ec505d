package httpadapter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

const multipartMemory = 8 << 20

func (rt *Router) uploadPolicy(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	meta, err := metadataFromForm(r)
	if err != nil {
		rt.writeError(w, r, "upload policy", err)
		return
	}

	policy, err := rt.svc.Ingestor.Upload(r.Context(), ports.PolicyUpload{
		Filename:     fileHeader.Filename,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		DeclaredType: r.FormValue("file_type"),
		UserID:       userID(r),
		Metadata:     meta,
		Body:         file,
	})
	if err != nil {
		rt.writeError(w, r, "upload policy", err)
		return
	}
	writeJSON(w, http.StatusAccepted, policy)
}

func (rt *Router) getPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := rt.svc.Policies.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "get policy", err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (rt *Router) extractPolicy(w http.ResponseWriter, r *http.Request) {
	outcome, err := rt.svc.Extractor.ExtractPolicy(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "extract policy", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (rt *Router) getExtraction(w http.ResponseWriter, r *http.Request) {
	policy, err := rt.svc.Policies.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeError(w, r, "get extraction", err)
		return
	}
	if policy.Extraction == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":             "extraction not available",
			"extraction_status": string(policy.Status),
		})
		return
	}
	writeJSON(w, http.StatusOK, policy.Extraction)
}

type questionRequest struct {
	Question       string `json:"question"`
	AnalysisType   string `json:"analysis_type"`
	ConversationID string `json:"conversation_id"`
}

func (rt *Router) askPolicy(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	answer, err := rt.svc.Advisor.Ask(r.Context(), ports.PolicyQuestion{
		PolicyID:       r.PathValue("id"),
		UserID:         userID(r),
		ConversationID: strings.TrimSpace(req.ConversationID),
		Question:       req.Question,
		AnalysisType:   domain.ParseAnalysisType(req.AnalysisType),
	})
	if err != nil {
		rt.writeError(w, r, "ask policy", err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func metadataFromForm(r *http.Request) (domain.PolicyMetadata, error) {
	meta := domain.PolicyMetadata{
		Name:         strings.TrimSpace(r.FormValue("name")),
		Provider:     strings.TrimSpace(r.FormValue("provider")),
		Category:     domain.PolicyCategory(r.FormValue("policy_type")),
		PolicyNumber: strings.TrimSpace(r.FormValue("policy_number")),
		Description:  strings.TrimSpace(r.FormValue("description")),
	}

	var err error
	if meta.CoverageAmount, err = formAmount(r, "coverage_amount"); err != nil {
		return meta, err
	}
	if meta.PremiumAmount, err = formAmount(r, "premium_amount"); err != nil {
		return meta, err
	}
	if meta.StartDate, err = formDate(r, "start_date"); err != nil {
		return meta, err
	}
	if meta.EndDate, err = formDate(r, "end_date"); err != nil {
		return meta, err
	}
	return meta, nil
}

func formAmount(r *http.Request, field string) (*float64, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	raw = strings.NewReplacer("$", "", ",", "").Replace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse "+field, fmt.Errorf("%q is not a valid amount", raw))
	}
	return &v, nil
}

func formDate(r *http.Request, field string) (*time.Time, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.WrapError(domain.ErrInvalidInput, "parse "+field, fmt.Errorf("%q is not a valid date", raw))
}
