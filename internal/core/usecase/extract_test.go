package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

const samplePolicyText = `Acme Auto Policy
Effective Date: 01/15/2024
Expiry Date: 01/15/2025
Coverage: $50,000 liability
Deductible: $500`

var acmeMeta = domain.PolicyMetadata{Name: "Acme Auto Policy", Category: domain.CategoryAuto}

func readableText(text string) domain.DocumentText {
	return domain.DocumentText{Text: text, Units: 1, Method: domain.MethodPlainText, FileType: domain.FileTypeTXT}
}

func aiResult(summary string) *domain.ExtractionResult {
	r := domain.ExtractionResult{IsPolicyDocument: true, Summary: summary}
	r.Normalize(acmeMeta)
	return &r
}

func TestExtractFromTextEmptyGoesToMetadata(t *testing.T) {
	ai := &aiFake{initial: domain.AIModeLive}
	uc := NewExtractionService(newPolicyRepoFake(), documentsFake{}, ai, nil, nil)

	outcome := uc.ExtractFromText(context.Background(), acmeMeta, domain.DocumentText{})
	if outcome.Stage != domain.StageMetadata || !outcome.Result.IsFallbackData {
		t.Fatalf("expected metadata fallback, got %+v", outcome)
	}
	if !strings.HasPrefix(outcome.Result.Summary, "Policy: Acme Auto Policy") {
		t.Fatalf("unexpected summary %q", outcome.Result.Summary)
	}
	if len(ai.requests) != 0 {
		t.Fatalf("ai must not be called without text")
	}
}

func TestExtractFromTextAcceptsMeaningfulLiveResult(t *testing.T) {
	ai := &aiFake{
		initial:   domain.AIModeLive,
		responses: []domain.AIExtractionResponse{{Result: aiResult("Covers liability"), Meaningful: true, Source: domain.AIModeLive, NextMode: domain.AIModeLive}},
	}
	metrics := &extractionMetricsFake{}
	uc := NewExtractionService(newPolicyRepoFake(), documentsFake{}, ai, metrics, nil)

	outcome := uc.ExtractFromText(context.Background(), acmeMeta, readableText(samplePolicyText))
	if outcome.Kind != domain.OutcomeOk || outcome.Stage != domain.StageAI {
		t.Fatalf("expected ok ai outcome, got %+v", outcome)
	}
	if outcome.Result.IsFallbackData || outcome.Result.FallbackReason != nil {
		t.Fatalf("live result must not be marked as fallback")
	}
	if len(metrics.stages) != 1 || metrics.stages[0] != domain.StageAI {
		t.Fatalf("unexpected metrics %v", metrics.stages)
	}
}

func TestExtractFromTextQuotaDegradesMode(t *testing.T) {
	quota := errors.New("429 quota exceeded")
	ai := &aiFake{
		initial: domain.AIModeLive,
		responses: []domain.AIExtractionResponse{{
			Result:     aiResult("Mock summary"),
			Meaningful: true,
			Source:     domain.AIModeDegradedAfterQuotaError,
			NextMode:   domain.AIModeDegradedAfterQuotaError,
			QuotaErr:   quota,
		}},
	}
	uc := NewExtractionService(newPolicyRepoFake(), documentsFake{}, ai, nil, nil)

	outcome := uc.ExtractFromText(context.Background(), acmeMeta, readableText(samplePolicyText))
	if outcome.Stage != domain.StageAIMock || outcome.Kind != domain.OutcomeFallback {
		t.Fatalf("expected ai_mock fallback, got %+v", outcome)
	}
	if outcome.Result.FallbackReason == nil || !strings.HasPrefix(*outcome.Result.FallbackReason, "ai_mock: quota exhausted") {
		t.Fatalf("unexpected fallback reason %v", outcome.Result.FallbackReason)
	}
	if uc.Mode() != domain.AIModeDegradedAfterQuotaError {
		t.Fatalf("mode = %s, want degraded", uc.Mode())
	}

	uc.ExtractFromText(context.Background(), acmeMeta, readableText(samplePolicyText))
	if ai.requests[1].Mode != domain.AIModeDegradedAfterQuotaError {
		t.Fatalf("second call must carry degraded mode, got %s", ai.requests[1].Mode)
	}
}

func TestExtractFromTextFallsBackToHeuristic(t *testing.T) {
	tests := []struct {
		name string
		resp domain.AIExtractionResponse
	}{
		{"malformed", domain.AIExtractionResponse{Err: domain.WrapError(domain.ErrAIResponseMalformed, "parse", errors.New("no json")), NextMode: domain.AIModeLive}},
		{"not meaningful", domain.AIExtractionResponse{Result: aiResult(""), Meaningful: false, Source: domain.AIModeLive, NextMode: domain.AIModeLive}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &aiFake{initial: domain.AIModeLive, responses: []domain.AIExtractionResponse{tt.resp}}
			uc := NewExtractionService(newPolicyRepoFake(), documentsFake{}, ai, nil, nil)

			outcome := uc.ExtractFromText(context.Background(), acmeMeta, readableText(samplePolicyText))
			if outcome.Stage != domain.StageHeuristic {
				t.Fatalf("expected heuristic stage, got %+v", outcome)
			}
			if outcome.Result.EffectiveDate == nil || *outcome.Result.EffectiveDate != "2024-01-15" {
				t.Fatalf("unexpected effective date %v", outcome.Result.EffectiveDate)
			}
			if outcome.Result.FallbackReason == nil || !strings.HasPrefix(*outcome.Result.FallbackReason, "heuristic: ") {
				t.Fatalf("unexpected fallback reason %v", outcome.Result.FallbackReason)
			}
			if uc.Mode() != domain.AIModeLive {
				t.Fatalf("mode must stay live, got %s", uc.Mode())
			}
		})
	}
}

func TestProcessByIDPersistsExtraction(t *testing.T) {
	repo := newPolicyRepoFake(&domain.Policy{ID: "p-1", Metadata: acmeMeta})
	ai := &aiFake{
		initial:   domain.AIModeLive,
		responses: []domain.AIExtractionResponse{{Result: aiResult("Covers liability"), Meaningful: true, Source: domain.AIModeLive, NextMode: domain.AIModeLive}},
	}
	uc := NewExtractionService(repo, documentsFake{text: readableText(samplePolicyText)}, ai, nil, nil)

	if err := uc.ProcessByID(context.Background(), "p-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[0].status != domain.ExtractionProcessing || repo.statusCalls[1].status != domain.ExtractionCompleted {
		t.Fatalf("unexpected status calls %+v", repo.statusCalls)
	}
	if repo.saved == nil || repo.savedText != samplePolicyText {
		t.Fatalf("extraction not persisted")
	}
	analysis := repo.saved.DocumentAnalysis
	if analysis == nil || analysis.ExtractionMethod != domain.MethodPlainText || analysis.TextLength != len(samplePolicyText) {
		t.Fatalf("unexpected document analysis %+v", analysis)
	}
}

func TestProcessByIDMarksFailure(t *testing.T) {
	repo := newPolicyRepoFake()
	uc := NewExtractionService(repo, documentsFake{}, &aiFake{initial: domain.AIModeMock}, nil, nil)

	err := uc.ProcessByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrPolicyNotFound) {
		t.Fatalf("expected ErrPolicyNotFound, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.ExtractionFailed || last.errMsg == "" {
		t.Fatalf("expected failed status with message, got %+v", last)
	}
}

func TestExtractPolicySaveError(t *testing.T) {
	repo := newPolicyRepoFake(&domain.Policy{ID: "p-1", Metadata: acmeMeta})
	repo.saveErr = errors.New("db down")
	uc := NewExtractionService(repo, documentsFake{}, &aiFake{initial: domain.AIModeMock}, nil, nil)

	if _, err := uc.ExtractPolicy(context.Background(), "p-1"); err == nil || !strings.Contains(err.Error(), "save extraction") {
		t.Fatalf("expected save error, got %v", err)
	}
}
