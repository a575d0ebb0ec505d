package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/heuristic"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

// ExtractionService runs AI extraction with heuristic and metadata fallbacks.
// The AI mode is process-wide: once a quota error degrades it, later calls
// stay on the mock generator until restart.
type ExtractionService struct {
	repo      ports.PolicyRepository
	documents ports.DocumentTextExtractor
	ai        ports.PolicyAIExtractor
	metrics   ports.ExtractionMetrics
	logger    *slog.Logger

	mu   sync.Mutex
	mode domain.AIMode
}

func NewExtractionService(
	repo ports.PolicyRepository,
	documents ports.DocumentTextExtractor,
	ai ports.PolicyAIExtractor,
	metrics ports.ExtractionMetrics,
	logger *slog.Logger,
) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		repo:      repo,
		documents: documents,
		ai:        ai,
		metrics:   metrics,
		logger:    logger,
		mode:      ai.InitialMode(),
	}
}

// Mode reports the AI mode the next extraction will use.
func (uc *ExtractionService) Mode() domain.AIMode {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.mode
}

func (uc *ExtractionService) ProcessByID(ctx context.Context, policyID string) error {
	if err := uc.repo.UpdateStatus(ctx, policyID, domain.ExtractionProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}
	if _, err := uc.ExtractPolicy(ctx, policyID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, policyID, domain.ExtractionFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}
	return nil
}

// ExtractPolicy loads a policy, extracts its text, runs the fallback chain and
// persists the result. It fails only for a missing policy or a storage error.
func (uc *ExtractionService) ExtractPolicy(ctx context.Context, policyID string) (domain.ExtractionOutcome, error) {
	policy, err := uc.repo.GetByID(ctx, policyID)
	if err != nil {
		return domain.ExtractionOutcome{}, fmt.Errorf("fetch policy by id: %w", err)
	}

	text := uc.documents.Extract(ctx, policy.Document, policy.Metadata)
	if text.Err != nil {
		uc.logger.Warn("document_unreadable",
			"policy_id", policyID,
			"file_type", text.FileType,
			"error", text.Err,
		)
	}

	outcome := uc.extract(ctx, policy.Metadata, text, policy.UserID)
	outcome.Result.DocumentAnalysis = &domain.DocumentAnalysis{
		TotalPages:       text.Units,
		FileType:         string(text.FileType),
		TextLength:       len(text.Text),
		ExtractionMethod: text.Method,
	}

	if err := uc.repo.SaveExtraction(ctx, policyID, text.Text, outcome.Result); err != nil {
		return domain.ExtractionOutcome{}, fmt.Errorf("save extraction: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, policyID, domain.ExtractionCompleted, ""); err != nil {
		return domain.ExtractionOutcome{}, fmt.Errorf("set status=completed: %w", err)
	}

	uc.logger.Info("extraction_completed",
		"policy_id", policyID,
		"stage", outcome.Stage,
		"kind", outcome.Kind,
	)
	return outcome, nil
}

// ExtractFromText runs the fallback chain over already extracted text.
func (uc *ExtractionService) ExtractFromText(ctx context.Context, meta domain.PolicyMetadata, text domain.DocumentText) domain.ExtractionOutcome {
	return uc.extract(ctx, meta, text, "")
}

func (uc *ExtractionService) extract(ctx context.Context, meta domain.PolicyMetadata, text domain.DocumentText, userID string) domain.ExtractionOutcome {
	outcome := uc.run(ctx, meta, text, userID)
	if uc.metrics != nil {
		uc.metrics.RecordExtraction(outcome.Stage, outcome.Kind)
	}
	return outcome
}

func (uc *ExtractionService) run(ctx context.Context, meta domain.PolicyMetadata, text domain.DocumentText, userID string) domain.ExtractionOutcome {
	if strings.TrimSpace(text.Text) == "" {
		reason := "no document text"
		if text.Err != nil {
			reason = text.Err.Error()
		}
		uc.transition(domain.StageAI, domain.StageMetadata, errors.New(reason))
		return domain.FallbackOutcome(domain.StageMetadata, reason, heuristic.MetadataFallback(meta, reason))
	}

	resp := uc.ai.Extract(ctx, domain.AIExtractionRequest{
		Mode:     uc.Mode(),
		Metadata: meta,
		Text:     text.Text,
		UserID:   userID,
	})
	uc.updateMode(resp)

	var aiErr error
	switch {
	case resp.Err != nil:
		aiErr = resp.Err
	case resp.Result == nil:
		aiErr = errors.New("empty ai response")
	case !resp.Meaningful:
		aiErr = errors.New("ai summary carried no content")
	case resp.Source == domain.AIModeLive:
		return domain.OkOutcome(domain.StageAI, *resp.Result)
	default:
		return domain.FallbackOutcome(domain.StageAIMock, mockReason(resp), *resp.Result)
	}

	uc.transition(domain.StageAI, domain.StageHeuristic, aiErr)
	result, err := heuristic.Parse(text.Text, meta)
	if err != nil {
		uc.transition(domain.StageHeuristic, domain.StageMetadata, err)
		return domain.FailureOutcome("metadata: "+err.Error(), result)
	}
	return domain.FallbackOutcome(domain.StageHeuristic, aiErr.Error(), result)
}

func (uc *ExtractionService) updateMode(resp domain.AIExtractionResponse) {
	if resp.NextMode == "" {
		return
	}
	uc.mu.Lock()
	prev := uc.mode
	uc.mode = resp.NextMode
	uc.mu.Unlock()
	if prev != resp.NextMode {
		uc.logger.Warn("ai_mode_changed",
			"from", prev,
			"to", resp.NextMode,
			"error", resp.QuotaErr,
		)
	}
}

func (uc *ExtractionService) transition(from, to domain.ExtractionStage, cause error) {
	uc.logger.Info("extraction_stage_transition",
		"from", from,
		"to", to,
		"error", cause,
	)
}

func mockReason(resp domain.AIExtractionResponse) string {
	if resp.QuotaErr != nil {
		return "quota exhausted: " + resp.QuotaErr.Error()
	}
	if resp.Source == domain.AIModeDegradedAfterQuotaError {
		return "degraded after quota error"
	}
	return "ai provider not configured"
}
