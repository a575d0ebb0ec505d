package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/policy-bridge/internal/core/comparison"
	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

const (
	outcomeCompared         = "compared"
	outcomeFallback         = "fallback"
	outcomeCategoryMismatch = "category_mismatch"
)

type ComparisonService struct {
	policies    ports.PolicyRepository
	comparisons ports.ComparisonRepository
	narrator    ports.ComparisonNarrator
	metrics     ports.ComparisonMetrics
	logger      *slog.Logger
	now         func() time.Time
}

func NewComparisonService(
	policies ports.PolicyRepository,
	comparisons ports.ComparisonRepository,
	narrator ports.ComparisonNarrator,
	metrics ports.ComparisonMetrics,
	logger *slog.Logger,
) *ComparisonService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComparisonService{
		policies:    policies,
		comparisons: comparisons,
		narrator:    narrator,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

func (uc *ComparisonService) Compare(ctx context.Context, req domain.ComparisonRequest) (*domain.ComparisonResult, error) {
	if strings.TrimSpace(req.Policy1ID) == "" || strings.TrimSpace(req.Policy2ID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "compare policies", errors.New("both policy ids are required"))
	}
	if req.Strategy == "" {
		req.Strategy = domain.StrategyLexical
	}

	p1, err := uc.policies.GetByID(ctx, req.Policy1ID)
	if err != nil {
		return nil, fmt.Errorf("fetch policy 1: %w", err)
	}
	p2, err := uc.policies.GetByID(ctx, req.Policy2ID)
	if err != nil {
		return nil, fmt.Errorf("fetch policy 2: %w", err)
	}

	var (
		result  domain.ComparisonResult
		outcome = outcomeCompared
	)
	if mismatch, ok := comparison.CheckCategories(p1.Metadata, p2.Metadata); !ok {
		result = mismatch
		result.Strategy = req.Strategy
		outcome = outcomeCategoryMismatch
	} else {
		result, err = uc.run(ctx, req, p1, p2)
		if err != nil {
			uc.record(req.Strategy, "failed")
			return nil, err
		}
		if result.FallbackUsed {
			outcome = outcomeFallback
		}
		rec := comparison.Recommend(p1.Metadata, p2.Metadata, aiConfidence(result.Strategy))
		result.Recommendation = &rec
		result.CategoryValid = true
		result.CategoryValidation = &domain.CategoryValidation{
			Policy1Category: domain.ParseCategory(string(p1.Metadata.Category)),
			Policy2Category: domain.ParseCategory(string(p2.Metadata.Category)),
			CategoriesMatch: true,
			Message:         "Policies are from the same category",
		}
	}

	result.ID = uuid.NewString()
	result.UserID = req.UserID
	result.Policy1ID, result.Policy2ID = p1.ID, p2.ID
	result.Policy1Name, result.Policy2Name = p1.Metadata.Name, p2.Metadata.Name
	result.CreatedAt = uc.now().UTC()
	if result.DetailedAnalysis == nil {
		result.DetailedAnalysis = map[string]string{}
	}

	if err := uc.comparisons.SaveComparison(ctx, &result); err != nil {
		return nil, fmt.Errorf("save comparison: %w", err)
	}
	uc.record(req.Strategy, outcome)
	uc.logger.Info("comparison_completed",
		"comparison_id", result.ID,
		"strategy", result.Strategy,
		"outcome", outcome,
		"score", result.ComparisonScore,
	)
	return &result, nil
}

func (uc *ComparisonService) GetComparison(ctx context.Context, id string) (*domain.ComparisonResult, error) {
	result, err := uc.comparisons.GetComparison(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch comparison by id: %w", err)
	}
	return result, nil
}

func (uc *ComparisonService) run(ctx context.Context, req domain.ComparisonRequest, p1, p2 *domain.Policy) (domain.ComparisonResult, error) {
	name1, name2 := p1.Metadata.Name, p2.Metadata.Name
	switch req.Strategy {
	case domain.StrategyLexical:
		return comparison.Lexical(policyText(p1), policyText(p2)), nil
	case domain.StrategyCanned:
		return comparison.Canned(name1, name2, nil), nil
	case domain.StrategyNarrative:
		return uc.narrate(ctx, req, p1, p2)
	default:
		return domain.ComparisonResult{}, domain.WrapError(domain.ErrInvalidInput, "compare policies", fmt.Errorf("unknown strategy %q", req.Strategy))
	}
}

func (uc *ComparisonService) narrate(ctx context.Context, req domain.ComparisonRequest, p1, p2 *domain.Policy) (domain.ComparisonResult, error) {
	var (
		raw string
		err error
	)
	if uc.narrator == nil || !uc.narrator.Available() {
		err = domain.WrapError(domain.ErrAIUnavailable, "narrate comparison", errors.New("no ai provider configured"))
	} else {
		raw, err = uc.narrator.Compare(ctx, req.UserID, policyText(p1), policyText(p2))
	}

	if err == nil {
		if result, ok := comparison.Narrative(raw); ok {
			return result, nil
		}
		switch {
		case strings.HasPrefix(raw, "ERROR:"):
			err = errors.New(strings.TrimSpace(strings.TrimPrefix(raw, "ERROR:")))
		case strings.TrimSpace(raw) == "":
			err = errors.New("empty ai response")
		default:
			err = errors.New("ai response had no sections")
		}
	}

	if req.Strict {
		return domain.ComparisonResult{}, domain.WrapError(domain.ErrValidation, "compare policies", fmt.Errorf("policy comparison failed: %s", err.Error()))
	}
	uc.logger.Warn("narrative_comparison_fallback",
		"policy1_id", p1.ID,
		"policy2_id", p2.ID,
		"error", err,
	)
	result := comparison.Canned(p1.Metadata.Name, p2.Metadata.Name, err)
	result.RawResponse = raw
	return result, nil
}

func (uc *ComparisonService) record(strategy domain.ComparisonStrategy, outcome string) {
	if uc.metrics != nil {
		uc.metrics.RecordComparison(strategy, outcome)
	}
}

// policyText prefers the stored document text, then the extracted summary.
func policyText(p *domain.Policy) string {
	if strings.TrimSpace(p.ExtractedText) != "" {
		return p.ExtractedText
	}
	if p.Extraction != nil && strings.TrimSpace(p.Extraction.Summary) != "" {
		return p.Extraction.Summary
	}
	text := "Policy " + p.Metadata.Name + " - " + p.Metadata.Category.Title()
	if p.Metadata.Description != "" {
		text += " - " + p.Metadata.Description
	}
	return text
}

func aiConfidence(strategy domain.ComparisonStrategy) float64 {
	switch strategy {
	case domain.StrategyNarrative:
		return comparison.NarrativeConfidence
	case domain.StrategyCanned:
		return comparison.CannedConfidence
	default:
		return comparison.LexicalConfidence
	}
}
