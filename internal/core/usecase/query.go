package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

const (
	defaultUsageLimit = 50
	maxUsageLimit     = 500
)

// QueryUseCase serves the read side: policy records and the AI usage log.
type QueryUseCase struct {
	policies ports.PolicyRepository
	usage    ports.UsageRepository
}

func NewQueryUseCase(policies ports.PolicyRepository, usage ports.UsageRepository) *QueryUseCase {
	return &QueryUseCase{policies: policies, usage: usage}
}

func (uc *QueryUseCase) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	policy, err := uc.policies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch policy by id: %w", err)
	}
	return policy, nil
}

func (uc *QueryUseCase) ListUsage(ctx context.Context, limit int) ([]domain.UsageLogEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultUsageLimit
	case limit > maxUsageLimit:
		limit = maxUsageLimit
	}
	entries, err := uc.usage.ListUsage(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	return entries, nil
}

func (uc *QueryUseCase) SummarizeUsage(ctx context.Context) (domain.UsageSummary, error) {
	summary, err := uc.usage.SummarizeUsage(ctx)
	if err != nil {
		return domain.UsageSummary{}, fmt.Errorf("summarize usage: %w", err)
	}
	return summary, nil
}
