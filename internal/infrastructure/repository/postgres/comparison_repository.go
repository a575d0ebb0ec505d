package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

// ComparisonRepository keeps the full comparison result as a JSON blob.
type ComparisonRepository struct {
	db *sql.DB
}

func NewComparisonRepository(db *sql.DB) *ComparisonRepository {
	return &ComparisonRepository{db: db}
}

func (r *ComparisonRepository) SaveComparison(ctx context.Context, result *domain.ComparisonResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal comparison: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO policy_comparisons (id, user_id, policy1_id, policy2_id, strategy, comparison_score, result, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, result.ID, result.UserID, result.Policy1ID, result.Policy2ID, string(result.Strategy), result.ComparisonScore, raw, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}
	return nil
}

func (r *ComparisonRepository) GetComparison(ctx context.Context, id string) (*domain.ComparisonResult, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT result FROM policy_comparisons WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrComparisonNotFound, "get comparison", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan comparison: %w", err)
	}
	var result domain.ComparisonResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshal comparison: %w", err)
	}
	return &result, nil
}
