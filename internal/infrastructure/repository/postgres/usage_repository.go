package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

type UsageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) AppendUsage(ctx context.Context, entry domain.UsageLogEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO ai_usage_logs (id, user_id, endpoint, tokens_used, model_used, processing_time, cost, success, error_message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, entry.ID, entry.UserID, entry.Endpoint, entry.TokensUsed, entry.Model, entry.ElapsedSecs, entry.Cost,
		entry.Success, entry.ErrorMessage, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert usage log: %w", err)
	}
	return nil
}

func (r *UsageRepository) ListUsage(ctx context.Context, limit int) ([]domain.UsageLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, endpoint, tokens_used, model_used, processing_time, cost, success, error_message, created_at
FROM ai_usage_logs
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.UsageLogEntry, 0)
	for rows.Next() {
		var (
			entry  domain.UsageLogEntry
			userID sql.NullString
		)
		if err := rows.Scan(
			&entry.ID, &userID, &entry.Endpoint, &entry.TokensUsed, &entry.Model, &entry.ElapsedSecs,
			&entry.Cost, &entry.Success, &entry.ErrorMessage, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan usage log: %w", err)
		}
		entry.UserID = userID.String
		entry.Elapsed = time.Duration(entry.ElapsedSecs * float64(time.Second))
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage logs: %w", err)
	}
	return out, nil
}

func (r *UsageRepository) SummarizeUsage(ctx context.Context) (domain.UsageSummary, error) {
	var summary domain.UsageSummary
	err := r.db.QueryRowContext(ctx, `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE NOT success),
	COALESCE(SUM(tokens_used), 0),
	COALESCE(SUM(cost), 0),
	COALESCE(AVG(processing_time) * 1000, 0)
FROM ai_usage_logs
`).Scan(&summary.TotalCalls, &summary.FailedCalls, &summary.TotalTokens, &summary.TotalCost, &summary.AvgLatencyMS)
	if err != nil {
		return domain.UsageSummary{}, fmt.Errorf("summarize usage logs: %w", err)
	}
	return summary, nil
}
