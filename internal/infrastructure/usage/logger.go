// Package usage records one entry per AI invocation attempt.
package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

type Metrics interface {
	RecordAICall(entry domain.UsageLogEntry)
}

type Logger struct {
	repo    ports.UsageRepository
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewLogger(repo ports.UsageRepository, metrics Metrics, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// Record never fails the caller; persistence errors are only logged.
func (l *Logger) Record(ctx context.Context, entry domain.UsageLogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now().UTC()
	}
	if entry.Elapsed < 0 {
		entry.Elapsed = 0
	}
	entry.ElapsedSecs = entry.Elapsed.Seconds()

	if l.metrics != nil {
		l.metrics.RecordAICall(entry)
	}

	// Persist even when the request context is already done.
	persistCtx := context.WithoutCancel(ctx)
	if l.repo != nil {
		if err := l.repo.AppendUsage(persistCtx, entry); err != nil {
			l.logger.Error("ai_usage_persist_failed",
				"endpoint", entry.Endpoint,
				"model", entry.Model,
				"error", err,
			)
		}
	}

	attrs := []any{
		"usage_id", entry.ID,
		"endpoint", entry.Endpoint,
		"model", entry.Model,
		"tokens", entry.TokensUsed,
		"cost", entry.Cost,
		"duration_ms", entry.Elapsed.Milliseconds(),
		"success", entry.Success,
	}
	if entry.UserID != "" {
		attrs = append(attrs, "user_id", entry.UserID)
	}
	if entry.ErrorMessage != "" {
		attrs = append(attrs, "error", entry.ErrorMessage)
	}
	l.logger.Info("ai_usage_recorded", attrs...)
}
