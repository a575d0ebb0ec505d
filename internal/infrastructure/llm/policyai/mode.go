// Package policyai builds the policy prompts, invokes the configured text
// generator and turns its responses into domain results.
package policyai

import (
	"context"
	"errors"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/resilience"
)

type Mode = domain.AIMode

const (
	ModeLive                    = domain.AIModeLive
	ModeMock                    = domain.AIModeMock
	ModeDegradedAfterQuotaError = domain.AIModeDegradedAfterQuotaError
)

var quotaMarkers = []string{"quota", "429", "exceeded", "rate limit", "resource_exhausted"}

// IsQuotaError matches provider quota and rate-limit failures by their error
// text. Timeouts are excluded even though their text says "exceeded".
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, resilience.ErrAttemptTimeout) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
