package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPolicyNotFound       = errors.New("policy not found")
	ErrComparisonNotFound   = errors.New("comparison not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTemporary            = errors.New("temporary failure")

	// ErrValidation is surfaced only by strict narrative comparisons.
	ErrValidation = errors.New("validation failed")

	ErrDocumentUnreadable  = errors.New("document unreadable")
	ErrAIUnavailable       = errors.New("ai unavailable")
	ErrAIInvocation        = errors.New("ai invocation failed")
	ErrAIResponseMalformed = errors.New("ai response malformed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
