package ports

import (
	"context"
	"io"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

type PolicyUpload struct {
	Filename     string
	MimeType     string
	DeclaredType string
	UserID       string
	Metadata     domain.PolicyMetadata
	Body         io.Reader
}

// PolicyIngestor is the inbound contract for policy upload orchestration.
type PolicyIngestor interface {
	Upload(ctx context.Context, upload PolicyUpload) (*domain.Policy, error)
}

// PolicyReader is the inbound read model for policy metadata/state.
type PolicyReader interface {
	GetByID(ctx context.Context, id string) (*domain.Policy, error)
}

// PolicyExtractor runs the extraction fallback chain for one policy.
type PolicyExtractor interface {
	ExtractPolicy(ctx context.Context, policyID string) (domain.ExtractionOutcome, error)
}

// ExtractionProcessor is the inbound contract for asynchronous extraction jobs.
type ExtractionProcessor interface {
	ProcessByID(ctx context.Context, policyID string) error
}

// PolicyComparer compares two policies with a caller-selected strategy.
type PolicyComparer interface {
	Compare(ctx context.Context, req domain.ComparisonRequest) (*domain.ComparisonResult, error)
	GetComparison(ctx context.Context, id string) (*domain.ComparisonResult, error)
}

// PolicyQuestion is one advisor request. UserID is the caller; an empty
// ConversationID continues the caller's open thread about the policy.
type PolicyQuestion struct {
	PolicyID       string
	UserID         string
	ConversationID string
	Question       string
	AnalysisType   domain.AnalysisType
}

// PolicyAdvisor answers free-form questions about a stored policy.
type PolicyAdvisor interface {
	Ask(ctx context.Context, q PolicyQuestion) (*domain.PolicyAnswer, error)
}

// ConversationReader exposes stored advisor threads to their owners.
type ConversationReader interface {
	ListConversations(ctx context.Context, userID, policyID string) ([]domain.Conversation, error)
	GetConversation(ctx context.Context, userID, id string) (*domain.ConversationThread, error)
	DeleteConversation(ctx context.Context, userID, id string) error
}

// UsageReader exposes the AI usage log.
type UsageReader interface {
	ListUsage(ctx context.Context, limit int) ([]domain.UsageLogEntry, error)
	SummarizeUsage(ctx context.Context) (domain.UsageSummary, error)
}
