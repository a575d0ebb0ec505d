package ports

import (
	"context"
	"io"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

// PolicyRepository persists policy records and their extraction blobs.
type PolicyRepository interface {
	Create(ctx context.Context, policy *domain.Policy) error
	GetByID(ctx context.Context, id string) (*domain.Policy, error)
	UpdateStatus(ctx context.Context, id string, status domain.ExtractionStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id, text string, result domain.ExtractionResult) error
}

// ComparisonRepository persists comparison blobs.
type ComparisonRepository interface {
	SaveComparison(ctx context.Context, result *domain.ComparisonResult) error
	GetComparison(ctx context.Context, id string) (*domain.ComparisonResult, error)
}

// ConversationRepository persists advisor threads and their messages.
// FindConversation returns the caller's most recent thread about a policy.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	FindConversation(ctx context.Context, userID, policyID string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID, policyID string) ([]domain.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg domain.ConversationMessage) error
	ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]domain.ConversationMessage, error)
	ListMessages(ctx context.Context, conversationID string) ([]domain.ConversationMessage, error)
}

// UsageRepository appends and reads AI usage log entries.
type UsageRepository interface {
	AppendUsage(ctx context.Context, entry domain.UsageLogEntry) error
	ListUsage(ctx context.Context, limit int) ([]domain.UsageLogEntry, error)
	SummarizeUsage(ctx context.Context) (domain.UsageSummary, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes extraction jobs.
type MessageQueue interface {
	PublishExtractionRequested(ctx context.Context, policyID string) error
	SubscribeExtractionRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentTextExtractor converts a stored blob into plain text. It never fails;
// unreadable documents yield a placeholder with DocumentText.Err set.
type DocumentTextExtractor interface {
	Extract(ctx context.Context, doc domain.PolicyDocument, meta domain.PolicyMetadata) domain.DocumentText
}

// TextGenerator is the opaque text-in/text-out AI provider.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (domain.Generation, error)
	Model() string
}

// UsageRecorder records one entry per AI invocation attempt. It must not fail callers.
type UsageRecorder interface {
	Record(ctx context.Context, entry domain.UsageLogEntry)
}

// PolicyAIExtractor turns document text into a structured extraction. Failures
// come back in the response, never as a panic or a bare error.
type PolicyAIExtractor interface {
	InitialMode() domain.AIMode
	Extract(ctx context.Context, req domain.AIExtractionRequest) domain.AIExtractionResponse
}

// ComparisonNarrator produces the markdown comparison of two policy texts.
type ComparisonNarrator interface {
	Available() bool
	Compare(ctx context.Context, userID, text1, text2 string) (string, error)
}

// QuestionAnswerer answers a question about one policy.
type QuestionAnswerer interface {
	Ask(ctx context.Context, q domain.AIQuestion) domain.AIAnswer
}

// ExtractionMetrics observes orchestrator outcomes.
type ExtractionMetrics interface {
	RecordExtraction(stage domain.ExtractionStage, kind domain.OutcomeKind)
}

// ComparisonMetrics observes comparison outcomes.
type ComparisonMetrics interface {
	RecordComparison(strategy domain.ComparisonStrategy, outcome string)
}

// ComparisonExporter renders a stored comparison as a downloadable document.
type ComparisonExporter interface {
	ExportComparison(ctx context.Context, result *domain.ComparisonResult) ([]byte, error)
}
