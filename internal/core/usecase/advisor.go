package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

// historyTurns is how many stored messages are replayed into the prompt.
const historyTurns = 6

// AdvisorService answers questions about a stored policy and keeps each
// exchange in a per-user conversation. Provider failures produce an apology
// answer rather than an error.
type AdvisorService struct {
	repo          ports.PolicyRepository
	conversations ports.ConversationRepository
	ai            ports.QuestionAnswerer
	logger        *slog.Logger
	now           func() time.Time
}

func NewAdvisorService(repo ports.PolicyRepository, conversations ports.ConversationRepository, ai ports.QuestionAnswerer, logger *slog.Logger) *AdvisorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdvisorService{repo: repo, conversations: conversations, ai: ai, logger: logger, now: time.Now}
}

func (uc *AdvisorService) Ask(ctx context.Context, q ports.PolicyQuestion) (*domain.PolicyAnswer, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask policy", errors.New("question is required"))
	}
	policy, err := uc.repo.GetByID(ctx, q.PolicyID)
	if err != nil {
		return nil, fmt.Errorf("fetch policy by id: %w", err)
	}

	conv, err := uc.conversation(ctx, q, policy)
	if err != nil {
		return nil, err
	}
	history, err := uc.conversations.ListRecentMessages(ctx, conv.ID, historyTurns)
	if err != nil {
		return nil, fmt.Errorf("load conversation history: %w", err)
	}
	asked := uc.now().UTC()
	if err := uc.conversations.AppendMessage(ctx, domain.ConversationMessage{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           domain.MessageRoleUser,
		Content:        question,
		CreatedAt:      asked,
	}); err != nil {
		return nil, fmt.Errorf("store question: %w", err)
	}

	answer := uc.ai.Ask(ctx, domain.AIQuestion{
		UserID:        q.UserID,
		Metadata:      policy.Metadata,
		PolicyContext: policyContext(policy),
		Question:      question,
		AnalysisType:  q.AnalysisType,
		History:       history,
	})
	if answer.Err != nil {
		uc.logger.Warn("policy_question_failed",
			"policy_id", q.PolicyID,
			"conversation_id", conv.ID,
			"analysis_type", q.AnalysisType,
			"error", answer.Err,
		)
	}

	answered := uc.now().UTC()
	if err := uc.conversations.AppendMessage(ctx, domain.ConversationMessage{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           domain.MessageRoleAI,
		Content:        answer.Text,
		Model:          answer.Model,
		TokensUsed:     answer.TokensUsed,
		ResponseSecs:   answer.Elapsed.Seconds(),
		CreatedAt:      answered,
	}); err != nil {
		return nil, fmt.Errorf("store answer: %w", err)
	}

	return &domain.PolicyAnswer{
		PolicyID:        q.PolicyID,
		ConversationID:  conv.ID,
		Question:        question,
		AnalysisType:    q.AnalysisType,
		Response:        answer.Text,
		ConfidenceScore: answer.Confidence,
		Mode:            string(answer.Mode),
		CreatedAt:       answered,
	}, nil
}

// conversation resolves the thread for a question: the named one when the
// caller passes an ID, otherwise the caller's latest thread about the policy,
// created on first use.
func (uc *AdvisorService) conversation(ctx context.Context, q ports.PolicyQuestion, policy *domain.Policy) (*domain.Conversation, error) {
	if q.ConversationID != "" {
		conv, err := uc.ownedConversation(ctx, q.UserID, q.ConversationID)
		if err != nil {
			return nil, err
		}
		if conv.PolicyID != policy.ID {
			return nil, domain.WrapError(domain.ErrInvalidInput, "ask policy",
				fmt.Errorf("conversation %s belongs to another policy", conv.ID))
		}
		return conv, nil
	}

	conv, err := uc.conversations.FindConversation(ctx, q.UserID, policy.ID)
	if err == nil {
		return conv, nil
	}
	if !domain.IsKind(err, domain.ErrConversationNotFound) {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	now := uc.now().UTC()
	conv = &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    q.UserID,
		PolicyID:  policy.ID,
		Title:     domain.ConversationTitle(policy.Metadata.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.conversations.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	uc.logger.Info("conversation_created", "conversation_id", conv.ID, "policy_id", policy.ID)
	return conv, nil
}

// ownedConversation hides threads of other users behind ErrConversationNotFound.
func (uc *AdvisorService) ownedConversation(ctx context.Context, userID, id string) (*domain.Conversation, error) {
	conv, err := uc.conversations.GetConversation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}
	if !conv.OwnedBy(userID) {
		return nil, domain.WrapError(domain.ErrConversationNotFound, "fetch conversation", fmt.Errorf("id=%s", id))
	}
	return conv, nil
}

func (uc *AdvisorService) ListConversations(ctx context.Context, userID, policyID string) ([]domain.Conversation, error) {
	if policyID != "" {
		if _, err := uc.repo.GetByID(ctx, policyID); err != nil {
			return nil, fmt.Errorf("fetch policy by id: %w", err)
		}
	}
	convs, err := uc.conversations.ListConversations(ctx, userID, policyID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

func (uc *AdvisorService) GetConversation(ctx context.Context, userID, id string) (*domain.ConversationThread, error) {
	conv, err := uc.ownedConversation(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	messages, err := uc.conversations.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("list conversation messages: %w", err)
	}
	return &domain.ConversationThread{Conversation: *conv, Messages: messages}, nil
}

func (uc *AdvisorService) DeleteConversation(ctx context.Context, userID, id string) error {
	if _, err := uc.ownedConversation(ctx, userID, id); err != nil {
		return err
	}
	if err := uc.conversations.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	uc.logger.Info("conversation_deleted", "conversation_id", id)
	return nil
}

// policyContext renders what is known about the policy for the prompt: record
// fields first, then the extraction, then the raw text.
func policyContext(p *domain.Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Policy Name: %s\n", p.Metadata.Name)
	fmt.Fprintf(&b, "Policy Type: %s\n", p.Metadata.Category.Title())
	if p.Metadata.Provider != "" {
		fmt.Fprintf(&b, "Provider: %s\n", p.Metadata.Provider)
	}
	if p.Metadata.PolicyNumber != "" {
		fmt.Fprintf(&b, "Policy Number: %s\n", p.Metadata.PolicyNumber)
	}

	if x := p.Extraction; x != nil {
		fmt.Fprintf(&b, "Summary: %s\n", x.Summary)
		if c := x.Coverage.String(); c != "" {
			fmt.Fprintf(&b, "Coverage: %s\n", c)
		}
		if len(x.Exclusions) > 0 {
			topics := make([]string, 0, len(x.Exclusions))
			for _, e := range x.Exclusions {
				topics = append(topics, e.Topic)
			}
			fmt.Fprintf(&b, "Exclusions: %s\n", strings.Join(topics, ", "))
		}
		if d := x.Financials.Deductible; d != nil {
			fmt.Fprintf(&b, "Deductible: %s\n", *d)
		}
		if pr := x.Financials.Premium; pr != nil {
			fmt.Fprintf(&b, "Premium: %s\n", *pr)
		}
	}

	if text := strings.TrimSpace(p.ExtractedText); text != "" {
		b.WriteString("\nDocument Text:\n")
		b.WriteString(text)
	}
	return b.String()
}
