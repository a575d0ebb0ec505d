package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

type statusCall struct {
	status domain.ExtractionStatus
	errMsg string
}

type policyRepoFake struct {
	mu          sync.Mutex
	policies    map[string]*domain.Policy
	createErr   error
	saveErr     error
	statusCalls []statusCall
	savedText   string
	saved       *domain.ExtractionResult
}

func newPolicyRepoFake(policies ...*domain.Policy) *policyRepoFake {
	f := &policyRepoFake{policies: make(map[string]*domain.Policy)}
	for _, p := range policies {
		f.policies[p.ID] = p
	}
	return f
}

func (f *policyRepoFake) Create(_ context.Context, p *domain.Policy) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copyPolicy := *p
	f.policies[p.ID] = &copyPolicy
	return nil
}

func (f *policyRepoFake) GetByID(_ context.Context, id string) (*domain.Policy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.policies[id]
	if !ok {
		return nil, domain.ErrPolicyNotFound
	}
	copyPolicy := *p
	return &copyPolicy, nil
}

func (f *policyRepoFake) UpdateStatus(_ context.Context, _ string, status domain.ExtractionStatus, errMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *policyRepoFake) SaveExtraction(_ context.Context, _ string, text string, result domain.ExtractionResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedText = text
	f.saved = &result
	return nil
}

type storageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return int64(len(raw)), nil
}

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.savedBody)), nil
}

type queueFake struct {
	policyID string
	err      error
}

func (f *queueFake) PublishExtractionRequested(_ context.Context, policyID string) error {
	if f.err != nil {
		return f.err
	}
	f.policyID = policyID
	return nil
}

func (f *queueFake) SubscribeExtractionRequested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type documentsFake struct {
	text domain.DocumentText
}

func (f documentsFake) Extract(context.Context, domain.PolicyDocument, domain.PolicyMetadata) domain.DocumentText {
	return f.text
}

type aiFake struct {
	initial   domain.AIMode
	responses []domain.AIExtractionResponse
	requests  []domain.AIExtractionRequest
}

func (f *aiFake) InitialMode() domain.AIMode { return f.initial }

func (f *aiFake) Extract(_ context.Context, req domain.AIExtractionRequest) domain.AIExtractionResponse {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return domain.AIExtractionResponse{Err: errors.New("no scripted response"), NextMode: req.Mode}
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp
}

type extractionMetricsFake struct {
	stages []domain.ExtractionStage
}

func (f *extractionMetricsFake) RecordExtraction(stage domain.ExtractionStage, _ domain.OutcomeKind) {
	f.stages = append(f.stages, stage)
}

type comparisonRepoFake struct {
	saved map[string]*domain.ComparisonResult
}

func newComparisonRepoFake() *comparisonRepoFake {
	return &comparisonRepoFake{saved: make(map[string]*domain.ComparisonResult)}
}

func (f *comparisonRepoFake) SaveComparison(_ context.Context, r *domain.ComparisonResult) error {
	copyResult := *r
	f.saved[r.ID] = &copyResult
	return nil
}

func (f *comparisonRepoFake) GetComparison(_ context.Context, id string) (*domain.ComparisonResult, error) {
	r, ok := f.saved[id]
	if !ok {
		return nil, domain.ErrComparisonNotFound
	}
	return r, nil
}

type narratorFake struct {
	available bool
	raw       string
	err       error
	calls     int
}

func (f *narratorFake) Available() bool { return f.available }

func (f *narratorFake) Compare(context.Context, string, string, string) (string, error) {
	f.calls++
	return f.raw, f.err
}

type comparisonMetricsFake struct {
	outcomes []string
}

func (f *comparisonMetricsFake) RecordComparison(_ domain.ComparisonStrategy, outcome string) {
	f.outcomes = append(f.outcomes, outcome)
}

type answererFake struct {
	answer    domain.AIAnswer
	context   string
	questions []domain.AIQuestion
}

func (f *answererFake) Ask(_ context.Context, q domain.AIQuestion) domain.AIAnswer {
	f.context = q.PolicyContext
	f.questions = append(f.questions, q)
	return f.answer
}

type conversationRepoFake struct {
	conversations map[string]*domain.Conversation
	messages      map[string][]domain.ConversationMessage
	created       int
	deleted       []string
}

func newConversationRepoFake(convs ...*domain.Conversation) *conversationRepoFake {
	f := &conversationRepoFake{
		conversations: make(map[string]*domain.Conversation),
		messages:      make(map[string][]domain.ConversationMessage),
	}
	for _, c := range convs {
		f.conversations[c.ID] = c
	}
	return f
}

func (f *conversationRepoFake) CreateConversation(_ context.Context, c *domain.Conversation) error {
	copyConv := *c
	f.conversations[c.ID] = &copyConv
	f.created++
	return nil
}

func (f *conversationRepoFake) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	copyConv := *c
	copyConv.MessageCount = len(f.messages[id])
	return &copyConv, nil
}

func (f *conversationRepoFake) FindConversation(_ context.Context, userID, policyID string) (*domain.Conversation, error) {
	for _, c := range f.conversations {
		if c.UserID == userID && c.PolicyID == policyID {
			copyConv := *c
			return &copyConv, nil
		}
	}
	return nil, domain.ErrConversationNotFound
}

func (f *conversationRepoFake) ListConversations(_ context.Context, userID, policyID string) ([]domain.Conversation, error) {
	out := make([]domain.Conversation, 0)
	for _, c := range f.conversations {
		if c.UserID == userID && (policyID == "" || c.PolicyID == policyID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *conversationRepoFake) DeleteConversation(_ context.Context, id string) error {
	if _, ok := f.conversations[id]; !ok {
		return domain.ErrConversationNotFound
	}
	delete(f.conversations, id)
	delete(f.messages, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *conversationRepoFake) AppendMessage(_ context.Context, msg domain.ConversationMessage) error {
	if _, ok := f.conversations[msg.ConversationID]; !ok {
		return domain.ErrConversationNotFound
	}
	f.messages[msg.ConversationID] = append(f.messages[msg.ConversationID], msg)
	return nil
}

func (f *conversationRepoFake) ListRecentMessages(_ context.Context, id string, limit int) ([]domain.ConversationMessage, error) {
	msgs := f.messages[id]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.ConversationMessage(nil), msgs...), nil
}

func (f *conversationRepoFake) ListMessages(_ context.Context, id string) ([]domain.ConversationMessage, error) {
	return append([]domain.ConversationMessage(nil), f.messages[id]...), nil
}

type usageRepoFake struct {
	limit int
}

func (f *usageRepoFake) AppendUsage(context.Context, domain.UsageLogEntry) error { return nil }

func (f *usageRepoFake) ListUsage(_ context.Context, limit int) ([]domain.UsageLogEntry, error) {
	f.limit = limit
	return []domain.UsageLogEntry{}, nil
}

func (f *usageRepoFake) SummarizeUsage(context.Context) (domain.UsageSummary, error) {
	return domain.UsageSummary{TotalCalls: 3}, nil
}
