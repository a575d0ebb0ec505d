package httpadapter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/kirillkom/policy-bridge/internal/config"
	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
	"github.com/kirillkom/policy-bridge/internal/observability/metrics"
)

type ingestFake struct {
	got ports.PolicyUpload
	raw []byte
}

func (f *ingestFake) Upload(_ context.Context, upload ports.PolicyUpload) (*domain.Policy, error) {
	raw, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", io.EOF)
	}
	f.got, f.raw = upload, raw
	now := time.Now().UTC()
	return &domain.Policy{
		ID:        "p-1",
		UserID:    upload.UserID,
		Metadata:  upload.Metadata,
		Document:  domain.PolicyDocument{Filename: upload.Filename, SizeBytes: int64(len(raw))},
		Status:    domain.ExtractionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type policiesFake map[string]*domain.Policy

func (f policiesFake) GetByID(_ context.Context, id string) (*domain.Policy, error) {
	p, ok := f[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrPolicyNotFound, "get", errors.New("id="+id))
	}
	return p, nil
}

type extractorFake struct{}

func (extractorFake) ExtractPolicy(_ context.Context, id string) (domain.ExtractionOutcome, error) {
	if id == "missing" {
		return domain.ExtractionOutcome{}, domain.WrapError(domain.ErrPolicyNotFound, "extract", errors.New("id=missing"))
	}
	return domain.FallbackOutcome(domain.StageHeuristic, "ai timeout", domain.ExtractionResult{Summary: "Policy: Gold"}), nil
}

type comparerFake struct {
	got    domain.ComparisonRequest
	err    error
	stored map[string]*domain.ComparisonResult
}

func (f *comparerFake) Compare(_ context.Context, req domain.ComparisonRequest) (*domain.ComparisonResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ComparisonResult{ID: "c-1", Policy1ID: req.Policy1ID, Policy2ID: req.Policy2ID, Strategy: req.Strategy, ComparisonScore: 64}, nil
}

func (f *comparerFake) GetComparison(_ context.Context, id string) (*domain.ComparisonResult, error) {
	r, ok := f.stored[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrComparisonNotFound, "get", errors.New("id="+id))
	}
	return r, nil
}

type advisorFake struct {
	question string
	got      ports.PolicyQuestion
}

func (f *advisorFake) Ask(_ context.Context, q ports.PolicyQuestion) (*domain.PolicyAnswer, error) {
	f.question = q.Question
	f.got = q
	return &domain.PolicyAnswer{
		PolicyID: q.PolicyID, ConversationID: "cv-1", Question: q.Question, AnalysisType: q.AnalysisType,
		Response: "Covered.", ConfidenceScore: 0.9,
	}, nil
}

type conversationsFake struct {
	threads map[string]*domain.ConversationThread
	deleted []string
	caller  string
}

func (f *conversationsFake) ListConversations(_ context.Context, userID, policyID string) ([]domain.Conversation, error) {
	f.caller = userID
	if policyID == "missing" {
		return nil, domain.WrapError(domain.ErrPolicyNotFound, "list", errors.New("id=missing"))
	}
	out := make([]domain.Conversation, 0)
	for _, th := range f.threads {
		if th.PolicyID == policyID && th.OwnedBy(userID) {
			out = append(out, th.Conversation)
		}
	}
	return out, nil
}

func (f *conversationsFake) GetConversation(_ context.Context, userID, id string) (*domain.ConversationThread, error) {
	f.caller = userID
	th, ok := f.threads[id]
	if !ok || !th.OwnedBy(userID) {
		return nil, domain.WrapError(domain.ErrConversationNotFound, "get", errors.New("id="+id))
	}
	return th, nil
}

func (f *conversationsFake) DeleteConversation(_ context.Context, userID, id string) error {
	if _, err := f.GetConversation(context.Background(), userID, id); err != nil {
		return err
	}
	delete(f.threads, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type usageFake struct{ limit int }

func (f *usageFake) ListUsage(_ context.Context, limit int) ([]domain.UsageLogEntry, error) {
	f.limit = limit
	return []domain.UsageLogEntry{{ID: "u-1", Endpoint: "policy_extraction", Success: true}}, nil
}

func (f *usageFake) SummarizeUsage(context.Context) (domain.UsageSummary, error) {
	return domain.UsageSummary{TotalCalls: 1}, nil
}

type exporterFake struct{}

func (exporterFake) ExportComparison(context.Context, *domain.ComparisonResult) ([]byte, error) {
	return []byte("PK-xlsx"), nil
}

type testDeps struct {
	ingest        *ingestFake
	comparer      *comparerFake
	advisor       *advisorFake
	conversations *conversationsFake
	usage         *usageFake
}

func newTestHandler(t *testing.T, cfg config.Config) (http.Handler, testDeps) {
	t.Helper()
	conversations := &conversationsFake{threads: map[string]*domain.ConversationThread{
		"cv-1": {
			Conversation: domain.Conversation{ID: "cv-1", UserID: "u-1", PolicyID: "p-1", Title: "Chat about Gold", MessageCount: 2},
			Messages: []domain.ConversationMessage{
				{ID: "m-1", ConversationID: "cv-1", Role: domain.MessageRoleUser, Content: "Is dental covered?"},
				{ID: "m-2", ConversationID: "cv-1", Role: domain.MessageRoleAI, Content: "Yes."},
			},
		},
	}}
	deps := testDeps{
		ingest:        &ingestFake{},
		comparer:      &comparerFake{stored: map[string]*domain.ComparisonResult{"c-1": {ID: "c-1", ComparisonScore: 64}}},
		advisor:       &advisorFake{},
		conversations: conversations,
		usage:         &usageFake{},
	}
	svc := Services{
		Ingestor: deps.ingest,
		Policies: policiesFake{
			"p-1": {ID: "p-1", Metadata: domain.PolicyMetadata{Name: "Gold"}, Status: domain.ExtractionCompleted, Extraction: &domain.ExtractionResult{Summary: "Covers hospital stays"}},
			"p-2": {ID: "p-2", Metadata: domain.PolicyMetadata{Name: "Silver"}, Status: domain.ExtractionPending},
		},
		Extractor:     extractorFake{},
		Comparer:      deps.comparer,
		Advisor:       deps.advisor,
		Conversations: deps.conversations,
		Usage:         deps.usage,
		Exporter:      exporterFake{},
	}
	handler, err := NewRouter(cfg, svc, metrics.NewHTTPServerMetrics("api")).Handler()
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	return handler, deps
}
