package policyai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/resilience"
)

type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	tokens  int
	err     error
	block   bool
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (domain.Generation, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return domain.Generation{}, ctx.Err()
	}
	if g.err != nil {
		return domain.Generation{}, g.err
	}
	return domain.Generation{Text: g.text, Model: "fake-model", TotalTokens: g.tokens}, nil
}

func (g *fakeGenerator) Model() string { return "fake-model" }

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeUsage struct {
	mu      sync.Mutex
	entries []domain.UsageLogEntry
}

func (u *fakeUsage) Record(_ context.Context, entry domain.UsageLogEntry) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.entries = append(u.entries, entry)
}

type flatPricer struct{ perToken float64 }

func (p flatPricer) Cost(_ string, tokens int) float64 { return p.perToken * float64(tokens) }

var goldMeta = domain.PolicyMetadata{Name: "Gold", Category: domain.CategoryHealth}

func TestExtractWithoutProviderUsesMock(t *testing.T) {
	usage := &fakeUsage{}
	ex := NewExtractor(nil, Options{Usage: usage})
	if ex.InitialMode() != ModeMock {
		t.Fatalf("expected mock mode without provider, got %s", ex.InitialMode())
	}

	resp := ex.Extract(context.Background(), Request{Mode: ex.InitialMode(), Metadata: goldMeta, Text: "Hospital cover for members"})
	if resp.Err != nil || resp.Result == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Source != ModeMock || resp.NextMode != ModeMock {
		t.Fatalf("unexpected modes %+v", resp)
	}
	score := resp.Result.MLInsights.CoverageScore
	if score < 70 || score > 95 {
		t.Fatalf("mock coverage score out of range: %d", score)
	}
	if n := len(resp.Result.MLInsights.OptimizationTips); n < 3 || n > 4 {
		t.Fatalf("expected 3-4 tips, got %d", n)
	}
	if len(usage.entries) != 1 || usage.entries[0].Model != "mock" || usage.entries[0].Cost != 0 {
		t.Fatalf("unexpected usage entries %+v", usage.entries)
	}
}

func TestMockIsDeterministicForSameInput(t *testing.T) {
	fixed := func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	a := NewMockGenerator(0, fixed).Extraction(goldMeta, "same text")
	b := NewMockGenerator(0, fixed).Extraction(goldMeta, "same text")
	if a.MLInsights.CoverageScore != b.MLInsights.CoverageScore {
		t.Fatalf("scores differ: %d vs %d", a.MLInsights.CoverageScore, b.MLInsights.CoverageScore)
	}
	if strings.Join(a.MLInsights.OptimizationTips, "|") != strings.Join(b.MLInsights.OptimizationTips, "|") {
		t.Fatalf("tips differ: %v vs %v", a.MLInsights.OptimizationTips, b.MLInsights.OptimizationTips)
	}
	if a.Department != "General Coverage" {
		t.Fatalf("unexpected department %q", a.Department)
	}
}

func TestExtractQuotaErrorSwitchesToDegradedMode(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("googleapi: Error 429: Quota exceeded for model")}
	usage := &fakeUsage{}
	ex := NewExtractor(gen, Options{Usage: usage})

	resp := ex.Extract(context.Background(), Request{Mode: ModeLive, Metadata: goldMeta, Text: "policy text"})
	if resp.NextMode != ModeDegradedAfterQuotaError || resp.Source != ModeDegradedAfterQuotaError {
		t.Fatalf("expected degraded mode, got %+v", resp)
	}
	if resp.Result == nil || resp.QuotaErr == nil || resp.Err != nil {
		t.Fatalf("expected mock result with quota error, got %+v", resp)
	}
	if len(usage.entries) != 1 || usage.entries[0].Success {
		t.Fatalf("expected one failed usage entry, got %+v", usage.entries)
	}

	again := ex.Extract(context.Background(), Request{Mode: resp.NextMode, Metadata: goldMeta, Text: "policy text"})
	if again.Source != ModeDegradedAfterQuotaError || gen.calls() != 1 {
		t.Fatalf("degraded mode must not call the provider again, calls=%d", gen.calls())
	}
}

func TestExtractMalformedResponse(t *testing.T) {
	gen := &fakeGenerator{text: "Sorry, I cannot help with that."}
	usage := &fakeUsage{}
	ex := NewExtractor(gen, Options{Usage: usage})

	resp := ex.Extract(context.Background(), Request{Mode: ModeLive, Metadata: goldMeta, Text: "policy text"})
	if !domain.IsKind(resp.Err, domain.ErrAIResponseMalformed) {
		t.Fatalf("expected malformed response error, got %v", resp.Err)
	}
	if resp.NextMode != ModeLive {
		t.Fatalf("malformed output must not change mode, got %s", resp.NextMode)
	}
	if len(usage.entries) != 1 || !usage.entries[0].Success {
		t.Fatalf("expected the provider call itself to be logged as success, got %+v", usage.entries)
	}
}

func TestExtractTimeoutIsNotQuota(t *testing.T) {
	gen := &fakeGenerator{block: true}
	ex := NewExtractor(gen, Options{Executor: resilience.NewExecutor(resilience.SingleAttempt(20 * time.Millisecond))})

	resp := ex.Extract(context.Background(), Request{Mode: ModeLive, Metadata: goldMeta, Text: "policy text"})
	if resp.Err == nil || !errors.Is(resp.Err, resilience.ErrAttemptTimeout) {
		t.Fatalf("expected attempt timeout, got %v", resp.Err)
	}
	if resp.NextMode != ModeLive {
		t.Fatalf("timeout must not degrade the mode, got %s", resp.NextMode)
	}
}

func TestExtractPlaceholderSummaryIsNotMeaningful(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"isPolicyDocument\": true, \"summary\": \"Policy document: Gold\"}\n```"}
	ex := NewExtractor(gen, Options{})

	resp := ex.Extract(context.Background(), Request{Mode: ModeLive, Metadata: goldMeta, Text: "policy text"})
	if resp.Err != nil || resp.Result == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Meaningful {
		t.Fatalf("placeholder summary must not be meaningful")
	}
}

func TestExtractRecordsEstimatedTokensAndCost(t *testing.T) {
	gen := &fakeGenerator{text: `{"isPolicyDocument": true, "summary": "Covers hospital stays"}`}
	usage := &fakeUsage{}
	ex := NewExtractor(gen, Options{Usage: usage, Pricer: flatPricer{perToken: 0.001}})

	resp := ex.Extract(context.Background(), Request{Mode: ModeLive, Metadata: goldMeta, Text: "policy text", UserID: "u-1"})
	if resp.Err != nil || !resp.Meaningful {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(usage.entries) != 1 {
		t.Fatalf("expected one usage entry, got %d", len(usage.entries))
	}
	entry := usage.entries[0]
	want := EstimateTokens(gen.prompts[0], gen.text)
	if entry.TokensUsed != want || entry.UserID != "u-1" || entry.Endpoint != domain.EndpointExtraction {
		t.Fatalf("unexpected usage entry %+v", entry)
	}
	if entry.Cost <= 0 {
		t.Fatalf("expected positive cost, got %v", entry.Cost)
	}
}

func TestExtractionPromptTruncatesDocument(t *testing.T) {
	text := strings.Repeat("a", 5000) + "TAIL"
	prompt := BuildExtractionPrompt(goldMeta, text, "2024-01-01")
	if strings.Contains(prompt, "TAIL") {
		t.Fatalf("prompt must only carry the first 4000 bytes")
	}
	if !strings.Contains(prompt, "STEP A") || !strings.Contains(prompt, `"name": "Gold"`) {
		t.Fatalf("prompt is missing required sections")
	}
}

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("RESOURCE_EXHAUSTED"), true},
		{errors.New("rate limit reached"), true},
		{errors.New("connection refused"), false},
		{context.DeadlineExceeded, false},
		{errors.Join(resilience.ErrAttemptTimeout, errors.New("deadline exceeded")), false},
	}
	for _, tt := range tests {
		if got := IsQuotaError(tt.err); got != tt.want {
			t.Fatalf("IsQuotaError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
