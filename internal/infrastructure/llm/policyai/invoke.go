package policyai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
	"github.com/kirillkom/policy-bridge/internal/infrastructure/resilience"
)

const (
	mockModel             = "mock"
	defaultAttemptTimeout = 45 * time.Second
)

// Pricer converts a token count into a monetary cost for a model.
type Pricer interface {
	Cost(model string, tokens int) float64
}

type Options struct {
	Executor *resilience.Executor
	Usage    ports.UsageRecorder
	Pricer   Pricer
	Logger   *slog.Logger
	// MockSeed fixes the mock generator; zero derives the seed from the input.
	MockSeed uint64
	Now      func() time.Time
}

type noopUsage struct{}

func (noopUsage) Record(context.Context, domain.UsageLogEntry) {}

type zeroPricer struct{}

func (zeroPricer) Cost(string, int) float64 { return 0 }

// invoker runs exactly one generation attempt and records one usage entry for it.
type invoker struct {
	generator ports.TextGenerator
	executor  *resilience.Executor
	usage     ports.UsageRecorder
	pricer    Pricer
	logger    *slog.Logger
	now       func() time.Time
}

func newInvoker(generator ports.TextGenerator, opts Options) invoker {
	inv := invoker{
		generator: generator,
		executor:  opts.Executor,
		usage:     opts.Usage,
		pricer:    opts.Pricer,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if inv.executor == nil {
		inv.executor = resilience.NewExecutor(resilience.SingleAttempt(defaultAttemptTimeout))
	}
	if inv.usage == nil {
		inv.usage = noopUsage{}
	}
	if inv.pricer == nil {
		inv.pricer = zeroPricer{}
	}
	if inv.logger == nil {
		inv.logger = slog.Default()
	}
	if inv.now == nil {
		inv.now = time.Now
	}
	return inv
}

func (inv invoker) available() bool {
	return inv.generator != nil
}

func (inv invoker) model() string {
	if inv.generator == nil {
		return mockModel
	}
	return inv.generator.Model()
}

func (inv invoker) generate(ctx context.Context, endpoint, userID, prompt string) (domain.Generation, error) {
	if inv.generator == nil {
		return domain.Generation{}, domain.WrapError(domain.ErrAIUnavailable, endpoint, errors.New("no ai provider configured"))
	}

	start := inv.now()
	var gen domain.Generation
	err := inv.executor.Execute(ctx, "ai."+endpoint, func(callCtx context.Context) error {
		var callErr error
		gen, callErr = inv.generator.Generate(callCtx, prompt)
		return callErr
	}, classifyAIError)
	elapsed := inv.now().Sub(start)

	entry := domain.UsageLogEntry{
		UserID:   userID,
		Endpoint: endpoint,
		Model:    inv.generator.Model(),
		Elapsed:  elapsed,
		Success:  err == nil,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	} else {
		tokens := gen.TotalTokens
		if tokens <= 0 {
			tokens = EstimateTokens(prompt, gen.Text)
		}
		entry.TokensUsed = tokens
		entry.Cost = inv.pricer.Cost(entry.Model, tokens)
	}
	inv.usage.Record(ctx, entry)

	if err != nil {
		return domain.Generation{}, domain.WrapError(domain.ErrAIInvocation, "generate "+endpoint, err)
	}
	return gen, nil
}

// recordMock logs a zero-cost entry for a call served without the provider.
func (inv invoker) recordMock(ctx context.Context, endpoint, userID string) {
	inv.usage.Record(ctx, domain.UsageLogEntry{
		UserID:   userID,
		Endpoint: endpoint,
		Model:    mockModel,
		Success:  true,
	})
}

// EstimateTokens approximates usage as prompt words plus response words.
func EstimateTokens(prompt, response string) int {
	return len(strings.Fields(prompt)) + len(strings.Fields(response))
}

func classifyAIError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

// extractJSONObject isolates the first "{" .. last "}" span of a response.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], true
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
