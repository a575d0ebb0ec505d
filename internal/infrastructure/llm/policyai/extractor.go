package policyai

import (
	"context"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

type (
	Request  = domain.AIExtractionRequest
	Response = domain.AIExtractionResponse
)

type Extractor struct {
	invoker
	mock *MockGenerator
}

func NewExtractor(generator ports.TextGenerator, opts Options) *Extractor {
	return &Extractor{
		invoker: newInvoker(generator, opts),
		mock:    NewMockGenerator(opts.MockSeed, opts.Now),
	}
}

// InitialMode is live only when a provider is configured.
func (e *Extractor) InitialMode() Mode {
	if e.available() {
		return ModeLive
	}
	return ModeMock
}

func (e *Extractor) Model() string {
	return e.model()
}

func (e *Extractor) Extract(ctx context.Context, req Request) Response {
	mode := req.Mode
	if mode == "" || (mode == ModeLive && !e.available()) {
		mode = e.InitialMode()
	}

	if !mode.Live() {
		result := e.mock.Extraction(req.Metadata, req.Text)
		e.recordMock(ctx, domain.EndpointExtraction, req.UserID)
		return Response{Result: &result, Meaningful: true, Source: mode, NextMode: mode}
	}

	prompt := BuildExtractionPrompt(req.Metadata, req.Text, e.now().UTC().Format(time.DateOnly))
	gen, err := e.generate(ctx, domain.EndpointExtraction, req.UserID, prompt)
	if err != nil {
		if IsQuotaError(err) {
			e.logger.Warn("ai_quota_exhausted_switching_to_mock", "model", e.model(), "error", err)
			result := e.mock.Extraction(req.Metadata, req.Text)
			return Response{
				Result:     &result,
				Meaningful: true,
				Source:     ModeDegradedAfterQuotaError,
				NextMode:   ModeDegradedAfterQuotaError,
				QuotaErr:   err,
			}
		}
		return Response{Source: ModeLive, NextMode: ModeLive, Err: err}
	}

	result, meaningful, err := ParseExtraction(gen.Text, req.Metadata)
	if err != nil {
		return Response{Source: ModeLive, NextMode: ModeLive, Err: err}
	}
	return Response{Result: &result, Meaningful: meaningful, Source: ModeLive, NextMode: ModeLive}
}
