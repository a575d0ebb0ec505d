package policyai

import (
	"context"
	"regexp"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

const (
	emptyAnswer  = "I couldn't generate a response at the moment. Please try again."
	failedAnswer = "I'm sorry, I couldn't analyze your policy at the moment. Please try again later or contact your insurance provider for assistance."

	liveConfidence = 0.9
	mockConfidence = 0.5
)

type Answer = domain.AIAnswer

// Advisor answers free-form questions about a single policy.
type Advisor struct {
	invoker
	mock *MockGenerator
}

func NewAdvisor(generator ports.TextGenerator, opts Options) *Advisor {
	return &Advisor{
		invoker: newInvoker(generator, opts),
		mock:    NewMockGenerator(opts.MockSeed, opts.Now),
	}
}

// Ask never returns an empty answer. On provider failure Text holds an
// apology, Confidence is zero and Err is set.
func (a *Advisor) Ask(ctx context.Context, q domain.AIQuestion) Answer {
	if !a.available() {
		a.recordMock(ctx, domain.EndpointAnalysis, q.UserID)
		return Answer{Text: a.mock.Answer(q.Metadata, q.AnalysisType), Confidence: mockConfidence, Mode: ModeMock, Model: mockModel}
	}

	prompt := BuildQuestionPrompt(q.PolicyContext, q.History, q.Question, q.AnalysisType)
	start := a.now()
	gen, err := a.generate(ctx, domain.EndpointAnalysis, q.UserID, prompt)
	elapsed := a.now().Sub(start)
	if err != nil {
		return Answer{Text: failedAnswer, Mode: ModeLive, Model: a.model(), Elapsed: elapsed, Err: err}
	}
	tokens := gen.TotalTokens
	if tokens <= 0 {
		tokens = EstimateTokens(prompt, gen.Text)
	}
	return Answer{
		Text:       CleanAnswer(gen.Text),
		Confidence: liveConfidence,
		Mode:       ModeLive,
		Model:      a.model(),
		TokensUsed: tokens,
		Elapsed:    elapsed,
	}
}

var answerPrefixes = []string{
	"Based on the analysis, ",
	"According to the policy analysis, ",
	"The AI analysis shows that ",
	"Based on the ML-enhanced analysis, ",
	"The policy analysis indicates that ",
	"Based on the comprehensive analysis, ",
}

var (
	technicalTerms = regexp.MustCompile(`(?i)\b(ML-enhanced|AI analysis|comprehensive analysis|detailed analysis|policy analysis|risk assessment)\b`)
	spaceRun       = regexp.MustCompile(`\s+`)
	sentenceEnd    = regexp.MustCompile(`[.!?]+`)
)

// CleanAnswer strips boilerplate lead-ins and technical jargon and shortens
// long answers to their first two sentences.
func CleanAnswer(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return emptyAnswer
	}
	for _, prefix := range answerPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = text[len(prefix):]
			break
		}
	}
	text = technicalTerms.ReplaceAllString(text, "")
	text = strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))

	if len(text) > 200 {
		var sentences []string
		for _, s := range sentenceEnd.Split(text, -1) {
			if s = strings.TrimSpace(s); s != "" {
				sentences = append(sentences, s)
			}
			if len(sentences) == 2 {
				break
			}
		}
		if len(sentences) > 0 {
			text = strings.Join(sentences, ". ") + "."
		}
	}
	if text == "" {
		return emptyAnswer
	}
	if first := text[0]; first >= 'a' && first <= 'z' {
		text = strings.ToUpper(text[:1]) + text[1:]
	}
	return text
}
