package policyai

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/heuristic"
)

var mockTips = []string{
	"Consider bundling multiple policies for better rates",
	"Review coverage limits annually to ensure adequate protection",
	"Compare with market offerings to ensure competitive pricing",
	"Maintain good records for faster claims processing",
}

var (
	mockRisks   = []string{domain.RiskLow, domain.RiskMedium}
	mockCosts   = []string{domain.CostExcellent, domain.CostGood, domain.CostFair}
	mockMarkets = []string{domain.MarketAbove, domain.MarketAverage}
)

// MockGenerator produces plausible results without a provider. With a zero
// seed the output is a pure function of the policy name and text.
type MockGenerator struct {
	seed uint64
	now  func() time.Time
}

func NewMockGenerator(seed uint64, now func() time.Time) *MockGenerator {
	if now == nil {
		now = time.Now
	}
	return &MockGenerator{seed: seed, now: now}
}

func (g *MockGenerator) rng(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return rand.New(rand.NewPCG(g.seed, h.Sum64()))
}

func (g *MockGenerator) Extraction(meta domain.PolicyMetadata, text string) domain.ExtractionResult {
	r := g.rng(meta.Name, text)
	dates := heuristic.FindDates(text)
	fields := heuristic.FindFields(text)

	kind := meta.Category.Title()
	if kind == "" {
		kind = "General"
	}

	parts := []string{"This is a " + strings.ToLower(kind) + " policy"}
	if dates.Effective != "" {
		parts = append(parts, "effective from "+dates.Effective)
	}
	if fields.Coverage != "" {
		parts = append(parts, "providing "+fields.Coverage)
	}
	if fields.Deductible != "" {
		parts = append(parts, "with a deductible of "+fields.Deductible)
	}
	if fields.MaxOutOfPocket != "" {
		parts = append(parts, "and maximum out-of-pocket costs of "+fields.MaxOutOfPocket)
	}
	var points []string
	if len(parts) > 1 {
		points = parts
	} else {
		points = []string{
			"This " + strings.ToLower(kind) + " policy provides coverage for " + meta.Name,
			"The policy includes standard protection terms and conditions",
			"Review the full document for specific coverage limits and exclusions",
			"Contact your insurance provider for detailed policy information",
		}
	}

	tips := append([]string(nil), mockTips...)
	r.Shuffle(len(tips), func(i, j int) { tips[i], tips[j] = tips[j], tips[i] })
	tips = tips[:3+r.IntN(2)]

	coverage := fields.Coverage
	if coverage == "" {
		coverage = "Standard coverage"
	}

	var missing []string
	for name, value := range map[string]string{
		"effectiveDate":  dates.Effective,
		"expiryDate":     dates.Expiry,
		"deductible":     fields.Deductible,
		"maxOutOfPocket": fields.MaxOutOfPocket,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)

	result := domain.ExtractionResult{
		IsPolicyDocument: true,
		Validation: domain.DocumentValidation{
			DetectedType: string(meta.Category),
			Confidence:   0.5,
			Reasons:      []string{"Validation not performed in mock mode"},
		},
		PolicyMeta: domain.PolicyMeta{
			Name:         meta.Name,
			HintType:     string(meta.Category),
			Insurer:      domain.StringPtr(meta.Provider),
			PolicyNumber: domain.StringPtr(meta.PolicyNumber),
		},
		Summary:       strings.Join(points, " • ") + ".",
		SummaryPoints: points,
		EffectiveDate: domain.StringPtr(dates.Effective),
		ExpiryDate:    domain.StringPtr(dates.Expiry),
		Department:    "General Coverage",
		Coverage:      domain.CoverageText(coverage),
		Financials: domain.Financials{
			Deductible:     domain.StringPtr(fields.Deductible),
			MaxOutOfPocket: domain.StringPtr(fields.MaxOutOfPocket),
		},
		Tags: heuristic.BuildTags([]string{"Policy Analysis", "AI Processed", kind}, text, meta.Category),
		RecentActivity: []domain.Activity{{
			ID:          1,
			Description: "Policy uploaded and analyzed",
			Timestamp:   g.now().UTC().Format(time.DateOnly),
			User:        "PolicyBridge AI",
		}},
		MLInsights: domain.MLInsights{
			RiskAssessment:   mockRisks[r.IntN(len(mockRisks))],
			CoverageScore:    70 + r.IntN(26),
			CostEfficiency:   mockCosts[r.IntN(len(mockCosts))],
			OptimizationTips: tips,
			MarketComparison: mockMarkets[r.IntN(len(mockMarkets))],
		},
		MissingFields: missing,
		ExtractionQuality: domain.ExtractionQuality{
			Confidence: 0.6,
			Notes:      "Generated without a live AI call",
		},
	}
	result.Normalize(meta)
	return result
}

var mockAnswers = map[domain.AnalysisType]string{
	domain.AnalysisGeneral:    "Here is what I found about %s: this is a %s policy. Check the policy document for the exact terms.",
	domain.AnalysisCoverage:   "Coverage: this policy provides %s insurance coverage for %s. See the schedule for exact limits.",
	domain.AnalysisExclusions: "Exclusions: %s may carry the standard exclusions for %s insurance. Read the exclusions section carefully.",
	domain.AnalysisSummary:    "Summary: %s is a %s insurance policy. Review the full document for details.",
}

// Answer returns a templated reply for the analysis type.
func (g *MockGenerator) Answer(meta domain.PolicyMetadata, analysisType domain.AnalysisType) string {
	kind := strings.ToLower(meta.Category.Title())
	if kind == "" {
		kind = "general"
	}
	tmpl, ok := mockAnswers[analysisType]
	if !ok {
		tmpl = mockAnswers[domain.AnalysisGeneral]
	}
	if analysisType == domain.AnalysisCoverage {
		return fmt.Sprintf(tmpl, kind, meta.Name)
	}
	return fmt.Sprintf(tmpl, meta.Name, kind)
}
