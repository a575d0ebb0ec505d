package heuristic

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

const standardCoverage = "Standard coverage"

// FormatCurrency renders an amount as "$1,234.56".
func FormatCurrency(amount float64) string {
	return message.NewPrinter(language.English).Sprintf("$%.2f", amount)
}

// MetadataFallback builds a result purely from policy metadata.
func MetadataFallback(meta domain.PolicyMetadata, reason string) domain.ExtractionResult {
	parts := []string{"Policy: " + meta.Name}
	if meta.Provider != "" {
		parts = append(parts, "Provider: "+meta.Provider)
	}
	if meta.Category != "" {
		parts = append(parts, "Type: "+meta.Category.Title())
	}
	if meta.StartDate != nil {
		parts = append(parts, "Start: "+meta.StartDate.Format(time.DateOnly))
	}
	if meta.EndDate != nil {
		parts = append(parts, "End: "+meta.EndDate.Format(time.DateOnly))
	}
	if meta.CoverageAmount != nil {
		parts = append(parts, "Coverage: "+FormatCurrency(*meta.CoverageAmount))
	}
	if meta.PremiumAmount != nil {
		parts = append(parts, "Premium: "+FormatCurrency(*meta.PremiumAmount))
	}
	if len(parts) == 1 {
		parts = append(parts, "Insurance policy document")
	}

	coverage := standardCoverage
	if meta.CoverageAmount != nil {
		coverage = FormatCurrency(*meta.CoverageAmount)
	}

	var missing []string
	result := domain.ExtractionResult{
		IsPolicyDocument: true,
		Validation: domain.DocumentValidation{
			DetectedType: string(meta.Category),
			Confidence:   0.4,
			Reasons:      []string{"Built from policy record metadata"},
		},
		PolicyMeta: domain.PolicyMeta{
			Name:         meta.Name,
			HintType:     string(meta.Category),
			Insurer:      domain.StringPtr(meta.Provider),
			PolicyNumber: domain.StringPtr(meta.PolicyNumber),
		},
		Summary:       strings.Join(parts, " - "),
		EffectiveDate: datePtr(meta.StartDate),
		ExpiryDate:    datePtr(meta.EndDate),
		Coverage:      domain.CoverageText(coverage),
		Financials:    metadataFinancials(meta),
		Tags:          BuildTags([]string{categoryLabel(meta.Category), "Insurance"}, meta.Description, meta.Category),
		MLInsights: domain.MLInsights{
			RiskAssessment:   domain.RiskMedium,
			CoverageScore:    50,
			CostEfficiency:   domain.CostFair,
			OptimizationTips: OptimizationTips(strings.ToLower(meta.Description), meta.Category),
			MarketComparison: domain.MarketAverage,
		},
		ExtractionQuality: domain.ExtractionQuality{
			Confidence: 0.4,
			Notes:      "Built from policy metadata only",
		},
		IsFallbackData: true,
	}
	if meta.StartDate == nil {
		missing = append(missing, "effectiveDate")
	}
	if meta.EndDate == nil {
		missing = append(missing, "expiryDate")
	}
	if meta.CoverageAmount == nil {
		missing = append(missing, "coverage")
	}
	missing = append(missing, "deductible", "maxOutOfPocket")
	result.MissingFields = missing
	if reason != "" {
		result.FallbackReason = &reason
	}
	result.Normalize(meta)
	return result
}

func metadataFinancials(meta domain.PolicyMetadata) domain.Financials {
	var fin domain.Financials
	if meta.PremiumAmount != nil {
		premium := FormatCurrency(*meta.PremiumAmount)
		fin.Premium = &premium
	}
	if meta.CoverageAmount != nil {
		sum := FormatCurrency(*meta.CoverageAmount)
		fin.SumAssured = &sum
	}
	return fin
}

func datePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
