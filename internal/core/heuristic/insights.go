package heuristic

import (
	"regexp"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

var riskLevels = []string{domain.RiskLow, domain.RiskMedium, domain.RiskHigh}

var (
	lowDeductibleWords  = regexp.MustCompile(`(?i)\b(low|minimal|zero|none|nil)\b|^\$?0+(\.0+)?$`)
	highDeductibleWords = regexp.MustCompile(`(?i)\b(high|maximum)\b`)
)

const agentTip = "Contact your agent for personalized recommendations"

var categoryTips = map[domain.PolicyCategory]string{
	domain.CategoryAuto:     "Ask about safe-driver and low-mileage discounts",
	domain.CategoryHome:     "Install safety devices to qualify for home discounts",
	domain.CategoryLife:     "Revisit beneficiaries after major life events",
	domain.CategoryHealth:   "Use in-network providers to reduce out-of-pocket costs",
	domain.CategoryBusiness: "Review liability limits as the business grows",
}

// DeriveInsights applies deterministic keyword rules to the raw text.
func DeriveInsights(text string, fields Fields, category domain.PolicyCategory) domain.MLInsights {
	lower := strings.ToLower(text)

	level, score := 1, 60
	if fields.Coverage != "" {
		level, score = 0, 80
	}
	if strings.Contains(lower, "comprehensive") || strings.Contains(lower, "full coverage") {
		level--
		score += 10
	}
	if strings.Contains(lower, "excluded") || strings.Contains(lower, "not covered") {
		level++
		score -= 10
	}
	level = max(0, min(level, len(riskLevels)-1))

	return domain.MLInsights{
		RiskAssessment:   riskLevels[level],
		CoverageScore:    domain.ClampScore(score),
		CostEfficiency:   costEfficiency(fields.Deductible),
		OptimizationTips: OptimizationTips(lower, category),
		MarketComparison: domain.MarketAverage,
	}
}

func costEfficiency(deductible string) string {
	switch {
	case deductible == "":
		return domain.CostGood
	case lowDeductibleWords.MatchString(deductible):
		return domain.CostExcellent
	case highDeductibleWords.MatchString(deductible):
		return domain.CostPoor
	default:
		return domain.CostFair
	}
}

// OptimizationTips returns three to five deterministic tips.
func OptimizationTips(lowerText string, category domain.PolicyCategory) []string {
	tips := make([]string, 0, 5)
	if !strings.Contains(lowerText, "bundle") {
		tips = append(tips, "Consider bundling multiple policies for better rates")
	}
	tips = append(tips, "Review coverage limits annually to ensure adequate protection")
	if strings.Contains(lowerText, "deductible") {
		tips = append(tips, "Compare deductible options against premium savings")
	}
	if !strings.Contains(lowerText, "rider") && !strings.Contains(lowerText, "endorsement") {
		tips = append(tips, "Ask about riders to fill specific coverage gaps")
	}
	if tip, ok := categoryTips[category]; ok {
		tips = append(tips, tip)
	}
	if len(tips) < 3 {
		tips = append(tips, agentTip)
	}
	if len(tips) > 5 {
		tips = tips[:5]
	}
	return tips
}
