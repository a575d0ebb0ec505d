package comparison

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

var coverageKeywords = []string{
	"coverage", "covered", "benefits", "deductible", "premium", "policy",
	"insurance", "claim", "damage", "loss", "medical", "hospital", "doctor",
	"prescription", "medication", "surgery", "emergency", "accident",
	"liability", "property", "vehicle", "home", "life", "health",
}

var (
	highRiskPhrases = []string{"exclude", "exclusion", "limitation", "restriction", "not covered", "void"}
	lowRiskPhrases  = []string{"comprehensive", "full coverage", "guaranteed", "unlimited", "all inclusive"}

	costWords  = []string{"deductible", "premium", "cost", "price", "fee", "charge"}
	valueWords = []string{"benefit", "coverage", "protection", "security", "guarantee"}
)

var punctuation = regexp.MustCompile(`[^\w\s]`)

// Keywords counts substring occurrences of the coverage vocabulary in text.
// Only keywords that occur are present in the map.
func Keywords(text string) map[string]int {
	lower := strings.ToLower(text)
	out := make(map[string]int)
	for _, k := range coverageKeywords {
		if n := strings.Count(lower, k); n > 0 {
			out[k] = n
		}
	}
	return out
}

// RiskScore starts at 50, moves 10 points per risk-raising or risk-lowering
// phrase present, and 15 points for very broad or very narrow coverage.
func RiskScore(text string, keywords map[string]int) int {
	lower := strings.ToLower(text)
	score := 50
	for _, p := range highRiskPhrases {
		if strings.Contains(lower, p) {
			score += 10
		}
	}
	for _, p := range lowRiskPhrases {
		if strings.Contains(lower, p) {
			score -= 10
		}
	}
	switch breadth := len(keywords); {
	case breadth > 15:
		score -= 15
	case breadth < 5:
		score += 15
	}
	return domain.ClampScore(score)
}

// EfficiencyScore compares cost wording against value wording.
func EfficiencyScore(text string) int {
	lower := strings.ToLower(text)
	cost, value := 0, 0
	for _, w := range costWords {
		cost += strings.Count(lower, w)
	}
	for _, w := range valueWords {
		value += strings.Count(lower, w)
	}
	score := 50
	if value > 0 {
		ratio := float64(cost) / float64(value)
		switch {
		case ratio < 0.5:
			score += 20
		case ratio > 2:
			score -= 20
		}
	}
	return domain.ClampScore(score)
}

// Lexical compares two policy texts without calling a model. The result is
// symmetric in its score: swapping the texts only swaps the per-policy fields.
func Lexical(text1, text2 string) domain.ComparisonResult {
	sim := CosineSimilarity(text1, text2)
	kw1, kw2 := Keywords(text1), Keywords(text2)
	risk1, risk2 := RiskScore(text1, kw1), RiskScore(text2, kw2)
	eff1, eff2 := EfficiencyScore(text1), EfficiencyScore(text2)
	riskDiff, effDiff := absInt(risk1-risk2), absInt(eff1-eff2)

	score := int(math.Round(0.3*sim*100 + 0.3*float64(100-riskDiff) + 0.4*float64(100-effDiff)))

	common, only1, only2 := keywordSets(kw1, kw2)

	return domain.ComparisonResult{
		Strategy:        domain.StrategyLexical,
		ComparisonScore: domain.ClampScore(score),
		SimilarityScore: sim,
		RiskAnalysis: domain.RiskAnalysis{
			Policy1Risk:    risk1,
			Policy2Risk:    risk2,
			RiskDifference: riskDiff,
		},
		EfficiencyAnalysis: domain.EfficiencyAnalysis{
			Policy1Efficiency:    eff1,
			Policy2Efficiency:    eff2,
			EfficiencyDifference: effDiff,
		},
		CoverageAnalysis: domain.CoverageAnalysis{
			Policy1Keywords: len(kw1),
			Policy2Keywords: len(kw2),
			CommonKeywords:  len(common),
			Unique1:         len(only1),
			Unique2:         len(only2),
		},
		MLInsights:       insights(sim, risk1, risk2, effDiff, len(kw1), len(kw2)),
		DetailedAnalysis: detailedAnalysis(text1, text2, common, only1, only2, risk1, risk2, eff1, eff2),
		CategoryValid:    true,
	}
}

func insights(sim float64, risk1, risk2, effDiff, kw1, kw2 int) domain.ComparisonInsights {
	riskDiff := absInt(risk1 - risk2)
	label := "Policy 2 Lower Risk"
	switch {
	case riskDiff < 10:
		label = "Similar Risk Level"
	case risk1 < risk2:
		label = "Policy 1 Lower Risk"
	}

	var tips []string
	if sim < 0.3 {
		tips = append(tips, "Policies are very different - consider if both are needed")
	}
	if riskDiff > 20 {
		tips = append(tips, "Significant risk difference - evaluate risk tolerance")
	}
	if effDiff > 20 {
		tips = append(tips, "Cost efficiency varies significantly - analyze value proposition")
	}
	if kw1 < 5 || kw2 < 5 {
		tips = append(tips, "Limited coverage detected - review policy comprehensiveness")
	}
	if len(tips) == 0 {
		tips = []string{"Policies are well-balanced - current setup appears optimal"}
	}

	return domain.ComparisonInsights{
		SimilarityScore:  sim,
		RiskAssessment:   label,
		ConfidenceLevel:  "High",
		OptimizationTips: tips,
	}
}

func detailedAnalysis(text1, text2 string, common, only1, only2 []string, risk1, risk2, eff1, eff2 int) map[string]string {
	words1, avg1 := wordStats(text1)
	words2, avg2 := wordStats(text2)
	readability := "Different"
	if math.Abs(avg1-avg2) < 1 {
		readability = "Similar"
	}

	gaps := append(append([]string(nil), only1...), only2...)
	slices.Sort(gaps)

	return map[string]string{
		"text_analysis": fmt.Sprintf("Policy 1 complexity: %s (%d words); Policy 2 complexity: %s (%d words); Readability: %s",
			complexity(words1), words1, complexity(words2), words2, readability),
		"coverage_comparison": fmt.Sprintf("Policy 1 breadth: %d; Policy 2 breadth: %d; Overlap: %d (%s); Gaps: %d (%s)",
			len(common)+len(only1), len(common)+len(only2), len(common), listOrNone(common), len(gaps), listOrNone(gaps)),
		"risk_comparison": fmt.Sprintf("Policy 1 risk: %s (%d); Policy 2 risk: %s (%d); Alignment: %s",
			level(risk1), risk1, level(risk2), risk2, alignment(risk1, risk2)),
		"efficiency_comparison": fmt.Sprintf("Policy 1 efficiency: %s (%d); Policy 2 efficiency: %s (%d); Alignment: %s",
			level(eff1), eff1, level(eff2), eff2, alignment(eff1, eff2)),
	}
}

// keywordSets returns the sorted intersection and one-sided differences of
// the keyword sets.
func keywordSets(kw1, kw2 map[string]int) (common, only1, only2 []string) {
	for k := range kw1 {
		if _, ok := kw2[k]; ok {
			common = append(common, k)
		} else {
			only1 = append(only1, k)
		}
	}
	for k := range kw2 {
		if _, ok := kw1[k]; !ok {
			only2 = append(only2, k)
		}
	}
	slices.Sort(common)
	slices.Sort(only1)
	slices.Sort(only2)
	return common, only1, only2
}

func wordStats(text string) (int, float64) {
	words := strings.Fields(punctuation.ReplaceAllString(strings.ToLower(text), " "))
	if len(words) == 0 {
		return 0, 0
	}
	total := 0
	for _, w := range words {
		total += len([]rune(w))
	}
	return len(words), float64(total) / float64(len(words))
}

func complexity(words int) string {
	switch {
	case words > 1000:
		return "High"
	case words > 500:
		return "Medium"
	default:
		return "Low"
	}
}

func level(score int) string {
	switch {
	case score > 70:
		return "High"
	case score > 40:
		return "Medium"
	default:
		return "Low"
	}
}

func alignment(a, b int) string {
	if absInt(a-b) < 15 {
		return "Aligned"
	}
	return "Misaligned"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
