package comparison

import (
	"math"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

// ExpectedSections are the headings the comparison prompt asks for.
var ExpectedSections = []string{
	"COVERAGE COMPARISON",
	"EXCLUSIONS COMPARISON",
	"COST ANALYSIS",
	"CLAIMS & SETTLEMENT",
	"ADDITIONAL FEATURES",
	"SUMMARY",
	"RECOMMENDATIONS",
}

const (
	baseAccuracy    = 0.85
	unscoredPenalty = 0.15
)

// Verify rates a parsed narrative. Completeness is the share of expected
// sections present, clarity the share of bullet lines, and accuracy drops when
// the prose carried no score.
func Verify(sections map[string]string, scored bool) domain.Verification {
	present := 0
	for _, name := range ExpectedSections {
		if strings.TrimSpace(sections[name]) != "" {
			present++
		}
	}
	completeness := float64(present) / float64(len(ExpectedSections))

	lines, bulleted := 0, 0
	for _, body := range sections {
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines++
			if strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
				bulleted++
			}
		}
	}
	clarity := 0.0
	if lines > 0 {
		clarity = float64(bulleted) / float64(lines)
	}

	accuracy := baseAccuracy
	if !scored {
		accuracy -= unscoredPenalty
	}

	score := round2((completeness + clarity + accuracy) / 3)
	return domain.Verification{
		Score:   score,
		Level:   confidenceLevel(score),
		Message: "Comparison verified by ML module",
		Indicators: domain.QualityIndicators{
			Completeness: round2(completeness),
			Accuracy:     round2(accuracy),
			Clarity:      round2(clarity),
		},
	}
}

func confidenceLevel(score float64) string {
	switch {
	case score > 0.8:
		return "HIGH"
	case score > 0.5:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
