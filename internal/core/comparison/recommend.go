package comparison

import (
	"math"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

// AI confidence per strategy, fed into Recommend.
const (
	LexicalConfidence   = 0.75
	NarrativeConfidence = 0.95
	CannedConfidence    = 0.5
)

var categoryBase = map[domain.PolicyCategory]float64{
	domain.CategoryAuto:     70,
	domain.CategoryHome:     75,
	domain.CategoryLife:     80,
	domain.CategoryHealth:   85,
	domain.CategoryBusiness: 70,
	domain.CategoryOther:    65,
}

var reputableProviders = []string{"aetna", "blue cross", "state farm", "allstate"}

// PolicyScore rates a policy from its metadata alone, capped at 100.
func PolicyScore(meta domain.PolicyMetadata, aiConfidence float64) float64 {
	score, ok := categoryBase[domain.ParseCategory(string(meta.Category))]
	if !ok {
		score = 70
	}
	if meta.CoverageAmount != nil && *meta.CoverageAmount > 0 {
		cov := *meta.CoverageAmount
		score += math.Min(cov/1_000_000*10, 20)
		if meta.PremiumAmount != nil && *meta.PremiumAmount > 0 {
			score += math.Min(cov / *meta.PremiumAmount, 15)
		}
	}
	provider := strings.ToLower(strings.TrimSpace(meta.Provider))
	for _, p := range reputableProviders {
		if provider == p {
			score += 5
			break
		}
	}
	score += aiConfidence * 10
	return math.Min(round2(score), 100)
}

// Recommend picks the policy with the higher metadata score. Confidence is the
// winner's share of the combined score; a tie reports 50.
func Recommend(meta1, meta2 domain.PolicyMetadata, aiConfidence float64) domain.Recommendation {
	s1, s2 := PolicyScore(meta1, aiConfidence), PolicyScore(meta2, aiConfidence)
	rec := domain.Recommendation{Policy1Score: s1, Policy2Score: s2}
	switch {
	case s1 > s2:
		rec.Winner = meta1.Name
		rec.Confidence = int(s1 / (s1 + s2) * 100)
	case s2 > s1:
		rec.Winner = meta2.Name
		rec.Confidence = int(s2 / (s1 + s2) * 100)
	default:
		rec.Text = "Both policies are equally good - choose based on personal preference"
		rec.Confidence = 50
		return rec
	}
	rec.Text = "Choose " + rec.Winner + " - Better overall value"
	return rec
}
