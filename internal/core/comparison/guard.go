package comparison

import (
	"fmt"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

const categoryRequirement = "Policies must be from the same category for meaningful comparison"

// CheckCategories returns a zero-score result and false when the two
// policies belong to different categories.
func CheckCategories(meta1, meta2 domain.PolicyMetadata) (domain.ComparisonResult, bool) {
	c1, c2 := domain.ParseCategory(string(meta1.Category)), domain.ParseCategory(string(meta2.Category))
	if c1 == c2 {
		return domain.ComparisonResult{}, true
	}
	return domain.ComparisonResult{
		ComparisonScore: 0,
		CategoryValid:   false,
		Message: fmt.Sprintf("Category Mismatch: Cannot compare %s vs %s policies. Please select policies from the same category for accurate comparison.",
			c1.Title(), c2.Title()),
		CategoryValidation: &domain.CategoryValidation{
			Policy1Category: c1,
			Policy2Category: c2,
			CategoriesMatch: false,
			Message:         categoryRequirement,
		},
		DetailedAnalysis: map[string]string{},
		MLInsights: domain.ComparisonInsights{
			RiskAssessment:   "Not comparable",
			ConfidenceLevel:  "Low",
			OptimizationTips: []string{categoryRequirement},
		},
	}, false
}
