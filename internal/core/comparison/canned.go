package comparison

import (
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

type cannedSection struct {
	title string
	lines []string
}

// {1} and {2} stand for the first and second policy names. Row labels follow
// the narrative prompt's tables; values point at the policy wording because
// nothing was read from either document.
var cannedSections = []cannedSection{
	{"COVERAGE COMPARISON", []string{
		"Life Cover Amount: {1} - see schedule of benefits vs {2} - see schedule of benefits",
		"Premium Amount: {1} - see premium notice vs {2} - see premium notice",
		"Policy Term: {1} - see policy period vs {2} - see policy period",
		"Coverage Type: {1} - as stated in the policy wording vs {2} - as stated in the policy wording",
		"Sum Assured: {1} - see schedule of benefits vs {2} - see schedule of benefits",
		"Riders Available: {1} - check optional add-ons vs {2} - check optional add-ons",
		"Family Coverage: {1} - confirm dependants covered vs {2} - confirm dependants covered",
		"Grace Period: {1} - check late payment terms vs {2} - check late payment terms",
	}},
	{"EXCLUSIONS COMPARISON", []string{
		"Pre-existing Conditions: {1} - review waiting periods vs {2} - review waiting periods",
		"War & Terrorism: {1} - review general exclusions vs {2} - review general exclusions",
		"Hazardous Activities: {1} - review listed activities vs {2} - review listed activities",
		"Occupational Risks: {1} - review excluded occupations vs {2} - review excluded occupations",
		"Geographical Limits: {1} - confirm territory vs {2} - confirm territory",
		"Age Restrictions: {1} - confirm entry age vs {2} - confirm entry age",
	}},
	{"COST ANALYSIS", []string{
		"Base Premium: {1} - compare annual cost vs {2} - compare annual cost",
		"Loading Factors: {1} - ask about smoker and occupation loading vs {2} - ask about smoker and occupation loading",
		"Discounts Available: {1} - check online and yearly payment discounts vs {2} - check online and yearly payment discounts",
		"Hidden Charges: {1} - check fees and taxes vs {2} - check fees and taxes",
		"Surrender Value: {1} - see surrender terms vs {2} - see surrender terms",
	}},
	{"CLAIMS & SETTLEMENT", []string{
		"Claim Settlement Ratio: {1} - check the insurer's published ratio vs {2} - check the insurer's published ratio",
		"Documents Required: {1} - keep policy and claim forms ready vs {2} - keep policy and claim forms ready",
		"Claim Process: {1} - follow insurer procedure vs {2} - follow insurer procedure",
		"Nomination Process: {1} - confirm nominee details vs {2} - confirm nominee details",
	}},
	{"ADDITIONAL FEATURES", []string{
		"Online Services: {1} - check portal and app vs {2} - check portal and app",
		"Customer Support: {1} - check support hours vs {2} - check support hours",
		"Revival Period: {1} - see lapse and revival terms vs {2} - see lapse and revival terms",
		"Portability: {1} - check transfer options vs {2} - check transfer options",
	}},
	{"SUMMARY", []string{
		"A detailed AI comparison of {1} and {2} is not available right now",
		"Review both policy documents side by side for coverage limits and exclusions",
	}},
	{"RECOMMENDATIONS", []string{
		"Best for Budget-Conscious: compare the premium of {1} against {2} for equivalent coverage",
		"Best for Comprehensive Coverage: pick the policy with the higher sum assured and more riders",
		"Best for Family-Oriented: confirm which of {1} and {2} covers dependants",
		"Best for High-Risk Individuals: prefer the insurer with the better claim settlement record",
		"Retry the comparison later for a full analysis",
	}},
}

// Canned returns the fixed comparison used when the narrative strategy cannot
// produce one. originalErr may be nil.
func Canned(name1, name2 string, originalErr error) domain.ComparisonResult {
	names := strings.NewReplacer("{1}", name1, "{2}", name2)
	sections := make(map[string]string, len(cannedSections))
	for _, s := range cannedSections {
		lines := make([]string, 0, len(s.lines))
		for _, l := range s.lines {
			lines = append(lines, "• "+names.Replace(l))
		}
		sections[s.title] = strings.Join(lines, "\n")
	}

	result := domain.ComparisonResult{
		Strategy:         domain.StrategyCanned,
		ComparisonScore:  defaultScore,
		SimilarityScore:  0.5,
		DetailedAnalysis: sections,
		CategoryValid:    true,
		FallbackUsed:     true,
		MLInsights: domain.ComparisonInsights{
			SimilarityScore:  0.5,
			RiskAssessment:   "Unable to assess",
			ConfidenceLevel:  "Low",
			OptimizationTips: bullets(sections["RECOMMENDATIONS"]),
		},
	}
	if originalErr != nil {
		result.OriginalError = originalErr.Error()
	}
	return result
}
