// Package heuristic extracts policy fields from raw text with ordered regex and
// keyword rules. It is the always-available fallback for AI extraction.
package heuristic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

var policySignals = regexp.MustCompile(`(?i)\b(policy|insurance|insured|insurer|premium|coverage|deductible|policyholder)\b`)

// Parse never panics past its boundary. The error is non-nil only when the
// parser recovered from an internal failure; the returned result is then the
// metadata-only fallback.
func Parse(text string, meta domain.PolicyMetadata) (result domain.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("heuristic parser: %v", r)
			result = MetadataFallback(meta, err.Error())
		}
	}()
	return parse(text, meta), nil
}

func parse(text string, meta domain.PolicyMetadata) domain.ExtractionResult {
	dates := FindDates(text)
	fields := FindFields(text)

	summaryParts := []string{"Policy: " + meta.Name}
	var missing []string
	resolved := 0
	track := func(name, label, value string) {
		if value == "" {
			missing = append(missing, name)
			return
		}
		resolved++
		summaryParts = append(summaryParts, label+": "+value)
	}
	track("effectiveDate", "Effective", dates.Effective)
	track("expiryDate", "Expires", dates.Expiry)
	track("coverage", "Coverage", fields.Coverage)
	track("deductible", "Deductible", fields.Deductible)
	track("maxOutOfPocket", "Max OOP", fields.MaxOutOfPocket)

	coverage := fields.Coverage
	if coverage == "" {
		coverage = standardCoverage
	}

	signals := uniqueLower(policySignals.FindAllString(text, -1))
	isPolicy := len(signals) > 0
	reasons := []string{fmt.Sprintf("Matched %d insurance keywords", len(signals))}
	if !dates.Labeled && dates.Effective != "" {
		reasons = append(reasons, "Dates taken from unlabeled tokens")
	}

	fin := metadataFinancials(meta)
	fin.Deductible = domain.StringPtr(fields.Deductible)
	fin.MaxOutOfPocket = domain.StringPtr(fields.MaxOutOfPocket)

	result := domain.ExtractionResult{
		IsPolicyDocument: isPolicy,
		Validation: domain.DocumentValidation{
			DetectedType: string(meta.Category),
			Confidence:   min(1, float64(len(signals))/5),
			Reasons:      reasons,
		},
		PolicyMeta: domain.PolicyMeta{
			Name:         meta.Name,
			HintType:     string(meta.Category),
			Insurer:      domain.StringPtr(meta.Provider),
			PolicyNumber: domain.StringPtr(meta.PolicyNumber),
		},
		Summary:       strings.Join(summaryParts, " - "),
		EffectiveDate: domain.StringPtr(dates.Effective),
		ExpiryDate:    domain.StringPtr(dates.Expiry),
		Coverage:      domain.CoverageText(coverage),
		Financials:    fin,
		Tags:          BuildTags([]string{categoryLabel(meta.Category), "Insurance"}, text, meta.Category),
		MLInsights:    DeriveInsights(text, fields, meta.Category),
		MissingFields: missing,
		ExtractionQuality: domain.ExtractionQuality{
			Confidence: 0.4 + 0.1*float64(resolved),
			Notes:      fmt.Sprintf("Heuristic pattern extraction resolved %d of 5 fields", resolved),
		},
		IsFallbackData: true,
	}
	result.Normalize(meta)
	return result
}

func uniqueLower(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
