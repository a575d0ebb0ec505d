package heuristic

import (
	"regexp"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

type keywordTags struct {
	category domain.PolicyCategory
	pattern  *regexp.Regexp
	tags     []string
}

var keywordTagRules = []keywordTags{
	{domain.CategoryHealth, regexp.MustCompile(`(?i)\b(health|medical|hospital)\b`), []string{"Healthcare", "Medical Coverage"}},
	{domain.CategoryAuto, regexp.MustCompile(`(?i)\b(auto|vehicle|car)\b`), []string{"Automotive", "Vehicle Protection"}},
	{domain.CategoryHome, regexp.MustCompile(`(?i)\b(home|property|dwelling)\b`), []string{"Property", "Home Protection"}},
	{domain.CategoryLife, regexp.MustCompile(`(?i)\b(life|beneficiary)\b`), []string{"Life Insurance", "Family Protection"}},
	{domain.CategoryBusiness, regexp.MustCompile(`(?i)\b(business|commercial)\b`), []string{"Business", "Commercial Coverage"}},
}

// BuildTags extends base with keyword tags from the category and text, then
// pads to the five-to-seven range.
func BuildTags(base []string, text string, category domain.PolicyCategory) []string {
	tags := append([]string{}, base...)
	for _, rule := range keywordTagRules {
		if category == rule.category || rule.pattern.MatchString(text) {
			tags = append(tags, rule.tags...)
		}
	}
	return domain.PadTags(tags, category)
}

func categoryLabel(category domain.PolicyCategory) string {
	if strings.TrimSpace(string(category)) == "" {
		return "General"
	}
	return category.Title()
}
