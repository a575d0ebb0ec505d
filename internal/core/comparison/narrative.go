package comparison

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
)

// ErrorSection holds the whole response when the model refused to compare.
const ErrorSection = "ERROR"

const defaultScore = 50

var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`score[:\s]+(\d+)`),
	regexp.MustCompile(`(\d+)/100`),
	regexp.MustCompile(`(\d+)%`),
	regexp.MustCompile(`(\d+)\s*out\s*of\s*100`),
}

// ParseNarrative splits a markdown comparison into "## " sections. Table rows
// become bullets, header and separator rows are dropped and other lines are
// kept as written. Lines before the first heading are ignored.
func ParseNarrative(raw string) map[string]string {
	if strings.HasPrefix(raw, "ERROR:") {
		return map[string]string{ErrorSection: raw}
	}

	sections := make(map[string]string)
	var current string
	var content []string
	flush := func() {
		if current == "" || len(content) == 0 {
			return
		}
		if joined := strings.TrimSpace(strings.Join(content, "\n")); joined != "" {
			sections[current] = joined
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			current = strings.ToUpper(strings.TrimSpace(line[3:]))
			content = nil
		case strings.HasPrefix(line, "|") && isTableHeader(line):
		case strings.HasPrefix(line, "|") && isTableSeparator(line):
		case strings.HasPrefix(line, "|") && current != "":
			if bullet, ok := tableBullet(line); ok {
				content = append(content, bullet)
			}
		case line != "" && current != "":
			content = append(content, line)
		}
	}
	flush()
	return sections
}

func isTableHeader(line string) bool {
	return strings.Contains(line, "Feature") || strings.Contains(line, "Exclusion") || strings.Contains(line, "Benefit")
}

func isTableSeparator(line string) bool {
	return strings.Trim(line, "|- ") == ""
}

func tableBullet(line string) (string, bool) {
	cells := strings.Split(line, "|")
	if len(cells) < 2 {
		return "", false
	}
	cells = cells[1 : len(cells)-1]
	if len(cells) < 3 {
		return "", false
	}
	feature := strings.TrimSpace(cells[0])
	v1 := strings.TrimSpace(cells[1])
	v2 := strings.TrimSpace(cells[2])
	if v1 == v2 {
		return "• " + feature + ": " + v1, true
	}
	return "• " + feature + ": " + v1 + " vs " + v2, true
}

// ExtractScore finds the first score-like number in prose, clamped to
// [0,100]. It returns 50 and false when nothing matches.
func ExtractScore(text string) (int, bool) {
	lower := strings.ToLower(text)
	for _, re := range scorePatterns {
		m := re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return domain.ClampScore(n), true
	}
	return defaultScore, false
}

// Narrative builds a result from a usable model response. ok is false when
// the response is empty, an ERROR reply or yields no sections; callers then
// fall back to Canned.
func Narrative(raw string) (domain.ComparisonResult, bool) {
	if strings.TrimSpace(raw) == "" {
		return domain.ComparisonResult{}, false
	}
	sections := ParseNarrative(raw)
	if _, refused := sections[ErrorSection]; refused || len(sections) == 0 {
		return domain.ComparisonResult{}, false
	}
	score, found := ExtractScore(raw)
	verification := Verify(sections, found)
	return domain.ComparisonResult{
		Strategy:         domain.StrategyNarrative,
		ComparisonScore:  score,
		DetailedAnalysis: sections,
		CategoryValid:    true,
		RawResponse:      raw,
		Verification:     &verification,
		MLInsights: domain.ComparisonInsights{
			RiskAssessment:   "See detailed analysis",
			ConfidenceLevel:  verification.Level,
			OptimizationTips: bullets(sections["RECOMMENDATIONS"]),
		},
	}, true
}

func bullets(section string) []string {
	var out []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "•"))
		if line != "" {
			out = append(out, line)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
