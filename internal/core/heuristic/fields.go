package heuristic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxValueRunes caps a captured value; unpunctuated documents would otherwise
// capture the whole line.
const maxValueRunes = 500

type fieldRule struct {
	patterns []*regexp.Regexp
	minLen   int
}

var (
	coverageRule = fieldRule{
		patterns: mustCompileAll(
			`(?i)coverage[:\s]*([^.\n]+)`,
			`(?i)benefits[:\s]*([^.\n]+)`,
			`(?i)protection[:\s]*([^.\n]+)`,
			`(?i)limit[:\s]*([^.\n]+)`,
			`(?i)amount[:\s]*([^.\n]+)`,
		),
		minLen: 4,
	}
	deductibleRule = fieldRule{
		patterns: mustCompileAll(
			`(?i)deductible[:\s]*([^.\n]+)`,
			`(?i)excess[:\s]*([^.\n]+)`,
			`(?i)out[-\s]*of[-\s]*pocket[:\s]*([^.\n]+)`,
		),
		minLen: 2,
	}
	maxOutOfPocketRule = fieldRule{
		patterns: mustCompileAll(
			`(?i)maximum[:\s]*out[-\s]*of[-\s]*pocket[:\s]*([^.\n]+)`,
			`(?i)annual[:\s]*maximum[:\s]*([^.\n]+)`,
			`(?i)lifetime[:\s]*maximum[:\s]*([^.\n]+)`,
			`(?i)\bcap\b[:\s]*([^.\n]+)`,
		),
		minLen: 3,
	}

	strayPunctuation = regexp.MustCompile(`[^\w\s$.,]`)
	spaceRun         = regexp.MustCompile(`\s+`)
)

// Fields holds the keyword-anchored values; empty strings mean unresolved.
type Fields struct {
	Coverage       string
	Deductible     string
	MaxOutOfPocket string
}

func FindFields(text string) Fields {
	return Fields{
		Coverage:       coverageRule.find(text),
		Deductible:     deductibleRule.find(text),
		MaxOutOfPocket: maxOutOfPocketRule.find(text),
	}
}

func (r fieldRule) find(text string) string {
	for _, pattern := range r.patterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		value := cleanValue(match[1])
		if len(value) >= r.minLen {
			return value
		}
	}
	return ""
}

func cleanValue(raw string) string {
	value := strayPunctuation.ReplaceAllString(raw, "")
	value = strings.TrimSpace(spaceRun.ReplaceAllString(value, " "))
	if value == "" {
		return ""
	}
	return cases.Title(language.English).String(capAtWord(value, maxValueRunes))
}

// capAtWord shortens s to at most limit runes, cutting at the last space when
// one falls in the second half of the kept prefix.
func capAtWord(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if limit == 0 {
			cut = i
			break
		}
		limit--
	}
	head := s[:cut]
	if space := strings.LastIndexByte(head, ' '); space > len(head)/2 {
		head = head[:space]
	}
	return strings.TrimRight(head, " ,")
}
