package heuristic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateToken = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`

var (
	effectivePatterns = mustCompileAll(
		`(?i)effective\s+date[:\s]*`+dateToken,
		`(?i)start\s+date[:\s]*`+dateToken,
		`(?i)beginning[:\s]*`+dateToken,
		`(?i)commencement[:\s]*`+dateToken,
		`(?i)policy\s+start[:\s]*`+dateToken,
		`(?i)coverage\s+start[:\s]*`+dateToken,
		`(?i)`+dateToken+`\s*effective`,
		`(?i)`+dateToken+`\s*start`,
	)
	expiryPatterns = mustCompileAll(
		`(?i)expiry\s+date[:\s]*`+dateToken,
		`(?i)end\s+date[:\s]*`+dateToken,
		`(?i)termination[:\s]*`+dateToken,
		`(?i)expiration[:\s]*`+dateToken,
		`(?i)policy\s+end[:\s]*`+dateToken,
		`(?i)coverage\s+end[:\s]*`+dateToken,
		`(?i)`+dateToken+`\s*expiry`,
		`(?i)`+dateToken+`\s*end`,
		`(?i)`+dateToken+`\s*expiration`,
	)
	rawDatePattern = regexp.MustCompile(`\b(\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`)
	dateSeparators = regexp.MustCompile(`[/-]`)
)

// Dates holds resolved ISO dates; empty strings mean unresolved.
type Dates struct {
	Effective string
	Expiry    string
	// Labeled is false when the values came from the raw token scan.
	Labeled bool
}

// FindDates resolves effective and expiry dates. Labeled patterns win; the raw
// scan runs only when neither labeled date is present.
func FindDates(text string) Dates {
	out := Dates{
		Effective: firstLabeledDate(text, effectivePatterns),
		Expiry:    firstLabeledDate(text, expiryPatterns),
		Labeled:   true,
	}
	if out.Effective != "" || out.Expiry != "" {
		return out
	}

	raw := ScanDates(text, 2)
	out.Labeled = false
	if len(raw) > 0 {
		out.Effective = raw[0]
	}
	if len(raw) > 1 {
		out.Expiry = raw[1]
	}
	return out
}

// ScanDates returns up to limit parseable date tokens in document order.
func ScanDates(text string, limit int) []string {
	var out []string
	for _, token := range rawDatePattern.FindAllString(text, -1) {
		iso, ok := ParseDate(token)
		if !ok {
			continue
		}
		out = append(out, iso)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func firstLabeledDate(text string, patterns []*regexp.Regexp) string {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		if iso, ok := ParseDate(match[1]); ok {
			return iso
		}
	}
	return ""
}

// ParseDate accepts m/d/y, d/m/y and y-m-d tokens with "/" or "-" separators and
// returns the ISO form. Two-digit years are read as 20xx.
func ParseDate(token string) (string, bool) {
	parts := dateSeparators.Split(strings.TrimSpace(token), -1)
	if len(parts) != 3 {
		return "", false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", false
		}
		nums[i] = n
	}

	if len(parts[0]) == 4 {
		return isoDate(nums[0], nums[1], nums[2])
	}

	year := nums[2]
	switch len(parts[2]) {
	case 2:
		year += 2000
	case 4:
	default:
		return "", false
	}
	if iso, ok := isoDate(year, nums[0], nums[1]); ok {
		return iso, true
	}
	return isoDate(year, nums[1], nums[0])
}

func isoDate(year, month, day int) (string, bool) {
	if year < 1900 || month < 1 || month > 12 || day < 1 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	return t.Format(time.DateOnly), true
}

func mustCompileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			panic(fmt.Sprintf("heuristic: compile %q: %v", p, err))
		}
		out = append(out, re)
	}
	return out
}
