package policyai

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/heuristic"
)

const invalidDocumentMessage = "Please upload a valid insurance policy document."

// ParseExtraction decodes a model response into a normalized result. The
// boolean reports whether the model contributed real content: a summary other
// than the name placeholder, or an explicit not-a-policy verdict.
func ParseExtraction(raw string, meta domain.PolicyMetadata) (domain.ExtractionResult, bool, error) {
	body, ok := extractJSONObject(raw)
	if !ok {
		return domain.ExtractionResult{}, false, domain.WrapError(domain.ErrAIResponseMalformed, "parse extraction", errors.New("no JSON object in response"))
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return domain.ExtractionResult{}, false, domain.WrapError(domain.ErrAIResponseMalformed, "parse extraction", err)
	}

	result := decodeExtraction(payload)
	meaningful := !result.IsPolicyDocument || isMeaningfulSummary(result.Summary, meta.Name)

	if warning := schemaWarning(payload); warning != "" {
		note := "schema: " + warning
		if result.ExtractionQuality.Notes != "" {
			note = result.ExtractionQuality.Notes + "; " + note
		}
		result.ExtractionQuality.Notes = note
	}

	if result.IsPolicyDocument && (strings.TrimSpace(result.Summary) == "" || result.Summary == domain.DefaultSummary(meta.Name)) {
		result.Summary = rebuildSummary(result, meta)
	}
	result.Normalize(meta)
	return result, meaningful, nil
}

func isMeaningfulSummary(summary, name string) bool {
	s := strings.TrimSpace(summary)
	return s != "" && s != "Policy document: "+name && s != domain.DefaultSummary(name)
}

func decodeExtraction(m map[string]any) domain.ExtractionResult {
	result := domain.ExtractionResult{
		IsPolicyDocument: boolField(m, "isPolicyDocument", true),
		Message:          str(m, "message"),
	}

	if !result.IsPolicyDocument {
		// The short-circuit shape carries validation fields at the top level.
		result.Validation = domain.DocumentValidation{
			DetectedType: str(m, "detectedType"),
			Confidence:   num(m, "confidence"),
			Reasons:      strList(m, "reasons"),
		}
		if result.Message == "" {
			result.Message = invalidDocumentMessage
		}
		result.Summary = result.Message
		result.MLInsights.CoverageScore = 0
		result.MLInsights.RiskAssessment = domain.RiskHigh
		result.MLInsights.CostEfficiency = domain.CostPoor
		result.MLInsights.MarketComparison = domain.MarketBelow
		result.MLInsights.OptimizationTips = []string{invalidDocumentMessage}
		return result
	}

	if v, ok := object(m, "validation"); ok {
		result.Validation = domain.DocumentValidation{
			DetectedType: str(v, "detectedType"),
			Confidence:   num(v, "confidence"),
			Reasons:      strList(v, "reasons"),
		}
	}
	if pm, ok := object(m, "policyMeta"); ok {
		result.PolicyMeta = domain.PolicyMeta{
			Name:             str(pm, "name"),
			HintType:         str(pm, "hintType"),
			Insurer:          strPtr(pm, "insurer"),
			PolicyNumber:     strPtr(pm, "policyNumber"),
			Jurisdiction:     strPtr(pm, "jurisdiction"),
			VersionOrEdition: strPtr(pm, "versionOrEdition"),
		}
	}

	result.Summary, result.SummaryPoints = decodeSummary(m["summary"])
	result.EffectiveDate = datePtr(m, "effectiveDate")
	result.ExpiryDate = datePtr(m, "expiryDate")
	result.Department = str(m, "department")
	result.Coverage = decodeCoverage(m["coverage"])
	result.Exclusions = decodeExclusions(m["exclusions"])

	if fin, ok := object(m, "financials"); ok {
		result.Financials = domain.Financials{
			Premium:           strPtr(fin, "premium"),
			SumAssured:        strPtr(fin, "sumAssured"),
			Deductible:        strPtr(fin, "deductible"),
			MaxOutOfPocket:    strPtr(fin, "maxOutOfPocket"),
			AdditionalCharges: strList(fin, "additionalCharges"),
		}
	}

	result.ClaimProcess = strList(m, "claimProcess")
	result.Eligibility = strList(m, "eligibility")
	result.Tags = strList(m, "tags")
	result.RecentActivity = decodeActivity(m["recentActivity"])

	if ins, ok := object(m, "mlInsights"); ok {
		result.MLInsights = domain.MLInsights{
			RiskAssessment:   str(ins, "riskAssessment"),
			CoverageScore:    int(math.Round(num(ins, "coverageScore"))),
			CostEfficiency:   str(ins, "costEfficiency"),
			OptimizationTips: strList(ins, "optimizationTips"),
			MarketComparison: str(ins, "marketComparison"),
		}
	}

	result.MissingFields = strList(m, "missingFields")
	if q, ok := object(m, "extractionQuality"); ok {
		result.ExtractionQuality = domain.ExtractionQuality{
			Confidence: num(q, "confidence"),
			Notes:      str(q, "notes"),
		}
	}
	return result
}

// decodeSummary flattens the {overview, points} object into a summary string
// plus separate points.
func decodeSummary(v any) (string, []string) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), nil
	case map[string]any:
		points := strList(s, "points")
		overview := str(s, "overview")
		if overview == "" && len(points) > 0 {
			overview = strings.Join(points, " • ")
		}
		return overview, points
	default:
		return "", nil
	}
}

func rebuildSummary(r domain.ExtractionResult, meta domain.PolicyMetadata) string {
	orNA := func(p *string) string {
		if p == nil || *p == "" {
			return "N/A"
		}
		return *p
	}
	coverage := r.Coverage.String()
	if coverage == "" {
		coverage = "N/A"
	}
	return strings.Join([]string{
		domain.DefaultSummary(meta.Name),
		"Effective: " + orNA(r.EffectiveDate),
		"Expires: " + orNA(r.ExpiryDate),
		"Coverage: " + coverage,
		"Deductible: " + orNA(r.Financials.Deductible),
	}, " - ")
}

func decodeCoverage(v any) domain.Coverage {
	switch c := v.(type) {
	case string:
		return domain.CoverageText(strings.TrimSpace(c))
	case []any:
		items := make([]domain.CoverageItem, 0, len(c))
		for _, raw := range c {
			switch item := raw.(type) {
			case map[string]any:
				items = append(items, domain.CoverageItem{
					Topic:         str(item, "topic"),
					Included:      boolField(item, "included", true),
					Details:       str(item, "details"),
					Limit:         strPtr(item, "limit"),
					WaitingPeriod: strPtr(item, "waitingPeriod"),
					Deductible:    strPtr(item, "deductible"),
					Copay:         strPtr(item, "copay"),
				})
			case string:
				if strings.TrimSpace(item) != "" {
					items = append(items, domain.CoverageItem{Topic: strings.TrimSpace(item), Included: true})
				}
			}
		}
		return domain.Coverage{Items: items}
	default:
		return domain.Coverage{}
	}
}

func decodeExclusions(v any) []domain.Exclusion {
	list, _ := v.([]any)
	out := make([]domain.Exclusion, 0, len(list))
	for _, raw := range list {
		switch item := raw.(type) {
		case map[string]any:
			out = append(out, domain.Exclusion{Topic: str(item, "topic"), Details: str(item, "details")})
		case string:
			if strings.TrimSpace(item) != "" {
				out = append(out, domain.Exclusion{Topic: strings.TrimSpace(item)})
			}
		}
	}
	return out
}

func decodeActivity(v any) []domain.Activity {
	list, _ := v.([]any)
	out := make([]domain.Activity, 0, len(list))
	for i, raw := range list {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id := int(num(item, "id"))
		if id == 0 {
			id = i + 1
		}
		out = append(out, domain.Activity{
			ID:          id,
			Description: str(item, "description"),
			Timestamp:   str(item, "timestamp"),
			User:        str(item, "user"),
		})
	}
	return out
}

func object(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key].(map[string]any)
	return v, ok
}

func str(m map[string]any, key string) string {
	return scalarString(m[key])
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

var nullish = map[string]struct{}{"null": {}, "n/a": {}, "none": {}, "not specified": {}}

func strPtr(m map[string]any, key string) *string {
	s := str(m, key)
	if _, ok := nullish[strings.ToLower(s)]; ok {
		return nil
	}
	return domain.StringPtr(s)
}

func datePtr(m map[string]any, key string) *string {
	s := strPtr(m, key)
	if s == nil {
		return nil
	}
	if iso, ok := heuristic.ParseDate(*s); ok {
		return &iso
	}
	return nil
}

func num(m map[string]any, key string) float64 {
	switch t := m[key].(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func boolField(m map[string]any, key string, fallback bool) bool {
	switch t := m[key].(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return fallback
		}
		return b
	default:
		return fallback
	}
}

func strList(m map[string]any, key string) []string {
	switch t := m[key].(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, raw := range t {
			var s string
			switch item := raw.(type) {
			case map[string]any:
				b, err := json.Marshal(item)
				if err != nil {
					continue
				}
				s = string(b)
			default:
				s = scalarString(item)
			}
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return nil
}
