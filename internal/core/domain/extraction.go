package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"

	CostExcellent = "Excellent"
	CostGood      = "Good"
	CostFair      = "Fair"
	CostPoor      = "Poor"

	MarketAbove   = "Above Average"
	MarketAverage = "Average"
	MarketBelow   = "Below Average"
)

const (
	minTags = 5
	maxTags = 7
)

var tagFillers = []string{
	"Comprehensive Coverage",
	"Risk Management",
	"Financial Protection",
	"Legal Compliance",
	"Policy Analysis",
	"Insurance",
}

type CoverageItem struct {
	Topic         string  `json:"topic"`
	Included      bool    `json:"included"`
	Details       string  `json:"details"`
	Limit         *string `json:"limit"`
	WaitingPeriod *string `json:"waitingPeriod"`
	Deductible    *string `json:"deductible"`
	Copay         *string `json:"copay"`
}

// Coverage is either a structured list or, on the heuristic and metadata
// paths, a single free-text string. Both share the "coverage" JSON key.
type Coverage struct {
	Items []CoverageItem
	Text  string
}

func CoverageText(text string) Coverage {
	return Coverage{Text: text}
}

func (c Coverage) IsEmpty() bool {
	return len(c.Items) == 0 && strings.TrimSpace(c.Text) == ""
}

// String renders the coverage as one line for summaries and exports.
func (c Coverage) String() string {
	if len(c.Items) == 0 {
		return c.Text
	}
	parts := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		part := item.Topic
		if item.Limit != nil && *item.Limit != "" {
			part += " (" + *item.Limit + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func (c Coverage) MarshalJSON() ([]byte, error) {
	if len(c.Items) == 0 && c.Text != "" {
		return json.Marshal(c.Text)
	}
	if c.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Items)
}

func (c *Coverage) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*c = Coverage{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &c.Text)
	}
	if err := json.Unmarshal(trimmed, &c.Items); err != nil {
		return fmt.Errorf("decode coverage: %w", err)
	}
	return nil
}

type Exclusion struct {
	Topic   string `json:"topic"`
	Details string `json:"details"`
}

type Financials struct {
	Premium           *string  `json:"premium"`
	SumAssured        *string  `json:"sumAssured"`
	Deductible        *string  `json:"deductible"`
	MaxOutOfPocket    *string  `json:"maxOutOfPocket"`
	AdditionalCharges []string `json:"additionalCharges"`
}

type MLInsights struct {
	RiskAssessment   string   `json:"riskAssessment"`
	CoverageScore    int      `json:"coverageScore"`
	CostEfficiency   string   `json:"costEfficiency"`
	OptimizationTips []string `json:"optimizationTips"`
	MarketComparison string   `json:"marketComparison"`
}

type ExtractionQuality struct {
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes"`
}

type DocumentValidation struct {
	DetectedType string   `json:"detectedType"`
	Confidence   float64  `json:"confidence"`
	Reasons      []string `json:"reasons"`
}

type PolicyMeta struct {
	Name             string  `json:"name"`
	HintType         string  `json:"hintType"`
	Insurer          *string `json:"insurer"`
	PolicyNumber     *string `json:"policyNumber"`
	Jurisdiction     *string `json:"jurisdiction"`
	VersionOrEdition *string `json:"versionOrEdition"`
}

type Activity struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	User        string `json:"user"`
}

type DocumentAnalysis struct {
	TotalPages       int    `json:"totalPages"`
	FileType         string `json:"fileType"`
	TextLength       int    `json:"textLength"`
	ExtractionMethod string `json:"extractionMethod"`
}

type ExtractionResult struct {
	IsPolicyDocument  bool               `json:"isPolicyDocument"`
	Message           string             `json:"message,omitempty"`
	Validation        DocumentValidation `json:"validation"`
	PolicyMeta        PolicyMeta         `json:"policyMeta"`
	Summary           string             `json:"summary"`
	SummaryPoints     []string           `json:"summaryPoints"`
	EffectiveDate     *string            `json:"effectiveDate"`
	ExpiryDate        *string            `json:"expiryDate"`
	Department        string             `json:"department"`
	Coverage          Coverage           `json:"coverage"`
	Exclusions        []Exclusion        `json:"exclusions"`
	Financials        Financials         `json:"financials"`
	ClaimProcess      []string           `json:"claimProcess"`
	Eligibility       []string           `json:"eligibility"`
	Tags              []string           `json:"tags"`
	RecentActivity    []Activity         `json:"recentActivity"`
	MLInsights        MLInsights         `json:"mlInsights"`
	MissingFields     []string           `json:"missingFields"`
	ExtractionQuality ExtractionQuality  `json:"extractionQuality"`
	IsFallbackData    bool               `json:"isFallbackData"`
	FallbackReason    *string            `json:"fallbackReason"`
	DocumentAnalysis  *DocumentAnalysis  `json:"documentAnalysis,omitempty"`
}

// DefaultSummary is the summary used when nothing better is known.
func DefaultSummary(name string) string {
	return "Policy: " + name
}

// Normalize fills every required field with a typed default and coerces
// enumerations into their allowed values. It is idempotent.
func (r *ExtractionResult) Normalize(meta PolicyMetadata) {
	if strings.TrimSpace(r.Summary) == "" {
		r.Summary = DefaultSummary(meta.Name)
	}
	if r.PolicyMeta.Name == "" {
		r.PolicyMeta.Name = meta.Name
	}
	if r.PolicyMeta.HintType == "" {
		r.PolicyMeta.HintType = string(meta.Category)
	}
	if r.Department == "" {
		r.Department = "Policy Management"
	}
	r.EffectiveDate = normalizeISODate(r.EffectiveDate)
	r.ExpiryDate = normalizeISODate(r.ExpiryDate)

	if r.Coverage.Items == nil && r.Coverage.Text == "" {
		r.Coverage.Items = []CoverageItem{}
	}
	r.SummaryPoints = nonNil(r.SummaryPoints)
	r.ClaimProcess = nonNil(r.ClaimProcess)
	r.Eligibility = nonNil(r.Eligibility)
	r.MissingFields = nonNil(r.MissingFields)
	r.Validation.Reasons = nonNil(r.Validation.Reasons)
	r.Financials.AdditionalCharges = nonNil(r.Financials.AdditionalCharges)
	if r.Exclusions == nil {
		r.Exclusions = []Exclusion{}
	}
	if r.RecentActivity == nil {
		r.RecentActivity = []Activity{}
	}
	r.Tags = PadTags(r.Tags, meta.Category)

	r.MLInsights.RiskAssessment = oneOf(r.MLInsights.RiskAssessment, RiskMedium, RiskLow, RiskMedium, RiskHigh)
	r.MLInsights.CostEfficiency = oneOf(r.MLInsights.CostEfficiency, CostFair, CostExcellent, CostGood, CostFair, CostPoor)
	r.MLInsights.MarketComparison = oneOf(r.MLInsights.MarketComparison, MarketAverage, MarketAbove, MarketAverage, MarketBelow)
	r.MLInsights.CoverageScore = ClampScore(r.MLInsights.CoverageScore)
	if len(r.MLInsights.OptimizationTips) == 0 {
		r.MLInsights.OptimizationTips = []string{"Review coverage annually", "Consider bundling options"}
	}

	r.ExtractionQuality.Confidence = clampUnit(r.ExtractionQuality.Confidence)
	r.Validation.Confidence = clampUnit(r.Validation.Confidence)
}

// PadTags deduplicates tags, pads them to five from a fixed list and caps them at seven.
func PadTags(tags []string, category PolicyCategory) []string {
	out := make([]string, 0, maxTags)
	seen := make(map[string]struct{}, maxTags)
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || len(out) >= maxTags {
			return
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}

	for _, tag := range tags {
		add(tag)
	}
	if len(out) < minTags && category != "" {
		add(category.Title())
	}
	for _, filler := range tagFillers {
		if len(out) >= minTags {
			break
		}
		add(filler)
	}
	return out
}

func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizeISODate(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return nil
	}
	return &s
}

func oneOf(v, fallback string, allowed ...string) string {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(v), a) {
			return a
		}
	}
	return fallback
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// StringPtr returns nil for blank strings.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type OutcomeKind string

const (
	OutcomeOk       OutcomeKind = "ok"
	OutcomeFallback OutcomeKind = "fallback"
	OutcomeFailure  OutcomeKind = "failure"
)

type ExtractionStage string

const (
	StageAI        ExtractionStage = "ai"
	StageAIMock    ExtractionStage = "ai_mock"
	StageHeuristic ExtractionStage = "heuristic"
	StageMetadata  ExtractionStage = "metadata"
)

// ExtractionOutcome makes the fallback path explicit for every caller.
type ExtractionOutcome struct {
	Kind   OutcomeKind      `json:"kind"`
	Stage  ExtractionStage  `json:"stage"`
	Reason string           `json:"reason,omitempty"`
	Result ExtractionResult `json:"result"`
}

func OkOutcome(stage ExtractionStage, result ExtractionResult) ExtractionOutcome {
	return ExtractionOutcome{Kind: OutcomeOk, Stage: stage, Result: result}
}

func FallbackOutcome(stage ExtractionStage, reason string, result ExtractionResult) ExtractionOutcome {
	result.IsFallbackData = true
	label := string(stage) + ": " + reason
	result.FallbackReason = &label
	return ExtractionOutcome{Kind: OutcomeFallback, Stage: stage, Reason: reason, Result: result}
}

func FailureOutcome(reason string, result ExtractionResult) ExtractionOutcome {
	result.IsFallbackData = true
	result.FallbackReason = &reason
	return ExtractionOutcome{Kind: OutcomeFailure, Stage: StageMetadata, Reason: reason, Result: result}
}
