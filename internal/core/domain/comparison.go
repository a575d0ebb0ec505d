package domain

import (
	"strings"
	"time"
)

type ComparisonStrategy string

const (
	StrategyLexical   ComparisonStrategy = "lexical"
	StrategyNarrative ComparisonStrategy = "narrative"
	StrategyCanned    ComparisonStrategy = "canned"
)

func ParseStrategy(raw string) (ComparisonStrategy, bool) {
	switch s := ComparisonStrategy(strings.ToLower(strings.TrimSpace(raw))); s {
	case StrategyLexical, StrategyNarrative, StrategyCanned:
		return s, true
	case "":
		return StrategyLexical, true
	default:
		return "", false
	}
}

type RiskAnalysis struct {
	Policy1Risk    int `json:"policy1Risk"`
	Policy2Risk    int `json:"policy2Risk"`
	RiskDifference int `json:"riskDifference"`
}

type EfficiencyAnalysis struct {
	Policy1Efficiency    int `json:"policy1Efficiency"`
	Policy2Efficiency    int `json:"policy2Efficiency"`
	EfficiencyDifference int `json:"efficiencyDifference"`
}

type CoverageAnalysis struct {
	Policy1Keywords int `json:"policy1Keywords"`
	Policy2Keywords int `json:"policy2Keywords"`
	CommonKeywords  int `json:"commonKeywords"`
	Unique1         int `json:"unique1"`
	Unique2         int `json:"unique2"`
}

type ComparisonInsights struct {
	SimilarityScore  float64  `json:"similarityScore"`
	RiskAssessment   string   `json:"riskAssessment"`
	ConfidenceLevel  string   `json:"confidenceLevel"`
	OptimizationTips []string `json:"optimizationTips"`
}

type QualityIndicators struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Clarity      float64 `json:"clarity"`
}

type Verification struct {
	Score      float64           `json:"score"`
	Level      string            `json:"level"`
	Message    string            `json:"message"`
	Indicators QualityIndicators `json:"qualityIndicators"`
}

type Recommendation struct {
	Policy1Score float64 `json:"policy1Score"`
	Policy2Score float64 `json:"policy2Score"`
	Winner       string  `json:"winner,omitempty"`
	Text         string  `json:"text"`
	Confidence   int     `json:"confidence"`
}

type CategoryValidation struct {
	Policy1Category PolicyCategory `json:"policy1Category"`
	Policy2Category PolicyCategory `json:"policy2Category"`
	CategoriesMatch bool           `json:"categoriesMatch"`
	Message         string         `json:"message"`
}

type ComparisonResult struct {
	ID                 string              `json:"id,omitempty"`
	UserID             string              `json:"userId,omitempty"`
	Policy1ID          string              `json:"policy1Id"`
	Policy2ID          string              `json:"policy2Id"`
	Policy1Name        string              `json:"policy1Name"`
	Policy2Name        string              `json:"policy2Name"`
	Strategy           ComparisonStrategy  `json:"strategy"`
	ComparisonScore    int                 `json:"comparisonScore"`
	SimilarityScore    float64             `json:"similarityScore"`
	RiskAnalysis       RiskAnalysis        `json:"riskAnalysis"`
	EfficiencyAnalysis EfficiencyAnalysis  `json:"efficiencyAnalysis"`
	CoverageAnalysis   CoverageAnalysis    `json:"coverageAnalysis"`
	MLInsights         ComparisonInsights  `json:"mlInsights"`
	DetailedAnalysis   map[string]string   `json:"detailedAnalysis"`
	CategoryValid      bool                `json:"categoryValid"`
	CategoryValidation *CategoryValidation `json:"categoryValidation,omitempty"`
	Message            string              `json:"message,omitempty"`
	FallbackUsed       bool                `json:"fallbackUsed"`
	OriginalError      string              `json:"originalError,omitempty"`
	RawResponse        string              `json:"rawResponse,omitempty"`
	Verification       *Verification       `json:"verification,omitempty"`
	Recommendation     *Recommendation     `json:"recommendation,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
}

type ComparisonRequest struct {
	Policy1ID string
	Policy2ID string
	Strategy  ComparisonStrategy
	// Strict disables the canned fallback for the narrative strategy.
	Strict bool
	UserID string
}
