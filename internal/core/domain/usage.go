package domain

import "time"

const (
	EndpointExtraction = "policy_extraction"
	EndpointComparison = "policy_comparison"
	EndpointAnalysis   = "policy_analysis"
)

// UsageLogEntry is append-only: one entry per AI invocation attempt.
type UsageLogEntry struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id,omitempty"`
	Endpoint     string        `json:"endpoint"`
	TokensUsed   int           `json:"tokens_used"`
	Model        string        `json:"model_used"`
	Elapsed      time.Duration `json:"-"`
	ElapsedSecs  float64       `json:"processing_time"`
	Cost         float64       `json:"cost"`
	Success      bool          `json:"success"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type UsageSummary struct {
	TotalCalls   int     `json:"total_calls"`
	FailedCalls  int     `json:"failed_calls"`
	TotalTokens  int     `json:"total_tokens"`
	TotalCost    float64 `json:"total_cost"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// Generation is one text-in/text-out provider response.
type Generation struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type AnalysisType string

const (
	AnalysisGeneral    AnalysisType = "general"
	AnalysisCoverage   AnalysisType = "coverage"
	AnalysisExclusions AnalysisType = "exclusions"
	AnalysisSummary    AnalysisType = "summary"
)

func ParseAnalysisType(raw string) AnalysisType {
	switch t := AnalysisType(raw); t {
	case AnalysisCoverage, AnalysisExclusions, AnalysisSummary:
		return t
	default:
		return AnalysisGeneral
	}
}

type PolicyAnswer struct {
	PolicyID        string       `json:"policy_id"`
	ConversationID  string       `json:"conversation_id,omitempty"`
	Question        string       `json:"question"`
	AnalysisType    AnalysisType `json:"analysis_type"`
	Response        string       `json:"response"`
	ConfidenceScore float64      `json:"confidence_score"`
	Mode            string       `json:"mode"`
	CreatedAt       time.Time    `json:"created_at"`
}
