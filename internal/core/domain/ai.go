package domain

import "time"

// AIMode is passed on every AI call; transitions come back as NextMode.
type AIMode string

const (
	AIModeLive                    AIMode = "live"
	AIModeMock                    AIMode = "mock"
	AIModeDegradedAfterQuotaError AIMode = "degraded_after_quota_error"
)

func (m AIMode) Live() bool { return m == AIModeLive }

type AIExtractionRequest struct {
	Mode     AIMode
	Metadata PolicyMetadata
	Text     string
	UserID   string
}

// AIExtractionResponse carries either a result or Err. Source names the mode
// that produced the result; NextMode is the mode the caller should keep.
type AIExtractionResponse struct {
	Result     *ExtractionResult
	Meaningful bool
	Source     AIMode
	NextMode   AIMode
	// QuotaErr keeps the provider failure that caused the degraded switch.
	QuotaErr error
	Err      error
}

// AIQuestion is one advisor call. History holds earlier turns of the same
// conversation, oldest first.
type AIQuestion struct {
	UserID        string
	Metadata      PolicyMetadata
	PolicyContext string
	Question      string
	AnalysisType  AnalysisType
	History       []ConversationMessage
}

// AIAnswer is a cleaned advisor reply. Err is set when the live call failed
// and Text holds the apology.
type AIAnswer struct {
	Text       string
	Confidence float64
	Mode       AIMode
	Model      string
	TokensUsed int
	Elapsed    time.Duration
	Err        error
}
