package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type extractionJob struct {
	PolicyID    string    `json:"policy_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func encodeJob(job extractionJob) ([]byte, error) {
	if strings.TrimSpace(job.PolicyID) == "" {
		return nil, fmt.Errorf("encode extraction job: empty policy id")
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode extraction job: %w", err)
	}
	return raw, nil
}

// decodeJob also accepts a bare policy id payload.
func decodeJob(data []byte) (extractionJob, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return extractionJob{}, fmt.Errorf("decode extraction job: empty payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return extractionJob{PolicyID: trimmed}, nil
	}
	var job extractionJob
	if err := json.Unmarshal([]byte(trimmed), &job); err != nil {
		return extractionJob{}, fmt.Errorf("decode extraction job: %w", err)
	}
	if strings.TrimSpace(job.PolicyID) == "" {
		return extractionJob{}, fmt.Errorf("decode extraction job: missing policy_id")
	}
	return job, nil
}
