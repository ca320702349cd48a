package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Audit decisions
const (
	DecisionPass    = "Pass"
	DecisionAnomaly = "Anomaly Detected"
)

// Violation is one policy breach found on a receipt. ItemID 0 refers to the
// receipt as a whole, such as the payment time.
type Violation struct {
	ItemID          int    `json:"item_id"`
	Reason          string `json:"reason"`
	PolicyReference string `json:"policy_reference"`
}

// Result is the outcome of auditing one receipt
type Result struct {
	Decision   string      `json:"audit_decision"`
	Score      float64     `json:"violation_score"`
	Violations []Violation `json:"violations"`
	Reasoning  string      `json:"reasoning"`
}

// modelResult mirrors Result with optional fields so missing keys can be defaulted
type modelResult struct {
	Decision   *string     `json:"audit_decision"`
	Score      *float64    `json:"violation_score"`
	Violations []Violation `json:"violations"`
	Reasoning  *string     `json:"reasoning"`
}

// parseResultJSON parses the JSON answer of a language model
func parseResultJSON(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var raw modelResult
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	result := &Result{
		Decision:   DecisionPass,
		Score:      0.2,
		Violations: raw.Violations,
		Reasoning:  "LLM 기반 판단",
	}
	if raw.Decision != nil && *raw.Decision != "" {
		result.Decision = *raw.Decision
	}
	if raw.Score != nil {
		result.Score = min(max(*raw.Score, 0), 1)
	}
	if raw.Reasoning != nil && strings.TrimSpace(*raw.Reasoning) != "" {
		result.Reasoning = strings.TrimSpace(*raw.Reasoning)
	}
	if result.Violations == nil {
		result.Violations = []Violation{}
	}
	return result, nil
}
