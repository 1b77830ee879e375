package models

import "time"

// Ephemeral DTOs describing one interaction check job execution. These are
// never persisted; they exist for the monitoring notifier and the caller.

// TokenUsage is the classifier token accounting for one batched call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// InteractionCheckResult is the outcome of one classifier round trip.
type InteractionCheckResult struct {
	Interactions []InteractionResult `json:"interactions"`
	TokenUsage   TokenUsage          `json:"token_usage"`
	Model        string              `json:"model"`
	Duration     time.Duration       `json:"duration"`
}

// FoundCount returns how many results carry a real interaction.
func (r *InteractionCheckResult) FoundCount() int {
	count := 0
	for _, ir := range r.Interactions {
		if ir.HasInteraction {
			count++
		}
	}
	return count
}

// CountBySeverity returns how many real interactions carry the given severity.
func (r *InteractionCheckResult) CountBySeverity(s Severity) int {
	count := 0
	for _, ir := range r.Interactions {
		if ir.HasInteraction && ir.Severity == s {
			count++
		}
	}
	return count
}

// InteractionCheckMetrics aggregates one job execution for monitoring.
type InteractionCheckMetrics struct {
	MedicationName string        `json:"medication_name"`
	CheckedCount   int           `json:"checked_count"`
	FoundCount     int           `json:"found_count"`
	SevereCount    int           `json:"severe_count"`
	ModerateCount  int           `json:"moderate_count"`
	AlertsCreated  int           `json:"alerts_created"`
	TokenUsage     TokenUsage    `json:"token_usage"`
	Duration       time.Duration `json:"duration"`
	Model          string        `json:"model"`
}
