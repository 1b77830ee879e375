package models

import (
	"strings"
	"time"
)

// ============================================================================
// Severity
// ============================================================================

// Severity ranks the clinical urgency of a drug interaction.
type Severity string

const (
	SeveritySevere   Severity = "severe"
	SeverityModerate Severity = "moderate"
	SeverityMinor    Severity = "minor"
	SeverityNone     Severity = "none"
)

// ValidSeverities contains all valid severity values.
var ValidSeverities = []Severity{
	SeveritySevere,
	SeverityModerate,
	SeverityMinor,
	SeverityNone,
}

// IsValidSeverity checks if the given severity is valid.
func IsValidSeverity(s Severity) bool {
	for _, v := range ValidSeverities {
		if v == s {
			return true
		}
	}
	return false
}

// ParseSeverity maps a raw classifier string onto the closed severity set.
// Unknown values coerce to SeveritySevere and return ok=false so callers can
// log the occurrence: when uncertain, over-warning a clinician is safer than
// under-warning.
func ParseSeverity(raw string) (Severity, bool) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if IsValidSeverity(s) {
		return s, true
	}
	return SeveritySevere, false
}

// ============================================================================
// Interaction result (classifier output, value object)
// ============================================================================

// InteractionResult is one classified medication pair, as produced by the
// interaction checker from a classifier response element.
type InteractionResult struct {
	MedicationID   int64     `json:"medication_id"`
	MedicationName string    `json:"medication_name"`
	HasInteraction bool      `json:"has_interaction"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	CheckedAt      time.Time `json:"checked_at"`
}

// ============================================================================
// Persisted interaction record
// ============================================================================

// MedicationInteraction is one direction of a persisted interaction pair.
// Every checked pair (A, B) is stored twice, (A→B) and (B→A), with identical
// severity, description and timestamp, so either medication's perspective can
// be answered without a second classifier call.
type MedicationInteraction struct {
	ID              int64     `json:"id"`
	MedicationID    int64     `json:"medication_id"`
	InteractsWithID int64     `json:"interacts_with_id"`
	HasInteraction  bool      `json:"has_interaction"`
	Severity        Severity  `json:"severity"`
	Description     string    `json:"description"`
	CheckedAt       time.Time `json:"checked_at"`
	CreatedAt       time.Time `json:"created_at"`
}
