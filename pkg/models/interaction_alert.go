package models

import "time"

// InteractionAlert is a notification-worthy record created when a checked pair
// turned out to be a real interaction. One alert per (user medication,
// interacting medication) pair, owned by the user whose medication triggered
// the check.
type InteractionAlert struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"user_id"`
	UserMedicationID int64      `json:"user_medication_id"`
	MedicationID     int64      `json:"medication_id"`
	Severity         Severity   `json:"severity"`
	Description      string     `json:"description"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// IsRead reports whether the user has acknowledged the alert.
func (a *InteractionAlert) IsRead() bool {
	return a.ReadAt != nil
}
