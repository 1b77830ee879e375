package models

import "time"

// UserMedication is a patient's instance of taking a catalog medication.
// Inactive records are never scanned for interactions.
type UserMedication struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	MedicationID *int64 `json:"medication_id"`

	// Medication is populated by join queries, not stored on the row itself.
	Medication *Medication `json:"medication,omitempty"`

	Dosage   string `json:"dosage"`
	Schedule string `json:"schedule"`
	Active   bool   `json:"active"`

	// Stock counters
	StockQuantity       int `json:"stock_quantity"`
	StockAlertThreshold int `json:"stock_alert_threshold"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MedicationName returns the joined medication name, or "unknown" when the
// medication relation has not been loaded.
func (um *UserMedication) MedicationName() string {
	if um.Medication == nil {
		return "unknown"
	}
	return um.Medication.Name
}

// LowStock reports whether the remaining stock has reached the alert threshold.
func (um *UserMedication) LowStock() bool {
	return um.StockAlertThreshold > 0 && um.StockQuantity <= um.StockAlertThreshold
}
