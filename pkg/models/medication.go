package models

import "time"

// Medication is a catalog entry. The catalog is maintained elsewhere;
// the interaction pipeline only ever reads it.
type Medication struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	ActivePrinciple    string    `json:"active_principle"`
	Manufacturer       string    `json:"manufacturer,omitempty"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
	Form               string    `json:"form,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
