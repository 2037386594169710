package models

import "time"

// OTPRecord is the ephemeral per-email reset code. At most one record is
// live per email; issuing a new code overwrites the old one.
type OTPRecord struct {
	Email     string    `json:"email"`
	CodeHash  string    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
