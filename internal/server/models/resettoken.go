package models

import "time"

// ResetToken is one outstanding password-reset code for an account.
// CodeHash holds a bcrypt digest of the 6-digit code; the plaintext code is
// never stored. An account may accumulate several rows over time, only the
// one with the latest expiry is ever consulted.
type ResetToken struct {
	ID        string
	AccountID string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
}
