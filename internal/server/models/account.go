package models

import "time"

// Account is a registered user of the service. PasswordHash holds a bcrypt
// digest; the plaintext password is never stored.
type Account struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
