package entity

import "time"

// Account is the aggregate root for the account domain.
// PasswordHash holds the bcrypt output and never leaves the application layer.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
