package domain

import "time"

// User is the account record for anyone who can authenticate: end-users
// submitting tickets as well as agents, managers and admins. Capabilities
// come from grants, not from the account itself.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
