package domain

import "time"

// Canonical status names. Lifecycle rules are expressed against these
// names; the actual identity of a status is its configured row.
const (
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusPending    = "PENDING"
	StatusResolved   = "RESOLVED"
	StatusClosed     = "CLOSED"
	StatusCancelled  = "CANCELLED"
)

// IsTerminalStatus reports whether the named status ends the lifecycle
// without an explicit reopen.
func IsTerminalStatus(name string) bool {
	return name == StatusClosed || name == StatusCancelled
}

// Category classifies tickets. A category must exist and be active when a
// ticket is created with it.
type Category struct {
	ID          string
	Name        string
	Description string
	Color       string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Priority ranks SLA urgency. Priority rows are permanent: there is no
// deactivation flag.
type Priority struct {
	ID          string
	Name        string
	Description string
	Color       string
	Weight      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status is a configured lifecycle state row. Status rows are permanent;
// the lifecycle contract keys on Name.
type Status struct {
	ID          string
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
