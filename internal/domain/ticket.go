package domain

import "time"

// Ticket is the aggregate for support requests.
//
// Invariants: ClosedAt is set iff the current status is terminal;
// AssignedToID, when present, references a user holding an elevated grant
// scoped to the ticket's department (and team, if set); DepartmentID is
// immutable after creation. Version increments on every successful write
// and guards against stale read-modify-write cycles.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	CategoryID   string
	PriorityID   string
	StatusID     string
	CreatedByID  string
	AssignedToID *string
	DepartmentID string
	TeamID       *string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}
