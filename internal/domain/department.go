package domain

import "time"

// Department represents a high-level organizational unit. Tickets are
// routed to exactly one department and never move after creation.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
