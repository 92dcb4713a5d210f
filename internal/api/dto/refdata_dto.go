package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CategoryResponse represents a ticket category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// PriorityResponse represents a priority row.
type PriorityResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Weight      int       `json:"weight"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusResponse represents a lifecycle status row.
type StatusResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

// DepartmentResponse represents a department.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// TeamResponse represents a team.
type TeamResponse struct {
	ID           string    `json:"id"`
	DepartmentID string    `json:"department_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromCategory maps a category.
func FromCategory(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}

// FromPriority maps a priority.
func FromPriority(p *domain.Priority) PriorityResponse {
	return PriorityResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		Weight:      p.Weight,
		CreatedAt:   p.CreatedAt,
	}
}

// FromStatus maps a status row.
func FromStatus(s *domain.Status) StatusResponse {
	return StatusResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Color:       s.Color,
		CreatedAt:   s.CreatedAt,
	}
}

// FromDepartment maps a department.
func FromDepartment(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
	}
}

// FromTeam maps a team.
func FromTeam(t *domain.Team) TeamResponse {
	return TeamResponse{
		ID:           t.ID,
		DepartmentID: t.DepartmentID,
		Name:         t.Name,
		Description:  t.Description,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
	}
}
