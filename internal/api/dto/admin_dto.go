package dto

import "github.com/spec-kit/helpdesk-service/internal/domain"

// GrantRequest payload for assigning or revoking a grant.
type GrantRequest struct {
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id"`
	TeamID       *string `json:"team_id"`
}

// ToGrant converts the request to its domain form.
func (r GrantRequest) ToGrant() domain.Grant {
	return domain.Grant{
		Role:         domain.Role(r.Role),
		DepartmentID: r.DepartmentID,
		TeamID:       r.TeamID,
	}
}

// GrantResponse represents one persisted grant.
type GrantResponse struct {
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id"`
	TeamID       *string `json:"team_id"`
}

// FromGrant maps a domain grant.
func FromGrant(g domain.Grant) GrantResponse {
	return GrantResponse{
		Role:         string(g.Role),
		DepartmentID: g.DepartmentID,
		TeamID:       g.TeamID,
	}
}

// SetActiveRequest toggles activation on users, departments or teams.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	Name string `json:"name"`
}

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name string `json:"name"`
}
