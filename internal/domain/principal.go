package domain

// Role enumerates capability tiers a grant can confer.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleAgent   Role = "AGENT"
	RoleUser    Role = "USER"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleUser:
		return true
	}
	return false
}

// Grant is a (role, optional department, optional team) triple conferring a
// bounded capability set. A team-scoped grant always carries the owning
// department as well.
type Grant struct {
	Role         Role
	DepartmentID *string
	TeamID       *string
}

// Principal is the authenticated caller, built per-request from a verified
// credential and immutable for the request's lifetime.
type Principal struct {
	UserID string
	Active bool
	Grants []Grant
}

// HasRole reports whether any grant carries the given role.
func (p *Principal) HasRole(role Role) bool {
	for _, g := range p.Grants {
		if g.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds an admin grant.
func (p *Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}
