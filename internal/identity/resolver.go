// Package identity turns a verified credential payload into a Principal.
// Signature and expiry checks happen upstream; this package only validates
// the shape of the claim set.
package identity

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RawGrant is one (role, department?, team?) triple from a credential.
type RawGrant struct {
	Role         string  `json:"role"`
	DepartmentID *string `json:"department_id,omitempty"`
	TeamID       *string `json:"team_id,omitempty"`
}

// RawClaims is the decoded credential payload handed to Resolve.
type RawClaims struct {
	UserID string     `json:"user_id"`
	Grants []RawGrant `json:"grants"`
}

// Resolve builds an immutable Principal from verified claims. It fails
// with an authentication error when the claim set is empty or malformed:
// unknown roles, elevated grants without a department, or a team scope
// without a department. The inactive-user check happens at login time,
// before a credential is ever issued.
func Resolve(claims RawClaims) (*domain.Principal, error) {
	if claims.UserID == "" {
		return nil, apperrors.NewAuthentication("credential carries no subject")
	}
	if len(claims.Grants) == 0 {
		return nil, apperrors.NewAuthentication("credential carries no grants")
	}

	seen := make(map[string]bool, len(claims.Grants))
	grants := make([]domain.Grant, 0, len(claims.Grants))
	for _, raw := range claims.Grants {
		grant, err := validateGrant(raw)
		if err != nil {
			return nil, err
		}
		key := grantKey(grant)
		if seen[key] {
			continue
		}
		seen[key] = true
		grants = append(grants, grant)
	}

	return &domain.Principal{
		UserID: claims.UserID,
		Active: true,
		Grants: grants,
	}, nil
}

func grantKey(g domain.Grant) string {
	key := string(g.Role)
	if g.DepartmentID != nil {
		key += "|" + *g.DepartmentID
	}
	if g.TeamID != nil {
		key += "|" + *g.TeamID
	}
	return key
}

func validateGrant(raw RawGrant) (domain.Grant, error) {
	role := domain.Role(raw.Role)
	if !domain.ValidRole(role) {
		return domain.Grant{}, apperrors.NewAuthentication("credential carries an unknown role")
	}
	if raw.TeamID != nil && raw.DepartmentID == nil {
		return domain.Grant{}, apperrors.NewAuthentication("team-scoped grant without a department")
	}
	switch role {
	case domain.RoleManager, domain.RoleAgent:
		if raw.DepartmentID == nil {
			return domain.Grant{}, apperrors.NewAuthentication("elevated grant without a department")
		}
	}
	return domain.Grant{
		Role:         role,
		DepartmentID: raw.DepartmentID,
		TeamID:       raw.TeamID,
	}, nil
}
