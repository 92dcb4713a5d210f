package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// GrantService manages the persisted grant rows. Mutations require an
// admin principal; changes are picked up by the next login, not by tokens
// already in flight.
type GrantService struct {
	grants      repository.GrantRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	teams       repository.TeamRepository
}

// GrantDependencies bundles collaborators for the grant service.
type GrantDependencies struct {
	GrantRepo      repository.GrantRepository
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	TeamRepo       repository.TeamRepository
}

// NewGrantService constructs the service.
func NewGrantService(deps GrantDependencies) *GrantService {
	return &GrantService{
		grants:      deps.GrantRepo,
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		teams:       deps.TeamRepo,
	}
}

// Assign adds a grant to a user. The grant shape mirrors what the identity
// resolver accepts: elevated roles need a department, a team scope needs a
// department, and the team must belong to that department.
func (s *GrantService) Assign(ctx context.Context, principal *domain.Principal, userID string, grant domain.Grant) error {
	if err := s.requireAdmin(principal); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return notFoundOr("user", err)
	}
	if err := s.validateGrantShape(ctx, grant); err != nil {
		return err
	}
	if err := s.grants.Create(ctx, userID, grant); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Revoke removes a grant from a user.
func (s *GrantService) Revoke(ctx context.Context, principal *domain.Principal, userID string, grant domain.Grant) error {
	if err := s.requireAdmin(principal); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return notFoundOr("user", err)
	}
	if err := s.grants.Delete(ctx, userID, grant); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// List returns a user's persisted grants.
func (s *GrantService) List(ctx context.Context, principal *domain.Principal, userID string) ([]domain.Grant, error) {
	if err := s.requireAdmin(principal); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr("user", err)
	}
	grants, err := s.grants.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return grants, nil
}

// SetUserActive toggles account activation. Deactivation stops new logins;
// outstanding tokens keep working until they expire.
func (s *GrantService) SetUserActive(ctx context.Context, principal *domain.Principal, userID string, active bool) error {
	if err := s.requireAdmin(principal); err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr("user", err)
	}
	user.Active = active
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *GrantService) requireAdmin(principal *domain.Principal) error {
	if principal == nil || len(principal.Grants) == 0 {
		return apperrors.NewAuthentication("authentication required")
	}
	if !principal.IsAdmin() {
		return apperrors.NewForbidden("admin grant required")
	}
	return nil
}

func (s *GrantService) validateGrantShape(ctx context.Context, grant domain.Grant) error {
	if !domain.ValidRole(grant.Role) {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": grant.Role})
	}
	needsDepartment := grant.Role == domain.RoleManager || grant.Role == domain.RoleAgent
	if needsDepartment && grant.DepartmentID == nil {
		return apperrors.NewValidationError("role requires a department scope", map[string]any{"role": grant.Role})
	}
	if grant.TeamID != nil && grant.DepartmentID == nil {
		return apperrors.NewValidationError("team scope requires a department scope", nil)
	}
	if grant.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *grant.DepartmentID); err != nil {
			return notFoundOr("department", err)
		}
	}
	if grant.TeamID != nil {
		team, err := s.teams.GetByID(ctx, *grant.TeamID)
		if err != nil {
			return notFoundOr("team", err)
		}
		if team.DepartmentID != *grant.DepartmentID {
			return apperrors.NewValidationError("team does not belong to department", map[string]any{
				"team_id":       team.ID,
				"department_id": *grant.DepartmentID,
			})
		}
	}
	return nil
}
