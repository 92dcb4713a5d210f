package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RefDataService manages the reference sets tickets point at. Categories,
// departments and teams can be deactivated, which blocks new tickets but
// leaves existing ones readable. Priority and status rows are permanent.
type RefDataService struct {
	categories  repository.CategoryRepository
	priorities  repository.PriorityRepository
	statuses    repository.StatusRepository
	departments repository.DepartmentRepository
	teams       repository.TeamRepository
}

// RefDataDependencies bundles collaborators for the reference data service.
type RefDataDependencies struct {
	CategoryRepo   repository.CategoryRepository
	PriorityRepo   repository.PriorityRepository
	StatusRepo     repository.StatusRepository
	DepartmentRepo repository.DepartmentRepository
	TeamRepo       repository.TeamRepository
}

// NewRefDataService constructs the service.
func NewRefDataService(deps RefDataDependencies) *RefDataService {
	return &RefDataService{
		categories:  deps.CategoryRepo,
		priorities:  deps.PriorityRepo,
		statuses:    deps.StatusRepo,
		departments: deps.DepartmentRepo,
		teams:       deps.TeamRepo,
	}
}

// ListCategories returns every category, active or not.
func (s *RefDataService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// CreateCategory adds a category. Admin only, enforced at the router.
func (s *RefDataService) CreateCategory(ctx context.Context, name, color string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required", nil)
	}
	category := &domain.Category{Name: name, Color: color, IsActive: true}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListPriorities returns the priority scale.
func (s *RefDataService) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	priorities, err := s.priorities.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return priorities, nil
}

// ListStatuses returns the configured lifecycle statuses.
func (s *RefDataService) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return statuses, nil
}

// ListDepartments returns every department.
func (s *RefDataService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return departments, nil
}

// CreateDepartment adds a department.
func (s *RefDataService) CreateDepartment(ctx context.Context, name string) (*domain.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("department name is required", nil)
	}
	department := &domain.Department{Name: name, IsActive: true}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, apperrors.MapError(err)
	}
	return department, nil
}

// SetDepartmentActive toggles a department. Existing tickets keep their
// department either way.
func (s *RefDataService) SetDepartmentActive(ctx context.Context, departmentID string, active bool) (*domain.Department, error) {
	department, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, notFoundOr("department", err)
	}
	department.IsActive = active
	if err := s.departments.Update(ctx, department); err != nil {
		return nil, apperrors.MapError(err)
	}
	return department, nil
}

// ListTeams returns a department's teams.
func (s *RefDataService) ListTeams(ctx context.Context, departmentID string) ([]domain.Team, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, notFoundOr("department", err)
	}
	teams, err := s.teams.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return teams, nil
}

// CreateTeam adds a team under a department. Team names are unique within
// a department, not globally.
func (s *RefDataService) CreateTeam(ctx context.Context, departmentID, name string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("team name is required", nil)
	}
	department, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, notFoundOr("department", err)
	}
	if !department.IsActive {
		return nil, apperrors.NewValidationError("department is inactive", map[string]any{"department_id": departmentID})
	}
	team := &domain.Team{Name: name, DepartmentID: departmentID, IsActive: true}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// SetTeamActive toggles a team.
func (s *RefDataService) SetTeamActive(ctx context.Context, teamID string, active bool) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, notFoundOr("team", err)
	}
	team.IsActive = active
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}
