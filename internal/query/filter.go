// Package query assembles the effective read-side filter: caller-supplied
// parameters intersected with the principal's visibility scope. A caller
// can never broaden their visible set through request parameters, and a
// requested department/team set that intersects visibility to nothing
// yields an empty result rather than an error.
package query

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RequestedFilter captures raw listing parameters as supplied by the
// caller, before any scope narrowing.
type RequestedFilter struct {
	StatusIDs     []string
	PriorityIDs   []string
	CategoryIDs   []string
	DepartmentIDs []string
	TeamIDs       []string
	AssignedToID  *string
	CreatedByID   *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// BuildFilter intersects the requested filters with the principal's
// visibility. Date bounds are inclusive; an inverted range fails with a
// validation error. A principal without grants is rejected outright.
func BuildFilter(principal *domain.Principal, requested RequestedFilter) (repository.TicketFilter, error) {
	if requested.CreatedFrom != nil && requested.CreatedTo != nil &&
		requested.CreatedFrom.After(*requested.CreatedTo) {
		return repository.TicketFilter{}, apperrors.NewValidationError(
			"start date must not be after end date", map[string]any{
				"created_from": requested.CreatedFrom,
				"created_to":   requested.CreatedTo,
			})
	}

	scope := policy.Visibility(principal)
	if !scope.Allowed {
		return repository.TicketFilter{}, apperrors.NewForbidden("no grants held")
	}

	filter := repository.TicketFilter{
		StatusIDs:    requested.StatusIDs,
		PriorityIDs:  requested.PriorityIDs,
		CategoryIDs:  requested.CategoryIDs,
		AssignedToID: requested.AssignedToID,
		CreatedByID:  requested.CreatedByID,
		CreatedFrom:  requested.CreatedFrom,
		CreatedTo:    requested.CreatedTo,
		Limit:        requested.Limit,
		Offset:       requested.Offset,
	}

	if scope.All {
		filter.ScopeAll = true
		filter.DepartmentIDs = requested.DepartmentIDs
		filter.TeamIDs = requested.TeamIDs
		return filter, nil
	}

	filter.ScopeDepartmentIDs = scope.DepartmentIDs
	filter.ScopeTeams = scope.TeamScopes
	filter.ScopeCreatorIDs = scope.UserIDs

	if len(scope.UserIDs) > 0 {
		// self visibility already bounds results to the principal's own
		// tickets; requested department/team values only narrow that set
		// further and pass through untouched
		filter.DepartmentIDs = requested.DepartmentIDs
		filter.TeamIDs = requested.TeamIDs
	} else {
		var empty bool
		filter.DepartmentIDs, empty = intersectDepartments(requested.DepartmentIDs, scope)
		if empty {
			filter.Empty = true
			return filter, nil
		}
		filter.TeamIDs, empty = intersectTeams(requested.TeamIDs, scope)
		if empty {
			filter.Empty = true
			return filter, nil
		}
	}
	if filter.CreatedByID != nil && !creatorInScope(*filter.CreatedByID, scope) {
		filter.CreatedByID = nil
	}
	return filter, nil
}

// intersectDepartments keeps requested departments the scope can see. A
// non-empty request whose every value is out of scope cannot match
// anything and short-circuits to an empty result.
func intersectDepartments(requested []string, scope policy.ScopeDecision) ([]string, bool) {
	if len(requested) == 0 {
		return nil, false
	}
	visible := map[string]bool{}
	for _, d := range scope.DepartmentIDs {
		visible[d] = true
	}
	for _, ts := range scope.TeamScopes {
		visible[ts.DepartmentID] = true
	}
	kept := make([]string, 0, len(requested))
	for _, d := range requested {
		if visible[d] {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return nil, true
	}
	return kept, false
}

// intersectTeams keeps requested teams the scope can see. A department-wide
// scope admits any team of that department, which the scope clause already
// constrains, so team values are only intersected for purely team-scoped
// principals; there too, an all-out-of-scope request yields an empty result.
func intersectTeams(requested []string, scope policy.ScopeDecision) ([]string, bool) {
	if len(requested) == 0 {
		return nil, false
	}
	if len(scope.DepartmentIDs) > 0 {
		return requested, false
	}
	visible := map[string]bool{}
	for _, ts := range scope.TeamScopes {
		visible[ts.TeamID] = true
	}
	kept := make([]string, 0, len(requested))
	for _, t := range requested {
		if visible[t] {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil, true
	}
	return kept, false
}

func creatorInScope(creatorID string, scope policy.ScopeDecision) bool {
	// department/team visibility admits any creator within it; only a
	// purely self-scoped principal is pinned to their own user id
	if len(scope.DepartmentIDs) > 0 || len(scope.TeamScopes) > 0 {
		return true
	}
	for _, u := range scope.UserIDs {
		if u == creatorID {
			return true
		}
	}
	return false
}
