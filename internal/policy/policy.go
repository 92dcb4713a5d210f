// Package policy decides whether a principal may perform an action on a
// ticket and computes the visibility scope used to narrow read queries.
//
// Rules form an ordered table, most permissive role first. A principal may
// hold several grants; the decision is the union of what any one grant
// allows, and visibility is the union across grants.
package policy

import "github.com/spec-kit/helpdesk-service/internal/domain"

// Action names a ticket operation subject to authorization.
type Action string

const (
	ActionCreate         Action = "create"
	ActionRead           Action = "read"
	ActionComment        Action = "comment"
	ActionAssign         Action = "assign"
	ActionUnassign       Action = "unassign"
	ActionReassign       Action = "reassign"
	ActionStatusChange   Action = "status_change"
	ActionClose          Action = "close"
	ActionReopen         Action = "reopen"
	ActionCancel         Action = "cancel"
	ActionPriorityChange Action = "priority_change"
	ActionFeedback       Action = "feedback"
)

// TeamScope is team-level visibility within one department. It covers
// tickets of that team plus unteamed tickets of the department.
type TeamScope struct {
	DepartmentID string
	TeamID       string
}

// ScopeDecision is the outcome of an authorization check. All is the
// unrestricted sentinel; otherwise a ticket is visible when its department
// is in DepartmentIDs, its (department, team) matches a TeamScope, or its
// creator is in UserIDs.
type ScopeDecision struct {
	Allowed       bool
	All           bool
	DepartmentIDs []string
	TeamScopes    []TeamScope
	UserIDs       []string
}

type rule struct {
	role    domain.Role
	actions map[Action]bool
	// applies reports whether this grant reaches the given ticket. The
	// ticket is nil only for ActionCreate.
	applies func(g domain.Grant, t *domain.Ticket, p *domain.Principal) bool
}

func actionSet(actions ...Action) map[Action]bool {
	set := make(map[Action]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return set
}

var anyRole domain.Role = "*"

// rules are evaluated in order; the first grant/rule pair that allows the
// action wins.
var rules = []rule{
	{
		role: domain.RoleAdmin,
		actions: actionSet(ActionCreate, ActionRead, ActionComment, ActionAssign,
			ActionUnassign, ActionReassign, ActionStatusChange, ActionClose,
			ActionReopen, ActionCancel, ActionPriorityChange),
		applies: func(domain.Grant, *domain.Ticket, *domain.Principal) bool {
			return true
		},
	},
	{
		role: domain.RoleManager,
		actions: actionSet(ActionRead, ActionComment, ActionAssign, ActionUnassign,
			ActionReassign, ActionStatusChange, ActionClose, ActionReopen,
			ActionCancel, ActionPriorityChange),
		applies: func(g domain.Grant, t *domain.Ticket, _ *domain.Principal) bool {
			return t != nil && g.DepartmentID != nil && t.DepartmentID == *g.DepartmentID
		},
	},
	{
		// Team-scoped agent: works tickets of their team, plus unteamed
		// tickets of their department. Closing is still gated by the
		// lifecycle table, so close only succeeds from Resolved.
		role: domain.RoleAgent,
		actions: actionSet(ActionRead, ActionComment, ActionAssign, ActionUnassign,
			ActionReassign, ActionStatusChange, ActionClose, ActionPriorityChange),
		applies: func(g domain.Grant, t *domain.Ticket, _ *domain.Principal) bool {
			if t == nil || g.DepartmentID == nil || g.TeamID == nil {
				return false
			}
			if t.DepartmentID != *g.DepartmentID {
				return false
			}
			return t.TeamID == nil || *t.TeamID == *g.TeamID
		},
	},
	{
		// Department-scoped agent, read side: sees the whole department.
		role:    domain.RoleAgent,
		actions: actionSet(ActionRead),
		applies: func(g domain.Grant, t *domain.Ticket, _ *domain.Principal) bool {
			return t != nil && g.DepartmentID != nil && g.TeamID == nil &&
				t.DepartmentID == *g.DepartmentID
		},
	},
	{
		// Department-scoped agent, mutation side: only tickets explicitly
		// assigned to this agent.
		role: domain.RoleAgent,
		actions: actionSet(ActionComment, ActionUnassign, ActionStatusChange,
			ActionClose, ActionPriorityChange),
		applies: func(g domain.Grant, t *domain.Ticket, p *domain.Principal) bool {
			if t == nil || g.DepartmentID == nil || g.TeamID != nil {
				return false
			}
			return t.DepartmentID == *g.DepartmentID &&
				t.AssignedToID != nil && *t.AssignedToID == p.UserID
		},
	},
	{
		// Ticket creation is open to any grant holder.
		role:    anyRole,
		actions: actionSet(ActionCreate),
		applies: func(_ domain.Grant, t *domain.Ticket, _ *domain.Principal) bool {
			return t == nil
		},
	},
	{
		// Feedback is bound to the requester: whoever created the ticket
		// may rate it, regardless of role.
		role:    anyRole,
		actions: actionSet(ActionFeedback),
		applies: func(_ domain.Grant, t *domain.Ticket, p *domain.Principal) bool {
			return t != nil && t.CreatedByID == p.UserID
		},
	},
	{
		// Self scope: a User grant covers reading and commenting on tickets
		// the principal created. Elevated grants do not imply it.
		role:    domain.RoleUser,
		actions: actionSet(ActionRead, ActionComment),
		applies: func(_ domain.Grant, t *domain.Ticket, p *domain.Principal) bool {
			return t != nil && t.CreatedByID == p.UserID
		},
	},
}

// Authorize decides whether the principal may perform action on the
// ticket. The ticket must be non-nil for every action except ActionCreate.
// The returned decision always carries the principal's full visibility
// scope so callers can reuse it for follow-up reads.
func Authorize(p *domain.Principal, action Action, ticket *domain.Ticket) ScopeDecision {
	if p == nil || len(p.Grants) == 0 {
		return ScopeDecision{}
	}
	decision := Visibility(p)
	decision.Allowed = false
	if ticket == nil && action != ActionCreate {
		return decision
	}
	for _, r := range rules {
		for _, g := range p.Grants {
			if r.role != anyRole && r.role != g.Role {
				continue
			}
			if !r.actions[action] {
				continue
			}
			if r.applies(g, ticket, p) {
				decision.Allowed = true
				return decision
			}
		}
	}
	return decision
}

// Visibility computes the union of what the principal's grants can see.
// Allowed is true whenever the principal holds at least one grant.
func Visibility(p *domain.Principal) ScopeDecision {
	decision := ScopeDecision{}
	if p == nil || len(p.Grants) == 0 {
		return decision
	}
	decision.Allowed = true

	depts := map[string]bool{}
	teams := map[TeamScope]bool{}
	users := map[string]bool{}

	for _, g := range p.Grants {
		switch g.Role {
		case domain.RoleUser:
			// mirrors the self rule in the table above
			users[p.UserID] = true
		case domain.RoleAdmin:
			decision.All = true
		case domain.RoleManager:
			if g.DepartmentID != nil {
				depts[*g.DepartmentID] = true
			}
		case domain.RoleAgent:
			if g.DepartmentID == nil {
				continue
			}
			if g.TeamID == nil {
				depts[*g.DepartmentID] = true
			} else {
				teams[TeamScope{DepartmentID: *g.DepartmentID, TeamID: *g.TeamID}] = true
			}
		}
	}
	if decision.All {
		return decision
	}

	for d := range depts {
		decision.DepartmentIDs = append(decision.DepartmentIDs, d)
	}
	for ts := range teams {
		// a department-wide grant already subsumes the team scope
		if !depts[ts.DepartmentID] {
			decision.TeamScopes = append(decision.TeamScopes, ts)
		}
	}
	for u := range users {
		decision.UserIDs = append(decision.UserIDs, u)
	}
	return decision
}

// CanOverrideLifecycle reports whether the principal holds an admin grant,
// or a manager grant covering the ticket's department. Such principals may
// cancel from any non-terminal state and close without a prior resolve.
func CanOverrideLifecycle(p *domain.Principal, ticket *domain.Ticket) bool {
	if p == nil || ticket == nil {
		return false
	}
	for _, g := range p.Grants {
		if g.Role == domain.RoleAdmin {
			return true
		}
		if g.Role == domain.RoleManager && g.DepartmentID != nil &&
			*g.DepartmentID == ticket.DepartmentID {
			return true
		}
	}
	return false
}
