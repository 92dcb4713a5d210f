package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func principalWith(userID string, grants ...domain.Grant) *domain.Principal {
	return &domain.Principal{UserID: userID, Active: true, Grants: grants}
}

func ticketIn(dept string, team *string, createdBy string) *domain.Ticket {
	return &domain.Ticket{
		ID:           "t1",
		DepartmentID: dept,
		TeamID:       team,
		CreatedByID:  createdBy,
	}
}

func TestAdminMayActAnywhere(t *testing.T) {
	admin := principalWith("u-admin", domain.Grant{Role: domain.RoleAdmin})
	ticket := ticketIn("d1", strPtr("team-a"), "someone-else")

	for _, action := range []Action{
		ActionRead, ActionAssign, ActionReassign, ActionStatusChange,
		ActionClose, ActionReopen, ActionCancel, ActionPriorityChange,
	} {
		decision := Authorize(admin, action, ticket)
		assert.True(t, decision.Allowed, "admin should be allowed %s", action)
		assert.True(t, decision.All)
	}
}

func TestAdminMayNotLeaveFeedbackOnOthersTickets(t *testing.T) {
	admin := principalWith("u-admin", domain.Grant{Role: domain.RoleAdmin})
	ticket := ticketIn("d1", nil, "someone-else")
	assert.False(t, Authorize(admin, ActionFeedback, ticket).Allowed)

	own := ticketIn("d1", nil, "u-admin")
	assert.True(t, Authorize(admin, ActionFeedback, own).Allowed)
}

func TestManagerScopedToDepartment(t *testing.T) {
	manager := principalWith("u-mgr",
		domain.Grant{Role: domain.RoleManager, DepartmentID: strPtr("d1")})

	inDept := ticketIn("d1", strPtr("team-a"), "creator")
	outDept := ticketIn("d2", nil, "creator")

	assert.True(t, Authorize(manager, ActionAssign, inDept).Allowed)
	assert.True(t, Authorize(manager, ActionCancel, inDept).Allowed)
	assert.False(t, Authorize(manager, ActionAssign, outDept).Allowed)
	assert.False(t, Authorize(manager, ActionRead, outDept).Allowed)
}

func TestSelfScopeRequiresUserGrant(t *testing.T) {
	// a pure manager grant does not reach the principal's own tickets
	// outside its department; adding a User grant does
	manager := principalWith("u-mgr",
		domain.Grant{Role: domain.RoleManager, DepartmentID: strPtr("d1")})
	own := ticketIn("d2", nil, "u-mgr")

	assert.False(t, Authorize(manager, ActionRead, own).Allowed)
	assert.False(t, Authorize(manager, ActionComment, own).Allowed)

	managerUser := principalWith("u-mgr",
		domain.Grant{Role: domain.RoleManager, DepartmentID: strPtr("d1")},
		domain.Grant{Role: domain.RoleUser})
	assert.True(t, Authorize(managerUser, ActionRead, own).Allowed)
	assert.True(t, Authorize(managerUser, ActionComment, own).Allowed)
	assert.False(t, Authorize(managerUser, ActionAssign, own).Allowed)
}

func TestTeamAgentScope(t *testing.T) {
	agent := principalWith("u-agent",
		domain.Grant{Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a")})

	sameTeam := ticketIn("d1", strPtr("team-a"), "creator")
	unteamed := ticketIn("d1", nil, "creator")
	otherTeam := ticketIn("d1", strPtr("team-b"), "creator")
	otherDept := ticketIn("d2", strPtr("team-a"), "creator")

	assert.True(t, Authorize(agent, ActionRead, sameTeam).Allowed)
	assert.True(t, Authorize(agent, ActionStatusChange, sameTeam).Allowed)
	assert.True(t, Authorize(agent, ActionAssign, unteamed).Allowed)
	assert.False(t, Authorize(agent, ActionRead, otherTeam).Allowed)
	assert.False(t, Authorize(agent, ActionRead, otherDept).Allowed)
}

func TestAgentMayNotCancelOrReopen(t *testing.T) {
	agent := principalWith("u-agent",
		domain.Grant{Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a")})
	ticket := ticketIn("d1", strPtr("team-a"), "creator")

	assert.False(t, Authorize(agent, ActionCancel, ticket).Allowed)
	assert.False(t, Authorize(agent, ActionReopen, ticket).Allowed)
}

func TestDepartmentAgentReadsWholeDepartmentButMutatesOwnAssignments(t *testing.T) {
	agent := principalWith("u-agent",
		domain.Grant{Role: domain.RoleAgent, DepartmentID: strPtr("d1")})

	unassigned := ticketIn("d1", strPtr("team-b"), "creator")
	assert.True(t, Authorize(agent, ActionRead, unassigned).Allowed)
	assert.False(t, Authorize(agent, ActionStatusChange, unassigned).Allowed)

	mine := ticketIn("d1", strPtr("team-b"), "creator")
	mine.AssignedToID = strPtr("u-agent")
	assert.True(t, Authorize(agent, ActionStatusChange, mine).Allowed)
	assert.True(t, Authorize(agent, ActionClose, mine).Allowed)
}

func TestUserSelfScope(t *testing.T) {
	user := principalWith("u-user", domain.Grant{Role: domain.RoleUser})

	own := ticketIn("d1", nil, "u-user")
	other := ticketIn("d1", nil, "someone-else")

	assert.True(t, Authorize(user, ActionCreate, nil).Allowed)
	assert.True(t, Authorize(user, ActionRead, own).Allowed)
	assert.True(t, Authorize(user, ActionComment, own).Allowed)
	assert.True(t, Authorize(user, ActionFeedback, own).Allowed)

	assert.False(t, Authorize(user, ActionRead, other).Allowed)
	assert.False(t, Authorize(user, ActionAssign, own).Allowed)
	assert.False(t, Authorize(user, ActionStatusChange, own).Allowed)
	assert.False(t, Authorize(user, ActionClose, own).Allowed)
}

func TestNoGrantsDenied(t *testing.T) {
	empty := &domain.Principal{UserID: "u1"}
	assert.False(t, Authorize(empty, ActionCreate, nil).Allowed)
	assert.False(t, Authorize(nil, ActionRead, ticketIn("d1", nil, "x")).Allowed)
	assert.False(t, Visibility(empty).Allowed)
}

func TestUnionOfGrants(t *testing.T) {
	multi := principalWith("u-multi",
		domain.Grant{Role: domain.RoleUser},
		domain.Grant{Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a")},
		domain.Grant{Role: domain.RoleManager, DepartmentID: strPtr("d2")})

	assert.True(t, Authorize(multi, ActionStatusChange, ticketIn("d1", strPtr("team-a"), "x")).Allowed)
	assert.True(t, Authorize(multi, ActionCancel, ticketIn("d2", nil, "x")).Allowed)
	assert.False(t, Authorize(multi, ActionCancel, ticketIn("d1", strPtr("team-a"), "x")).Allowed)
	assert.False(t, Authorize(multi, ActionRead, ticketIn("d3", nil, "x")).Allowed)
}

func TestVisibilityUnion(t *testing.T) {
	multi := principalWith("u-multi",
		domain.Grant{Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a")},
		domain.Grant{Role: domain.RoleManager, DepartmentID: strPtr("d2")})

	scope := Visibility(multi)
	assert.True(t, scope.Allowed)
	assert.False(t, scope.All)
	assert.ElementsMatch(t, []string{"d2"}, scope.DepartmentIDs)
	assert.ElementsMatch(t, []TeamScope{{DepartmentID: "d1", TeamID: "team-a"}}, scope.TeamScopes)
	// elevated grants carry no self scope
	assert.Empty(t, scope.UserIDs)

	withUser := principalWith("u-multi",
		domain.Grant{Role: domain.RoleUser},
		domain.Grant{Role: domain.RoleManager, DepartmentID: strPtr("d2")})
	assert.Contains(t, Visibility(withUser).UserIDs, "u-multi")
}

func TestVisibilityDepartmentSubsumesTeam(t *testing.T) {
	p := principalWith("u1",
		domain.Grant{Role: domain.RoleAgent, DepartmentID: strPtr("d1")},
		domain.Grant{Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a")})

	scope := Visibility(p)
	assert.ElementsMatch(t, []string{"d1"}, scope.DepartmentIDs)
	assert.Empty(t, scope.TeamScopes)
}

func TestVisibilityAdminSeesAll(t *testing.T) {
	scope := Visibility(principalWith("u1",
		domain.Grant{Role: domain.RoleUser},
		domain.Grant{Role: domain.RoleAdmin}))
	assert.True(t, scope.All)
	assert.Empty(t, scope.DepartmentIDs)
}

func TestCanOverrideLifecycle(t *testing.T) {
	ticket := ticketIn("d1", nil, "creator")

	admin := principalWith("a", domain.Grant{Role: domain.RoleAdmin})
	assert.True(t, CanOverrideLifecycle(admin, ticket))

	mgr := principalWith("m", domain.Grant{Role: domain.RoleManager, DepartmentID: strPtr("d1")})
	assert.True(t, CanOverrideLifecycle(mgr, ticket))

	otherMgr := principalWith("m2", domain.Grant{Role: domain.RoleManager, DepartmentID: strPtr("d2")})
	assert.False(t, CanOverrideLifecycle(otherMgr, ticket))

	agent := principalWith("ag", domain.Grant{Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("t")})
	assert.False(t, CanOverrideLifecycle(agent, ticket))
}
