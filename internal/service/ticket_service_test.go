package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/query"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type ticketFixture struct {
	service    *TicketService
	tickets    *mockTicketRepo
	comments   *mockCommentRepo
	feedback   *mockFeedbackRepo
	users      *mockUserRepo
	grants     *mockGrantRepo
	refData    *mockRefData
	dispatcher events.Dispatcher
}

func strPtr(s string) *string { return &s }

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()

	tickets := newMockTicketRepo()
	comments := &mockCommentRepo{}
	attachments := &mockAttachmentRepo{}
	feedback := &mockFeedbackRepo{}
	users := newMockUserRepo()
	grants := newMockGrantRepo()
	departments := newMockDepartmentRepo()
	teams := newMockTeamRepo()
	refData := newMockRefData()
	dispatcher := events.NewInMemoryDispatcher()

	ctx := context.Background()
	require.NoError(t, departments.Create(ctx, &domain.Department{ID: "d1", Name: "Support", IsActive: true}))
	require.NoError(t, departments.Create(ctx, &domain.Department{ID: "d2", Name: "Billing", IsActive: true}))
	require.NoError(t, teams.Create(ctx, &domain.Team{ID: "team-a", DepartmentID: "d1", Name: "Alpha", IsActive: true}))
	require.NoError(t, teams.Create(ctx, &domain.Team{ID: "team-b", DepartmentID: "d1", Name: "Beta", IsActive: true}))

	require.NoError(t, users.Create(ctx, &domain.User{ID: "u-creator", Name: "Creator", Email: "creator@test", Active: true}))
	require.NoError(t, users.Create(ctx, &domain.User{ID: "u-agent", Name: "Agent", Email: "agent@test", Active: true}))
	require.NoError(t, grants.Create(ctx, "u-agent", domain.Grant{
		Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a"),
	}))

	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		CommentRepo:    comments,
		AttachmentRepo: attachments,
		FeedbackRepo:   feedback,
		HistoryRepo:    &mockHistoryRepo{ticketRepo: tickets},
		DepartmentRepo: departments,
		TeamRepo:       teams,
		UserRepo:       users,
		GrantRepo:      grants,
		RefData:        refData,
		Dispatcher:     dispatcher,
	})
	return &ticketFixture{
		service:    svc,
		tickets:    tickets,
		comments:   comments,
		feedback:   feedback,
		users:      users,
		grants:     grants,
		refData:    refData,
		dispatcher: dispatcher,
	}
}

func creatorPrincipal() *domain.Principal {
	return &domain.Principal{UserID: "u-creator", Active: true, Grants: []domain.Grant{{Role: domain.RoleUser}}}
}

func agentPrincipal() *domain.Principal {
	return &domain.Principal{UserID: "u-agent", Active: true, Grants: []domain.Grant{
		{Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a")},
	}}
}

func managerPrincipal(dept string) *domain.Principal {
	return &domain.Principal{UserID: "u-mgr-" + dept, Active: true, Grants: []domain.Grant{
		{Role: domain.RoleManager, DepartmentID: strPtr(dept)},
	}}
}

func adminPrincipal() *domain.Principal {
	return &domain.Principal{UserID: "u-admin", Active: true, Grants: []domain.Grant{{Role: domain.RoleAdmin}}}
}

func (f *ticketFixture) createTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.Create(context.Background(), creatorPrincipal(), TicketCreateInput{
		Title:        "printer on fire",
		Description:  "it is actually on fire",
		CategoryID:   "cat-1",
		PriorityID:   "prio-1",
		DepartmentID: "d1",
		TeamID:       strPtr("team-a"),
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketStartsOpenAndUnassigned(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	assert.Equal(t, "status-"+domain.StatusOpen, ticket.StatusID)
	assert.Nil(t, ticket.AssignedToID)
	assert.Nil(t, ticket.ClosedAt)
	assert.Equal(t, "u-creator", ticket.CreatedByID)
	assert.EqualValues(t, 1, ticket.Version)

	got, err := f.service.Get(context.Background(), creatorPrincipal(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)
}

func TestCreateTicketValidatesReferences(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, creatorPrincipal(), TicketCreateInput{
		Title: "x", CategoryID: "missing", PriorityID: "prio-1", DepartmentID: "d1",
	})
	assert.True(t, apperrors.IsKind(err, "NOT_FOUND"))

	_, err = f.service.Create(ctx, creatorPrincipal(), TicketCreateInput{
		Title: "x", CategoryID: "cat-1", PriorityID: "prio-1", DepartmentID: "d1",
		TeamID: strPtr("team-zzz"),
	})
	assert.True(t, apperrors.IsKind(err, "NOT_FOUND"))

	// team from another department
	_, err = f.service.Create(ctx, creatorPrincipal(), TicketCreateInput{
		Title: "x", CategoryID: "cat-1", PriorityID: "prio-1", DepartmentID: "d2",
		TeamID: strPtr("team-a"),
	})
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
}

func TestCreateTicketRejectsInactiveCategory(t *testing.T) {
	f := newTicketFixture(t)
	f.refData.categories["cat-off"] = &domain.Category{ID: "cat-off", Name: "Retired"}

	_, err := f.service.Create(context.Background(), creatorPrincipal(), TicketCreateInput{
		Title: "x", CategoryID: "cat-off", PriorityID: "prio-1", DepartmentID: "d1",
	})
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
}

func TestAssignMovesOpenToInProgress(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	updated, err := f.service.Assign(context.Background(), agentPrincipal(), ticket.ID, "u-agent")
	require.NoError(t, err)
	assert.Equal(t, strPtr("u-agent"), updated.AssignedToID)
	assert.Equal(t, "status-"+domain.StatusInProgress, updated.StatusID)
	assert.EqualValues(t, 2, updated.Version)

	// audit trail carries both the assignee and the status change
	var types []domain.TicketChangeType
	for _, h := range f.tickets.history {
		types = append(types, h.ChangeType)
	}
	assert.Contains(t, types, domain.ChangeTypeAssignee)
	assert.Contains(t, types, domain.ChangeTypeStatus)
}

func TestAssignRejectsIneligibleAssignee(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	// plain requester holds no elevated grant
	err := f.users.Create(context.Background(), &domain.User{ID: "u-plain", Email: "p@test", Active: true})
	require.NoError(t, err)

	_, err = f.service.Assign(context.Background(), managerPrincipal("d1"), ticket.ID, "u-plain")
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))

	_, err = f.service.Assign(context.Background(), managerPrincipal("d1"), ticket.ID, "nobody")
	assert.True(t, apperrors.IsKind(err, "NOT_FOUND"))
}

func TestAgentCannotCloseInProgressTicket(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	_, err := f.service.Assign(context.Background(), agentPrincipal(), ticket.ID, "u-agent")
	require.NoError(t, err)

	_, err = f.service.Close(context.Background(), agentPrincipal(), ticket.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
}

func TestResolveThenCloseSetsClosedAt(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, agentPrincipal(), ticket.ID, "u-agent")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, agentPrincipal(), ticket.ID, "status-"+domain.StatusResolved, "fixed")
	require.NoError(t, err)

	closed, err := f.service.Close(ctx, agentPrincipal(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "status-"+domain.StatusClosed, closed.StatusID)
	require.NotNil(t, closed.ClosedAt)

	reopened, err := f.service.Reopen(ctx, managerPrincipal("d1"), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "status-"+domain.StatusOpen, reopened.StatusID)
	assert.Nil(t, reopened.ClosedAt)
}

func TestManagerOverrideClosesWithoutResolve(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, managerPrincipal("d1"), ticket.ID, "u-agent")
	require.NoError(t, err)

	closed, err := f.service.Close(ctx, managerPrincipal("d1"), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "status-"+domain.StatusClosed, closed.StatusID)
	assert.NotNil(t, closed.ClosedAt)
}

func TestCrossDepartmentManagerForbidden(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	_, err := f.service.Assign(context.Background(), managerPrincipal("d2"), ticket.ID, "u-agent")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, "FORBIDDEN"))
}

func TestUserCannotCancelOthersTicket(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	other := &domain.Principal{UserID: "u-other", Active: true, Grants: []domain.Grant{{Role: domain.RoleUser}}}
	_, err := f.service.Cancel(context.Background(), other, ticket.ID, "nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, "FORBIDDEN"))
}

func TestStaleConcurrentUpdateRejected(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, agentPrincipal(), ticket.ID, "u-agent")
	require.NoError(t, err)

	// simulate a writer that committed after our read
	stored := f.tickets.tickets[ticket.ID]
	read, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	stored.Version++

	err = f.service.saveTicket(ctx, read, repository.MutationAudit{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
}

func TestReassignIsSingleWrite(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, managerPrincipal("d1"), ticket.ID, "u-agent")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, &domain.User{ID: "u-agent2", Email: "a2@test", Active: true}))
	require.NoError(t, f.grants.Create(ctx, "u-agent2", domain.Grant{
		Role: domain.RoleAgent, DepartmentID: strPtr("d1"), TeamID: strPtr("team-a"),
	}))

	before := f.tickets.tickets[ticket.ID].Version
	updated, err := f.service.Reassign(ctx, managerPrincipal("d1"), ticket.ID, "u-agent2")
	require.NoError(t, err)
	assert.Equal(t, strPtr("u-agent2"), updated.AssignedToID)
	// exactly one version bump: no intermediate unassigned state was stored
	assert.Equal(t, before+1, updated.Version)
}

func TestUnassignKeepsStatus(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, agentPrincipal(), ticket.ID, "u-agent")
	require.NoError(t, err)

	updated, err := f.service.Unassign(ctx, agentPrincipal(), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedToID)
	assert.Equal(t, "status-"+domain.StatusInProgress, updated.StatusID)
}

func TestStatusChangeWritesSystemComment(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, agentPrincipal(), ticket.ID, "u-agent")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, agentPrincipal(), ticket.ID, "status-"+domain.StatusPending, "waiting on user")
	require.NoError(t, err)

	var found bool
	for _, c := range f.tickets.comments {
		if c.AuthorType == domain.CommentAuthorSystem && c.TicketID == ticket.ID {
			found = true
		}
	}
	assert.True(t, found, "expected a system comment recording the transition")
}

func TestFeedbackOnlyAfterResolution(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.SubmitFeedback(ctx, creatorPrincipal(), ticket.ID, 5, "great")
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))

	_, err = f.service.Assign(ctx, agentPrincipal(), ticket.ID, "u-agent")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, agentPrincipal(), ticket.ID, "status-"+domain.StatusResolved, "")
	require.NoError(t, err)

	fb, err := f.service.SubmitFeedback(ctx, creatorPrincipal(), ticket.ID, 5, "great")
	require.NoError(t, err)
	assert.Equal(t, 5, fb.Rating)

	// second submission conflicts
	_, err = f.service.SubmitFeedback(ctx, creatorPrincipal(), ticket.ID, 4, "again")
	assert.True(t, apperrors.IsKind(err, "CONFLICT"))

	// non-creators may not leave feedback at all
	_, err = f.service.SubmitFeedback(ctx, agentPrincipal(), ticket.ID, 3, "")
	assert.True(t, apperrors.IsKind(err, "FORBIDDEN"))
}

func TestFeedbackRatingBounds(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, agentPrincipal(), ticket.ID, "u-agent")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, agentPrincipal(), ticket.ID, "status-"+domain.StatusResolved, "")
	require.NoError(t, err)

	_, err = f.service.SubmitFeedback(ctx, creatorPrincipal(), ticket.ID, 0, "")
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
	_, err = f.service.SubmitFeedback(ctx, creatorPrincipal(), ticket.ID, 6, "")
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
}

func TestCommentRequiresBodyAndScope(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.AddComment(ctx, creatorPrincipal(), ticket.ID, "  ")
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))

	comment, err := f.service.AddComment(ctx, creatorPrincipal(), ticket.ID, "any update?")
	require.NoError(t, err)
	assert.Equal(t, domain.CommentAuthorUser, comment.AuthorType)

	other := &domain.Principal{UserID: "u-other", Active: true, Grants: []domain.Grant{{Role: domain.RoleUser}}}
	_, err = f.service.AddComment(ctx, other, ticket.ID, "drive-by")
	assert.True(t, apperrors.IsKind(err, "FORBIDDEN"))
}

func TestUpdatePriorityRecordsHistory(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	f.refData.priorities["prio-2"] = &domain.Priority{ID: "prio-2", Name: "HIGH", Weight: 30}

	updated, err := f.service.UpdatePriority(context.Background(), managerPrincipal("d1"), ticket.ID, "prio-2")
	require.NoError(t, err)
	assert.Equal(t, "prio-2", updated.PriorityID)

	var found bool
	for _, h := range f.tickets.history {
		if h.ChangeType == domain.ChangeTypePriority {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCancelledTicketRejectsFurtherMutations(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Cancel(ctx, adminPrincipal(), ticket.ID, "duplicate")
	require.NoError(t, err)

	_, err = f.service.Assign(ctx, adminPrincipal(), ticket.ID, "u-agent")
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))

	_, err = f.service.Reopen(ctx, adminPrincipal(), ticket.ID)
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))
}

func TestListRespectsScope(t *testing.T) {
	f := newTicketFixture(t)
	f.createTicket(t)

	tickets, err := f.service.List(context.Background(), creatorPrincipal(), query.RequestedFilter{})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)

	_, err = f.service.List(context.Background(), &domain.Principal{UserID: "nobody"}, query.RequestedFilter{})
	assert.True(t, apperrors.IsKind(err, "FORBIDDEN"))
}

func TestGetMissingTicketNotFound(t *testing.T) {
	f := newTicketFixture(t)
	_, err := f.service.Get(context.Background(), adminPrincipal(), "nope")
	assert.True(t, apperrors.IsKind(err, "NOT_FOUND"))
}

func TestAttachmentMetadataRoundTrip(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	_, err := f.service.AddAttachment(context.Background(), creatorPrincipal(), ticket.ID, AttachmentInput{
		FileName: "photo.jpg",
	})
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))

	created, err := f.service.AddAttachment(context.Background(), creatorPrincipal(), ticket.ID, AttachmentInput{
		StorageKey: "s3://bucket/photo.jpg",
		FileName:   "photo.jpg",
		MimeType:   "image/jpeg",
		SizeBytes:  2048,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	listed, err := f.service.ListAttachments(context.Background(), creatorPrincipal(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "photo.jpg", listed[0].FileName)
	assert.Equal(t, "u-creator", listed[0].UploadedByID)

	stranger := &domain.Principal{UserID: "u-other", Active: true, Grants: []domain.Grant{{Role: domain.RoleUser}}}
	_, err = f.service.ListAttachments(context.Background(), stranger, ticket.ID)
	assert.True(t, apperrors.IsKind(err, "FORBIDDEN"))
}

func TestClosedTicketOnlyLeavesViaReopen(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	ctx := context.Background()

	_, err := f.service.Assign(ctx, managerPrincipal("d1"), ticket.ID, "u-agent")
	require.NoError(t, err)
	_, err = f.service.Close(ctx, managerPrincipal("d1"), ticket.ID)
	require.NoError(t, err)

	// a generic status update cannot pull a closed ticket back to Open
	_, err = f.service.UpdateStatus(ctx, managerPrincipal("d1"), ticket.ID, "status-"+domain.StatusOpen, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, "VALIDATION_FAILED"))

	reopened, err := f.service.Reopen(ctx, managerPrincipal("d1"), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "status-"+domain.StatusOpen, reopened.StatusID)
	assert.Nil(t, reopened.ClosedAt)
}

func TestListForeignTeamFilterYieldsNothing(t *testing.T) {
	f := newTicketFixture(t)
	f.createTicket(t)

	agent := agentPrincipal()
	tickets, err := f.service.List(context.Background(), agent, query.RequestedFilter{
		TeamIDs: []string{"team-z"},
	})
	require.NoError(t, err)
	assert.Empty(t, tickets)

	tickets, err = f.service.List(context.Background(), agent, query.RequestedFilter{
		TeamIDs: []string{"team-a"},
	})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestBodyPreviewKeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "short", bodyPreview("short", 120))

	long := strings.Repeat("é", 100)
	preview := bodyPreview(long, 120)
	assert.True(t, utf8.ValidString(preview))
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.LessOrEqual(t, len(preview), 120)
}
