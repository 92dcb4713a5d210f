package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/query"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RefData resolves reference rows. Satisfied by refdata.Lookup.
type RefData interface {
	Category(ctx context.Context, id string) (*domain.Category, error)
	Priority(ctx context.Context, id string) (*domain.Priority, error)
	Status(ctx context.Context, id string) (*domain.Status, error)
	StatusByName(ctx context.Context, name string) (*domain.Status, error)
}

// TicketService owns the ticket lifecycle: creation, assignment, status
// transitions and the scoped read side. Every mutation re-reads current
// state, validates against it and writes guarded by the ticket version;
// a write that lost the race fails with a validation error instead of
// overwriting the concurrent change.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	feedback    repository.FeedbackRepository
	history     repository.TicketHistoryRepository
	departments repository.DepartmentRepository
	teams       repository.TeamRepository
	users       repository.UserRepository
	grants      repository.GrantRepository
	refData     RefData
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	FeedbackRepo   repository.FeedbackRepository
	HistoryRepo    repository.TicketHistoryRepository
	DepartmentRepo repository.DepartmentRepository
	TeamRepo       repository.TeamRepository
	UserRepo       repository.UserRepository
	GrantRepo      repository.GrantRepository
	RefData        RefData
	Dispatcher     events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	CategoryID   string
	PriorityID   string
	DepartmentID string
	TeamID       *string
	AssigneeID   *string
}

// AttachmentInput defines attachment metadata.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		feedback:    deps.FeedbackRepo,
		history:     deps.HistoryRepo,
		departments: deps.DepartmentRepo,
		teams:       deps.TeamRepo,
		users:       deps.UserRepo,
		grants:      deps.GrantRepo,
		refData:     deps.RefData,
		dispatcher:  deps.Dispatcher,
	}
}

// Create opens a new ticket in the Open status. The assignee stays empty
// unless the creator explicitly supplies one the scope policy allows.
func (s *TicketService) Create(ctx context.Context, principal *domain.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.authorize(principal, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" || input.CategoryID == "" || input.PriorityID == "" || input.DepartmentID == "" {
		return nil, apperrors.NewValidationError("title, category_id, priority_id and department_id are required", nil)
	}

	category, err := s.refData.Category(ctx, input.CategoryID)
	if err != nil {
		return nil, notFoundOr("category", err)
	}
	if !category.IsActive {
		return nil, apperrors.NewValidationError("category is inactive", map[string]any{"category_id": category.ID})
	}
	if _, err := s.refData.Priority(ctx, input.PriorityID); err != nil {
		return nil, notFoundOr("priority", err)
	}
	department, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, notFoundOr("department", err)
	}
	if !department.IsActive {
		return nil, apperrors.NewValidationError("department is inactive", map[string]any{"department_id": department.ID})
	}
	if input.TeamID != nil {
		team, err := s.teams.GetByID(ctx, *input.TeamID)
		if err != nil {
			return nil, notFoundOr("team", err)
		}
		if !team.IsActive {
			return nil, apperrors.NewValidationError("team is inactive", map[string]any{"team_id": team.ID})
		}
		if team.DepartmentID != input.DepartmentID {
			return nil, apperrors.NewValidationError("team does not belong to department", map[string]any{
				"team_id":       team.ID,
				"department_id": input.DepartmentID,
			})
		}
	}

	open, err := s.refData.StatusByName(ctx, domain.StatusOpen)
	if err != nil {
		return nil, notFoundOr("status", err)
	}

	ticket := &domain.Ticket{
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		CategoryID:   input.CategoryID,
		PriorityID:   input.PriorityID,
		StatusID:     open.ID,
		CreatedByID:  principal.UserID,
		DepartmentID: input.DepartmentID,
		TeamID:       input.TeamID,
	}
	if input.AssigneeID != nil {
		decision := policy.Authorize(principal, policy.ActionAssign, ticket)
		if !decision.Allowed {
			return nil, apperrors.NewForbidden("not allowed to assign on creation")
		}
		if err := s.validateAssignee(ctx, ticket, *input.AssigneeID); err != nil {
			return nil, err
		}
		ticket.AssignedToID = input.AssigneeID
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  principal.UserID,
		Payload: events.TicketCreatedPayload{
			DepartmentID: ticket.DepartmentID,
			TeamID:       ticket.TeamID,
			PriorityID:   ticket.PriorityID,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// Get fetches a ticket enforcing read scope.
func (s *TicketService) Get(ctx context.Context, principal *domain.Principal, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, policy.ActionRead, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// List returns tickets visible to the principal, narrowed by the
// requested filters.
func (s *TicketService) List(ctx context.Context, principal *domain.Principal, requested query.RequestedFilter) ([]domain.Ticket, error) {
	filter, err := query.BuildFilter(principal, requested)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// CountByStatus aggregates visible tickets per status id.
func (s *TicketService) CountByStatus(ctx context.Context, principal *domain.Principal, requested query.RequestedFilter) (map[string]int64, error) {
	filter, err := query.BuildFilter(principal, requested)
	if err != nil {
		return nil, err
	}
	counts, err := s.tickets.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

// CountByPriority aggregates visible tickets per priority id.
func (s *TicketService) CountByPriority(ctx context.Context, principal *domain.Principal, requested query.RequestedFilter) (map[string]int64, error) {
	filter, err := query.BuildFilter(principal, requested)
	if err != nil {
		return nil, err
	}
	counts, err := s.tickets.CountByPriority(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return counts, nil
}

// Assign sets the assignee and moves an Open ticket to InProgress.
func (s *TicketService) Assign(ctx context.Context, principal *domain.Principal, ticketID, assigneeID string) (*domain.Ticket, error) {
	return s.changeAssignee(ctx, principal, policy.ActionAssign, ticketID, &assigneeID)
}

// Unassign clears the assignee without touching the status.
func (s *TicketService) Unassign(ctx context.Context, principal *domain.Principal, ticketID string) (*domain.Ticket, error) {
	return s.changeAssignee(ctx, principal, policy.ActionUnassign, ticketID, nil)
}

// Reassign swaps the assignee in a single write: a concurrent reader never
// observes the ticket unassigned in between.
func (s *TicketService) Reassign(ctx context.Context, principal *domain.Principal, ticketID, newAssigneeID string) (*domain.Ticket, error) {
	return s.changeAssignee(ctx, principal, policy.ActionReassign, ticketID, &newAssigneeID)
}

func (s *TicketService) changeAssignee(ctx context.Context, principal *domain.Principal, action policy.Action, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, action, ticket); err != nil {
		return nil, err
	}
	if err := s.revalidateRefs(ctx, ticket); err != nil {
		return nil, err
	}
	if assigneeID != nil {
		if err := s.validateAssignee(ctx, ticket, *assigneeID); err != nil {
			return nil, err
		}
	}

	currentName, err := s.statusName(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if domain.IsTerminalStatus(currentName) {
		return nil, apperrors.NewValidationError("ticket is in a terminal status", map[string]any{"status": currentName})
	}

	oldAssignee := ticket.AssignedToID
	ticket.AssignedToID = assigneeID

	audit := repository.MutationAudit{
		History: []domain.TicketHistory{assigneeHistory(principal.UserID, ticket.ID, oldAssignee, assigneeID)},
	}
	if assigneeID != nil && currentName == domain.StatusOpen {
		inProgress, err := s.refData.StatusByName(ctx, domain.StatusInProgress)
		if err != nil {
			return nil, notFoundOr("status", err)
		}
		audit.History = append(audit.History, statusHistory(principal.UserID, ticket.ID, currentName, domain.StatusInProgress, ""))
		audit.Comments = append(audit.Comments, systemComment(ticket.ID,
			fmt.Sprintf("status changed from %s to %s", currentName, domain.StatusInProgress)))
		ticket.StatusID = inProgress.ID
	}

	if err := s.saveTicket(ctx, ticket, audit); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  principal.UserID,
		Payload: events.TicketAssignedPayload{
			AssigneeID: ticket.AssignedToID,
			TeamID:     ticket.TeamID,
		},
	})
	return ticket, nil
}

// UpdateStatus transitions the ticket to the given status row, enforcing
// the lifecycle table and the scope policy.
func (s *TicketService) UpdateStatus(ctx context.Context, principal *domain.Principal, ticketID, newStatusID, comment string) (*domain.Ticket, error) {
	next, err := s.refData.Status(ctx, newStatusID)
	if err != nil {
		return nil, notFoundOr("status", err)
	}
	return s.transition(ctx, principal, ticketID, next, comment, false)
}

// Close moves the ticket to Closed. Legal from Resolved; admins and
// managers may close from any non-terminal state.
func (s *TicketService) Close(ctx context.Context, principal *domain.Principal, ticketID string) (*domain.Ticket, error) {
	return s.transitionByName(ctx, principal, ticketID, domain.StatusClosed, "", false)
}

// Reopen moves a Closed or Resolved ticket back to Open and clears the
// closed timestamp. This is the only way out of Closed; a generic status
// update to Open is rejected there.
func (s *TicketService) Reopen(ctx context.Context, principal *domain.Principal, ticketID string) (*domain.Ticket, error) {
	return s.transitionByName(ctx, principal, ticketID, domain.StatusOpen, "", true)
}

// Cancel moves the ticket to Cancelled. Beyond Open tickets this requires
// an admin or manager grant covering the ticket.
func (s *TicketService) Cancel(ctx context.Context, principal *domain.Principal, ticketID, reason string) (*domain.Ticket, error) {
	return s.transitionByName(ctx, principal, ticketID, domain.StatusCancelled, reason, false)
}

func (s *TicketService) transitionByName(ctx context.Context, principal *domain.Principal, ticketID, statusName, comment string, reopen bool) (*domain.Ticket, error) {
	next, err := s.refData.StatusByName(ctx, statusName)
	if err != nil {
		return nil, notFoundOr("status", err)
	}
	return s.transition(ctx, principal, ticketID, next, comment, reopen)
}

func (s *TicketService) transition(ctx context.Context, principal *domain.Principal, ticketID string, next *domain.Status, comment string, reopen bool) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	currentName, err := s.statusName(ctx, ticket)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(principal, transitionAction(currentName, next.Name), ticket); err != nil {
		return nil, err
	}
	if err := s.revalidateRefs(ctx, ticket); err != nil {
		return nil, err
	}

	if !transitionLegal(principal, ticket, currentName, next.Name, reopen) {
		return nil, apperrors.NewValidationError("illegal status transition", map[string]any{
			"from": currentName,
			"to":   next.Name,
		})
	}

	ticket.StatusID = next.ID
	if domain.IsTerminalStatus(next.Name) {
		now := time.Now()
		ticket.ClosedAt = &now
	} else {
		ticket.ClosedAt = nil
	}

	body := fmt.Sprintf("status changed from %s to %s", currentName, next.Name)
	if comment != "" {
		body += ": " + comment
	}
	audit := repository.MutationAudit{
		History:  []domain.TicketHistory{statusHistory(principal.UserID, ticket.ID, currentName, next.Name, comment)},
		Comments: []domain.TicketComment{systemComment(ticket.ID, body)},
	}
	if err := s.saveTicket(ctx, ticket, audit); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  principal.UserID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: currentName,
			NewStatus: next.Name,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// transitionAction maps a target status to the action the scope policy
// checks: closing, reopening and cancelling carry their own verbs.
func transitionAction(current, next string) policy.Action {
	switch {
	case next == domain.StatusClosed:
		return policy.ActionClose
	case next == domain.StatusCancelled:
		return policy.ActionCancel
	case next == domain.StatusOpen && lifecycle.CanReopen(current):
		return policy.ActionReopen
	default:
		return policy.ActionStatusChange
	}
}

func transitionLegal(principal *domain.Principal, ticket *domain.Ticket, current, next string, reopen bool) bool {
	if reopen {
		return lifecycle.CanReopen(current)
	}
	if lifecycle.CanTransition(current, next) {
		return true
	}
	if !policy.CanOverrideLifecycle(principal, ticket) {
		return false
	}
	switch next {
	case domain.StatusCancelled:
		return lifecycle.CanCancelOverride(current)
	case domain.StatusClosed:
		return lifecycle.CanCloseOverride(current)
	}
	return false
}

// UpdatePriority changes the priority. No state machine applies, but the
// scope check matches a status change.
func (s *TicketService) UpdatePriority(ctx context.Context, principal *domain.Principal, ticketID, newPriorityID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, policy.ActionPriorityChange, ticket); err != nil {
		return nil, err
	}
	if err := s.revalidateRefs(ctx, ticket); err != nil {
		return nil, err
	}
	if _, err := s.refData.Priority(ctx, newPriorityID); err != nil {
		return nil, notFoundOr("priority", err)
	}

	oldPriority := ticket.PriorityID
	ticket.PriorityID = newPriorityID
	audit := repository.MutationAudit{
		History: []domain.TicketHistory{{
			TicketID:    ticket.ID,
			ChangedByID: &principal.UserID,
			ChangeType:  domain.ChangeTypePriority,
			OldValue:    map[string]any{"priority_id": oldPriority},
			NewValue:    map[string]any{"priority_id": newPriorityID},
		}},
	}
	if err := s.saveTicket(ctx, ticket, audit); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		ActorID:  principal.UserID,
		Payload: events.TicketPriorityChangedPayload{
			OldPriorityID: oldPriority,
			NewPriorityID: newPriorityID,
		},
	})
	return ticket, nil
}

// AddComment appends a comment to a ticket's thread.
func (s *TicketService) AddComment(ctx context.Context, principal *domain.Principal, ticketID, body string) (*domain.TicketComment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, policy.ActionComment, ticket); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}

	authorID := principal.UserID
	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorType: domain.CommentAuthorUser,
		AuthorID:   &authorID,
		Body:       body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  principal.UserID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			BodyPreview: bodyPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// ListComments returns the ticket thread for a principal with read scope.
func (s *TicketService) ListComments(ctx context.Context, principal *domain.Principal, ticketID string) ([]domain.TicketComment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, policy.ActionRead, ticket); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// AddAttachment records attachment metadata for a ticket.
func (s *TicketService) AddAttachment(ctx context.Context, principal *domain.Principal, ticketID string, input AttachmentInput) (*domain.TicketAttachment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, policy.ActionComment, ticket); err != nil {
		return nil, err
	}
	if input.StorageKey == "" || input.FileName == "" {
		return nil, apperrors.NewValidationError("storage_key and file_name are required", nil)
	}
	attachment := &domain.TicketAttachment{
		TicketID:     ticket.ID,
		UploadedByID: principal.UserID,
		StorageKey:   input.StorageKey,
		FileName:     input.FileName,
		MimeType:     input.MimeType,
		SizeBytes:    input.SizeBytes,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// ListAttachments returns attachment metadata for a principal with read scope.
func (s *TicketService) ListAttachments(ctx context.Context, principal *domain.Principal, ticketID string) ([]domain.TicketAttachment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, policy.ActionRead, ticket); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

// SubmitFeedback records the requester's rating. Only the ticket creator
// may submit, only once, and only after the ticket is Resolved or Closed.
func (s *TicketService) SubmitFeedback(ctx context.Context, principal *domain.Principal, ticketID string, rating int, comment string) (*domain.TicketFeedback, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, policy.ActionFeedback, ticket); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	currentName, err := s.statusName(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if currentName != domain.StatusResolved && currentName != domain.StatusClosed {
		return nil, apperrors.NewValidationError("feedback requires a resolved or closed ticket", map[string]any{"status": currentName})
	}

	feedback := &domain.TicketFeedback{
		TicketID: ticket.ID,
		UserID:   principal.UserID,
		Rating:   rating,
		Comment:  strings.TrimSpace(comment),
	}
	if err := s.feedback.Create(ctx, feedback); err != nil {
		if errors.Is(err, repository.ErrDuplicateFeedback) {
			return nil, apperrors.NewConflict("feedback already submitted for this ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketFeedbackSubmitted,
		TicketID: ticket.ID,
		ActorID:  principal.UserID,
		Payload: events.TicketFeedbackSubmittedPayload{
			FeedbackID: feedback.ID,
			Rating:     feedback.Rating,
		},
	})
	return feedback, nil
}

// ListHistory returns audit entries for a principal with read scope.
func (s *TicketService) ListHistory(ctx context.Context, principal *domain.Principal, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(principal, policy.ActionRead, ticket); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) authorize(principal *domain.Principal, action policy.Action, ticket *domain.Ticket) error {
	if principal == nil || len(principal.Grants) == 0 {
		return apperrors.NewAuthentication("authentication required")
	}
	decision := policy.Authorize(principal, action, ticket)
	if !decision.Allowed {
		return apperrors.NewForbidden(fmt.Sprintf("action %s not allowed in current scope", action))
	}
	return nil
}

func (s *TicketService) statusName(ctx context.Context, ticket *domain.Ticket) (string, error) {
	status, err := s.refData.Status(ctx, ticket.StatusID)
	if err != nil {
		return "", notFoundOr("status", err)
	}
	return status.Name, nil
}

// validateAssignee checks the assignee exists, is active and holds an
// elevated grant scoped to the ticket's department (and team, when both
// grant and ticket carry one).
func (s *TicketService) validateAssignee(ctx context.Context, ticket *domain.Ticket, assigneeID string) error {
	user, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		return notFoundOr("assignee", err)
	}
	if !user.Active {
		return apperrors.NewValidationError("assignee is inactive", map[string]any{"assignee_id": assigneeID})
	}
	grants, err := s.grants.ListByUser(ctx, assigneeID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, grant := range grants {
		if grantCoversTicket(grant, ticket) {
			return nil
		}
	}
	return apperrors.NewValidationError("assignee is not an eligible agent for this ticket", map[string]any{
		"assignee_id":   assigneeID,
		"department_id": ticket.DepartmentID,
	})
}

func grantCoversTicket(grant domain.Grant, ticket *domain.Ticket) bool {
	switch grant.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleManager:
		return grant.DepartmentID != nil && *grant.DepartmentID == ticket.DepartmentID
	case domain.RoleAgent:
		if grant.DepartmentID == nil || *grant.DepartmentID != ticket.DepartmentID {
			return false
		}
		if grant.TeamID == nil || ticket.TeamID == nil {
			return true
		}
		return *grant.TeamID == *ticket.TeamID
	}
	return false
}

// revalidateRefs re-checks every foreign key of the ticket before a
// mutation is applied.
func (s *TicketService) revalidateRefs(ctx context.Context, ticket *domain.Ticket) error {
	if _, err := s.refData.Category(ctx, ticket.CategoryID); err != nil {
		return notFoundOr("category", err)
	}
	if _, err := s.refData.Priority(ctx, ticket.PriorityID); err != nil {
		return notFoundOr("priority", err)
	}
	if _, err := s.refData.Status(ctx, ticket.StatusID); err != nil {
		return notFoundOr("status", err)
	}
	if _, err := s.departments.GetByID(ctx, ticket.DepartmentID); err != nil {
		return notFoundOr("department", err)
	}
	if ticket.TeamID != nil {
		if _, err := s.teams.GetByID(ctx, *ticket.TeamID); err != nil {
			return notFoundOr("team", err)
		}
	}
	if ticket.AssignedToID != nil {
		if _, err := s.users.GetByID(ctx, *ticket.AssignedToID); err != nil {
			return notFoundOr("assignee", err)
		}
	}
	return nil
}

// saveTicket writes the versioned update plus its audit trail. A stale
// version means a concurrent mutation won; the caller must re-read and
// resubmit.
func (s *TicketService) saveTicket(ctx context.Context, ticket *domain.Ticket, audit repository.MutationAudit) error {
	err := s.tickets.Update(ctx, ticket, audit)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStaleVersion) {
		return apperrors.NewValidationError("ticket was modified concurrently, please retry", map[string]any{
			"ticket_id": ticket.ID,
		})
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return apperrors.MapError(err)
}

func statusHistory(actorID, ticketID, oldStatus, newStatus, comment string) domain.TicketHistory {
	newValue := map[string]any{"status": newStatus}
	if comment != "" {
		newValue["comment"] = comment
	}
	return domain.TicketHistory{
		TicketID:    ticketID,
		ChangedByID: &actorID,
		ChangeType:  domain.ChangeTypeStatus,
		OldValue:    map[string]any{"status": oldStatus},
		NewValue:    newValue,
	}
}

func assigneeHistory(actorID, ticketID string, oldAssignee, newAssignee *string) domain.TicketHistory {
	return domain.TicketHistory{
		TicketID:    ticketID,
		ChangedByID: &actorID,
		ChangeType:  domain.ChangeTypeAssignee,
		OldValue:    map[string]any{"assignee_id": oldAssignee},
		NewValue:    map[string]any{"assignee_id": newAssignee},
	}
}

func systemComment(ticketID, body string) domain.TicketComment {
	return domain.TicketComment{
		TicketID:   ticketID,
		AuthorType: domain.CommentAuthorSystem,
		Body:       body,
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func bodyPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	cut := max
	if max > 3 {
		cut = max - 3
	}
	// never split a multi-byte rune at the cut point
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	if max <= 3 {
		return body[:cut]
	}
	return body[:cut] + "..."
}

func notFoundOr(resource string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.MapError(err)
}
