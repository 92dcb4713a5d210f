package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// in-memory ticket repository

type mockTicketRepo struct {
	tickets  map[string]*domain.Ticket
	history  []domain.TicketHistory
	comments []domain.TicketComment
	seq      int
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (m *mockTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	m.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", m.seq)
	ticket.Version = 1
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copy := *ticket
	m.tickets[ticket.ID] = &copy
	return nil
}

func (m *mockTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	stored, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *stored
	return &copy, nil
}

func (m *mockTicketRepo) Update(_ context.Context, ticket *domain.Ticket, audit repository.MutationAudit) error {
	stored, ok := m.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		return repository.ErrStaleVersion
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	copy := *ticket
	m.tickets[ticket.ID] = &copy
	m.history = append(m.history, audit.History...)
	m.comments = append(m.comments, audit.Comments...)
	return nil
}

func (m *mockTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if filter.Empty {
		return nil, nil
	}
	var result []domain.Ticket
	for _, t := range m.tickets {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTicketRepo) CountByStatus(_ context.Context, filter repository.TicketFilter) (map[string]int64, error) {
	counts := map[string]int64{}
	if filter.Empty {
		return counts, nil
	}
	for _, t := range m.tickets {
		counts[t.StatusID]++
	}
	return counts, nil
}

func (m *mockTicketRepo) CountByPriority(_ context.Context, filter repository.TicketFilter) (map[string]int64, error) {
	counts := map[string]int64{}
	if filter.Empty {
		return counts, nil
	}
	for _, t := range m.tickets {
		counts[t.PriorityID]++
	}
	return counts, nil
}

// in-memory comment repository

type mockCommentRepo struct {
	comments []domain.TicketComment
	seq      int
}

func (m *mockCommentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	m.seq++
	comment.ID = fmt.Sprintf("comment-%d", m.seq)
	comment.CreatedAt = time.Now()
	m.comments = append(m.comments, *comment)
	return nil
}

func (m *mockCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	var result []domain.TicketComment
	for _, c := range m.comments {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	return result, nil
}

// in-memory attachment repository

type mockAttachmentRepo struct {
	attachments []domain.TicketAttachment
	seq         int
}

func (m *mockAttachmentRepo) Create(_ context.Context, attachment *domain.TicketAttachment) error {
	m.seq++
	attachment.ID = fmt.Sprintf("att-%d", m.seq)
	attachment.CreatedAt = time.Now()
	m.attachments = append(m.attachments, *attachment)
	return nil
}

func (m *mockAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	var result []domain.TicketAttachment
	for _, a := range m.attachments {
		if a.TicketID == ticketID {
			result = append(result, a)
		}
	}
	return result, nil
}

// in-memory feedback repository

type mockFeedbackRepo struct {
	feedback []domain.TicketFeedback
	seq      int
}

func (m *mockFeedbackRepo) Create(_ context.Context, fb *domain.TicketFeedback) error {
	for _, existing := range m.feedback {
		if existing.TicketID == fb.TicketID && existing.UserID == fb.UserID {
			return repository.ErrDuplicateFeedback
		}
	}
	m.seq++
	fb.ID = fmt.Sprintf("fb-%d", m.seq)
	fb.CreatedAt = time.Now()
	m.feedback = append(m.feedback, *fb)
	return nil
}

func (m *mockFeedbackRepo) GetByTicketAndUser(_ context.Context, ticketID, userID string) (*domain.TicketFeedback, error) {
	for _, fb := range m.feedback {
		if fb.TicketID == ticketID && fb.UserID == userID {
			copy := fb
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockFeedbackRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketFeedback, error) {
	var result []domain.TicketFeedback
	for _, fb := range m.feedback {
		if fb.TicketID == ticketID {
			result = append(result, fb)
		}
	}
	return result, nil
}

// in-memory history repository

type mockHistoryRepo struct {
	ticketRepo *mockTicketRepo
}

func (m *mockHistoryRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, h := range m.ticketRepo.history {
		if h.TicketID == ticketID {
			result = append(result, h)
		}
	}
	return result, nil
}

// in-memory account and org repositories

type mockUserRepo struct {
	users map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*domain.User{}}
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	user.CreatedAt = time.Now()
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *u
	return &copy, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type mockGrantRepo struct {
	grants map[string][]domain.Grant
}

func newMockGrantRepo() *mockGrantRepo {
	return &mockGrantRepo{grants: map[string][]domain.Grant{}}
}

func (m *mockGrantRepo) Create(_ context.Context, userID string, grant domain.Grant) error {
	m.grants[userID] = append(m.grants[userID], grant)
	return nil
}

func (m *mockGrantRepo) Delete(_ context.Context, userID string, grant domain.Grant) error {
	kept := m.grants[userID][:0]
	for _, g := range m.grants[userID] {
		if g.Role != grant.Role || !ptrEq(g.DepartmentID, grant.DepartmentID) || !ptrEq(g.TeamID, grant.TeamID) {
			kept = append(kept, g)
		}
	}
	m.grants[userID] = kept
	return nil
}

func (m *mockGrantRepo) ListByUser(_ context.Context, userID string) ([]domain.Grant, error) {
	return m.grants[userID], nil
}

func ptrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type mockDepartmentRepo struct {
	departments map[string]*domain.Department
}

func newMockDepartmentRepo() *mockDepartmentRepo {
	return &mockDepartmentRepo{departments: map[string]*domain.Department{}}
}

func (m *mockDepartmentRepo) Create(_ context.Context, d *domain.Department) error {
	if d.ID == "" {
		d.ID = "dept-" + d.Name
	}
	copy := *d
	m.departments[d.ID] = &copy
	return nil
}

func (m *mockDepartmentRepo) Update(_ context.Context, d *domain.Department) error {
	if _, ok := m.departments[d.ID]; !ok {
		return pgx.ErrNoRows
	}
	copy := *d
	m.departments[d.ID] = &copy
	return nil
}

func (m *mockDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	d, ok := m.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *d
	return &copy, nil
}

func (m *mockDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	for _, d := range m.departments {
		result = append(result, *d)
	}
	return result, nil
}

type mockTeamRepo struct {
	teams map[string]*domain.Team
}

func newMockTeamRepo() *mockTeamRepo {
	return &mockTeamRepo{teams: map[string]*domain.Team{}}
}

func (m *mockTeamRepo) Create(_ context.Context, team *domain.Team) error {
	if team.ID == "" {
		team.ID = "team-" + team.Name
	}
	copy := *team
	m.teams[team.ID] = &copy
	return nil
}

func (m *mockTeamRepo) Update(_ context.Context, team *domain.Team) error {
	if _, ok := m.teams[team.ID]; !ok {
		return pgx.ErrNoRows
	}
	copy := *team
	m.teams[team.ID] = &copy
	return nil
}

func (m *mockTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	team, ok := m.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copy := *team
	return &copy, nil
}

func (m *mockTeamRepo) ListByDepartment(_ context.Context, departmentID string) ([]domain.Team, error) {
	var result []domain.Team
	for _, team := range m.teams {
		if team.DepartmentID == departmentID {
			result = append(result, *team)
		}
	}
	return result, nil
}

// in-memory reference data

type mockRefData struct {
	categories map[string]*domain.Category
	priorities map[string]*domain.Priority
	statuses   map[string]*domain.Status
}

func newMockRefData() *mockRefData {
	m := &mockRefData{
		categories: map[string]*domain.Category{},
		priorities: map[string]*domain.Priority{},
		statuses:   map[string]*domain.Status{},
	}
	for _, name := range []string{
		domain.StatusOpen, domain.StatusInProgress, domain.StatusPending,
		domain.StatusResolved, domain.StatusClosed, domain.StatusCancelled,
	} {
		m.statuses["status-"+name] = &domain.Status{ID: "status-" + name, Name: name}
	}
	m.categories["cat-1"] = &domain.Category{ID: "cat-1", Name: "General", IsActive: true}
	m.priorities["prio-1"] = &domain.Priority{ID: "prio-1", Name: "MEDIUM", Weight: 20}
	return m
}

func (m *mockRefData) Category(_ context.Context, id string) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockRefData) Priority(_ context.Context, id string) (*domain.Priority, error) {
	p, ok := m.priorities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockRefData) Status(_ context.Context, id string) (*domain.Status, error) {
	s, ok := m.statuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (m *mockRefData) StatusByName(_ context.Context, name string) (*domain.Status, error) {
	for _, s := range m.statuses {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}
