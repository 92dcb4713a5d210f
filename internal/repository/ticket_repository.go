package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/policy"
)

// ErrStaleVersion is returned when a versioned update finds the ticket
// already changed by a concurrent writer.
var ErrStaleVersion = errors.New("ticket version is stale")

// TicketFilter captures effective listing parameters: caller-supplied
// filters already intersected with the principal's visibility scope.
type TicketFilter struct {
	StatusIDs     []string
	PriorityIDs   []string
	CategoryIDs   []string
	DepartmentIDs []string
	TeamIDs       []string
	AssignedToID  *string
	CreatedByID   *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time

	// visibility scope; ignored when ScopeAll is set
	ScopeAll           bool
	ScopeDepartmentIDs []string
	ScopeTeams         []policy.TeamScope
	ScopeCreatorIDs    []string

	// Empty marks a filter whose scope intersection cannot match anything;
	// queries short-circuit to an empty result.
	Empty bool

	Limit  int
	Offset int
}

// MutationAudit bundles the audit side effects written atomically with a
// ticket mutation.
type MutationAudit struct {
	History  []domain.TicketHistory
	Comments []domain.TicketComment
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// Update writes the ticket guarded by its Version and persists the
	// audit trail in the same transaction. Returns ErrStaleVersion when a
	// concurrent writer got there first, pgx.ErrNoRows when the ticket is
	// gone.
	Update(ctx context.Context, ticket *domain.Ticket, audit MutationAudit) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, filter TicketFilter) (map[string]int64, error)
	CountByPriority(ctx context.Context, filter TicketFilter) (map[string]int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, description, category_id, priority_id, status_id,
               created_by, assigned_to, department_id, team_id, version,
               created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category_id, priority_id, status_id,
                             created_by, assigned_to, department_id, team_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.PriorityID,
		ticket.StatusID,
		ticket.CreatedByID,
		ticket.AssignedToID,
		ticket.DepartmentID,
		ticket.TeamID,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, audit MutationAudit) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE tickets SET category_id=$1, priority_id=$2, status_id=$3, assigned_to=$4,
            team_id=$5, title=$6, description=$7, closed_at=$8,
            version=version+1, updated_at=NOW()
        WHERE id=$9 AND version=$10
        RETURNING version, updated_at`
	if err := tx.QueryRow(ctx, query,
		ticket.CategoryID,
		ticket.PriorityID,
		ticket.StatusID,
		ticket.AssignedToID,
		ticket.TeamID,
		ticket.Title,
		ticket.Description,
		ticket.ClosedAt,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifyMissedUpdate(ctx, ticket.ID)
		}
		return err
	}

	for i := range audit.History {
		if err := insertHistoryTx(ctx, tx, &audit.History[i]); err != nil {
			return err
		}
	}
	for i := range audit.Comments {
		if err := insertCommentTx(ctx, tx, &audit.Comments[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// classifyMissedUpdate distinguishes a stale version from a missing row.
func (r *ticketRepository) classifyMissedUpdate(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStaleVersion
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	if filter.Empty {
		return []domain.Ticket{}, nil
	}
	clauses, args := buildClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountByStatus(ctx context.Context, filter TicketFilter) (map[string]int64, error) {
	return r.countByColumn(ctx, filter, "status_id")
}

func (r *ticketRepository) CountByPriority(ctx context.Context, filter TicketFilter) (map[string]int64, error) {
	return r.countByColumn(ctx, filter, "priority_id")
}

func (r *ticketRepository) countByColumn(ctx context.Context, filter TicketFilter, column string) (map[string]int64, error) {
	result := map[string]int64{}
	if filter.Empty {
		return result, nil
	}
	clauses, args := buildClauses(filter)
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM tickets WHERE %s GROUP BY %s`,
		column, strings.Join(clauses, " AND "), column)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		result[key] = count
	}
	return result, rows.Err()
}

func buildClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	inClause := func(column string, values []string) {
		placeholders := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")))
	}

	if len(filter.StatusIDs) > 0 {
		inClause("status_id", filter.StatusIDs)
	}
	if len(filter.PriorityIDs) > 0 {
		inClause("priority_id", filter.PriorityIDs)
	}
	if len(filter.CategoryIDs) > 0 {
		inClause("category_id", filter.CategoryIDs)
	}
	if len(filter.DepartmentIDs) > 0 {
		inClause("department_id", filter.DepartmentIDs)
	}
	if len(filter.TeamIDs) > 0 {
		inClause("team_id", filter.TeamIDs)
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	if !filter.ScopeAll {
		ors := []string{}
		if len(filter.ScopeDepartmentIDs) > 0 {
			placeholders := make([]string, len(filter.ScopeDepartmentIDs))
			for i, d := range filter.ScopeDepartmentIDs {
				args = append(args, d)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			ors = append(ors, fmt.Sprintf("department_id IN (%s)", strings.Join(placeholders, ",")))
		}
		for _, ts := range filter.ScopeTeams {
			args = append(args, ts.DepartmentID)
			deptArg := len(args)
			args = append(args, ts.TeamID)
			teamArg := len(args)
			ors = append(ors, fmt.Sprintf("(department_id=$%d AND (team_id=$%d OR team_id IS NULL))", deptArg, teamArg))
		}
		if len(filter.ScopeCreatorIDs) > 0 {
			placeholders := make([]string, len(filter.ScopeCreatorIDs))
			for i, u := range filter.ScopeCreatorIDs {
				args = append(args, u)
				placeholders[i] = fmt.Sprintf("$%d", len(args))
			}
			ors = append(ors, fmt.Sprintf("created_by IN (%s)", strings.Join(placeholders, ",")))
		}
		if len(ors) == 0 {
			// no visibility at all
			clauses = append(clauses, "1=0")
		} else {
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		}
	}

	return clauses, args
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.Title,
		&t.Description,
		&t.CategoryID,
		&t.PriorityID,
		&t.StatusID,
		&t.CreatedByID,
		&t.AssignedToID,
		&t.DepartmentID,
		&t.TeamID,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ClosedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
