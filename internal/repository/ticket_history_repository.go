package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketHistoryRepository manages immutable audit entries.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository constructs repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, ticket_id, changed_by, change_type, old_value, new_value, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, ticketID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var entry domain.TicketHistory
		var oldRaw, newRaw []byte
		if err := rows.Scan(&entry.ID, &entry.TicketID, &entry.ChangedByID, &entry.ChangeType, &oldRaw, &newRaw, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(oldRaw) > 0 {
			if err := json.Unmarshal(oldRaw, &entry.OldValue); err != nil {
				return nil, err
			}
		}
		if len(newRaw) > 0 {
			if err := json.Unmarshal(newRaw, &entry.NewValue); err != nil {
				return nil, err
			}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// insertHistoryTx writes an audit entry inside an open mutation
// transaction. History rows are only ever written alongside the ticket
// change they describe.
func insertHistoryTx(ctx context.Context, tx pgx.Tx, entry *domain.TicketHistory) error {
	oldRaw, err := json.Marshal(entry.OldValue)
	if err != nil {
		return err
	}
	newRaw, err := json.Marshal(entry.NewValue)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO ticket_history (ticket_id, changed_by, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		entry.TicketID,
		entry.ChangedByID,
		entry.ChangeType,
		oldRaw,
		newRaw,
	).Scan(&entry.ID, &entry.CreatedAt)
}
