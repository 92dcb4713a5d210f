package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ErrDuplicateFeedback is returned when a (ticket, user) pair already has
// a feedback entry.
var ErrDuplicateFeedback = errors.New("feedback already submitted")

// FeedbackRepository manages at-most-one-per-(ticket,user) feedback rows.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.TicketFeedback) error
	GetByTicketAndUser(ctx context.Context, ticketID, userID string) (*domain.TicketFeedback, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketFeedback, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository constructs repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.TicketFeedback) error {
	const query = `
        INSERT INTO ticket_feedback (ticket_id, user_id, rating, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		feedback.TicketID,
		feedback.UserID,
		feedback.Rating,
		feedback.Comment,
	).Scan(&feedback.ID, &feedback.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateFeedback
		}
		return err
	}
	return nil
}

func (r *feedbackRepository) GetByTicketAndUser(ctx context.Context, ticketID, userID string) (*domain.TicketFeedback, error) {
	const query = `
        SELECT id, ticket_id, user_id, rating, comment, created_at
        FROM ticket_feedback WHERE ticket_id=$1 AND user_id=$2`
	var feedback domain.TicketFeedback
	if err := r.pool.QueryRow(ctx, query, ticketID, userID).Scan(
		&feedback.ID,
		&feedback.TicketID,
		&feedback.UserID,
		&feedback.Rating,
		&feedback.Comment,
		&feedback.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (r *feedbackRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketFeedback, error) {
	const query = `
        SELECT id, ticket_id, user_id, rating, comment, created_at
        FROM ticket_feedback WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketFeedback
	for rows.Next() {
		var feedback domain.TicketFeedback
		if err := rows.Scan(&feedback.ID, &feedback.TicketID, &feedback.UserID, &feedback.Rating, &feedback.Comment, &feedback.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, feedback)
	}
	return result, rows.Err()
}
