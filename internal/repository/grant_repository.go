package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// GrantRepository manages the persisted source of truth for grants.
// Credentials carry a snapshot of these rows taken at login.
type GrantRepository interface {
	Create(ctx context.Context, userID string, grant domain.Grant) error
	Delete(ctx context.Context, userID string, grant domain.Grant) error
	ListByUser(ctx context.Context, userID string) ([]domain.Grant, error)
}

type grantRepository struct {
	pool *pgxpool.Pool
}

// NewGrantRepository constructs repository.
func NewGrantRepository(pool *pgxpool.Pool) GrantRepository {
	return &grantRepository{pool: pool}
}

func (r *grantRepository) Create(ctx context.Context, userID string, grant domain.Grant) error {
	const query = `
        INSERT INTO user_grants (user_id, role, department_id, team_id)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, query, userID, grant.Role, grant.DepartmentID, grant.TeamID)
	return err
}

func (r *grantRepository) Delete(ctx context.Context, userID string, grant domain.Grant) error {
	const query = `
        DELETE FROM user_grants
        WHERE user_id=$1 AND role=$2
          AND department_id IS NOT DISTINCT FROM $3
          AND team_id IS NOT DISTINCT FROM $4`
	cmd, err := r.pool.Exec(ctx, query, userID, grant.Role, grant.DepartmentID, grant.TeamID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *grantRepository) ListByUser(ctx context.Context, userID string) ([]domain.Grant, error) {
	const query = `
        SELECT role, department_id, team_id
        FROM user_grants WHERE user_id=$1 ORDER BY role`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Grant
	for rows.Next() {
		var grant domain.Grant
		if err := rows.Scan(&grant.Role, &grant.DepartmentID, &grant.TeamID); err != nil {
			return nil, err
		}
		result = append(result, grant)
	}
	return result, rows.Err()
}
