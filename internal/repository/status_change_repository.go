package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityworks/incident-service/internal/domain"
)

// StatusChangeRepository stores the append-only status audit trail.
type StatusChangeRepository interface {
	Create(ctx context.Context, change *domain.StatusChange) error
	ListByIncident(ctx context.Context, incidentID string) ([]domain.StatusChange, error)
}

type statusChangeRepository struct {
	pool *pgxpool.Pool
}

// NewStatusChangeRepository builds repository.
func NewStatusChangeRepository(pool *pgxpool.Pool) StatusChangeRepository {
	return &statusChangeRepository{pool: pool}
}

func (r *statusChangeRepository) Create(ctx context.Context, change *domain.StatusChange) error {
	const query = `
        INSERT INTO status_changes (incident_id, previous_status, new_status, changed_by_id, changed_by_role, comment, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		change.IncidentID,
		change.PreviousStatus,
		change.NewStatus,
		change.ChangedByID,
		change.ChangedByRole,
		change.Comment,
		change.CreatedAt,
	).Scan(&change.ID)
}

func (r *statusChangeRepository) ListByIncident(ctx context.Context, incidentID string) ([]domain.StatusChange, error) {
	const query = `
        SELECT id, incident_id, previous_status, new_status, changed_by_id, changed_by_role, comment, created_at
        FROM status_changes WHERE incident_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChange
	for rows.Next() {
		var change domain.StatusChange
		if err := rows.Scan(
			&change.ID,
			&change.IncidentID,
			&change.PreviousStatus,
			&change.NewStatus,
			&change.ChangedByID,
			&change.ChangedByRole,
			&change.Comment,
			&change.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}
