package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityworks/incident-service/internal/domain"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// IncidentFilter captures queue search parameters.
type IncidentFilter struct {
	ReporterID      *string
	CategoryID      *string
	AssignedAgentID *string
	Unassigned      bool
	Statuses        []workflow.Status
	Priorities      []workflow.Priority
	SearchTerm      *string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Limit           int
	Offset          int
}

// IncidentRepository encapsulates incident persistence.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Update(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Incident, error)
	ListWithFilter(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error)
	CountByStatus(ctx context.Context) (map[workflow.Status]int64, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
	CountByPriority(ctx context.Context) (map[workflow.Priority]int64, error)
	AverageResolutionSeconds(ctx context.Context) (float64, error)
}

type incidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository instantiates repository.
func NewIncidentRepository(pool *pgxpool.Pool) IncidentRepository {
	return &incidentRepository{pool: pool}
}

func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	const query = `
        INSERT INTO incidents (external_key, reporter_user_id, category_id, title, description,
            status, priority, latitude, longitude, address, assigned_agent_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		incident.ExternalKey,
		incident.ReporterID,
		incident.CategoryID,
		incident.Title,
		incident.Description,
		incident.Status,
		incident.Priority,
		incident.Latitude,
		incident.Longitude,
		incident.Address,
		incident.AssignedAgentID,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
}

func (r *incidentRepository) Update(ctx context.Context, incident *domain.Incident) error {
	const query = `
        UPDATE incidents SET category_id=$1, title=$2, description=$3, status=$4, priority=$5,
            latitude=$6, longitude=$7, address=$8, assigned_agent_id=$9, resolved_at=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		incident.CategoryID,
		incident.Title,
		incident.Description,
		incident.Status,
		incident.Priority,
		incident.Latitude,
		incident.Longitude,
		incident.Address,
		incident.AssignedAgentID,
		incident.ResolvedAt,
		incident.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const incidentColumns = `id, external_key, reporter_user_id, category_id, title, description,
               status, priority, latitude, longitude, address, assigned_agent_id,
               created_at, updated_at, resolved_at`

func (r *incidentRepository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *incidentRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE external_key=$1`
	return r.fetchSingle(ctx, query, key)
}

func (r *incidentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Incident, error) {
	var incident domain.Incident
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&incident.ID,
		&incident.ExternalKey,
		&incident.ReporterID,
		&incident.CategoryID,
		&incident.Title,
		&incident.Description,
		&incident.Status,
		&incident.Priority,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Address,
		&incident.AssignedAgentID,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *incidentRepository) ListWithFilter(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error) {
	base := `SELECT ` + incidentColumns + ` FROM incidents`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_user_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AssignedAgentID != nil {
		args = append(args, *filter.AssignedAgentID)
		clauses = append(clauses, fmt.Sprintf("assigned_agent_id=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assigned_agent_id IS NULL")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(address) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY priority='HIGH' DESC, priority='MEDIUM' DESC, updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIncidents(rows)
}

func (r *incidentRepository) CountByStatus(ctx context.Context) (map[workflow.Status]int64, error) {
	const query = `SELECT status, COUNT(*) FROM incidents GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[workflow.Status]int64)
	for rows.Next() {
		var status workflow.Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}
	return result, rows.Err()
}

func (r *incidentRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	const query = `SELECT category_id, COUNT(*) FROM incidents GROUP BY category_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var categoryID string
		var count int64
		if err := rows.Scan(&categoryID, &count); err != nil {
			return nil, err
		}
		result[categoryID] = count
	}
	return result, rows.Err()
}

func (r *incidentRepository) CountByPriority(ctx context.Context) (map[workflow.Priority]int64, error) {
	const query = `SELECT priority, COUNT(*) FROM incidents GROUP BY priority`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[workflow.Priority]int64)
	for rows.Next() {
		var priority workflow.Priority
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		result[priority] = count
	}
	return result, rows.Err()
}

func (r *incidentRepository) AverageResolutionSeconds(ctx context.Context) (float64, error) {
	const query = `
        SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at))), 0)
        FROM incidents WHERE resolved_at IS NOT NULL`
	var avg float64
	if err := r.pool.QueryRow(ctx, query).Scan(&avg); err != nil {
		return 0, err
	}
	return avg, nil
}

func scanIncidents(rows pgx.Rows) ([]domain.Incident, error) {
	var result []domain.Incident
	for rows.Next() {
		var incident domain.Incident
		if err := rows.Scan(
			&incident.ID,
			&incident.ExternalKey,
			&incident.ReporterID,
			&incident.CategoryID,
			&incident.Title,
			&incident.Description,
			&incident.Status,
			&incident.Priority,
			&incident.Latitude,
			&incident.Longitude,
			&incident.Address,
			&incident.AssignedAgentID,
			&incident.CreatedAt,
			&incident.UpdatedAt,
			&incident.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, incident)
	}
	return result, rows.Err()
}
