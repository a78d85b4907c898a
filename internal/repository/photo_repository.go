package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cityworks/incident-service/internal/domain"
)

// PhotoRepository persists photo metadata for reports and evidence.
type PhotoRepository interface {
	Create(ctx context.Context, photo *domain.IncidentPhoto) error
	ListByIncident(ctx context.Context, incidentID string) ([]domain.IncidentPhoto, error)
	ListByIncidentAndKind(ctx context.Context, incidentID string, kind domain.PhotoKind) ([]domain.IncidentPhoto, error)
}

type photoRepository struct {
	pool *pgxpool.Pool
}

// NewPhotoRepository constructs repository.
func NewPhotoRepository(pool *pgxpool.Pool) PhotoRepository {
	return &photoRepository{pool: pool}
}

func (r *photoRepository) Create(ctx context.Context, photo *domain.IncidentPhoto) error {
	const query = `
        INSERT INTO incident_photos (incident_id, uploaded_by_id, kind, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		photo.IncidentID,
		photo.UploadedByID,
		photo.Kind,
		photo.StorageKey,
		photo.FileName,
		photo.MimeType,
		photo.SizeBytes,
	).Scan(&photo.ID, &photo.CreatedAt)
}

func (r *photoRepository) ListByIncident(ctx context.Context, incidentID string) ([]domain.IncidentPhoto, error) {
	const query = `
        SELECT id, incident_id, uploaded_by_id, kind, storage_key, file_name, mime_type, size_bytes, created_at
        FROM incident_photos WHERE incident_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPhotos(rows)
}

func (r *photoRepository) ListByIncidentAndKind(ctx context.Context, incidentID string, kind domain.PhotoKind) ([]domain.IncidentPhoto, error) {
	const query = `
        SELECT id, incident_id, uploaded_by_id, kind, storage_key, file_name, mime_type, size_bytes, created_at
        FROM incident_photos WHERE incident_id=$1 AND kind=$2 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, incidentID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPhotos(rows)
}

func scanPhotos(rows pgx.Rows) ([]domain.IncidentPhoto, error) {
	var result []domain.IncidentPhoto
	for rows.Next() {
		var photo domain.IncidentPhoto
		if err := rows.Scan(
			&photo.ID,
			&photo.IncidentID,
			&photo.UploadedByID,
			&photo.Kind,
			&photo.StorageKey,
			&photo.FileName,
			&photo.MimeType,
			&photo.SizeBytes,
			&photo.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, photo)
	}
	return result, rows.Err()
}
