package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martin13396/secure-media-library/internal/domain"
)

// PostgresMediaRepository implements MediaRepository using PostgreSQL
type PostgresMediaRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresMediaRepository creates a new PostgresMediaRepository
func NewPostgresMediaRepository(pool *pgxpool.Pool) *PostgresMediaRepository {
	return &PostgresMediaRepository{pool: pool}
}

const mediaColumns = `id, original_name, file_hash, file_type, mime_type, file_size_bytes,
	width, height, duration_seconds, is_favorite, storage_path, thumbnail_path,
	preview_path, encryption_key_id, processing_status, metadata, created_at, updated_at`

// sortColumns maps client sort keys to columns. Anything else falls back
// to created_at, never interpolating client input into SQL.
var sortColumns = map[string]string{
	"created_at":    "created_at",
	"original_name": "original_name",
	"file_size":     "file_size_bytes",
}

func scanMedia(row pgx.Row) (*domain.MediaFile, error) {
	m := &domain.MediaFile{}
	err := row.Scan(
		&m.ID,
		&m.OriginalName,
		&m.FileHash,
		&m.FileType,
		&m.MimeType,
		&m.FileSizeBytes,
		&m.Width,
		&m.Height,
		&m.DurationSeconds,
		&m.IsFavorite,
		&m.StoragePath,
		&m.ThumbnailPath,
		&m.PreviewPath,
		&m.EncryptionKeyID,
		&m.ProcessingStatus,
		&m.Metadata,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// GetByID retrieves a completed media file by ID
func (r *PostgresMediaRepository) GetByID(ctx context.Context, id string) (*domain.MediaFile, error) {
	query := `
		SELECT ` + mediaColumns + `
		FROM media_files
		WHERE id = $1 AND processing_status = 'completed'
	`
	return scanMedia(r.pool.QueryRow(ctx, query, id))
}

// List retrieves a page of completed media files and the total count
func (r *PostgresMediaRepository) List(ctx context.Context, filter MediaFilter) ([]*domain.MediaFile, int64, error) {
	where := `processing_status = 'completed'`
	args := []interface{}{}

	if filter.FileType != "" {
		args = append(args, filter.FileType)
		where += fmt.Sprintf(" AND file_type = $%d", len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM media_files WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := sortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT `+mediaColumns+`
		FROM media_files
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, where, sortCol, order, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*domain.MediaFile
	for rows.Next() {
		m := &domain.MediaFile{}
		err := rows.Scan(
			&m.ID,
			&m.OriginalName,
			&m.FileHash,
			&m.FileType,
			&m.MimeType,
			&m.FileSizeBytes,
			&m.Width,
			&m.Height,
			&m.DurationSeconds,
			&m.IsFavorite,
			&m.StoragePath,
			&m.ThumbnailPath,
			&m.PreviewPath,
			&m.EncryptionKeyID,
			&m.ProcessingStatus,
			&m.Metadata,
			&m.CreatedAt,
			&m.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

// SetFavorite updates the favorite flag
func (r *PostgresMediaRepository) SetFavorite(ctx context.Context, id string, favorite bool) error {
	query := `UPDATE media_files SET is_favorite = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, favorite)
	return err
}
