package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martin13396/secure-media-library/internal/domain"
)

// PostgresEncryptionKeyRepository implements EncryptionKeyRepository using PostgreSQL
type PostgresEncryptionKeyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEncryptionKeyRepository creates a new PostgresEncryptionKeyRepository
func NewPostgresEncryptionKeyRepository(pool *pgxpool.Pool) *PostgresEncryptionKeyRepository {
	return &PostgresEncryptionKeyRepository{pool: pool}
}

// GetByID retrieves a content key by ID
func (r *PostgresEncryptionKeyRepository) GetByID(ctx context.Context, id string) (*domain.EncryptionKey, error) {
	query := `
		SELECT id, key_value, algorithm, is_active, rotated_at
		FROM encryption_keys
		WHERE id = $1
	`
	key := &domain.EncryptionKey{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&key.ID,
		&key.KeyValue,
		&key.Algorithm,
		&key.IsActive,
		&key.RotatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return key, nil
}
