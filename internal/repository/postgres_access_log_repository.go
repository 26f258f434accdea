package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/martin13396/secure-media-library/internal/domain"
)

// PostgresAccessLogRepository implements AccessLogRepository using PostgreSQL
type PostgresAccessLogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAccessLogRepository creates a new PostgresAccessLogRepository
func NewPostgresAccessLogRepository(pool *pgxpool.Pool) *PostgresAccessLogRepository {
	return &PostgresAccessLogRepository{pool: pool}
}

// Insert records one audit row
func (r *PostgresAccessLogRepository) Insert(ctx context.Context, entry *domain.AccessLogEntry) error {
	query := `
		INSERT INTO access_logs (id, user_id, session_id, media_id, action, ip_address,
			vpn_ip_address, user_agent, duration_ms, bytes_served, status_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.SessionID,
		entry.MediaID,
		entry.Action,
		entry.IPAddress,
		entry.VPNIPAddress,
		entry.UserAgent,
		entry.DurationMS,
		entry.BytesServed,
		entry.StatusCode,
		entry.CreatedAt,
	)
	return err
}
