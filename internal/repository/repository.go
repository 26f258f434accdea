// Package repository defines the persistence ports and their Postgres and
// Redis implementations. Postgres implementations return (nil, nil) when a
// row does not exist; absence is not an error at this layer.
package repository

import (
	"context"
	"time"

	"github.com/martin13396/secure-media-library/internal/domain"
)

// UserRepository accesses user accounts
type UserRepository interface {
	// GetByIdentifier finds an active user whose email or username matches
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionRepository is the durable session registry
type SessionRepository interface {
	// Upsert inserts the session or, when (user_id, device_id) already has a
	// row, replaces its refresh hash, expiry, and metadata in place
	Upsert(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByRefreshTokenHash(ctx context.Context, hash string) (*domain.Session, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Session, error)
	TouchActivity(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	// DeleteByUserID removes every session of the user and returns the ids removed
	DeleteByUserID(ctx context.Context, userID string) ([]string, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionCache is the Redis liveness mirror. All methods must degrade
// gracefully; callers treat errors as cache misses.
type SessionCache interface {
	Put(ctx context.Context, id string, cached *domain.CachedSession) error
	Exists(ctx context.Context, id string) (bool, error)
	// Refresh re-arms the TTL only if the entry is still present
	Refresh(ctx context.Context, id string) error
	Delete(ctx context.Context, ids ...string) error
}

// MediaRepository accesses the media library
type MediaRepository interface {
	GetByID(ctx context.Context, id string) (*domain.MediaFile, error)
	List(ctx context.Context, filter MediaFilter) ([]*domain.MediaFile, int64, error)
	SetFavorite(ctx context.Context, id string, favorite bool) error
}

// MediaFilter narrows and pages a library listing
type MediaFilter struct {
	FileType  string
	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}

// EncryptionKeyRepository accesses content keys
type EncryptionKeyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.EncryptionKey, error)
}

// AccessLogRepository records the audit trail
type AccessLogRepository interface {
	Insert(ctx context.Context, entry *domain.AccessLogEntry) error
}
