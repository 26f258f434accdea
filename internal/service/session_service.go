package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/internal/repository"
	"github.com/martin13396/secure-media-library/pkg/logger"
	"github.com/martin13396/secure-media-library/pkg/telemetry"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// HashRefreshToken returns the SHA-256 hex digest stored in place of the
// raw refresh token.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CreateSessionParams carries everything needed to register a device login.
// ID is reserved by the caller before token signing.
type CreateSessionParams struct {
	ID            string
	UserID        string
	DeviceID      string
	DeviceName    string
	OriginAddress string
	RefreshToken  string
}

// SessionService is the dual-store session registry. Postgres rows are the
// truth; the Redis mirror only accelerates liveness checks.
type SessionService interface {
	// Create upserts the device's session row and writes the cache mirror
	Create(ctx context.Context, params CreateSessionParams) (*domain.Session, error)
	// ByRefreshToken resolves a live session from a raw refresh token
	ByRefreshToken(ctx context.Context, rawToken string) (*domain.Session, error)
	// Get returns the session row, or ErrSessionNotFound
	Get(ctx context.Context, id string) (*domain.Session, error)
	// TouchActivity stamps activity and re-arms the mirror TTL if present
	TouchActivity(ctx context.Context, id string) error
	// IsLive reports liveness: mirror hit, or durable row not yet expired
	IsLive(ctx context.Context, id string) (bool, error)
	// Revoke removes one session everywhere
	Revoke(ctx context.Context, id string) error
	// RevokeAll removes every session of the user, returning the count
	RevokeAll(ctx context.Context, userID string) (int64, error)
	// List returns the user's live sessions
	List(ctx context.Context, userID string) ([]*domain.Session, error)
}

type sessionService struct {
	repo  repository.SessionRepository
	cache repository.SessionCache
	ttl   time.Duration
	log   *logger.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	repo repository.SessionRepository,
	cache repository.SessionCache,
	refreshTTL time.Duration,
	log *logger.Logger,
) SessionService {
	if refreshTTL == 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if log == nil {
		log = logger.Get()
	}
	return &sessionService{
		repo:  repo,
		cache: cache,
		ttl:   refreshTTL,
		log:   log,
	}
}

// Create upserts the device's session row and writes the cache mirror
func (s *sessionService) Create(ctx context.Context, params CreateSessionParams) (*domain.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.session.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", params.UserID),
		attribute.String("session_id", params.ID),
	)

	now := time.Now()
	session := &domain.Session{
		ID:               params.ID,
		UserID:           params.UserID,
		DeviceID:         params.DeviceID,
		DeviceName:       params.DeviceName,
		IPAddress:        params.OriginAddress,
		RefreshTokenHash: HashRefreshToken(params.RefreshToken),
		LastActivityAt:   now,
		ExpiresAt:        now.Add(s.ttl),
		CreatedAt:        now,
	}

	if err := s.repo.Upsert(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Mirror write failure is tolerable; liveness falls through to Postgres
	if err := s.cache.Put(ctx, session.ID, &domain.CachedSession{
		UserID:        session.UserID,
		DeviceID:      session.DeviceID,
		OriginAddress: session.IPAddress,
	}); err != nil {
		s.log.Warn("session mirror write failed", zap.String("session_id", session.ID), zap.Error(err))
	}

	span.SetStatus(codes.Ok, "")
	return session, nil
}

// ByRefreshToken resolves a live session from a raw refresh token
func (s *sessionService) ByRefreshToken(ctx context.Context, rawToken string) (*domain.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.session.by_refresh_token")
	defer span.End()

	session, err := s.repo.GetByRefreshTokenHash(ctx, HashRefreshToken(rawToken))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if session == nil {
		span.SetStatus(codes.Error, "session not found")
		return nil, ErrSessionNotFound
	}

	span.SetAttributes(attribute.String("session_id", session.ID))
	span.SetStatus(codes.Ok, "")
	return session, nil
}

// Get returns the session row, or ErrSessionNotFound
func (s *sessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.session.get")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", id))

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if session == nil {
		span.SetStatus(codes.Error, "session not found")
		return nil, ErrSessionNotFound
	}

	span.SetStatus(codes.Ok, "")
	return session, nil
}

// TouchActivity stamps activity and re-arms the mirror TTL if present
func (s *sessionService) TouchActivity(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.session.touch")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", id))

	if err := s.repo.TouchActivity(ctx, id, time.Now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	// Refresh only extends an existing mirror entry; an evicted one is
	// repopulated by IsLive after a durable check, not here
	if err := s.cache.Refresh(ctx, id); err != nil {
		s.log.Warn("session mirror refresh failed", zap.String("session_id", id), zap.Error(err))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// IsLive reports liveness. Cache errors and misses both fall through to
// the durable store, and a live durable row repopulates the mirror.
func (s *sessionService) IsLive(ctx context.Context, id string) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.session.is_live")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", id))

	exists, err := s.cache.Exists(ctx, id)
	if err != nil {
		s.log.Warn("session mirror check failed", zap.String("session_id", id), zap.Error(err))
	} else if exists {
		span.SetStatus(codes.Ok, "")
		return true, nil
	}

	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	if session == nil || session.IsExpired(time.Now()) {
		span.SetStatus(codes.Ok, "dead")
		return false, nil
	}

	if err := s.cache.Put(ctx, id, &domain.CachedSession{
		UserID:        session.UserID,
		DeviceID:      session.DeviceID,
		OriginAddress: session.IPAddress,
	}); err != nil {
		s.log.Warn("session mirror repopulate failed", zap.String("session_id", id), zap.Error(err))
	}

	span.SetStatus(codes.Ok, "")
	return true, nil
}

// Revoke removes one session everywhere
func (s *sessionService) Revoke(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.session.revoke")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", id))

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn("session mirror delete failed", zap.String("session_id", id), zap.Error(err))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// RevokeAll removes every session of the user
func (s *sessionService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.session.revoke_all")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	ids, err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if err := s.cache.Delete(ctx, ids...); err != nil {
		s.log.Warn("session mirror delete failed", zap.String("user_id", userID), zap.Error(err))
	}

	span.SetAttributes(attribute.Int("revoked", len(ids)))
	span.SetStatus(codes.Ok, "")
	return int64(len(ids)), nil
}

// List returns the user's live sessions
func (s *sessionService) List(ctx context.Context, userID string) ([]*domain.Session, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.session.list")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	sessions, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return sessions, nil
}
