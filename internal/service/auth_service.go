package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/internal/dto"
	"github.com/martin13396/secure-media-library/internal/repository"
	"github.com/martin13396/secure-media-library/pkg/logger"
	"github.com/martin13396/secure-media-library/pkg/telemetry"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is inactive")
)

// AuthServiceConfig holds credential checking configuration
type AuthServiceConfig struct {
	BcryptCost int
}

// AuthService authenticates credentials and manages the token lifecycle
type AuthService interface {
	// Login verifies credentials and opens (or replaces) the device session
	Login(ctx context.Context, req *dto.LoginRequest, originAddr string) (*dto.LoginResponse, error)
	// Refresh exchanges a refresh token for a new access token
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error)
	// Logout revokes the session behind the refresh token; all revokes
	// every session of the same user
	Logout(ctx context.Context, refreshToken string, all bool) (int64, error)
}

type authService struct {
	userRepo repository.UserRepository
	sessions SessionService
	tokens   *TokenManager
	log      *logger.Logger

	// dummyHash absorbs a bcrypt compare when the identifier is unknown,
	// so both failure paths cost the same
	dummyHash []byte
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	sessions SessionService,
	tokens *TokenManager,
	config *AuthServiceConfig,
	log *logger.Logger,
) (AuthService, error) {
	cost := bcrypt.DefaultCost
	if config != nil && config.BcryptCost > 0 {
		cost = config.BcryptCost
	}
	if log == nil {
		log = logger.Get()
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		return nil, err
	}

	return &authService{
		userRepo:  userRepo,
		sessions:  sessions,
		tokens:    tokens,
		log:       log,
		dummyHash: dummyHash,
	}, nil
}

// Login verifies credentials and opens (or replaces) the device session
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, originAddr string) (*dto.LoginResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.login")
	defer span.End()

	user, err := s.authenticate(ctx, req.Identifier, req.Password)
	if err != nil {
		span.SetStatus(codes.Error, "invalid credentials")
		return nil, err
	}

	span.SetAttributes(attribute.String("user_id", user.ID))

	// Reserve the session id before signing so both tokens bind the final
	// id and are signed exactly once
	sessionID := uuid.New().String()

	tokenPair, err := s.tokens.IssueTokens(user, sessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if _, err := s.sessions.Create(ctx, CreateSessionParams{
		ID:            sessionID,
		UserID:        user.ID,
		DeviceID:      req.DeviceID,
		DeviceName:    req.DeviceName,
		OriginAddress: originAddr,
		RefreshToken:  tokenPair.RefreshToken,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.log.Warn("last login stamp failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	span.SetStatus(codes.Ok, "")
	return &dto.LoginResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
		User:         dto.NewUserSummary(user),
	}, nil
}

// Refresh exchanges a refresh token for a new access token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.refresh")
	defer span.End()

	if _, err := s.tokens.VerifyRefreshToken(refreshToken); err != nil {
		span.SetStatus(codes.Error, "refresh token rejected")
		return nil, err
	}

	session, err := s.sessions.ByRefreshToken(ctx, refreshToken)
	if err != nil {
		span.SetStatus(codes.Error, "session not found")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user_id", session.UserID),
		attribute.String("session_id", session.ID),
	)

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		span.SetStatus(codes.Error, "user inactive")
		return nil, ErrUserInactive
	}

	accessToken, err := s.tokens.IssueAccessToken(user, session.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := s.sessions.TouchActivity(ctx, session.ID); err != nil {
		s.log.Warn("session touch failed", zap.String("session_id", session.ID), zap.Error(err))
	}

	span.SetStatus(codes.Ok, "")
	return &dto.RefreshResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}

// Logout revokes the session behind the refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string, all bool) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.auth.logout")
	defer span.End()

	session, err := s.sessions.ByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			// Already logged out
			span.SetStatus(codes.Ok, "already logged out")
			return 0, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.String("user_id", session.UserID))

	if all {
		revoked, err := s.sessions.RevokeAll(ctx, session.UserID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}
		span.SetStatus(codes.Ok, "")
		return revoked, nil
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetStatus(codes.Ok, "")
	return 1, nil
}

// authenticate resolves the identifier and checks the password. The two
// failure paths return the same error and perform the same bcrypt work.
func (s *authService) authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
