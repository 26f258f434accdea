package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/martin13396/secure-media-library/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the JWT claims carried by both token classes. SessionID binds
// a token to its session row so revocation takes effect immediately.
type Claims struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	SessionID string      `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenManagerConfig holds signing configuration. Access and refresh
// secrets must differ.
type TokenManagerConfig struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

// TokenManager signs and verifies the two token classes
type TokenManager struct {
	config *TokenManagerConfig
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(config *TokenManagerConfig) *TokenManager {
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = 15 * time.Minute
	}
	if config.RefreshTokenTTL == 0 {
		config.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{config: config}
}

// AccessTokenTTL returns the access token lifetime
func (m *TokenManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenTTL
}

// RefreshTokenTTL returns the refresh token lifetime
func (m *TokenManager) RefreshTokenTTL() time.Duration {
	return m.config.RefreshTokenTTL
}

// IssueTokens signs one access and one refresh token bound to sessionID.
// The session id must be reserved before calling so both tokens carry the
// final id and are signed exactly once.
func (m *TokenManager) IssueTokens(user *domain.User, sessionID string) (*domain.TokenPair, error) {
	access, err := m.sign(user, sessionID, m.config.AccessSecret, m.config.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(user, sessionID, m.config.RefreshSecret, m.config.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.config.AccessTokenTTL.Seconds()),
	}, nil
}

// IssueAccessToken signs a fresh access token for an existing session
func (m *TokenManager) IssueAccessToken(user *domain.User, sessionID string) (string, error) {
	return m.sign(user, sessionID, m.config.AccessSecret, m.config.AccessTokenTTL)
}

// VerifyAccessToken parses and validates an access token
func (m *TokenManager) VerifyAccessToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, m.config.AccessSecret)
}

// VerifyRefreshToken parses and validates a refresh token
func (m *TokenManager) VerifyRefreshToken(tokenString string) (*Claims, error) {
	return m.verify(tokenString, m.config.RefreshSecret)
}

func (m *TokenManager) sign(user *domain.User, sessionID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (m *TokenManager) verify(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
