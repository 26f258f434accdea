package dto

import (
	"time"

	"github.com/martin13396/secure-media-library/internal/domain"
)

// LoginRequest is the login payload. Identifier matches email or username.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
	DeviceID   string `json:"device_id" binding:"required"`
	DeviceName string `json:"device_name"`
}

// RefreshRequest carries the refresh token to exchange
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest carries the refresh token identifying the session to revoke
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserSummary is the user shape returned on login
type UserSummary struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
}

// LoginResponse is the login result
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         UserSummary `json:"user"`
}

// RefreshResponse is the refresh result
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LogoutResponse reports how many sessions were revoked
type LogoutResponse struct {
	RevokedSessions int64 `json:"revoked_sessions"`
}

// SessionResponse is one entry in the sessions list
type SessionResponse struct {
	ID             string    `json:"id"`
	DeviceID       string    `json:"device_id"`
	DeviceName     string    `json:"device_name"`
	IPAddress      string    `json:"ip_address"`
	Current        bool      `json:"current"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewUserSummary builds a UserSummary from a domain user
func NewUserSummary(u *domain.User) UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}
