package domain

import (
	"time"
)

// Session represents one device's refresh grant. The raw refresh token is
// never stored; only its SHA-256 hex digest.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	DeviceID         string    `json:"device_id"`
	DeviceName       string    `json:"device_name"`
	IPAddress        string    `json:"ip_address"`
	RefreshTokenHash string    `json:"-"`
	LastActivityAt   time.Time `json:"last_activity_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsExpired reports whether the session has passed its durable expiry
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// CachedSession is the Redis mirror of a live session. It exists only to
// make liveness checks cheap; the sessions table remains the truth.
type CachedSession struct {
	UserID        string `json:"user_id"`
	DeviceID      string `json:"device_id"`
	OriginAddress string `json:"origin_address"`
}
