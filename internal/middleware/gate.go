package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/martin13396/secure-media-library/internal/service"
	"github.com/martin13396/secure-media-library/pkg/response"
)

// Context keys populated by Gate
const (
	UserIDKey    = "user_id"
	EmailKey     = "email"
	RoleKey      = "role"
	SessionIDKey = "session_id"
)

// Gate authenticates gated routes. Check order is fixed: bearer presence,
// token validity, then session liveness. The Admission middleware has
// already run; an origin that failed admission never reaches this point.
func Gate(tokens *service.TokenManager, sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortError(c, http.StatusUnauthorized, response.CodeMissingToken, "authorization required")
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			response.AbortError(c, http.StatusUnauthorized, response.CodeMalformedToken, "invalid authorization header")
			return
		}

		claims, err := tokens.VerifyAccessToken(tokenString)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				response.AbortError(c, http.StatusUnauthorized, response.CodeExpiredToken, "token expired")
				return
			}
			response.AbortError(c, http.StatusUnauthorized, response.CodeMalformedToken, "invalid token")
			return
		}

		live, err := sessions.IsLive(c.Request.Context(), claims.SessionID)
		if err != nil {
			response.AbortError(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
			return
		}
		if !live {
			response.AbortError(c, http.StatusUnauthorized, response.CodeDeadSession, "session expired or revoked")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(RoleKey, string(claims.Role))
		c.Set(SessionIDKey, claims.SessionID)

		c.Next()
	}
}

// UserID returns the authenticated user id set by Gate
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// SessionID returns the authenticated session id set by Gate
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
