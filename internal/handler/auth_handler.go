package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/martin13396/secure-media-library/internal/dto"
	"github.com/martin13396/secure-media-library/internal/middleware"
	"github.com/martin13396/secure-media-library/internal/service"
	"github.com/martin13396/secure-media-library/pkg/response"
)

// AuthHandler handles login, refresh, and logout
type AuthHandler struct {
	auth service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "invalid request body")
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req, middleware.OriginAddress(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, response.CodeInvalidCredentials, "invalid credentials")
			return
		}
		response.InternalError(c, "login failed")
		return
	}

	response.Success(c, resp)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "invalid request body")
		return
	}

	resp, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			response.Unauthorized(c, response.CodeExpiredToken, "refresh token expired")
		case errors.Is(err, service.ErrInvalidToken):
			response.Unauthorized(c, response.CodeMalformedToken, "invalid refresh token")
		case errors.Is(err, service.ErrSessionNotFound),
			errors.Is(err, service.ErrUserNotFound),
			errors.Is(err, service.ErrUserInactive):
			response.Unauthorized(c, response.CodeDeadSession, "session expired or revoked")
		default:
			response.InternalError(c, "refresh failed")
		}
		return
	}

	response.Success(c, resp)
}

// Logout handles POST /api/auth/logout. The all query flag revokes every
// device of the same user.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "invalid request body")
		return
	}

	all := c.Query("all") == "true"

	revoked, err := h.auth.Logout(c.Request.Context(), req.RefreshToken, all)
	if err != nil {
		response.InternalError(c, "logout failed")
		return
	}

	c.JSON(http.StatusOK, dto.LogoutResponse{RevokedSessions: revoked})
}
