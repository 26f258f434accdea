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

// SessionHandler handles the device sessions UI surface
type SessionHandler struct {
	sessions service.SessionService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List handles GET /api/auth/sessions
func (h *SessionHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	currentID := middleware.SessionID(c)

	sessions, err := h.sessions.List(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "failed to list sessions")
		return
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.SessionResponse{
			ID:             s.ID,
			DeviceID:       s.DeviceID,
			DeviceName:     s.DeviceName,
			IPAddress:      s.IPAddress,
			Current:        s.ID == currentID,
			LastActivityAt: s.LastActivityAt,
			ExpiresAt:      s.ExpiresAt,
			CreatedAt:      s.CreatedAt,
		})
	}

	response.Success(c, gin.H{"sessions": out})
}

// Revoke handles DELETE /api/auth/sessions/:id. The session carrying the
// request cannot revoke itself; that path is logout.
func (h *SessionHandler) Revoke(c *gin.Context) {
	id := c.Param("id")

	if id == middleware.SessionID(c) {
		response.BadRequest(c, response.CodeCurrentSession, "cannot delete current session")
		return
	}

	session, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFound(c, response.CodeDeadSession, "session not found")
			return
		}
		response.InternalError(c, "failed to load session")
		return
	}

	// Sessions are private to their owner
	if session.UserID != middleware.UserID(c) {
		response.NotFound(c, response.CodeDeadSession, "session not found")
		return
	}

	if err := h.sessions.Revoke(c.Request.Context(), id); err != nil {
		response.InternalError(c, "failed to revoke session")
		return
	}

	c.Status(http.StatusNoContent)
}
