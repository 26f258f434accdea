// Package response provides the standard HTTP response envelopes.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Error codes returned by the API. Clients key their behavior (re-login,
// refresh, retry) off the code, not the HTTP status.
const (
	CodeOriginRejected     = "SEC_001"
	CodeMissingToken       = "AUTH_001"
	CodeMalformedToken     = "AUTH_002"
	CodeExpiredToken       = "AUTH_003"
	CodeDeadSession        = "AUTH_004"
	CodeCurrentSession     = "AUTH_005"
	CodeInvalidCredentials = "AUTH_006"
	CodeBadRequest         = "REQUEST_001"
	CodeMediaNotFound      = "MEDIA_001"
	CodeAssetNotFound      = "MEDIA_002"
	CodeInternal           = "SYSTEM_001"
)

// ErrorBody is the inner error object of every failure response.
type ErrorBody struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEnvelope wraps ErrorBody under the "error" key.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// Success sends a 200 response with the given payload
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response with the given payload
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error envelope with the given status and code
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorEnvelope{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			Timestamp: time.Now().UTC(),
		},
	})
}

// AbortError sends an error envelope and aborts the handler chain
func AbortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			Timestamp: time.Now().UTC(),
		},
	})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, code, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, code, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden sends a 403 error
func Forbidden(c *gin.Context, code, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// NotFound sends a 404 error
func NotFound(c *gin.Context, code, message string) {
	Error(c, http.StatusNotFound, code, message)
}

// InternalError sends a 500 error with the generic system code
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeInternal, message)
}
