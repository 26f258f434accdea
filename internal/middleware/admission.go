package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/martin13396/secure-media-library/internal/ipfilter"
	"github.com/martin13396/secure-media-library/pkg/response"
)

const (
	// OriginAddressKey is the context key for the resolved client address
	OriginAddressKey = "origin_address"

	admissionDeniedMessage = "Access denied: VPN required"
)

// ClientAddr resolves the request's origin. The service runs behind a
// trusted reverse proxy, so proxy headers win; a headerless request is
// local traffic.
func ClientAddr(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return "127.0.0.1"
}

// OriginAddress returns the admitted origin stored by Admission
func OriginAddress(c *gin.Context) string {
	if v, exists := c.Get(OriginAddressKey); exists {
		if addr, ok := v.(string); ok {
			return addr
		}
	}
	return ""
}

// Admission rejects requests from outside the allow list before any other
// processing. The denial is a fixed answer; nothing about the request body
// or headers is inspected first.
func Admission(filter *ipfilter.Filter) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := ClientAddr(c)
		if !filter.AllowedString(addr) {
			response.AbortError(c, http.StatusForbidden, response.CodeOriginRejected, admissionDeniedMessage)
			return
		}

		c.Set(OriginAddressKey, addr)
		c.Next()
	}
}
