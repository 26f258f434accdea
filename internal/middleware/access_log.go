package middleware

import (
	"context"
	"net/netip"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/internal/repository"
	"github.com/martin13396/secure-media-library/pkg/logger"
	"github.com/martin13396/secure-media-library/pkg/retry"
)

// AccessLogger records the audit trail for media routes. Writes happen in a
// detached goroutine after the response is sent; a failed insert is logged
// and dropped, never surfaced to the client.
type AccessLogger struct {
	repo      repository.AccessLogRepository
	vpnSubnet netip.Prefix
	sentinel  string
	log       *logger.Logger
	retryCfg  *retry.Config
}

// NewAccessLogger creates a new AccessLogger. vpnSubnet and sentinel come
// from the security configuration.
func NewAccessLogger(
	repo repository.AccessLogRepository,
	vpnSubnet string,
	sentinel string,
	log *logger.Logger,
) (*AccessLogger, error) {
	prefix, err := netip.ParsePrefix(vpnSubnet)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get()
	}
	return &AccessLogger{
		repo:      repo,
		vpnSubnet: prefix,
		sentinel:  sentinel,
		log:       log,
		retryCfg: &retry.Config{
			MaxRetries:      2,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		},
	}, nil
}

// Record wraps a media route with audit logging for the given action
func (a *AccessLogger) Record(action domain.AccessAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := &domain.AccessLogEntry{
			ID:           uuid.New().String(),
			UserID:       UserID(c),
			SessionID:    SessionID(c),
			MediaID:      c.Param("id"),
			Action:       action,
			IPAddress:    OriginAddress(c),
			VPNIPAddress: a.normalizeVPN(OriginAddress(c)),
			UserAgent:    c.Request.UserAgent(),
			DurationMS:   time.Since(start).Milliseconds(),
			BytesServed:  int64(c.Writer.Size()),
			StatusCode:   c.Writer.Status(),
			CreatedAt:    start,
		}

		go a.write(entry)
	}
}

// write inserts the entry with its own deadline, detached from the request
func (a *AccessLogger) write(entry *domain.AccessLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := retry.Do(ctx, a.retryCfg, func(ctx context.Context) error {
		return a.repo.Insert(ctx, entry)
	})
	if err != nil {
		a.log.Error("access log insert failed",
			zap.String("media_id", entry.MediaID),
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}
}

// normalizeVPN keeps VPN subnet members verbatim and collapses every other
// origin to the sentinel address
func (a *AccessLogger) normalizeVPN(origin string) string {
	addr, err := netip.ParseAddr(origin)
	if err == nil && a.vpnSubnet.Contains(addr.Unmap()) {
		return origin
	}
	return a.sentinel
}
