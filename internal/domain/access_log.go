package domain

import (
	"time"
)

// AccessAction labels what a media request did
type AccessAction string

const (
	ActionStream    AccessAction = "stream"
	ActionView      AccessAction = "view"
	ActionThumbnail AccessAction = "thumbnail"
	ActionPreview   AccessAction = "preview"
	ActionSegment   AccessAction = "segment"
	ActionKey       AccessAction = "key"
)

// AccessLogEntry is one audit row for a media request. VPNIPAddress holds
// the origin verbatim when it came from the VPN subnet, the sentinel
// address otherwise.
type AccessLogEntry struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	SessionID    string       `json:"session_id"`
	MediaID      string       `json:"media_id"`
	Action       AccessAction `json:"action"`
	IPAddress    string       `json:"ip_address"`
	VPNIPAddress string       `json:"vpn_ip_address"`
	UserAgent    string       `json:"user_agent"`
	DurationMS   int64        `json:"duration_ms"`
	BytesServed  int64        `json:"bytes_served"`
	StatusCode   int          `json:"status_code"`
	CreatedAt    time.Time    `json:"created_at"`
}
