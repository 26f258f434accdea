package domain

import (
	"time"
)

// FileType classifies a media item
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
)

// ProcessingStatus tracks the ingestion pipeline state of a media item.
// Only completed items are visible through the API.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// MediaMetadata is the media_files.metadata JSONB payload. For videos it
// carries the hex IV the segments were encrypted with.
type MediaMetadata struct {
	IV           string `json:"iv,omitempty"`
	Codec        string `json:"codec,omitempty"`
	Bitrate      int64  `json:"bitrate,omitempty"`
	FrameRate    string `json:"frame_rate,omitempty"`
	HasAudio     bool   `json:"has_audio,omitempty"`
	SegmentCount int    `json:"segment_count,omitempty"`
}

// MediaFile represents one encrypted library item
type MediaFile struct {
	ID               string           `json:"id"`
	OriginalName     string           `json:"original_name"`
	FileHash         string           `json:"file_hash"`
	FileType         FileType         `json:"file_type"`
	MimeType         string           `json:"mime_type"`
	FileSizeBytes    int64            `json:"file_size_bytes"`
	Width            int              `json:"width"`
	Height           int              `json:"height"`
	DurationSeconds  float64          `json:"duration_seconds"`
	IsFavorite       bool             `json:"is_favorite"`
	StoragePath      string           `json:"-"`
	ThumbnailPath    string           `json:"-"`
	PreviewPath      string           `json:"-"`
	EncryptionKeyID  string           `json:"-"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	Metadata         MediaMetadata    `json:"metadata"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// EncryptionKey is a content key row. KeyValue is the hex-encoded AES key.
type EncryptionKey struct {
	ID        string     `json:"id"`
	KeyValue  string     `json:"-"`
	Algorithm string     `json:"algorithm"`
	IsActive  bool       `json:"is_active"`
	RotatedAt *time.Time `json:"rotated_at,omitempty"`
}
