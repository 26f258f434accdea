package dto

import (
	"github.com/martin13396/secure-media-library/internal/domain"
)

// ListMediaQuery is the library page query. Zero values get defaults in the
// service; Limit is capped there as well.
type ListMediaQuery struct {
	FileType  string `form:"type"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// MediaResponse is one library item as seen by clients
type MediaResponse struct {
	ID              string                `json:"id"`
	OriginalName    string                `json:"original_name"`
	FileType        domain.FileType       `json:"file_type"`
	MimeType        string                `json:"mime_type"`
	FileSizeBytes   int64                 `json:"file_size_bytes"`
	Width           int                   `json:"width"`
	Height          int                   `json:"height"`
	DurationSeconds float64               `json:"duration_seconds"`
	IsFavorite      bool                  `json:"is_favorite"`
	CreatedAt       string                `json:"created_at"`
}

// ListMediaResponse is the paginated library page
type ListMediaResponse struct {
	Items      []MediaResponse `json:"items"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalItems int64           `json:"total_items"`
	TotalPages int64           `json:"total_pages"`
}

// ToggleFavoriteResponse reports the new favorite state
type ToggleFavoriteResponse struct {
	ID         string `json:"id"`
	IsFavorite bool   `json:"is_favorite"`
}

// NewMediaResponse builds a MediaResponse from a domain media file
func NewMediaResponse(m *domain.MediaFile) MediaResponse {
	return MediaResponse{
		ID:              m.ID,
		OriginalName:    m.OriginalName,
		FileType:        m.FileType,
		MimeType:        m.MimeType,
		FileSizeBytes:   m.FileSizeBytes,
		Width:           m.Width,
		Height:          m.Height,
		DurationSeconds: m.DurationSeconds,
		IsFavorite:      m.IsFavorite,
		CreatedAt:       m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}
