package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/internal/dto"
	"github.com/martin13396/secure-media-library/internal/hls"
	"github.com/martin13396/secure-media-library/internal/repository"
	"github.com/martin13396/secure-media-library/internal/vault"
	"github.com/martin13396/secure-media-library/pkg/telemetry"
)

var (
	ErrMediaNotFound = errors.New("media not found")
	ErrAssetNotFound = errors.New("asset not found")
	ErrKeyNotFound   = errors.New("encryption key not found")
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// ContentVariant selects which encrypted asset of a media item to serve
type ContentVariant string

const (
	VariantPrimary   ContentVariant = "primary"
	VariantThumbnail ContentVariant = "thumbnail"
	VariantPreview   ContentVariant = "preview"
)

// MediaServiceConfig holds filesystem and URL settings
type MediaServiceConfig struct {
	Root          string
	PublicBaseURL string
	// MasterHLSKey is the binary key the manifest's key URI hands to players
	MasterHLSKey []byte
}

// MediaService serves the library listing and the encrypted delivery paths
type MediaService interface {
	List(ctx context.Context, query dto.ListMediaQuery) (*dto.ListMediaResponse, error)
	Get(ctx context.Context, id string) (*domain.MediaFile, error)
	ToggleFavorite(ctx context.Context, id string) (*dto.ToggleFavoriteResponse, error)
	// Content returns decrypted bytes and their MIME type. Decryption
	// failures degrade to the placeholder image, never to an error.
	Content(ctx context.Context, id string, variant ContentVariant) ([]byte, string, error)
	// Manifest returns the media's stream playlist rewritten to API URLs
	Manifest(ctx context.Context, id string) ([]byte, error)
	// Segment returns one HLS segment as stored ciphertext
	Segment(ctx context.Context, id string, n int) ([]byte, error)
	// MasterKey returns the HLS content key bytes
	MasterKey() []byte
}

type mediaService struct {
	mediaRepo repository.MediaRepository
	keyRepo   repository.EncryptionKeyRepository
	reader    *vault.Reader
	config    *MediaServiceConfig
}

// NewMediaService creates a new MediaService
func NewMediaService(
	mediaRepo repository.MediaRepository,
	keyRepo repository.EncryptionKeyRepository,
	reader *vault.Reader,
	config *MediaServiceConfig,
) MediaService {
	return &mediaService{
		mediaRepo: mediaRepo,
		keyRepo:   keyRepo,
		reader:    reader,
		config:    config,
	}
}

// List returns one library page of completed items
func (s *mediaService) List(ctx context.Context, query dto.ListMediaQuery) (*dto.ListMediaResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.media.list")
	defer span.End()

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.mediaRepo.List(ctx, repository.MediaFilter{
		FileType:  query.FileType,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp := &dto.ListMediaResponse{
		Items:      make([]dto.MediaResponse, 0, len(items)),
		Page:       page,
		Limit:      limit,
		TotalItems: total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
	for _, m := range items {
		resp.Items = append(resp.Items, dto.NewMediaResponse(m))
	}

	span.SetAttributes(attribute.Int("items", len(resp.Items)))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Get returns one completed media item
func (s *mediaService) Get(ctx context.Context, id string) (*domain.MediaFile, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.media.get")
	defer span.End()

	span.SetAttributes(attribute.String("media_id", id))

	media, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if media == nil {
		span.SetStatus(codes.Error, "media not found")
		return nil, ErrMediaNotFound
	}

	span.SetStatus(codes.Ok, "")
	return media, nil
}

// ToggleFavorite flips the favorite flag and returns the new state
func (s *mediaService) ToggleFavorite(ctx context.Context, id string) (*dto.ToggleFavoriteResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.media.toggle_favorite")
	defer span.End()

	media, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := !media.IsFavorite
	if err := s.mediaRepo.SetFavorite(ctx, id, next); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return &dto.ToggleFavoriteResponse{ID: id, IsFavorite: next}, nil
}

// Content returns decrypted bytes for the requested variant
func (s *mediaService) Content(ctx context.Context, id string, variant ContentVariant) ([]byte, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.media.content")
	defer span.End()

	span.SetAttributes(
		attribute.String("media_id", id),
		attribute.String("variant", string(variant)),
	)

	media, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var rel, mime string
	switch variant {
	case VariantThumbnail:
		rel, mime = media.ThumbnailPath, "image/webp"
	case VariantPreview:
		rel, mime = media.PreviewPath, "image/webp"
	default:
		rel, mime = media.StoragePath, media.MimeType
	}
	if rel == "" {
		span.SetStatus(codes.Error, "variant missing")
		return nil, "", ErrAssetNotFound
	}

	keyHex, err := s.contentKey(ctx, media)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	body := s.reader.ReadDecrypted(s.abs(rel), keyHex)
	if mime == "" {
		mime = "image/webp"
	}

	span.SetStatus(codes.Ok, "")
	return body, mime, nil
}

// Manifest returns the rewritten stream playlist for a video
func (s *mediaService) Manifest(ctx context.Context, id string) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.media.manifest")
	defer span.End()

	span.SetAttributes(attribute.String("media_id", id))

	media, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if media.FileType != domain.FileTypeVideo {
		span.SetStatus(codes.Error, "not a video")
		return nil, ErrAssetNotFound
	}

	manifest, err := os.ReadFile(s.manifestPath(media))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "manifest missing")
		return nil, ErrAssetNotFound
	}

	base := strings.TrimSuffix(s.config.PublicBaseURL, "/")
	rewritten := hls.Rewrite(manifest, media.Metadata.IV, media.ID, base)

	span.SetStatus(codes.Ok, "")
	return rewritten, nil
}

// Segment returns one stored ciphertext segment
func (s *mediaService) Segment(ctx context.Context, id string, n int) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.media.segment")
	defer span.End()

	span.SetAttributes(
		attribute.String("media_id", id),
		attribute.Int("segment", n),
	)

	media, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if media.FileType != domain.FileTypeVideo || n < 0 {
		span.SetStatus(codes.Error, "no such segment")
		return nil, ErrAssetNotFound
	}

	path := filepath.Join(filepath.Dir(s.manifestPath(media)), fmt.Sprintf("segment%03d.ts", n))
	body, err := s.reader.ReadRaw(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "segment missing")
		return nil, ErrAssetNotFound
	}

	span.SetStatus(codes.Ok, "")
	return body, nil
}

// MasterKey returns the HLS content key bytes
func (s *mediaService) MasterKey() []byte {
	return s.config.MasterHLSKey
}

// contentKey resolves the media's content key as hex
func (s *mediaService) contentKey(ctx context.Context, media *domain.MediaFile) (string, error) {
	key, err := s.keyRepo.GetByID(ctx, media.EncryptionKeyID)
	if err != nil {
		return "", err
	}
	if key == nil {
		return "", ErrKeyNotFound
	}
	return key.KeyValue, nil
}

// manifestPath resolves the on-disk playlist. A video's storage path is
// either the playlist itself or the directory holding stream.m3u8.
func (s *mediaService) manifestPath(media *domain.MediaFile) string {
	abs := s.abs(media.StoragePath)
	if filepath.Ext(abs) == ".m3u8" {
		return abs
	}
	return filepath.Join(abs, "stream.m3u8")
}

func (s *mediaService) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.config.Root, rel)
}
