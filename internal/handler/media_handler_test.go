package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/internal/dto"
	"github.com/martin13396/secure-media-library/internal/service"
	"github.com/martin13396/secure-media-library/pkg/response"
)

// MockMediaService is a mock implementation of MediaService
type MockMediaService struct {
	items     map[string]*domain.MediaFile
	manifest  []byte
	masterKey []byte
}

func NewMockMediaService() *MockMediaService {
	return &MockMediaService{
		items: map[string]*domain.MediaFile{
			"img-1": {
				ID:               "img-1",
				OriginalName:     "holiday.jpg",
				FileType:         domain.FileTypeImage,
				MimeType:         "image/webp",
				ProcessingStatus: domain.StatusCompleted,
				CreatedAt:        time.Now(),
			},
			"vid-1": {
				ID:               "vid-1",
				OriginalName:     "clip.mp4",
				FileType:         domain.FileTypeVideo,
				MimeType:         "video/mp4",
				ProcessingStatus: domain.StatusCompleted,
				CreatedAt:        time.Now(),
			},
		},
		manifest:  []byte("#EXTM3U\n#EXT-X-ENDLIST\n"),
		masterKey: []byte("0123456789abcdef"),
	}
}

func (m *MockMediaService) List(_ context.Context, query dto.ListMediaQuery) (*dto.ListMediaResponse, error) {
	resp := &dto.ListMediaResponse{Page: 1, Limit: 50}
	for _, item := range m.items {
		resp.Items = append(resp.Items, dto.NewMediaResponse(item))
		resp.TotalItems++
	}
	resp.TotalPages = 1
	return resp, nil
}

func (m *MockMediaService) Get(_ context.Context, id string) (*domain.MediaFile, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, service.ErrMediaNotFound
	}
	return item, nil
}

func (m *MockMediaService) ToggleFavorite(_ context.Context, id string) (*dto.ToggleFavoriteResponse, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, service.ErrMediaNotFound
	}
	item.IsFavorite = !item.IsFavorite
	return &dto.ToggleFavoriteResponse{ID: id, IsFavorite: item.IsFavorite}, nil
}

func (m *MockMediaService) Content(_ context.Context, id string, variant service.ContentVariant) ([]byte, string, error) {
	if _, ok := m.items[id]; !ok {
		return nil, "", service.ErrMediaNotFound
	}
	if variant == service.VariantPreview {
		return nil, "", service.ErrAssetNotFound
	}
	return []byte("decrypted-bytes"), "image/webp", nil
}

func (m *MockMediaService) Manifest(_ context.Context, id string) ([]byte, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, service.ErrMediaNotFound
	}
	if item.FileType != domain.FileTypeVideo {
		return nil, service.ErrAssetNotFound
	}
	return m.manifest, nil
}

func (m *MockMediaService) Segment(_ context.Context, id string, n int) ([]byte, error) {
	if _, ok := m.items[id]; !ok {
		return nil, service.ErrMediaNotFound
	}
	if n != 1 {
		return nil, service.ErrAssetNotFound
	}
	return []byte("ts-bytes"), nil
}

func (m *MockMediaService) MasterKey() []byte {
	return m.masterKey
}

func mediaTestRouter(mock *MockMediaService) *gin.Engine {
	h := NewMediaHandler(mock)
	router := gin.New()
	api := router.Group("/api/media")
	api.GET("", h.List)
	api.GET("/:id", h.Get)
	api.POST("/:id/favorite", h.ToggleFavorite)
	api.GET("/:id/stream", h.Stream)
	api.GET("/:id/view", h.View)
	api.GET("/:id/preview", h.Preview)
	router.GET("/media/segment/:id/:n", h.Segment)
	router.GET("/media/keys/:id", h.Key)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMediaHandler_List(t *testing.T) {
	router := mediaTestRouter(NewMockMediaService())

	w := get(router, "/api/media?type=image&page=1&limit=10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	var resp dto.ListMediaResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.TotalItems != 2 {
		t.Errorf("total items = %d, want 2", resp.TotalItems)
	}
}

func TestMediaHandler_Get(t *testing.T) {
	router := mediaTestRouter(NewMockMediaService())

	t.Run("found", func(t *testing.T) {
		w := get(router, "/api/media/img-1")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})

	t.Run("missing", func(t *testing.T) {
		w := get(router, "/api/media/absent")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeMediaNotFound {
			t.Errorf("error code = %q, want %q", code, response.CodeMediaNotFound)
		}
	})
}

func TestMediaHandler_Stream(t *testing.T) {
	router := mediaTestRouter(NewMockMediaService())

	t.Run("video manifest", func(t *testing.T) {
		w := get(router, "/api/media/vid-1/stream")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/vnd.apple.mpegurl" {
			t.Errorf("content type = %q", ct)
		}
		if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
			t.Errorf("cache control = %q, want no-store", cc)
		}
	})

	t.Run("image has no stream", func(t *testing.T) {
		w := get(router, "/api/media/img-1/stream")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeAssetNotFound {
			t.Errorf("error code = %q, want %q", code, response.CodeAssetNotFound)
		}
	})
}

func TestMediaHandler_View(t *testing.T) {
	router := mediaTestRouter(NewMockMediaService())

	w := get(router, "/api/media/img-1/view")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "decrypted-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestMediaHandler_MissingVariant(t *testing.T) {
	router := mediaTestRouter(NewMockMediaService())

	w := get(router, "/api/media/img-1/preview")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if code := decodeErrorCode(t, w.Body.Bytes()); code != response.CodeAssetNotFound {
		t.Errorf("error code = %q, want %q", code, response.CodeAssetNotFound)
	}
}

func TestMediaHandler_Segment(t *testing.T) {
	router := mediaTestRouter(NewMockMediaService())

	t.Run("valid", func(t *testing.T) {
		w := get(router, "/media/segment/vid-1/1")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "video/mp2t" {
			t.Errorf("content type = %q", ct)
		}
	})

	t.Run("non-numeric index", func(t *testing.T) {
		w := get(router, "/media/segment/vid-1/abc")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("missing segment", func(t *testing.T) {
		w := get(router, "/media/segment/vid-1/42")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}

func TestMediaHandler_Key(t *testing.T) {
	t.Run("served", func(t *testing.T) {
		router := mediaTestRouter(NewMockMediaService())

		w := get(router, "/media/keys/vid-1")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if w.Body.String() != "0123456789abcdef" {
			t.Error("key bytes altered")
		}
		if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
			t.Errorf("cache control = %q, want no-store", cc)
		}
	})

	t.Run("unconfigured", func(t *testing.T) {
		mock := NewMockMediaService()
		mock.masterKey = nil
		router := mediaTestRouter(mock)

		w := get(router, "/media/keys/vid-1")
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})
}

func TestMediaHandler_ToggleFavorite(t *testing.T) {
	router := mediaTestRouter(NewMockMediaService())

	req := httptest.NewRequest(http.MethodPost, "/api/media/img-1/favorite", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp dto.ToggleFavoriteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.IsFavorite {
		t.Error("first toggle should set favorite")
	}
}
