package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/martin13396/secure-media-library/internal/domain"
	"github.com/martin13396/secure-media-library/internal/repository"
)

// mockUserRepo is an in-memory UserRepository
type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (u.Email == identifier || u.Username == identifier) && u.IsActive {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

// mockSessionRepo is an in-memory SessionRepository with the same
// single-row-per-device upsert behavior as the Postgres implementation
type mockSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (m *mockSessionRepo) Upsert(_ context.Context, session *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == session.UserID && s.DeviceID == session.DeviceID {
			delete(m.sessions, id)
		}
	}
	copied := *session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *mockSessionRepo) GetByRefreshTokenHash(_ context.Context, hash string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, s := range m.sessions {
		if s.RefreshTokenHash == hash && s.ExpiresAt.After(now) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockSessionRepo) GetByUserID(_ context.Context, userID string) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockSessionRepo) TouchActivity(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.LastActivityAt = at
	}
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, s := range m.sessions {
		if s.UserID == userID {
			ids = append(ids, id)
			delete(m.sessions, id)
		}
	}
	return ids, nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var n int64
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *mockSessionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// mockSessionCache is an in-memory SessionCache. evict simulates TTL expiry
// and failExists simulates a Redis outage.
type mockSessionCache struct {
	mu         sync.Mutex
	entries    map[string]*domain.CachedSession
	failExists bool
}

func newMockSessionCache() *mockSessionCache {
	return &mockSessionCache{entries: make(map[string]*domain.CachedSession)}
}

func (m *mockSessionCache) Put(_ context.Context, id string, cached *domain.CachedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *cached
	m.entries[id] = &copied
	return nil
}

func (m *mockSessionCache) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failExists {
		return false, errors.New("redis unavailable")
	}
	_, ok := m.entries[id]
	return ok, nil
}

func (m *mockSessionCache) Refresh(_ context.Context, id string) error {
	// TTL extension only applies to a present entry; nothing to do here
	return nil
}

func (m *mockSessionCache) Delete(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

func (m *mockSessionCache) evict(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

func (m *mockSessionCache) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[id]
	return ok
}

// mockMediaRepo is an in-memory MediaRepository that records the last filter
type mockMediaRepo struct {
	mu         sync.Mutex
	items      []*domain.MediaFile
	lastFilter repository.MediaFilter
}

func newMockMediaRepo(items ...*domain.MediaFile) *mockMediaRepo {
	return &mockMediaRepo{items: items}
}

func (m *mockMediaRepo) GetByID(_ context.Context, id string) (*domain.MediaFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id && item.ProcessingStatus == domain.StatusCompleted {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockMediaRepo) List(_ context.Context, filter repository.MediaFilter) ([]*domain.MediaFile, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter

	var matched []*domain.MediaFile
	for _, item := range m.items {
		if item.ProcessingStatus != domain.StatusCompleted {
			continue
		}
		if filter.FileType != "" && string(item.FileType) != filter.FileType {
			continue
		}
		matched = append(matched, item)
	}

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]*domain.MediaFile, 0, end-filter.Offset)
	for _, item := range matched[filter.Offset:end] {
		copied := *item
		page = append(page, &copied)
	}
	return page, total, nil
}

func (m *mockMediaRepo) SetFavorite(_ context.Context, id string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			item.IsFavorite = favorite
			return nil
		}
	}
	return nil
}

// mockKeyRepo is an in-memory EncryptionKeyRepository
type mockKeyRepo struct {
	keys map[string]*domain.EncryptionKey
}

func newMockKeyRepo(keys ...*domain.EncryptionKey) *mockKeyRepo {
	m := &mockKeyRepo{keys: make(map[string]*domain.EncryptionKey)}
	for _, k := range keys {
		m.keys[k.ID] = k
	}
	return m
}

func (m *mockKeyRepo) GetByID(_ context.Context, id string) (*domain.EncryptionKey, error) {
	k, ok := m.keys[id]
	if !ok {
		return nil, nil
	}
	copied := *k
	return &copied, nil
}
