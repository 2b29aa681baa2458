package mocks

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/SergeiKhy/sus/internal/models"
	"github.com/SergeiKhy/sus/internal/repository"
	"github.com/google/uuid"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*models.Link // short code -> link
	now   time.Time

	// CreateHook runs before the insert; a non-nil error is returned as is.
	// Lets tests simulate a concurrent allocation winning the race.
	CreateHook func(link *models.Link) error
	// Err, when set, fails every call (storage outage).
	Err error

	Calls struct {
		Create, Exists, IncrementClicks, Delete int
	}
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links: make(map[string]*models.Link),
		now:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Create++

	if m.Err != nil {
		return m.Err
	}
	if m.CreateHook != nil {
		if err := m.CreateHook(link); err != nil {
			return err
		}
	}
	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	// Monotonic timestamps keep newest-first ordering deterministic
	m.now = m.now.Add(time.Second)

	link.ID = uuid.NewString()
	link.Clicks = 0
	link.CreatedAt = m.now
	link.LastClickedAt = nil

	stored := *link
	m.links[link.ShortCode] = &stored
	return nil
}

func (m *MockLinkRepository) Exists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Exists++

	if m.Err != nil {
		return false, m.Err
	}
	_, exists := m.links[code]
	return exists, nil
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.IncrementClicks++

	if m.Err != nil {
		return "", m.Err
	}
	link, exists := m.links[code]
	if !exists {
		return "", repository.ErrLinkNotFound
	}

	now := time.Now()
	link.Clicks++
	link.LastClickedAt = &now
	return link.OriginalURL, nil
}

func (m *MockLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	links := []models.Link{}
	for _, link := range m.links {
		if link.OwnerUserID == ownerID {
			links = append(links, *link)
		}
	}
	// newest first
	slices.SortFunc(links, func(a, b models.Link) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return links, nil
}

func (m *MockLinkRepository) Get(ctx context.Context, id, ownerID string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	for _, link := range m.links {
		if link.ID == id && link.OwnerUserID == ownerID {
			found := *link
			return &found, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (m *MockLinkRepository) Delete(ctx context.Context, id, ownerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls.Delete++

	if m.Err != nil {
		return "", m.Err
	}
	for code, link := range m.links {
		if link.ID == id && link.OwnerUserID == ownerID {
			delete(m.links, code)
			return code, nil
		}
	}
	return "", repository.ErrLinkNotFound
}

func (m *MockLinkRepository) Ping(ctx context.Context) error {
	return m.Err
}

// ByCode returns a copy of the stored link, for assertions.
func (m *MockLinkRepository) ByCode(code string) (models.Link, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[code]
	if !exists {
		return models.Link{}, false
	}
	return *link, true
}

// Len returns the number of stored links.
func (m *MockLinkRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link

	// Err, when set, fails every call (redis outage).
	Err error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	link, exists := m.cache[key]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.cache[key] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	delete(m.cache, key)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
}
