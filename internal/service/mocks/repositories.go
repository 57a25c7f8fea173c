package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/hashlink/internal/models"
	"github.com/SergeiKhy/hashlink/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link // short_code -> link
	nextID int64
	now    time.Time

	// InsertHook, when set, runs before Insert without holding the lock; a
	// non-nil error is returned as-is.
	InsertHook func(originalURL, code string) error
	// Err, when set, is returned by every method.
	Err error

	InsertCalls int
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[string]*models.Link),
		nextID: 1,
		now:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Seed stores a link without going through Insert hooks.
func (m *MockLinkRepository) Seed(originalURL, code string) *models.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(originalURL, code)
}

func (m *MockLinkRepository) insertLocked(originalURL, code string) *models.Link {
	link := &models.Link{
		ID:          m.nextID,
		ShortCode:   code,
		OriginalURL: originalURL,
		CreatedAt:   m.now,
	}
	m.nextID++
	m.now = m.now.Add(time.Second)
	m.links[code] = link
	copied := *link
	return &copied
}

func (m *MockLinkRepository) FindByURL(ctx context.Context, originalURL string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	for _, link := range m.links {
		if link.OriginalURL == originalURL {
			copied := *link
			return &copied, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (m *MockLinkRepository) FindByCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return false, m.Err
	}
	_, exists := m.links[code]
	return exists, nil
}

func (m *MockLinkRepository) Insert(ctx context.Context, originalURL, code string) (*models.Link, error) {
	if m.InsertHook != nil {
		if err := m.InsertHook(originalURL, code); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	if _, exists := m.links[code]; exists {
		return nil, repository.ErrCodeExists
	}
	for _, link := range m.links {
		if link.OriginalURL == originalURL {
			return nil, repository.ErrURLExists
		}
	}

	return m.insertLocked(originalURL, code), nil
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}
	link, exists := m.links[code]
	if !exists {
		return false, nil
	}
	link.Clicks++
	return true, nil
}

func (m *MockLinkRepository) ListAll(ctx context.Context) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	links := make([]models.Link, 0, len(m.links))
	for _, link := range m.links {
		links = append(links, *link)
	}
	sort.Slice(links, func(i, j int) bool {
		return links[i].ID > links[j].ID
	})
	return links, nil
}

// Count returns the number of stored links.
func (m *MockLinkRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[code]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	copied := *link
	return &copied, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *link
	m.cache[link.ShortCode] = &copied
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
}
