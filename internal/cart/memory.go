package cart

import (
	"context"
	"sync"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
)

// MemoryRepository keeps carts in process memory. Used when no MongoDB is
// configured.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string]*domain.Cart)}
}

func (m *MemoryRepository) GetCart(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.carts[sessionID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return c.Clone(), nil
}

func (m *MemoryRepository) SaveCart(_ context.Context, c *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.carts[c.SessionID] = c.Clone()
	return nil
}

func (m *MemoryRepository) DeleteCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[sessionID]; !ok {
		return ErrCartNotFound
	}
	delete(m.carts, sessionID)
	return nil
}

// NoCache always misses.
type NoCache struct{}

func (NoCache) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }

func (NoCache) Generation(context.Context, string) (int64, error) { return 0, nil }

func (NoCache) Fill(context.Context, string, int64, *domain.Cart) (bool, error) { return false, nil }

func (NoCache) Invalidate(context.Context, string) error { return nil }
