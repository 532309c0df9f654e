package orderbackend

import (
	"context"
	"sort"
	"sync"

	"github.com/pesansayur/storefront/internal/domain"
)

// MemoryStore keeps orders in process. It serves local runs without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	orders  map[string]Record
	coupons map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]Record), coupons: make(map[string]int64)}
}

func (m *MemoryStore) CreateOrder(_ context.Context, o domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; ok {
		return ErrDuplicateOrder
	}
	m.orders[o.ID] = Record{Order: o, Status: DefaultStatus}
	return nil
}

func (m *MemoryStore) GetOrder(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.orders[id]
	if !ok {
		return Record{}, ErrOrderNotFound
	}
	return rec, nil
}

func (m *MemoryStore) SearchByPhone(_ context.Context, phone string) ([]Record, error) {
	want := NationalNumber(phone)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Record
	for _, rec := range m.orders {
		if NationalNumber(rec.Order.Phone) == want {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Order.CreatedAt.After(out[j].Order.CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) IncrementCoupon(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[normalizeCode(code)]++
	return nil
}

func (m *MemoryStore) CouponUsage(context.Context) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.coupons))
	for k, v := range m.coupons {
		out[k] = v
	}
	return out, nil
}
