package session

import (
	"context"
	"sync"

	"github.com/pesansayur/storefront/internal/domain"
)

// MemoryStore keeps checkout state in process memory, without expiry. Used when
// no Redis is configured.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	state State
	seq   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*entry)}
}

// get returns the session's entry, creating it. Read paths use lookup instead
// so polling unknown sessions does not grow the map.
func (m *MemoryStore) get(sessionID string) *entry {
	e, ok := m.sessions[sessionID]
	if !ok {
		e = &entry{}
		m.sessions[sessionID] = e
	}
	return e
}

func (m *MemoryStore) lookup(sessionID string) (*entry, bool) {
	e, ok := m.sessions[sessionID]
	return e, ok
}

func (m *MemoryStore) Get(_ context.Context, sessionID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(sessionID)
	if !ok {
		return State{}, nil
	}
	st := e.state
	if st.Coupon != nil {
		c := *st.Coupon
		st.Coupon = &c
	}
	if st.Location != nil {
		l := *st.Location
		st.Location = &l
	}
	return st, nil
}

func (m *MemoryStore) SetCoupon(_ context.Context, sessionID string, c domain.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(sessionID).state.Coupon = &c
	return nil
}

func (m *MemoryStore) ClearCoupon(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.lookup(sessionID); ok {
		e.state.Coupon = nil
	}
	return nil
}

func (m *MemoryStore) SetLocation(_ context.Context, sessionID string, loc domain.DeliveryLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.get(sessionID)
	e.seq++
	e.state.Location = &loc
	return nil
}

// ClearLocation on an unknown session is a no-op: it has no selection in flight.
func (m *MemoryStore) ClearLocation(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(sessionID)
	if !ok {
		return nil
	}
	e.seq++
	e.state.Location = nil
	return nil
}

func (m *MemoryStore) BeginLocation(_ context.Context, sessionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.get(sessionID)
	e.seq++
	e.state.Location = nil
	return e.seq, nil
}

func (m *MemoryStore) CommitLocation(_ context.Context, sessionID string, token int64, loc domain.DeliveryLocation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(sessionID)
	if !ok || e.seq != token {
		return false, nil
	}
	e.state.Location = &loc
	return true, nil
}

func (m *MemoryStore) Reset(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(sessionID)
	if !ok {
		return nil
	}
	e.seq++
	e.state = State{}
	return nil
}
