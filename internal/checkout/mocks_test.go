package checkout

import (
	"context"
	"sync"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/history"
	"github.com/pesansayur/storefront/internal/notify"
)

// sequence records the order in which side effects run.
type sequence struct {
	mu    sync.Mutex
	steps []string
}

func (s *sequence) record(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
}

func (s *sequence) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.steps...)
}

type mockHistory struct {
	mu     sync.RWMutex
	seq    *sequence
	orders map[string][]domain.Order
	addErr error
}

func newMockHistory(seq *sequence) *mockHistory {
	return &mockHistory{seq: seq, orders: make(map[string][]domain.Order)}
}

func (m *mockHistory) Add(_ context.Context, sessionID string, order domain.Order) error {
	m.seq.record("history")
	if m.addErr != nil {
		return m.addErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []domain.Order{order}
	for _, o := range m.orders[sessionID] {
		if o.ID != order.ID {
			list = append(list, o)
		}
	}
	m.orders[sessionID] = list
	return nil
}

func (m *mockHistory) Last(_ context.Context, sessionID string) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.orders[sessionID]
	if len(list) == 0 {
		return domain.Order{}, history.ErrNotFound
	}
	return list[0], nil
}

func (m *mockHistory) list(sessionID string) []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Order(nil), m.orders[sessionID]...)
}

type mockChannel struct {
	mu       sync.Mutex
	seq      *sequence
	messages []string
	err      error
}

func (m *mockChannel) Handoff(_ context.Context, message string) (string, error) {
	m.seq.record("chat")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	if m.err != nil {
		return "", m.err
	}
	return "https://wa.me/6281219199323?text=x", nil
}

type mockNotifier struct {
	mu     sync.Mutex
	seq    *sequence
	events []notify.Event
}

func (m *mockNotifier) Notify(_ context.Context, ev notify.Event) {
	m.seq.record("notify")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockNotifier) received() []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Event(nil), m.events...)
}
