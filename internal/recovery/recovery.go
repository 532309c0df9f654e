package recovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pesansayur/storefront/internal/backend"
	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/internal/history"
)

// MinPhoneDigits is the shortest phone number a search accepts.
const MinPhoneDigits = 8

var (
	ErrPhoneTooShort  = errors.New("phone number needs at least 8 digits")
	ErrMissingOrderID = errors.New("order id is required")
)

const (
	reasonNotFound       = "Order tidak ditemukan"
	reasonNoPhoneMatches = "Tidak ada pesanan ditemukan untuk nomor ini"
	reasonSearchFailed   = "Gagal mencari pesanan"
)

type Backend interface {
	GetOrder(ctx context.Context, id string) (*backend.RemoteOrder, error)
	SearchOrders(ctx context.Context, phoneDigits string) ([]backend.RemoteOrder, error)
}

type History interface {
	Add(ctx context.Context, sessionID string, order domain.Order) error
	Get(ctx context.Context, sessionID, orderID string) (domain.Order, error)
}

type Carts interface {
	Reorder(ctx context.Context, sessionID string, items []domain.CartItem) (*domain.Cart, error)
}

// Result is what a lookup found. An empty result carries the reason shown to
// the customer instead of an error.
type Result struct {
	Orders []domain.Order `json:"orders"`
	Reason string         `json:"reason,omitempty"`
}

type Service struct {
	backend Backend
	history History
	carts   Carts
	log     zerolog.Logger
}

func NewService(b Backend, h History, c Carts, log zerolog.Logger) *Service {
	return &Service{backend: b, history: h, carts: c, log: log}
}

// ByID returns the order from the session's history when present, otherwise
// from the backend. Orders found remotely are added to history.
func (s *Service) ByID(ctx context.Context, sessionID, orderID string) (Result, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Result{}, ErrMissingOrderID
	}

	local, err := s.history.Get(ctx, sessionID, orderID)
	if err == nil {
		return Result{Orders: []domain.Order{local}}, nil
	}
	if !errors.Is(err, history.ErrNotFound) {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("history lookup failed")
	}

	remote, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		s.log.Info().Err(err).Str("order_id", orderID).Msg("order lookup missed")
		return empty(reason(err, reasonNotFound)), nil
	}

	order := remote.ToOrder()
	s.merge(ctx, sessionID, []domain.Order{order})
	return Result{Orders: []domain.Order{order}}, nil
}

// ByPhone searches the backend by the digits of phone.
func (s *Service) ByPhone(ctx context.Context, sessionID, phone string) (Result, error) {
	digits := Digits(phone)
	if len(digits) < MinPhoneDigits {
		return Result{}, ErrPhoneTooShort
	}

	remote, err := s.backend.SearchOrders(ctx, digits)
	if err != nil {
		s.log.Warn().Err(err).Msg("order search failed")
		return empty(reason(err, reasonSearchFailed)), nil
	}
	if len(remote) == 0 {
		return empty(reasonNoPhoneMatches), nil
	}

	orders := make([]domain.Order, 0, len(remote))
	for _, r := range remote {
		orders = append(orders, r.ToOrder())
	}
	s.merge(ctx, sessionID, orders)
	return Result{Orders: orders}, nil
}

// Reorder refills the cart with the items of an order in the session's history.
func (s *Service) Reorder(ctx context.Context, sessionID, orderID string) (*domain.Cart, error) {
	order, err := s.history.Get(ctx, sessionID, orderID)
	if err != nil {
		return nil, fmt.Errorf("reorder %s: %w", orderID, err)
	}
	return s.carts.Reorder(ctx, sessionID, order.Items)
}

// merge adds orders oldest first, so the first result ends up on top.
func (s *Service) merge(ctx context.Context, sessionID string, orders []domain.Order) {
	for i := len(orders) - 1; i >= 0; i-- {
		if err := s.history.Add(ctx, sessionID, orders[i]); err != nil {
			s.log.Warn().Err(err).Str("order_id", orders[i].ID).Msg("failed to merge recovered order into history")
		}
	}
}

func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func empty(reason string) Result {
	return Result{Orders: []domain.Order{}, Reason: reason}
}

func reason(err error, fallback string) string {
	var remote *backend.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return fallback
}
