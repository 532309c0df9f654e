package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Service is the only writer of persisted carts. Every write loads the stored
// cart, mutates a copy and saves the whole value back.
type Service struct {
	repo  Repository
	cache Cache
	sfg   singleflight.Group
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(repo Repository, cache Cache, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// GetCart reads through the cache. A session without a stored cart gets an
// empty one.
func (s *Service) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cart cache get failed")
		}

		// read before the repository; a write landing in between bumps it
		gen, genErr := s.cache.Generation(ctx, sessionID)

		c, err = s.repo.GetCart(ctx, sessionID)
		if errors.Is(err, ErrCartNotFound) {
			return s.empty(sessionID), nil
		}
		if err != nil {
			return nil, err
		}

		if genErr != nil {
			s.log.Warn().Err(genErr).Str("session_id", sessionID).Msg("cart cache generation failed")
			return c, nil
		}
		s.fillCache(ctx, sessionID, gen, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	// callers sharing a flight must not share the value
	return v.(*domain.Cart).Clone(), nil
}

func (s *Service) AddItem(ctx context.Context, sessionID string, item domain.CartItem) (*domain.Cart, error) {
	if item.ProductID == "" || item.Quantity < 1 {
		return nil, ErrInvalidItem
	}
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		AddItem(c, item)
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, key domain.ItemKey) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		RemoveItem(c, key)
		return nil
	})
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, key domain.ItemKey, quantity int) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		if quantity <= 0 {
			RemoveItem(c, key)
			return nil
		}
		if !UpdateQuantity(c, key, quantity) {
			return ErrItemNotFound
		}
		return nil
	})
}

// Reorder replaces the cart's contents with items, typically from a past order.
func (s *Service) Reorder(ctx context.Context, sessionID string, items []domain.CartItem) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		Reorder(c, items)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	err := s.repo.DeleteCart(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrCartNotFound) {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("repo delete cart failed")
		return err
	}

	s.invalidateCache(sessionID)
	return nil
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	current, err := s.repo.GetCart(ctx, sessionID)
	switch {
	case errors.Is(err, ErrCartNotFound):
		current = s.empty(sessionID)
	case err != nil:
		return nil, fmt.Errorf("load cart: %w", err)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	if err := s.repo.SaveCart(ctx, next); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("repo save cart failed")
		return nil, err
	}

	s.invalidateCache(sessionID)
	return next.Clone(), nil
}

func (s *Service) empty(sessionID string) *domain.Cart {
	now := s.now().UTC()
	return &domain.Cart{
		SessionID: sessionID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Service) fillCache(ctx context.Context, sessionID string, gen int64, c *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	ok, err := s.cache.Fill(ctx, sessionID, gen, c)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cart cache fill failed")
		return
	}
	if !ok {
		s.log.Debug().Str("session_id", sessionID).Msg("cart changed during read, cache fill dropped")
	}
}

func (s *Service) invalidateCache(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Invalidate(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cart cache invalidate failed")
	}
}
