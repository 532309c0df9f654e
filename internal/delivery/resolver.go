package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 8 * time.Second

// Resolver turns a picked map point into a delivery location. Each chain is
// tried in order; a failed or timed out strategy falls through to the next.
type Resolver struct {
	origin      domain.Point
	maxRadiusKm float64
	distance    []DistanceStrategy
	address     []AddressStrategy
	timeout     time.Duration
	log         zerolog.Logger
}

type ResolverConfig struct {
	Store    domain.Store
	Distance []DistanceStrategy
	Address  []AddressStrategy
	Timeout  time.Duration
	Log      zerolog.Logger
}

func NewResolver(cfg ResolverConfig) *Resolver {
	store := cfg.Store.WithDefaults()
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Resolver{
		origin:      store.Origin(),
		maxRadiusKm: store.MaxRadiusKm,
		distance:    cfg.Distance,
		address:     cfg.Address,
		timeout:     cfg.Timeout,
		log:         cfg.Log,
	}
}

func (r *Resolver) MaxRadiusKm() float64 {
	return r.maxRadiusKm
}

// Resolve measures the distance and looks up the address concurrently. It
// always produces a location; eligibility is distance within the radius.
func (r *Resolver) Resolve(ctx context.Context, p domain.Point) domain.DeliveryLocation {
	var (
		km      float64
		address string
		g       errgroup.Group
	)
	g.Go(func() error {
		km = r.resolveDistance(ctx, p)
		return nil
	})
	g.Go(func() error {
		address = r.resolveAddress(ctx, p)
		return nil
	})
	_ = g.Wait()

	return domain.DeliveryLocation{
		Point:      p,
		Address:    address,
		DistanceKm: &km,
		Eligible:   km <= r.maxRadiusKm,
	}
}

func (r *Resolver) resolveDistance(ctx context.Context, p domain.Point) float64 {
	for _, s := range r.distance {
		km, err := r.distanceWithTimeout(ctx, s, p)
		if err == nil {
			return km
		}
		r.log.Warn().Err(err).Str("strategy", fmt.Sprintf("%T", s)).Msg("distance strategy failed")
	}
	return HaversineKm(r.origin, p)
}

func (r *Resolver) distanceWithTimeout(ctx context.Context, s DistanceStrategy, p domain.Point) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return s.Distance(ctx, r.origin, p)
}

func (r *Resolver) resolveAddress(ctx context.Context, p domain.Point) string {
	for _, s := range r.address {
		addr, err := r.addressWithTimeout(ctx, s, p)
		if err == nil {
			return addr
		}
		r.log.Warn().Err(err).Str("strategy", fmt.Sprintf("%T", s)).Msg("address strategy failed")
	}
	return p.String()
}

func (r *Resolver) addressWithTimeout(ctx context.Context, s AddressStrategy, p domain.Point) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return s.Address(ctx, p)
}
