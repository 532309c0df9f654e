package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type distanceFunc func(ctx context.Context, from, to domain.Point) (float64, error)

func (f distanceFunc) Distance(ctx context.Context, from, to domain.Point) (float64, error) {
	return f(ctx, from, to)
}

type addressFunc func(ctx context.Context, p domain.Point) (string, error)

func (f addressFunc) Address(ctx context.Context, p domain.Point) (string, error) {
	return f(ctx, p)
}

var testStore = domain.Store{Lat: -6.1754, Lng: 106.8272, MaxRadiusKm: 10}

func fixedDistance(km float64) DistanceStrategy {
	return distanceFunc(func(context.Context, domain.Point, domain.Point) (float64, error) { return km, nil })
}

func failingDistance() DistanceStrategy {
	return distanceFunc(func(context.Context, domain.Point, domain.Point) (float64, error) {
		return 0, errors.New("router down")
	})
}

func blockingDistance() DistanceStrategy {
	return distanceFunc(func(ctx context.Context, _, _ domain.Point) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
}

func TestResolve_PrimaryStrategies(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Store:    testStore,
		Distance: []DistanceStrategy{fixedDistance(4.2), Haversine{}},
		Address: []AddressStrategy{addressFunc(func(context.Context, domain.Point) (string, error) {
			return "Jl. Kebon Sirih", nil
		}), CoordinateLabel{}},
		Log: zerolog.Nop(),
	})

	loc := r.Resolve(context.Background(), domain.Point{Lat: -6.18, Lng: 106.83})
	require.True(t, loc.Resolved())
	assert.Equal(t, 4.2, *loc.DistanceKm)
	assert.Equal(t, "Jl. Kebon Sirih", loc.Address)
	assert.True(t, loc.Eligible)
}

func TestResolve_FallsBackOnFailure(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Store:    testStore,
		Distance: []DistanceStrategy{failingDistance(), Haversine{}},
		Address: []AddressStrategy{addressFunc(func(context.Context, domain.Point) (string, error) {
			return "", errors.New("geocoder down")
		}), CoordinateLabel{}},
		Log: zerolog.Nop(),
	})

	loc := r.Resolve(context.Background(), bogor)
	assert.Equal(t, 46.9, *loc.DistanceKm)
	assert.Equal(t, "-6.597100, 106.806000", loc.Address)
	assert.False(t, loc.Eligible)
}

func TestResolve_TimeoutFallsThrough(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Store:    testStore,
		Distance: []DistanceStrategy{blockingDistance(), Haversine{}},
		Address: []AddressStrategy{addressFunc(func(ctx context.Context, _ domain.Point) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}), CoordinateLabel{}},
		Timeout: 20 * time.Millisecond,
		Log:     zerolog.Nop(),
	})

	start := time.Now()
	loc := r.Resolve(context.Background(), bogor)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 46.9, *loc.DistanceKm)
	assert.Equal(t, bogor.String(), loc.Address)
}

func TestResolve_EmptyChainsUseTerminalFallbacks(t *testing.T) {
	r := NewResolver(ResolverConfig{Store: testStore, Log: zerolog.Nop()})

	loc := r.Resolve(context.Background(), bogor)
	assert.Equal(t, 46.9, *loc.DistanceKm)
	assert.Equal(t, bogor.String(), loc.Address)
}

func TestResolve_RadiusBoundaryIsEligible(t *testing.T) {
	r := NewResolver(ResolverConfig{Store: testStore, Distance: []DistanceStrategy{fixedDistance(10)}, Log: zerolog.Nop()})

	assert.True(t, r.Resolve(context.Background(), bogor).Eligible)
	assert.Equal(t, 10.0, r.MaxRadiusKm())
}

func TestResolve_DefaultRadius(t *testing.T) {
	r := NewResolver(ResolverConfig{Store: domain.Store{}, Log: zerolog.Nop()})
	assert.Equal(t, domain.DefaultMaxRadiusKm, r.MaxRadiusKm())
}

func TestResolve_RunsConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	barrier := func() {
		wg.Done()
		wg.Wait()
	}
	r := NewResolver(ResolverConfig{
		Store: testStore,
		Distance: []DistanceStrategy{distanceFunc(func(context.Context, domain.Point, domain.Point) (float64, error) {
			barrier()
			return 1, nil
		})},
		Address: []AddressStrategy{addressFunc(func(context.Context, domain.Point) (string, error) {
			barrier()
			return "here", nil
		})},
		Log: zerolog.Nop(),
	})

	done := make(chan domain.DeliveryLocation)
	go func() { done <- r.Resolve(context.Background(), bogor) }()

	select {
	case loc := <-done:
		assert.Equal(t, "here", loc.Address)
	case <-time.After(2 * time.Second):
		t.Fatal("distance and address were not resolved concurrently")
	}
}
