package session

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pesansayur/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Store is the behaviour shared by RedisStore and MemoryStore.
type Store interface {
	Get(ctx context.Context, sessionID string) (State, error)
	SetCoupon(ctx context.Context, sessionID string, c domain.Coupon) error
	ClearCoupon(ctx context.Context, sessionID string) error
	SetLocation(ctx context.Context, sessionID string, loc domain.DeliveryLocation) error
	ClearLocation(ctx context.Context, sessionID string) error
	BeginLocation(ctx context.Context, sessionID string) (int64, error)
	CommitLocation(ctx context.Context, sessionID string, token int64, loc domain.DeliveryLocation) (bool, error)
	Reset(ctx context.Context, sessionID string) error
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, 0), mr
}

func stores(t *testing.T) map[string]Store {
	rs, _ := setupRedisStore(t)
	return map[string]Store{
		"redis":  rs,
		"memory": NewMemoryStore(),
	}
}

func location(km float64) domain.DeliveryLocation {
	return domain.DeliveryLocation{
		Point:      domain.Point{Lat: -6.2, Lng: 106.8},
		Address:    "Jl. Sudirman",
		DistanceKm: &km,
		Eligible:   km <= 10,
	}
}

var hemat = domain.Coupon{Code: "HEMAT10", Kind: domain.CouponPercentage, Value: 10, Active: true}

func TestStore_MissingStateIsZero(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			st, err := s.Get(context.Background(), "nobody")
			require.NoError(t, err)
			assert.Equal(t, State{}, st)
		})
	}
}

func TestStore_CouponRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SetCoupon(ctx, "s1", hemat))

			st, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			require.NotNil(t, st.Coupon)
			assert.Equal(t, hemat, *st.Coupon)
			assert.Nil(t, st.Location)

			require.NoError(t, s.ClearCoupon(ctx, "s1"))
			st, err = s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Nil(t, st.Coupon)
		})
	}
}

func TestStore_LocationRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SetLocation(ctx, "s1", location(4.2)))

			st, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			require.NotNil(t, st.Location)
			assert.Equal(t, 4.2, *st.Location.DistanceKm)
			assert.Equal(t, "Jl. Sudirman", st.Location.Address)
			assert.True(t, st.Location.Eligible)

			require.NoError(t, s.ClearLocation(ctx, "s1"))
			st, err = s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Nil(t, st.Location)
		})
	}
}

func TestStore_CommitOnlyLatestSelection(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SetLocation(ctx, "s1", location(1)))

			first, err := s.BeginLocation(ctx, "s1")
			require.NoError(t, err)

			st, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Nil(t, st.Location, "a new selection invalidates the previous location")

			second, err := s.BeginLocation(ctx, "s1")
			require.NoError(t, err)
			assert.Greater(t, second, first)

			ok, err := s.CommitLocation(ctx, "s1", second, location(2))
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.CommitLocation(ctx, "s1", first, location(9))
			require.NoError(t, err)
			assert.False(t, ok)

			st, err = s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, 2.0, *st.Location.DistanceKm)
		})
	}
}

func TestStore_ResetDiscardsInFlightSelection(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SetCoupon(ctx, "s1", hemat))
			token, err := s.BeginLocation(ctx, "s1")
			require.NoError(t, err)

			require.NoError(t, s.Reset(ctx, "s1"))

			ok, err := s.CommitLocation(ctx, "s1", token, location(3))
			require.NoError(t, err)
			assert.False(t, ok)

			st, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, State{}, st)
		})
	}
}

func TestRedisStore_KeyAndTTL(t *testing.T) {
	s, mr := setupRedisStore(t)

	require.NoError(t, s.SetCoupon(context.Background(), "s1", hemat))

	assert.True(t, mr.Exists("checkout:s1"))
	assert.Equal(t, 2*time.Hour, mr.TTL("checkout:s1"))

	mr.FastForward(2*time.Hour + time.Second)
	st, err := s.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, st.Coupon)
}

func TestRedisStore_CorruptField(t *testing.T) {
	s, mr := setupRedisStore(t)
	mr.HSet("checkout:s1", "coupon", "{broken")

	_, err := s.Get(context.Background(), "s1")
	assert.Error(t, err)
}

func TestMemoryStore_ReadsDoNotCreateSessions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		id := "poll-" + strconv.Itoa(i)
		st, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, State{}, st)
		require.NoError(t, s.ClearCoupon(ctx, id))
		require.NoError(t, s.ClearLocation(ctx, id))
		require.NoError(t, s.Reset(ctx, id))
		ok, err := s.CommitLocation(ctx, id, 1, location(2))
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 0, s.size())

	require.NoError(t, s.SetCoupon(ctx, "s1", hemat))
	assert.Equal(t, 1, s.size())
}

func (m *MemoryStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
