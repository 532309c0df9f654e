package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cache is a read-through copy of stored carts. Every session has a generation
// counter that Invalidate bumps; Fill only writes while the counter still
// holds the value read before the repository was consulted, so a fill that
// raced with a write or a clear is dropped instead of resurrecting old lines.
type Cache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Generation(ctx context.Context, sessionID string) (int64, error)
	Fill(ctx context.Context, sessionID string, gen int64, c *domain.Cart) (bool, error)
	Invalidate(ctx context.Context, sessionID string) error
}

type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	jitter time.Duration
	genTTL time.Duration
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    15 * time.Minute,
		jitter: 5 * time.Minute,
		genTTL: 24 * time.Hour,
	}
}

// Both keys carry the session id as hash tag so the scripts stay on one slot.
func cartKey(sessionID string) string { return "cart:{" + sessionID + "}" }

func generationKey(sessionID string) string { return "cart:{" + sessionID + "}:gen" }

func (r *RedisCache) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode cached cart: %w", err)
	}
	return &c, nil
}

// Generation is zero for a session that was never invalidated.
func (r *RedisCache) Generation(ctx context.Context, sessionID string) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(sessionID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

var fillScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Fill caches c for a jittered TTL, so entries filled together do not expire
// together.
func (r *RedisCache) Fill(ctx context.Context, sessionID string, gen int64, c *domain.Cart) (bool, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("encode cart: %w", err)
	}

	ttl := r.ttl + time.Duration(rand.Int63n(int64(r.jitter)))
	n, err := fillScript.Run(ctx, r.client,
		[]string{generationKey(sessionID), cartKey(sessionID)},
		strconv.FormatInt(gen, 10), string(data), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis fill cart: %w", err)
	}
	return n == 1, nil
}

var invalidateScript = redis.NewScript(`
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[1])
redis.call('DEL', KEYS[2])
return 1
`)

func (r *RedisCache) Invalidate(ctx context.Context, sessionID string) error {
	err := invalidateScript.Run(ctx, r.client,
		[]string{generationKey(sessionID), cartKey(sessionID)},
		r.genTTL.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis invalidate cart: %w", err)
	}
	return nil
}
