package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 2 * time.Hour

const (
	fieldCoupon   = "coupon"
	fieldLocation = "location"
	fieldSeq      = "loc_seq"
)

// State is the transient checkout state of one session.
type State struct {
	Coupon   *domain.Coupon           `json:"coupon,omitempty"`
	Location *domain.DeliveryLocation `json:"location,omitempty"`
}

// RedisStore keeps State in a hash under checkout:<session>. Every write
// refreshes the TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (State, error) {
	vals, err := s.client.HMGet(ctx, key(sessionID), fieldCoupon, fieldLocation).Result()
	if err != nil {
		return State{}, fmt.Errorf("redis hmget failed: %w", err)
	}

	var st State
	if raw, ok := vals[0].(string); ok {
		st.Coupon = &domain.Coupon{}
		if err := json.Unmarshal([]byte(raw), st.Coupon); err != nil {
			return State{}, fmt.Errorf("unmarshal coupon failed: %w", err)
		}
	}
	if raw, ok := vals[1].(string); ok {
		st.Location = &domain.DeliveryLocation{}
		if err := json.Unmarshal([]byte(raw), st.Location); err != nil {
			return State{}, fmt.Errorf("unmarshal location failed: %w", err)
		}
	}
	return st, nil
}

func (s *RedisStore) SetCoupon(ctx context.Context, sessionID string, c domain.Coupon) error {
	return s.setField(ctx, sessionID, fieldCoupon, c)
}

func (s *RedisStore) ClearCoupon(ctx context.Context, sessionID string) error {
	if err := s.client.HDel(ctx, key(sessionID), fieldCoupon).Err(); err != nil {
		return fmt.Errorf("redis hdel failed: %w", err)
	}
	return nil
}

// SetLocation stores loc unconditionally and starts a new selection, so any
// resolution still in flight is discarded.
func (s *RedisStore) SetLocation(ctx context.Context, sessionID string, loc domain.DeliveryLocation) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshal location failed: %w", err)
	}
	k := key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, k, fieldSeq, 1)
		p.HSet(ctx, k, fieldLocation, data)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set location failed: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearLocation(ctx context.Context, sessionID string) error {
	k := key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, k, fieldSeq, 1)
		p.HDel(ctx, k, fieldLocation)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis clear location failed: %w", err)
	}
	return nil
}

// BeginLocation drops the stored location and returns the token of the new
// selection.
func (s *RedisStore) BeginLocation(ctx context.Context, sessionID string) (int64, error) {
	k := key(sessionID)
	var seq *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		seq = p.HIncrBy(ctx, k, fieldSeq, 1)
		p.HDel(ctx, k, fieldLocation)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis begin location failed: %w", err)
	}
	return seq.Val(), nil
}

var commitScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[1]) == ARGV[2] then
	redis.call('HSET', KEYS[1], ARGV[3], ARGV[4])
	redis.call('EXPIRE', KEYS[1], ARGV[5])
	return 1
end
return 0
`)

// CommitLocation stores loc if token is still the latest selection.
func (s *RedisStore) CommitLocation(ctx context.Context, sessionID string, token int64, loc domain.DeliveryLocation) (bool, error) {
	data, err := json.Marshal(loc)
	if err != nil {
		return false, fmt.Errorf("marshal location failed: %w", err)
	}

	n, err := commitScript.Run(ctx, s.client, []string{key(sessionID)},
		fieldSeq, strconv.FormatInt(token, 10), fieldLocation, string(data), int(s.ttl.Seconds()),
	).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("redis commit location failed: %w", err)
	}
	return n == 1, nil
}

// Reset discards coupon and location. Resolutions still in flight are
// discarded too.
func (s *RedisStore) Reset(ctx context.Context, sessionID string) error {
	k := key(sessionID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HIncrBy(ctx, k, fieldSeq, 1)
		p.HDel(ctx, k, fieldCoupon, fieldLocation)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis reset failed: %w", err)
	}
	return nil
}

func (s *RedisStore) setField(ctx context.Context, sessionID, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", field, err)
	}
	k := key(sessionID)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, field, data)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s failed: %w", field, err)
	}
	return nil
}

func key(sessionID string) string {
	return "checkout:" + sessionID
}
