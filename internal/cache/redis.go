package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Redis implements Store on go-redis. The logical expiry travels inside the
// stored envelope; the physical key TTL is extended by the retention grace
// period so expired entries stay readable for stale fallback.
type Redis struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	now       func() time.Time
}

type redisEnvelope struct {
	Value     []byte    `json:"value"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewRedis connects a Redis cache store.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrap(err, "cache: redis ping")
	}
	return &Redis{
		client:    client,
		prefix:    "partsight:cache:",
		retention: DefaultRetention,
		now:       time.Now,
	}, nil
}

// NewRedisFromClient wraps an existing client (e.g. miniredis in tests).
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{
		client:    client,
		prefix:    "partsight:cache:",
		retention: DefaultRetention,
		now:       time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (r *Redis) WithNow(now func() time.Time) *Redis {
	r.now = now
	return r
}

func (r *Redis) Get(ctx context.Context, key string) (*Entry, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "cache: redis get %s", key)
	}
	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, eris.Wrapf(err, "cache: redis decode %s", key)
	}
	return &Entry{
		Key:       key,
		Value:     env.Value,
		StoredAt:  env.StoredAt,
		ExpiresAt: env.ExpiresAt,
	}, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := r.now().UTC()
	raw, err := json.Marshal(redisEnvelope{
		Value:     value,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return eris.Wrapf(err, "cache: redis encode %s", key)
	}
	err = r.client.Set(ctx, r.prefix+key, raw, ttl+r.retention).Err()
	return eris.Wrapf(err, "cache: redis set %s", key)
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, r.prefix+key).Err()
	return eris.Wrapf(err, "cache: redis delete %s", key)
}

// DeleteExpired is a no-op: Redis evicts keys itself once the physical TTL
// (logical TTL plus retention) elapses.
func (r *Redis) DeleteExpired(context.Context) (int, error) {
	return 0, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
