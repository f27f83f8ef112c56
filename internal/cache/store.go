// Package cache provides the keyed TTL value store shared by the analytics
// engines. Entries carry their own expiry so expired values remain readable
// as a last-resort fallback until pruned.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Entry is one stored value with its freshness window.
type Entry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Fresh reports whether the entry is still within its TTL.
func (e *Entry) Fresh(now time.Time) bool {
	return e != nil && now.Before(e.ExpiresAt)
}

// Age returns how long ago the entry was written.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Store is the keyed TTL store. Get returns the entry even when expired;
// callers decide whether a stale value is acceptable. DeleteExpired prunes
// entries past their retention grace period.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context) (int, error)
	Close() error
}

// DefaultRetention is how long expired entries stay readable for stale
// fallback before DeleteExpired removes them.
const DefaultRetention = 7 * 24 * time.Hour

// Key builds a composite cache key from an operation name and its
// discriminating parts (ids, currency, variant parameters).
func Key(op string, parts ...string) string {
	if len(parts) == 0 {
		return op
	}
	return op + ":" + strings.Join(parts, ":")
}

// SetJSON marshals v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "cache: marshal %s", key)
	}
	return s.Set(ctx, key, data, ttl)
}

// GetJSON loads the entry at key and unmarshals it into out. The returned
// entry is nil when the key is absent; out is untouched in that case.
func GetJSON(ctx context.Context, s Store, key string, out any) (*Entry, error) {
	entry, err := s.Get(ctx, key)
	if err != nil || entry == nil {
		return nil, err
	}
	if err := json.Unmarshal(entry.Value, out); err != nil {
		return nil, eris.Wrapf(err, "cache: unmarshal %s", key)
	}
	return entry, nil
}
