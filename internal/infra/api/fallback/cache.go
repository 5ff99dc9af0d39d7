// Package fallback keeps the last good response of cache-eligible queries and
// serves it when the live request path has failed for good.
//
// It is a last-resort substitute, not a cache with invalidation: entries are
// only written after a successful dispatch and only read after a failed one.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/vietddude/vetclinic/internal/infra/kv"
)

// ErrMiss is returned by Lookup when no usable entry exists.
var ErrMiss = errors.New("fallback: no cached entry")

const (
	keyPrefix    = "fallback:"
	servedSuffix = "#served"
)

// Entry is the stored last-good payload for one key.
type Entry struct {
	Key      string          `json:"key"`
	StoredAt time.Time       `json:"storedAt"`
	Payload  json.RawMessage `json:"payload"`
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}

// Key derives the storage key for an operation and its parameters. Params are
// sorted by name, values are query-escaped and empty values are dropped, so
// equal parameter sets always map to the same key and distinct ones never
// collide.
func Key(operation string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			names = append(names, k)
		}
	}
	slices.Sort(names)

	var sb strings.Builder
	sb.WriteString(keyPrefix)
	sb.WriteString(url.PathEscape(operation))
	for i, k := range names {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

// Cache stores entries in a kv.Store. There is no locking across operations:
// concurrent writers to the same key resolve as last write wins.
type Cache struct {
	store kv.Store
	now   func() time.Time

	// MaxStaleness hides entries older than this from Lookup. Zero means
	// entries are served regardless of age.
	MaxStaleness time.Duration
}

// New creates a cache on top of store.
func New(store kv.Store) *Cache {
	return &Cache{store: store, now: time.Now}
}

// Store replaces the entry for key and clears its served flag.
func (c *Cache) Store(ctx context.Context, key string, payload []byte) error {
	if !json.Valid(payload) {
		return fmt.Errorf("fallback: payload for %s is not valid json", key)
	}
	data, err := json.Marshal(Entry{
		Key:      key,
		StoredAt: c.now().UTC(),
		Payload:  json.RawMessage(payload),
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store entry: %w", err)
	}
	if err := c.store.Delete(ctx, key+servedSuffix); err != nil {
		return fmt.Errorf("clear served flag: %w", err)
	}
	return nil
}

// Lookup returns the entry for key or ErrMiss.
func (c *Cache) Lookup(ctx context.Context, key string) (*Entry, error) {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("load entry: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	if c.MaxStaleness > 0 && e.Age(c.now()) > c.MaxStaleness {
		return nil, ErrMiss
	}
	return &e, nil
}

// MarkServed records that key was answered from the cache.
func (c *Cache) MarkServed(ctx context.Context, key string) error {
	return c.store.Put(ctx, key+servedSuffix, []byte("1"))
}

// Served reports whether the last answer for key came from the cache.
func (c *Cache) Served(ctx context.Context, key string) (bool, error) {
	_, err := c.store.Get(ctx, key+servedSuffix)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Status describes one stored entry for listings.
type Status struct {
	Key      string
	StoredAt time.Time
	Size     int
	Served   bool
}

// Entries lists every stored entry.
func (c *Cache) Entries(ctx context.Context) ([]Status, error) {
	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	served := make(map[string]bool)
	for _, k := range keys {
		if base, ok := strings.CutSuffix(k, servedSuffix); ok {
			served[base] = true
		}
	}

	out := make([]Status, 0, len(keys))
	for _, k := range keys {
		if strings.HasSuffix(k, servedSuffix) {
			continue
		}
		data, err := c.store.Get(ctx, k)
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		out = append(out, Status{
			Key:      k,
			StoredAt: e.StoredAt,
			Size:     len(e.Payload),
			Served:   served[k],
		})
	}
	return out, nil
}

// Purge deletes every entry and flag. It returns the number of keys removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}
	for i, k := range keys {
		if err := c.store.Delete(ctx, k); err != nil {
			return i, fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return len(keys), nil
}

// Prune deletes entries stored before cutoff together with their served
// flags. Unreadable entries are removed too. It returns the number of entries
// removed.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}

	removed := 0
	for _, k := range keys {
		if strings.HasSuffix(k, servedSuffix) {
			continue
		}
		data, err := c.store.Get(ctx, k)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("load %s: %w", k, err)
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err == nil && !e.StoredAt.Before(cutoff) {
			continue
		}
		if err := c.store.Delete(ctx, k); err != nil {
			return removed, fmt.Errorf("delete %s: %w", k, err)
		}
		if err := c.store.Delete(ctx, k+servedSuffix); err != nil {
			return removed, fmt.Errorf("delete %s: %w", k+servedSuffix, err)
		}
		removed++
	}
	return removed, nil
}
