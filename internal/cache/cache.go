// Package cache is the TTL cache shared by all provider clients and
// services. Entries persist as {data, timestamp} JSON under keys of the
// form <service>_<key>, against either an in-memory or a file-backed store.
package cache

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is the stored representation of one cached value. Timestamp is
// epoch milliseconds at write time.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Cache applies TTL semantics over a Store for one named service. Reads
// evict lazily; an entry is valid while now-timestamp <= ttl. Store or
// decode problems degrade to a miss and are logged, never surfaced.
type Cache struct {
	service string
	store   Store
	log     zerolog.Logger
	now     func() time.Time
}

// New returns a cache whose store keys are prefixed with service.
func New(service string, store Store, log zerolog.Logger) *Cache {
	return &Cache{
		service: service,
		store:   store,
		log:     log.With().Str("component", "cache").Str("service", service).Logger(),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use this to step through TTL
// boundaries without sleeping.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Key builds the default cache key for a request: the path plus the
// serialized query parameters in a stable order.
func Key(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(path)
	sb.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

func (c *Cache) storeKey(key string) string {
	return c.service + "_" + key
}

// Get loads a live entry into out and reports whether it hit. Expired
// entries are deleted; corrupt ones are logged and treated as absent.
func (c *Cache) Get(key string, ttl time.Duration, out any) bool {
	if ttl <= 0 {
		return false
	}
	raw, err := c.store.Get(c.storeKey(key))
	if err != nil {
		if err != ErrNotFound {
			c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("corrupt cache entry")
		_ = c.store.Delete(c.storeKey(key))
		return false
	}

	age := c.now().UnixMilli() - entry.Timestamp
	if age > ttl.Milliseconds() {
		_ = c.store.Delete(c.storeKey(key))
		return false
	}

	if err := json.Unmarshal(entry.Data, out); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("corrupt cache payload")
		_ = c.store.Delete(c.storeKey(key))
		return false
	}
	return true
}

// Set stores v under key with the current timestamp. Failures are logged
// and swallowed so a broken cache never fails the request that fed it.
func (c *Cache) Set(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	entry, err := json.Marshal(Entry{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.store.Set(c.storeKey(key), entry); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	_ = c.store.Delete(c.storeKey(key))
}

// Clear removes this service's entries. With a non-empty pattern only keys
// containing the pattern are removed, so callers can force-refresh one
// symbol without discarding unrelated entries.
func (c *Cache) Clear(pattern string) error {
	keys, err := c.store.Keys()
	if err != nil {
		return err
	}
	prefix := c.service + "_"
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if pattern != "" && !strings.Contains(strings.TrimPrefix(k, prefix), pattern) {
			continue
		}
		if err := c.store.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
