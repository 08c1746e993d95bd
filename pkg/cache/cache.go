package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jordanlanch/fieldsales/pkg/logger"
)

// Recorder receives cache outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordCacheHit(family string)
	RecordCacheMiss(family string)
	RecordCacheError(operation string)
	RecordCacheInvalidation(family string, keys int)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheHit(string)               {}
func (nopRecorder) RecordCacheMiss(string)              {}
func (nopRecorder) RecordCacheError(string)             {}
func (nopRecorder) RecordCacheInvalidation(string, int) {}

// Cache is the read-through layer handed to services. Every failure of the
// underlying Store is logged and reported as a miss, never returned.
type Cache struct {
	store    Store
	log      logger.Logger
	recorder Recorder
}

// New wraps store. rec may be nil.
func New(store Store, log logger.Logger, rec Recorder) *Cache {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Cache{
		store:    store,
		log:      log.With("component", "cache"),
		recorder: rec,
	}
}

// Load decodes the JSON value at key into dst and reports whether it was a hit
func (c *Cache) Load(ctx context.Context, key string, dst any) bool {
	raw, ok := c.LoadRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		c.recorder.RecordCacheError("decode")
		c.Evict(ctx, key)
		return false
	}
	return true
}

// LoadRaw returns the stored bytes at key
func (c *Cache) LoadRaw(ctx context.Context, key string) ([]byte, bool) {
	family := familyOf(key)
	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.recorder.RecordCacheHit(family)
		return raw, true
	case errors.Is(err, ErrMiss):
		c.recorder.RecordCacheMiss(family)
	default:
		c.log.Warn("cache read failed, treating as miss", "key", key, "error", err)
		c.recorder.RecordCacheError("get")
		c.recorder.RecordCacheMiss(family)
	}
	return nil, false
}

// Save stores v as JSON under key
func (c *Cache) Save(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Error("cache encode failed", "key", key, "error", err)
		c.recorder.RecordCacheError("encode")
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.log.Warn("cache write failed", "key", key, "error", err)
		c.recorder.RecordCacheError("set")
	}
}

// Evict deletes specific keys
func (c *Cache) Evict(ctx context.Context, keys ...string) {
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.log.Warn("cache delete failed", "keys", keys, "error", err)
		c.recorder.RecordCacheError("delete")
	}
}

// EvictPrefix deletes every key starting with prefix
func (c *Cache) EvictPrefix(ctx context.Context, prefix string) {
	n, err := c.store.DeletePattern(ctx, escapeGlob(prefix)+"*")
	if err != nil {
		c.log.Warn("cache sweep failed", "prefix", prefix, "deleted", n, "error", err)
		c.recorder.RecordCacheError("sweep")
		return
	}
	c.recorder.RecordCacheInvalidation(familyOf(prefix), n)
	c.log.Debug("cache sweep", "prefix", prefix, "deleted", n)
}

// Flush removes everything
func (c *Cache) Flush(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn("cache flush failed", "error", err)
		c.recorder.RecordCacheError("clear")
	}
}

// Generation returns the current version counter of a key family. ok is
// false when the counter cannot be read; callers must then skip caching.
func (c *Cache) Generation(ctx context.Context, genKey string) (gen int64, ok bool) {
	raw, err := c.store.Get(ctx, genKey)
	if errors.Is(err, ErrMiss) {
		return 0, true
	}
	if err != nil {
		c.log.Warn("cache generation read failed", "key", genKey, "error", err)
		c.recorder.RecordCacheError("generation")
		return 0, false
	}
	gen, err = strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		c.log.Warn("cache generation corrupt", "key", genKey, "value", string(raw))
		return 0, false
	}
	return gen, true
}

// Invalidate bumps the family's generation and then sweeps its prefix.
// Readers that captured the old generation before the write can only
// publish under the old key, which no later reader looks up.
func (c *Cache) Invalidate(ctx context.Context, f Family) {
	if f.GenKey != "" {
		if _, err := c.store.Incr(ctx, f.GenKey); err != nil {
			c.log.Warn("cache generation bump failed", "key", f.GenKey, "error", err)
			c.recorder.RecordCacheError("generation")
		}
	}
	c.EvictPrefix(ctx, f.Prefix)
}

// ReadThrough serves key from the cache or calls load and caches its result.
// An empty key disables caching for this call.
func ReadThrough[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if key != "" && c.Load(ctx, key, &cached) {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if key != "" {
		c.Save(ctx, key, v, ttl)
	}
	return v, nil
}

func familyOf(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

func escapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
