package api

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/dshills/folio/internal/envelope"
	"github.com/dshills/folio/internal/store"
)

// DefaultCacheTTL is how long GET responses are reused.
const DefaultCacheTTL = 5 * time.Minute

const listCacheKey = "writeups_list"

func writeupCacheKey(id int64) string { return "writeup_" + strconv.FormatInt(id, 10) }

func commentsCacheKey(writeupID string) string { return "comments_" + writeupID }

// readCache keeps raw response bodies in memory and, when a store is set,
// persists them as single-element envelopes.
type readCache struct {
	mem    *ttlcache.Cache[string, []byte]
	store  store.Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func newReadCache(st store.Store, ttl time.Duration, logger *slog.Logger) *readCache {
	return &readCache{
		mem: ttlcache.New(
			ttlcache.WithTTL[string, []byte](ttl),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
		store:  st,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func (rc *readCache) get(key string) ([]byte, bool) {
	if item := rc.mem.Get(key); item != nil && !item.IsExpired() {
		return item.Value(), true
	}
	if rc.store == nil {
		return nil, false
	}
	raw, ok := rc.store.Get(key)
	if !ok {
		return nil, false
	}
	env, ok := envelope.Decode[json.RawMessage](raw)
	now := rc.now()
	if !ok || len(env.Payload) != 1 || !env.Fresh(now, rc.ttl) {
		if err := rc.store.Remove(key); err != nil {
			rc.logger.Debug("Failed to remove expired cache entry",
				slog.String("key", key),
				slog.Any("error", err))
		}
		return nil, false
	}
	body := []byte(env.Payload[0])
	rc.mem.Set(key, body, rc.ttl-env.Age(now))
	return body, true
}

func (rc *readCache) set(key string, body []byte) {
	rc.mem.Set(key, body, ttlcache.DefaultTTL)
	if rc.store == nil {
		return
	}
	raw, err := envelope.Encode(envelope.New([]json.RawMessage{body}, rc.now()))
	if err != nil {
		rc.logger.Debug("Skipping cache persistence",
			slog.String("key", key),
			slog.Any("error", err))
		return
	}
	store.SetBestEffort(rc.store, rc.logger, key, raw)
}

func (rc *readCache) invalidate(keys ...string) {
	for _, key := range keys {
		rc.mem.Delete(key)
		if rc.store == nil {
			continue
		}
		if err := rc.store.Remove(key); err != nil {
			rc.logger.Debug("Failed to invalidate cache entry",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}
}

func (rc *readCache) close() {
	rc.mem.DeleteAll()
}
