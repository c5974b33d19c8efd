// Package rescache caches ranked search results keyed by the fully
// interpreted query. Strictly best-effort: a broken cache degrades to
// recomputation, never to a failed search.
package rescache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/db"
	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/domain/search/filter"
	"github.com/huythanhnguyen/ddv/internal/domain/search/request"
	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
	"github.com/huythanhnguyen/ddv/internal/metrics"
)

const cachePrefix = domain.KeyPrefix + "rescache:"

// kvStore is the consumer interface for cache storage (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores ranked results under a digest of the interpreted query.
type Cache struct {
	store  kvStore
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a result cache with the given entry TTL.
func New(store kvStore, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{store: store, ttl: ttl, logger: logger}
}

// Get returns the cached results for q, or (nil, false) on miss or any
// cache failure.
func (c *Cache) Get(ctx context.Context, q request.Query) ([]result.Ranked, bool) {
	data, err := c.store.Get(ctx, Key(q))
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Result cache lookup failed", zap.Error(err))
		}
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var ranked []result.Ranked
	if err := json.Unmarshal(data, &ranked); err != nil {
		c.logger.Warn("Result cache entry corrupt", zap.Error(err))
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	// SearchableText is derived and excluded from the payload.
	for i := range ranked {
		ranked[i].Document.Normalize()
	}
	metrics.CacheTotal.WithLabelValues("hit").Inc()
	return ranked, true
}

// Put stores results for q. Failures are logged and swallowed.
func (c *Cache) Put(ctx context.Context, q request.Query, ranked []result.Ranked) {
	data, err := json.Marshal(ranked)
	if err != nil {
		c.logger.Warn("Result cache encode failed", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, Key(q), data, c.ttl); err != nil {
		c.logger.Warn("Result cache write failed", zap.Error(err))
	}
}

// Key derives the cache key: a digest over the enhanced query text, the
// filter set, the limit, and the sort keys. Identical interpreted queries
// collapse onto one entry regardless of the raw input text.
func Key(q request.Query) string {
	h := sha256.New()
	h.Write([]byte(q.Text))
	h.Write([]byte{0})
	h.Write([]byte(q.Filters.CacheKeyPart()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(q.Limit)))
	h.Write([]byte{0})
	h.Write([]byte(filter.SortKeyPart(q.Sort)))
	return cachePrefix + hex.EncodeToString(h.Sum(nil))
}
