// Package index adapts the FT search store into the product search
// contract: filtered, ranked queries plus a full-replace reindex.
//
// Reindex is double-buffered: each catalog sync builds a fresh generation
// (its own key prefix and FT index) and flips an atomic generation pointer
// only after the build fully succeeds. Concurrent readers see either the old
// or the new generation, never a mix; a failed build leaves the previous
// generation authoritative.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/db"
	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/domain/search/filter"
	"github.com/huythanhnguyen/ddv/internal/domain/search/request"
	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
)

const (
	keyPrefix    = domain.KeyPrefix + "products:"
	activeGenKey = keyPrefix + "active_gen"
	writeBatch   = 100
)

// store is the consumer interface for index operations (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Adapter executes filtered, ranked product queries against the FT store.
type Adapter struct {
	store   store
	timeout time.Duration
	logger  *zap.Logger

	// generation 0 means "never indexed".
	generation atomic.Int64
}

// New creates an index adapter. timeout bounds every remote call.
func New(s store, timeout time.Duration, logger *zap.Logger) *Adapter {
	return &Adapter{store: s, timeout: timeout, logger: logger}
}

// Restore loads the persisted active generation so searches survive a
// process restart without a reindex.
func (a *Adapter) Restore(ctx context.Context) error {
	data, err := a.store.Get(ctx, activeGenKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("restore generation: %w", err)
	}
	gen, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("restore generation: parse %q: %w", data, err)
	}
	a.generation.Store(gen)
	return nil
}

// Search runs one filtered, ranked query. Every backend failure collapses
// into domain.ErrSearchUnavailable so the caller can fall back uniformly.
func (a *Adapter) Search(ctx context.Context, q request.Query) ([]result.Ranked, error) {
	gen := a.generation.Load()
	if gen == 0 {
		return nil, fmt.Errorf("%w: no index generation built yet", domain.ErrSearchUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	limit := q.Limit
	if limit <= 0 || limit > request.MaxLimit {
		limit = request.MaxLimit
	}

	sr, err := a.store.SearchText(ctx, &db.TextQuery{
		IndexName:    genIndexName(gen),
		Query:        q.Text,
		Filters:      q.Filters,
		TopK:         limit,
		ReturnFields: []string{"doc"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	ranked := parseEntries(sr, a.logger)
	orderResults(ranked, q.Sort)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Reindex atomically replaces the entire index contents with docs. Never
// incremental: a fresh generation is built and swapped in whole. Callers
// must serialize invocations.
func (a *Adapter) Reindex(ctx context.Context, docs []catalog.Document) error {
	oldGen := a.generation.Load()
	newGen := oldGen + 1

	if err := a.buildGeneration(ctx, newGen, docs); err != nil {
		a.cleanupGeneration(newGen)
		return fmt.Errorf("%w: %v", domain.ErrReindexFailed, err)
	}

	// Persist-then-flip: a restart after this point restores the new generation.
	if err := a.store.Set(ctx, activeGenKey, []byte(strconv.FormatInt(newGen, 10))); err != nil {
		a.cleanupGeneration(newGen)
		return fmt.Errorf("%w: persist generation: %v", domain.ErrReindexFailed, err)
	}
	a.generation.Store(newGen)

	if oldGen > 0 {
		a.cleanupGeneration(oldGen)
	}
	return nil
}

func (a *Adapter) buildGeneration(ctx context.Context, gen int64, docs []catalog.Document) error {
	def, err := db.NewIndex(genIndexName(gen)).
		Prefix(genKeyPrefix(gen)).
		Tag("brand").
		Tag("category").
		Tag("availability").
		SortableNumeric("price_current").
		SortableNumeric("price_original").
		SortableNumeric("discount_percent").
		SortableNumeric("promotions_count").
		Text("searchable_text").
		Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := a.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}

	items := make([]db.HashSetItem, 0, writeBatch)
	for i := range docs {
		fields, err := docFields(&docs[i])
		if err != nil {
			return fmt.Errorf("encode document %s: %w", docs[i].ID, err)
		}
		items = append(items, db.HashSetItem{
			Key:    genKeyPrefix(gen) + docs[i].ID,
			Fields: fields,
		})
		if len(items) == writeBatch {
			if err := a.store.HSetMulti(ctx, items); err != nil {
				return fmt.Errorf("write documents: %w", err)
			}
			items = items[:0]
		}
	}
	if len(items) > 0 {
		if err := a.store.HSetMulti(ctx, items); err != nil {
			return fmt.Errorf("write documents: %w", err)
		}
	}
	return nil
}

// cleanupGeneration drops a generation's index and keys. Best-effort with
// its own deadline: the generation pointer already moved (or never moved),
// so leftovers cost memory, not correctness.
func (a *Adapter) cleanupGeneration(gen int64) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.store.DropIndex(ctx, genIndexName(gen)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		a.logger.Warn("Failed to drop index generation", zap.Int64("generation", gen), zap.Error(err))
	}

	keys, err := a.store.Scan(ctx, genKeyPrefix(gen)+"*")
	if err != nil {
		a.logger.Warn("Failed to scan generation keys", zap.Int64("generation", gen), zap.Error(err))
		return
	}
	if err := a.store.DelMulti(ctx, keys); err != nil {
		a.logger.Warn("Failed to delete generation keys", zap.Int64("generation", gen), zap.Error(err))
	}
}

func genKeyPrefix(gen int64) string {
	return keyPrefix + "g" + strconv.FormatInt(gen, 10) + ":"
}

func genIndexName(gen int64) string {
	return genKeyPrefix(gen) + "idx"
}

func parseEntries(sr *db.SearchResult, logger *zap.Logger) []result.Ranked {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	ranked := make([]result.Ranked, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		blob, ok := entry.Fields["doc"]
		if !ok {
			logger.Warn("Search hit without document payload", zap.String("key", entry.Key))
			continue
		}
		var doc catalog.Document
		if err := json.Unmarshal([]byte(blob), &doc); err != nil {
			logger.Warn("Failed to decode indexed document", zap.String("key", entry.Key), zap.Error(err))
			continue
		}
		doc.Normalize()
		ranked = append(ranked, result.Ranked{Document: doc, Score: entry.Score})
	}
	return ranked
}

// orderResults applies the deterministic ordering contract: lexical
// relevance first, then the requested sort keys, then document id.
func orderResults(ranked []result.Ranked, keys []filter.SortKey) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		for _, k := range keys {
			vi := sortValue(&ranked[i].Document, k.Field)
			vj := sortValue(&ranked[j].Document, k.Field)
			if vi != vj {
				if k.Desc {
					return vi > vj
				}
				return vi < vj
			}
		}
		return ranked[i].Document.ID < ranked[j].Document.ID
	})
}

func sortValue(doc *catalog.Document, field filter.SortField) int64 {
	switch field {
	case filter.ByPrice:
		return doc.Price.Current
	case filter.ByDiscount:
		return int64(doc.Price.DiscountPercent)
	case filter.ByPromotions:
		return int64(doc.PromotionsCount)
	default:
		return 0
	}
}

// docFields flattens a document into the indexed hash fields plus the full
// JSON payload for reconstruction.
func docFields(doc *catalog.Document) (map[string]string, error) {
	blob, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"brand":            doc.Brand,
		"category":         doc.Category,
		"availability":     doc.Availability,
		"price_current":    strconv.FormatInt(doc.Price.Current, 10),
		"price_original":   strconv.FormatInt(doc.Price.Original, 10),
		"discount_percent": strconv.Itoa(doc.Price.DiscountPercent),
		"promotions_count": strconv.Itoa(doc.PromotionsCount),
		"searchable_text":  doc.SearchableText,
		"doc":              string(blob),
	}, nil
}
