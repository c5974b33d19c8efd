// Package search composes interpretation, caching, the index backend, and
// the in-process fallback ranker into one Search call.
//
// Per-request flow: interpret, resolve the filter set, consult the cache,
// query the index; on any index failure rank the in-memory catalog instead.
// Model-phrase narrowing runs last and only the index path is memoized.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/domain/intent"
	"github.com/huythanhnguyen/ddv/internal/domain/search/filter"
	"github.com/huythanhnguyen/ddv/internal/domain/search/request"
	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
	"github.com/huythanhnguyen/ddv/internal/logger"
	"github.com/huythanhnguyen/ddv/internal/metrics"
	"github.com/huythanhnguyen/ddv/internal/repository/rescache"
)

// Response is the outcome of one search call.
type Response struct {
	Products       []result.Ranked `json:"products"`
	AppliedFilters filter.Set      `json:"applied_filters"`
	UsedFallback   bool            `json:"used_fallback"`
}

// Service is the search orchestrator. Stateless per request; the cache and
// the index connection are the only shared structures.
type Service struct {
	interpreter Interpreter
	indexer     Indexer
	cache       Cache
	catalog     CatalogReader

	// group collapses concurrent misses on the same resolved query into a
	// single index call.
	group singleflight.Group
}

// NewService creates the orchestrator with its injected collaborators.
func NewService(interpreter Interpreter, indexer Indexer, cache Cache, catalog CatalogReader) *Service {
	return &Service{
		interpreter: interpreter,
		indexer:     indexer,
		cache:       cache,
		catalog:     catalog,
	}
}

// Search runs one end-to-end query. The only error it returns is
// domain.ErrInvalidRequest: backend trouble degrades to the fallback
// ranker, never to a failed call.
func (s *Service) Search(ctx context.Context, req request.Request) (*Response, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	it := s.interpreter.Interpret(ctx, req.Query())
	q := resolveQuery(it, req.Limit())

	if err := q.Filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	if cached, ok := s.cache.Get(ctx, q); ok {
		metrics.SearchRequestsTotal.WithLabelValues("cache").Inc()
		metrics.SearchDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
		return &Response{Products: cached, AppliedFilters: q.Filters}, nil
	}

	ranked, usedFallback := s.fetch(ctx, q, it)

	source := "index"
	if usedFallback {
		source = "fallback"
	}
	metrics.SearchRequestsTotal.WithLabelValues(source).Inc()
	metrics.SearchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	log.Debug("Search completed",
		zap.String("source", source),
		zap.Int("results", len(ranked)),
		zap.Bool("promotion_intent", it.PromotionIntent))

	return &Response{
		Products:       ranked,
		AppliedFilters: q.Filters,
		UsedFallback:   usedFallback,
	}, nil
}

// fetch runs the index query (deduplicated across concurrent identical
// misses) and falls back to the in-memory ranker on any index error,
// including context cancellation.
func (s *Service) fetch(ctx context.Context, q request.Query, it intent.Intent) ([]result.Ranked, bool) {
	v, err, _ := s.group.Do(rescache.Key(q), func() (interface{}, error) {
		ranked, err := s.indexer.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		ranked = narrow(ranked, it.ModelPhrase)
		s.cache.Put(ctx, q, ranked)
		return ranked, nil
	})
	if err == nil {
		ranked, _ := v.([]result.Ranked)
		return ranked, false
	}

	if !errors.Is(err, domain.ErrSearchUnavailable) && !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) {
		logger.FromContext(ctx).Warn("Unexpected index error, using fallback", zap.Error(err))
	} else {
		logger.FromContext(ctx).Debug("Index unavailable, using fallback", zap.Error(err))
	}

	docs := filterDocs(s.catalog.All(), q.Filters)
	ranked := Rank(q.Text, docs, q.Limit)
	orderBySortKeys(ranked, q.Sort)
	return narrow(ranked, it.ModelPhrase), true
}

// resolveQuery merges the interpreted intent into the resolved index query.
// Promotion intent supplies the default ordering when the caller asked for
// none.
func resolveQuery(it intent.Intent, limit int) request.Query {
	fs := filter.Set{PromotionIntent: it.PromotionIntent}
	if it.Brand != nil {
		fs.Brand = *it.Brand
	}
	fs.PriceMin = it.BudgetMin
	fs.PriceMax = it.BudgetMax

	var sort []filter.SortKey
	if it.PromotionIntent {
		sort = filter.PromotionSort()
	}

	return request.Query{
		Text:    it.EnhancedQueryText,
		Filters: fs,
		Limit:   limit,
		Sort:    sort,
	}
}
