package chi

import (
	"context"

	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/domain/search/request"
	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
)

// stubIndexer serves both the search and the reindex contract. A non-nil
// err fails both operations, pushing searches onto the fallback path.
type stubIndexer struct {
	err error
}

func (s *stubIndexer) Search(ctx context.Context, q request.Query) ([]result.Ranked, error) {
	if s.err != nil {
		return nil, s.err
	}
	return nil, nil
}

func (s *stubIndexer) Reindex(ctx context.Context, docs []catalog.Document) error {
	return s.err
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, q request.Query) ([]result.Ranked, bool) {
	return nil, false
}

func (noopCache) Put(ctx context.Context, q request.Query, ranked []result.Ranked) {}

type stubPinger struct{}

func (stubPinger) Ping(ctx context.Context) error { return nil }
