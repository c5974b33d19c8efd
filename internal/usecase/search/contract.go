package search

import (
	"context"

	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/domain/intent"
	"github.com/huythanhnguyen/ddv/internal/domain/search/request"
	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
)

// Interpreter derives structured intent from raw query text.
type Interpreter interface {
	Interpret(ctx context.Context, text string) intent.Intent
}

// Indexer executes ranked queries against the search backend.
type Indexer interface {
	Search(ctx context.Context, q request.Query) ([]result.Ranked, error)
}

// Cache memoizes ranked results per resolved query. Best-effort.
type Cache interface {
	Get(ctx context.Context, q request.Query) ([]result.Ranked, bool)
	Put(ctx context.Context, q request.Query, ranked []result.Ranked)
}

// CatalogReader provides the in-memory document snapshot for the fallback
// path.
type CatalogReader interface {
	All() []catalog.Document
}
