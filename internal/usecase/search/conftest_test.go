package search

import (
	"context"
	"sync"
	"time"

	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/domain/search/request"
	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
	"github.com/huythanhnguyen/ddv/internal/repository/rescache"
	"github.com/huythanhnguyen/ddv/internal/usecase/interpret"
)

// mockIndexer returns canned results or a canned error and counts calls.
type mockIndexer struct {
	mu      sync.Mutex
	results []result.Ranked
	err     error
	calls   int
}

func (m *mockIndexer) Search(ctx context.Context, q request.Query) ([]result.Ranked, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]result.Ranked, len(m.results))
	copy(out, m.results)
	return out, nil
}

func (m *mockIndexer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// memCache is a map-backed cache keyed the same way as the real one.
type memCache struct {
	mu   sync.Mutex
	data map[string][]result.Ranked
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]result.Ranked)}
}

func (c *memCache) Get(ctx context.Context, q request.Query) ([]result.Ranked, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[rescache.Key(q)]
	return v, ok
}

func (c *memCache) Put(ctx context.Context, q request.Query, ranked []result.Ranked) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[rescache.Key(q)] = ranked
}

type staticCatalog struct {
	docs []catalog.Document
}

func (s *staticCatalog) All() []catalog.Document { return s.docs }

func phoneDoc(id, name, brand string, current, original int64) catalog.Document {
	doc := catalog.Document{
		ID:       id,
		Name:     name,
		Brand:    brand,
		Category: "điện thoại",
		Price:    catalog.Price{Current: current, Original: original},
	}
	doc.Normalize()
	return doc
}

func withGifts(doc catalog.Document, gifts ...string) catalog.Document {
	doc.Promotions.FreeGifts = gifts
	doc.Normalize()
	return doc
}

// newTestService wires the orchestrator with the real heuristics-only
// interpreter and the given collaborators.
func newTestService(indexer Indexer, cache Cache, docs []catalog.Document) *Service {
	return NewService(
		interpret.NewService(nil, time.Second),
		indexer,
		cache,
		&staticCatalog{docs: docs},
	)
}

func mustRequest(query string, limit int) request.Request {
	req, err := request.New(query, limit)
	if err != nil {
		panic(err)
	}
	return req
}

func resultIDs(resp *Response) []string {
	ids := make([]string, len(resp.Products))
	for i, r := range resp.Products {
		ids[i] = r.Document.ID
	}
	return ids
}
