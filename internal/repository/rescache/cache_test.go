package rescache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/db"
	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/domain/search/filter"
	"github.com/huythanhnguyen/ddv/internal/domain/search/request"
	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
)

type mockKV struct {
	data map[string][]byte
	ttls map[string]time.Duration

	getErr error
	setErr error
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockKV) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKV) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func sampleResults() []result.Ranked {
	doc := catalog.Document{
		ID:       "p1",
		Name:     "iPhone 15",
		Brand:    "apple",
		Category: "smartphone",
		Price:    catalog.Price{Current: 20_000_000, Original: 22_000_000},
	}
	doc.Normalize()
	return []result.Ranked{{Document: doc, Score: 0.9}}
}

func TestCacheRoundTrip(t *testing.T) {
	kv := newMockKV()
	cache := New(kv, 5*time.Minute, zap.NewNop())
	q := request.Query{Text: "iphone apple", Filters: filter.Set{Brand: "apple"}, Limit: 10}

	if _, ok := cache.Get(context.Background(), q); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := sampleResults()
	cache.Put(context.Background(), q, want)

	got, ok := cache.Get(context.Background(), q)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 1 || got[0].Document.ID != "p1" || got[0].Score != 0.9 {
		t.Fatalf("unexpected cached results: %+v", got)
	}
	if got[0].Document.SearchableText == "" {
		t.Error("expected searchable text to be rebuilt on read")
	}
	if kv.ttls[Key(q)] != 5*time.Minute {
		t.Errorf("expected 5m ttl, got %v", kv.ttls[Key(q)])
	}
}

func TestCacheGetErrorIsMiss(t *testing.T) {
	kv := newMockKV()
	kv.getErr = errors.New("connection refused")
	cache := New(kv, time.Minute, zap.NewNop())

	if _, ok := cache.Get(context.Background(), request.Query{Text: "iphone", Limit: 10}); ok {
		t.Fatal("expected miss on backend error")
	}
}

func TestCachePutErrorIsSwallowed(t *testing.T) {
	kv := newMockKV()
	kv.setErr = errors.New("connection refused")
	cache := New(kv, time.Minute, zap.NewNop())

	// Must not panic or surface the error.
	cache.Put(context.Background(), request.Query{Text: "iphone", Limit: 10}, sampleResults())
}

func TestCacheCorruptEntryIsMiss(t *testing.T) {
	kv := newMockKV()
	cache := New(kv, time.Minute, zap.NewNop())
	q := request.Query{Text: "iphone", Limit: 10}
	kv.data[Key(q)] = []byte("{broken")

	if _, ok := cache.Get(context.Background(), q); ok {
		t.Fatal("expected miss on corrupt entry")
	}
}

func TestKeyDistinguishesQueryComponents(t *testing.T) {
	min := int64(5_000_000)
	base := request.Query{Text: "iphone", Limit: 10}

	variants := []request.Query{
		{Text: "galaxy", Limit: 10},
		{Text: "iphone", Limit: 20},
		{Text: "iphone", Limit: 10, Filters: filter.Set{Brand: "apple"}},
		{Text: "iphone", Limit: 10, Filters: filter.Set{PriceMin: &min}},
		{Text: "iphone", Limit: 10, Sort: []filter.SortKey{{Field: filter.ByPrice, Desc: true}}},
	}
	baseKey := Key(base)
	for i, v := range variants {
		if Key(v) == baseKey {
			t.Errorf("variant %d: expected distinct key", i)
		}
	}

	if Key(base) != Key(request.Query{Text: "iphone", Limit: 10}) {
		t.Error("expected identical queries to share a key")
	}
}
