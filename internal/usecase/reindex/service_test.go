package reindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
)

type mockIndexer struct {
	mu      sync.Mutex
	err     error
	indexed []catalog.Document
	started chan struct{}
	release chan struct{}
}

func (m *mockIndexer) Reindex(ctx context.Context, docs []catalog.Document) error {
	if m.started != nil {
		close(m.started)
	}
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.indexed = docs
	return nil
}

type mockCatalog struct {
	mu   sync.Mutex
	docs []catalog.Document
}

func (m *mockCatalog) Replace(docs []catalog.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = docs
}

func (m *mockCatalog) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func validDoc(id string) catalog.Document {
	return catalog.Document{
		ID:    id,
		Name:  "iPhone 15",
		Brand: "apple",
		Price: catalog.Price{Current: 20_000_000, Original: 22_000_000},
	}
}

func TestReindexQuarantinesMalformedRecords(t *testing.T) {
	indexer := &mockIndexer{}
	cat := &mockCatalog{}
	svc := NewService(indexer, cat)

	docs := []catalog.Document{
		validDoc("p1"),
		{ID: "p2", Name: "Missing brand", Price: catalog.Price{Current: 5_000_000}},
		{ID: "p3", Name: "Suspicious price", Brand: "apple", Price: catalog.Price{Current: 500}},
		validDoc("p4"),
	}
	report, err := svc.Reindex(context.Background(), docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Total != 4 || report.Indexed != 2 || report.Quarantined != 2 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.JobID == "" {
		t.Error("expected a job id")
	}
	if len(indexer.indexed) != 2 || cat.size() != 2 {
		t.Errorf("expected 2 documents indexed and stored, got %d / %d",
			len(indexer.indexed), cat.size())
	}
	// Derived fields are recomputed during ingestion.
	if got := indexer.indexed[0].Price.DiscountPercent; got != 9 {
		t.Errorf("expected discount percent 9, got %d", got)
	}
	if indexer.indexed[0].SearchableText == "" {
		t.Error("expected searchable text to be built")
	}
}

func TestReindexAllRecordsMalformed(t *testing.T) {
	svc := NewService(&mockIndexer{}, &mockCatalog{})

	_, err := svc.Reindex(context.Background(), []catalog.Document{
		{ID: "p1", Price: catalog.Price{Current: 100}},
	})
	if !errors.Is(err, domain.ErrEmptyFeed) {
		t.Fatalf("expected ErrEmptyFeed, got %v", err)
	}
}

func TestReindexIndexerFailureLeavesCatalogUntouched(t *testing.T) {
	indexer := &mockIndexer{err: domain.ErrReindexFailed}
	cat := &mockCatalog{}
	svc := NewService(indexer, cat)

	_, err := svc.Reindex(context.Background(), []catalog.Document{validDoc("p1")})
	if !errors.Is(err, domain.ErrReindexFailed) {
		t.Fatalf("expected ErrReindexFailed, got %v", err)
	}
	if cat.size() != 0 {
		t.Error("catalog must not be replaced on index failure")
	}
}

func TestReindexRejectsConcurrentRun(t *testing.T) {
	indexer := &mockIndexer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := NewService(indexer, &mockCatalog{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Reindex(context.Background(), []catalog.Document{validDoc("p1")})
		done <- err
	}()

	<-indexer.started
	_, err := svc.Reindex(context.Background(), []catalog.Document{validDoc("p2")})
	if !errors.Is(err, domain.ErrReindexInProgress) {
		t.Fatalf("expected ErrReindexInProgress, got %v", err)
	}

	close(indexer.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first reindex failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first reindex did not finish")
	}
}

func TestReindexFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	feed := `[
		{"id":"p1","name":"iPhone 15","brand":"apple","category":"smartphone",
		 "price":{"current":20000000,"original":22000000},
		 "specs":{"screen":"6.1 inch","colors":["black","blue"]}},
		{"id":"p2","name":"Galaxy S24","brand":"samsung","category":"smartphone",
		 "price":{"current":22000000,"original":22000000}}
	]`
	if err := os.WriteFile(path, []byte(feed), 0o600); err != nil {
		t.Fatal(err)
	}

	indexer := &mockIndexer{}
	svc := NewService(indexer, &mockCatalog{})

	report, err := svc.ReindexFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Indexed != 2 {
		t.Errorf("expected 2 indexed, got %d", report.Indexed)
	}
	// Spec values accept both scalar and list forms.
	if got := indexer.indexed[0].Specs["colors"]; len(got) != 2 {
		t.Errorf("expected 2 colors, got %v", got)
	}
	if got := indexer.indexed[0].Specs["screen"]; len(got) != 1 || got[0] != "6.1 inch" {
		t.Errorf("unexpected screen spec: %v", got)
	}
}

func TestReindexFromFileMissing(t *testing.T) {
	svc := NewService(&mockIndexer{}, &mockCatalog{})
	if _, err := svc.ReindexFromFile(context.Background(), "/nonexistent/feed.json"); err == nil {
		t.Fatal("expected error for missing feed file")
	}
}
