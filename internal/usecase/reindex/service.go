// Package reindex ingests a full-replace catalog feed: validate and
// quarantine malformed records, rebuild the search index, then swap the
// in-memory catalog snapshot.
package reindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/logger"
	"github.com/huythanhnguyen/ddv/internal/metrics"
)

// Indexer atomically replaces the entire index contents.
type Indexer interface {
	Reindex(ctx context.Context, docs []catalog.Document) error
}

// CatalogWriter swaps the in-memory catalog snapshot.
type CatalogWriter interface {
	Replace(docs []catalog.Document)
}

// Report summarizes one completed reindex job.
type Report struct {
	JobID       string
	Total       int
	Indexed     int
	Quarantined int
	Took        time.Duration
}

// Service runs full-replace reindex jobs. Jobs are serialized: a second
// call while one is running is rejected, not queued.
type Service struct {
	indexer Indexer
	catalog CatalogWriter

	mu sync.Mutex
}

// NewService creates the reindex service.
func NewService(indexer Indexer, catalog CatalogWriter) *Service {
	return &Service{indexer: indexer, catalog: catalog}
}

// Reindex validates docs, rebuilds the index, and swaps the catalog
// snapshot. Malformed records are quarantined (dropped and logged), never
// propagated. On failure the previous index and catalog stay authoritative.
func (s *Service) Reindex(ctx context.Context, docs []catalog.Document) (*Report, error) {
	if !s.mu.TryLock() {
		metrics.ReindexTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrReindexInProgress
	}
	defer s.mu.Unlock()

	log := logger.FromContext(ctx)
	start := time.Now()
	report := &Report{JobID: uuid.NewString(), Total: len(docs)}

	valid := make([]catalog.Document, 0, len(docs))
	for i := range docs {
		if err := docs[i].Validate(); err != nil {
			report.Quarantined++
			log.Warn("Quarantined malformed feed record",
				zap.String("job_id", report.JobID), zap.Error(err))
			continue
		}
		docs[i].Normalize()
		valid = append(valid, docs[i])
	}
	if len(valid) == 0 {
		metrics.ReindexTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: no valid documents in feed of %d", domain.ErrEmptyFeed, len(docs))
	}

	if err := s.indexer.Reindex(ctx, valid); err != nil {
		metrics.ReindexTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	// The catalog snapshot follows the index swap so the fallback path and
	// the index never disagree for long.
	s.catalog.Replace(valid)

	report.Indexed = len(valid)
	report.Took = time.Since(start)
	metrics.ReindexTotal.WithLabelValues("success").Inc()
	metrics.ReindexDocuments.Set(float64(report.Indexed))

	log.Info("Reindex completed",
		zap.String("job_id", report.JobID),
		zap.Int("total", report.Total),
		zap.Int("indexed", report.Indexed),
		zap.Int("quarantined", report.Quarantined),
		zap.Duration("took", report.Took))
	return report, nil
}

// ReindexFromFile loads a JSON array feed from path and reindexes it.
// Used for the boot-time feed and operator-triggered reloads.
func (s *Service) ReindexFromFile(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}
	var docs []catalog.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", path, err)
	}
	return s.Reindex(ctx, docs)
}
