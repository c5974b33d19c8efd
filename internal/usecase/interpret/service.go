// Package interpret turns raw user text into a structured query intent.
// Deterministic heuristics run first and are authoritative; an optional
// AI-assisted pass only fills the gaps they left and may rewrite the query
// text. The service never returns an error: malformed input yields an
// intent with all optional fields unset.
package interpret

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/huythanhnguyen/ddv/internal/domain/intent"
	"github.com/huythanhnguyen/ddv/internal/logger"
	"github.com/huythanhnguyen/ddv/internal/metrics"
)

// Service interprets raw queries.
type Service struct {
	extractor Extractor // nil disables the AI pass
	timeout   time.Duration
}

// NewService creates an interpreter. extractor may be nil; timeout bounds
// the AI-assisted pass only.
func NewService(extractor Extractor, timeout time.Duration) *Service {
	return &Service{extractor: extractor, timeout: timeout}
}

// Interpret derives the structured intent for text. Heuristic extractions
// always win over AI-derived ones; a failing or slow AI pass degrades
// silently to heuristics-only output.
func (s *Service) Interpret(ctx context.Context, text string) intent.Intent {
	it := applyHeuristics(text)

	if s.extractor == nil || strings.TrimSpace(text) == "" {
		return it
	}

	extCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ext, err := s.extractor.Extract(extCtx, text)
	if err != nil {
		logger.FromContext(ctx).Debug("AI extraction degraded to heuristics", zap.Error(err))
		metrics.ExtractorRequestsTotal.WithLabelValues("error").Inc()
		return it
	}
	metrics.ExtractorRequestsTotal.WithLabelValues("success").Inc()

	merge(&it, ext)
	return it
}

// merge fills intent fields the heuristics left empty from the advisory
// extraction. The enhanced query text is the one field the AI pass owns.
func merge(it *intent.Intent, ext *intent.Extraction) {
	if q := strings.TrimSpace(ext.SearchQuery); q != "" {
		it.EnhancedQueryText = q
	}
	if it.Brand == nil && len(ext.Brands) > 0 {
		brand := strings.ToLower(strings.TrimSpace(ext.Brands[0]))
		if brand != "" {
			it.Brand = &brand
		}
	}
	if it.BudgetMin == nil && it.BudgetMax == nil {
		it.BudgetMin, it.BudgetMax = ext.BudgetMin, ext.BudgetMax
		if it.BudgetMin != nil && it.BudgetMax != nil && *it.BudgetMin > *it.BudgetMax {
			it.BudgetMin, it.BudgetMax = it.BudgetMax, it.BudgetMin
		}
	}
	if len(it.Features) == 0 {
		it.Features = ext.Features
	}
}
