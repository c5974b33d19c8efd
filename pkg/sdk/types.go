package ddv

import (
	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/domain/search/filter"
)

// Document is a catalog product as stored and returned by the engine.
type Document = catalog.Document

// Price is the current/original price pair of a Document.
type Price = catalog.Price

// Promotions holds the promotional offers attached to a Document.
type Promotions = catalog.Promotions

// Filters describes the structured constraints the interpreter derived
// from the query, echoed back in SearchResponse.AppliedFilters.
type Filters = filter.Set

// RankedProduct is a search hit with its relevance score, higher is better.
type RankedProduct struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// SearchResponse is the result of a Search call.
type SearchResponse struct {
	Products       []RankedProduct `json:"products"`
	AppliedFilters Filters         `json:"applied_filters"`
	UsedFallback   bool            `json:"used_fallback"`
	Total          int             `json:"total"`
	TookMS         int64           `json:"took_ms"`
}

// ReindexReport summarizes a completed reindex run.
type ReindexReport struct {
	JobID       string `json:"job_id"`
	Total       int    `json:"total"`
	Indexed     int    `json:"indexed"`
	Quarantined int    `json:"quarantined"`
	TookMS      int64  `json:"took_ms"`
}

// Health reports the service status. Status is "healthy" or "degraded";
// a degraded service still answers searches via the fallback ranker.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type reindexRequest struct {
	Documents []Document `json:"documents"`
}
