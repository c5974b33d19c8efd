// Package request defines the validated search request passed to the
// orchestrator.
package request

import (
	"fmt"
	"strings"

	"github.com/huythanhnguyen/ddv/internal/domain"
	"github.com/huythanhnguyen/ddv/internal/domain/search/filter"
)

// Limit bounds. Requests above MaxLimit are rejected rather than silently
// truncated so callers notice the contract.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Request is a validated search request.
type Request struct {
	query string
	limit int
}

// New validates and creates a Request. A limit of 0 selects DefaultLimit;
// negative or oversized limits and blank queries are invalid.
func New(query string, limit int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return Request{}, fmt.Errorf("%w: limit must be within [1, %d], got %d",
			domain.ErrInvalidRequest, MaxLimit, limit)
	}
	return Request{query: query, limit: limit}, nil
}

// Query returns the raw query text.
func (r Request) Query() string { return r.query }

// Limit returns the validated result limit.
func (r Request) Limit() int { return r.limit }

// Query is one fully resolved index query: enhanced text plus hard
// constraints and ordering. This is what the Index Adapter executes and what
// the Result Cache keys on.
type Query struct {
	Text    string
	Filters filter.Set
	Limit   int
	Sort    []filter.SortKey
}
