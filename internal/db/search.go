package db

import "github.com/huythanhnguyen/ddv/internal/domain/search/filter"

// TextQuery is the input for a filtered full-text search.
type TextQuery struct {
	IndexName    string
	Query        string
	Filters      filter.Set
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
