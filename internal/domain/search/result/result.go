// Package result defines the ranked search hit returned to callers.
package result

import "github.com/huythanhnguyen/ddv/internal/domain/catalog"

// Ranked is a catalog document with its relevance score, higher is better.
// Fallback-path scores are normalized to [0,1]; index-path scores carry the
// engine's lexical score.
type Ranked struct {
	Document catalog.Document `json:"document"`
	Score    float64          `json:"score"`
}

// IDs extracts the document ids in order. Test helper quality-of-life, but
// also used by the cache for compact logging.
func IDs(results []Ranked) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Document.ID
	}
	return ids
}
