package search

import (
	"sort"
	"strings"

	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
	"github.com/huythanhnguyen/ddv/internal/domain/search/filter"
	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
)

// Substring-match weights for the dependency-free ranking path. A spec
// match accumulates per matching attribute; the final score is normalized
// by maxScore and clamped to [0, 1].
const (
	nameWeight     = 10.0
	brandWeight    = 8.0
	categoryWeight = 5.0
	specWeight     = 3.0
	maxScore       = 20.0
)

// Rank scores docs against the lowercased query by substring matching.
// Pure and in-memory; never errors. Zero-score documents are dropped, ties
// keep catalog order, and the list is truncated to limit.
func Rank(query string, docs []catalog.Document, limit int) []result.Ranked {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	ranked := make([]result.Ranked, 0, limit)
	for i := range docs {
		score := scoreDoc(&docs[i], terms)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, result.Ranked{Document: docs[i], Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func scoreDoc(doc *catalog.Document, terms []string) float64 {
	name := strings.ToLower(doc.Name)
	brand := strings.ToLower(doc.Brand)
	category := strings.ToLower(doc.Category)

	var score float64
	for _, term := range terms {
		if strings.Contains(name, term) {
			score += nameWeight
		}
		if strings.Contains(brand, term) {
			score += brandWeight
		}
		if strings.Contains(category, term) {
			score += categoryWeight
		}
		for _, values := range doc.Specs {
			for _, v := range values {
				if strings.Contains(strings.ToLower(v), term) {
					score += specWeight
				}
			}
		}
	}

	score /= maxScore
	if score > 1 {
		score = 1
	}
	return score
}

// filterDocs applies the conjunctive filter set in memory, mirroring the
// index backend's filter semantics for the fallback path.
func filterDocs(docs []catalog.Document, fs filter.Set) []catalog.Document {
	if fs.IsZero() {
		return docs
	}
	kept := make([]catalog.Document, 0, len(docs))
	for i := range docs {
		if matchesFilters(&docs[i], fs) {
			kept = append(kept, docs[i])
		}
	}
	return kept
}

func matchesFilters(doc *catalog.Document, fs filter.Set) bool {
	if fs.Brand != "" && !strings.EqualFold(doc.Brand, fs.Brand) {
		return false
	}
	if fs.Category != "" && !strings.EqualFold(doc.Category, fs.Category) {
		return false
	}
	if fs.PriceMin != nil && doc.Price.Current < *fs.PriceMin {
		return false
	}
	if fs.PriceMax != nil && doc.Price.Current > *fs.PriceMax {
		return false
	}
	if fs.MinDiscount > 0 && doc.Price.DiscountPercent < fs.MinDiscount {
		return false
	}
	if fs.PromotionIntent && doc.PromotionsCount < 1 && doc.Price.DiscountPercent <= 0 {
		return false
	}
	return true
}

// orderBySortKeys re-orders ranked results by score, then the requested
// sort keys. The sort is stable so full ties keep their existing order.
func orderBySortKeys(ranked []result.Ranked, keys []filter.SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		for _, k := range keys {
			vi := sortValue(&ranked[i].Document, k.Field)
			vj := sortValue(&ranked[j].Document, k.Field)
			if vi != vj {
				if k.Desc {
					return vi > vj
				}
				return vi < vj
			}
		}
		return false
	})
}

func sortValue(doc *catalog.Document, field filter.SortField) int64 {
	switch field {
	case filter.ByPrice:
		return doc.Price.Current
	case filter.ByDiscount:
		return int64(doc.Price.DiscountPercent)
	case filter.ByPromotions:
		return int64(doc.PromotionsCount)
	default:
		return 0
	}
}
