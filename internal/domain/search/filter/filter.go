// Package filter defines the conjunction of hard constraints applied to a
// search before ranking.
package filter

import (
	"fmt"
	"strings"
)

// Set is the conjunctive filter built from an interpreted query. Every
// non-zero field must hold for a document to qualify.
type Set struct {
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`

	// Price bounds in minor currency units, inclusive. nil means unbounded.
	PriceMin *int64 `json:"price_min,omitempty"`
	PriceMax *int64 `json:"price_max,omitempty"`

	// MinDiscount is a floor on the discount percentage.
	MinDiscount int `json:"min_discount,omitempty"`

	// PromotionIntent additionally requires promotions_count >= 1 OR
	// discount_percent > 0.
	PromotionIntent bool `json:"promotion_intent,omitempty"`
}

// IsZero reports whether the set carries no constraints.
func (s Set) IsZero() bool {
	return s.Brand == "" && s.Category == "" &&
		s.PriceMin == nil && s.PriceMax == nil &&
		s.MinDiscount == 0 && !s.PromotionIntent
}

// Validate checks internal consistency before any backend call.
func (s Set) Validate() error {
	if s.PriceMin != nil && *s.PriceMin < 0 {
		return fmt.Errorf("price_min must be non-negative, got %d", *s.PriceMin)
	}
	if s.PriceMax != nil && *s.PriceMax < 0 {
		return fmt.Errorf("price_max must be non-negative, got %d", *s.PriceMax)
	}
	if s.PriceMin != nil && s.PriceMax != nil && *s.PriceMin > *s.PriceMax {
		return fmt.Errorf("price_min %d exceeds price_max %d", *s.PriceMin, *s.PriceMax)
	}
	if s.MinDiscount < 0 || s.MinDiscount > 100 {
		return fmt.Errorf("min_discount must be within [0, 100], got %d", s.MinDiscount)
	}
	return nil
}

// CacheKeyPart renders the set into a stable string for cache key hashing.
// Field order is fixed; two equal sets always render identically.
func (s Set) CacheKeyPart() string {
	var b strings.Builder
	fmt.Fprintf(&b, "brand=%s;category=%s;", s.Brand, s.Category)
	if s.PriceMin != nil {
		fmt.Fprintf(&b, "min=%d;", *s.PriceMin)
	}
	if s.PriceMax != nil {
		fmt.Fprintf(&b, "max=%d;", *s.PriceMax)
	}
	fmt.Fprintf(&b, "disc=%d;promo=%t", s.MinDiscount, s.PromotionIntent)
	return b.String()
}

// SortField enumerates the sortable document attributes.
type SortField string

const (
	// ByPrice sorts on the current price.
	ByPrice SortField = "price_current"
	// ByDiscount sorts on the discount percentage.
	ByDiscount SortField = "discount_percent"
	// ByPromotions sorts on the promotions count.
	ByPromotions SortField = "promotions_count"
)

// SortKey is one requested ordering, applied after relevance.
type SortKey struct {
	Field SortField `json:"field"`
	Desc  bool      `json:"desc"`
}

// PromotionSort is the default ordering when promotion intent is detected:
// most offers first, deepest discount breaking ties.
func PromotionSort() []SortKey {
	return []SortKey{
		{Field: ByPromotions, Desc: true},
		{Field: ByDiscount, Desc: true},
	}
}

// SortKeyPart renders sort keys into a stable string for cache key hashing.
func SortKeyPart(keys []SortKey) string {
	if len(keys) == 0 {
		return "relevance"
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		dir := "asc"
		if k.Desc {
			dir = "desc"
		}
		parts[i] = string(k.Field) + ":" + dir
	}
	return strings.Join(parts, ",")
}
