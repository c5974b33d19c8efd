// Package catalog defines the product document aggregate and its
// construction invariants. Documents arrive from the external catalog
// feed as loosely structured JSON and are validated and normalized here
// before anything downstream sees them.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Price sanity window in minor currency units (VND). Feed records outside
// this window are crawl artifacts, not real listings.
const (
	MinPrice int64 = 1_000_000
	MaxPrice int64 = 100_000_000
)

// Price holds pricing in minor currency units.
type Price struct {
	Current         int64  `json:"current"`
	Original        int64  `json:"original"`
	DiscountPercent int    `json:"discount_percent"`
	Currency        string `json:"currency,omitempty"`
}

// Promotions groups the promotional offers attached to a product.
type Promotions struct {
	FreeGifts        []string `json:"free_gifts,omitempty"`
	Vouchers         []string `json:"vouchers,omitempty"`
	SpecialDiscounts []string `json:"special_discounts,omitempty"`
	BundleOffers     []string `json:"bundle_offers,omitempty"`
}

// Count returns the total number of promotional offers.
func (p Promotions) Count() int {
	return len(p.FreeGifts) + len(p.Vouchers) + len(p.SpecialDiscounts) + len(p.BundleOffers)
}

// SpecValue is a spec attribute that may be a single string or a list of
// strings in the feed ("colors": ["black", "white"]).
type SpecValue []string

// UnmarshalJSON accepts both a JSON string and a JSON array of strings.
func (v *SpecValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = nil
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*v = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*v = SpecValue{single}
	return nil
}

// MarshalJSON emits a plain string for single values and an array otherwise.
func (v SpecValue) MarshalJSON() ([]byte, error) {
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]string(v))
}

// Document is one catalog entry. Created wholesale by the external catalog
// sync; read-mostly during search.
type Document struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Brand        string               `json:"brand"`
	Category     string               `json:"category"`
	Price        Price                `json:"price"`
	Specs        map[string]SpecValue `json:"specs,omitempty"`
	Promotions   Promotions           `json:"promotions"`
	Availability string               `json:"availability,omitempty"`
	URL          string               `json:"url,omitempty"`
	Images       []string             `json:"images,omitempty"`
	LastUpdated  time.Time            `json:"last_updated,omitempty"`

	// Derived, recomputed by Normalize. Stored on the indexed copy.
	PromotionsCount int    `json:"promotions_count"`
	SearchableText  string `json:"-"`
}

// Validate rejects malformed feed records so placeholder values never reach
// business logic. Returns the first violation found.
func (d *Document) Validate() error {
	if d.ID == "" {
		return errors.New("missing id")
	}
	if d.Name == "" {
		return fmt.Errorf("document %s: missing name", d.ID)
	}
	if d.Brand == "" {
		return fmt.Errorf("document %s: missing brand", d.ID)
	}
	if d.Price.Current < MinPrice || d.Price.Current > MaxPrice {
		return fmt.Errorf("document %s: price %d outside [%d, %d]", d.ID, d.Price.Current, MinPrice, MaxPrice)
	}
	if d.Price.Original != 0 && d.Price.Original < d.Price.Current {
		return fmt.Errorf("document %s: original price %d below current %d", d.ID, d.Price.Original, d.Price.Current)
	}
	return nil
}

// Normalize recomputes the derived fields: the discount percentage from the
// current/original pair, the promotions count, and the flattened searchable
// text. Call after any mutation and before indexing.
func (d *Document) Normalize() {
	d.Price.DiscountPercent = discountPercent(d.Price.Current, d.Price.Original)
	d.PromotionsCount = d.Promotions.Count()
	d.SearchableText = d.buildSearchableText()
}

// discountPercent computes round((original-current)/original*100) when the
// original price exceeds the current one, otherwise 0.
func discountPercent(current, original int64) int {
	if original <= current || original == 0 {
		return 0
	}
	return int(math.Round(float64(original-current) / float64(original) * 100))
}

// buildSearchableText concatenates name, brand, category, every spec value,
// and every promotion line into one full-text field.
func (d *Document) buildSearchableText() string {
	parts := make([]string, 0, 8+len(d.Specs))
	parts = append(parts, d.Name, d.Brand, d.Category)
	for _, values := range d.Specs {
		parts = append(parts, values...)
	}
	parts = append(parts, d.Promotions.FreeGifts...)
	parts = append(parts, d.Promotions.Vouchers...)
	parts = append(parts, d.Promotions.SpecialDiscounts...)
	parts = append(parts, d.Promotions.BundleOffers...)

	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
