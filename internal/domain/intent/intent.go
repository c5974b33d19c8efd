// Package intent defines the structured interpretation of a raw user query.
// Intents are ephemeral: derived per request, never persisted.
package intent

// Intent is the structured reading of one free-form product request.
type Intent struct {
	RawText string

	BudgetMin *int64
	BudgetMax *int64

	// Brand is a canonical brand name ("Apple", "Samsung"). When set from a
	// lexical cue it becomes a hard filter, never a ranking boost.
	Brand *string

	Features []string

	// ModelPhrase is a canonicalized model token sequence ("iphone 16 pro max")
	// used to narrow results to an exact product line.
	ModelPhrase *string

	PromotionIntent bool

	// EnhancedQueryText is the query sent to the index; equals RawText unless
	// the AI pass supplied a rewrite.
	EnhancedQueryText string
}

// Empty returns a degenerate intent for the given text: all optional fields
// unset, enhanced query equal to the input.
func Empty(text string) Intent {
	return Intent{RawText: text, EnhancedQueryText: text}
}

// Extraction is the advisory output of the AI-assisted pass. Fields only
// fill gaps the heuristics left empty.
type Extraction struct {
	SearchQuery string   `json:"search_query"`
	BudgetMin   *int64   `json:"budget_min"`
	BudgetMax   *int64   `json:"budget_max"`
	Brands      []string `json:"brands"`
	Features    []string `json:"features"`
}
