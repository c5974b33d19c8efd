package search

import (
	"strings"

	"github.com/huythanhnguyen/ddv/internal/domain/search/result"
)

// narrow keeps only results whose name contains every token of the model
// phrase, case-insensitively. Advisory: when narrowing would zero out a
// non-empty list, the unnarrowed list is returned instead.
func narrow(ranked []result.Ranked, modelPhrase *string) []result.Ranked {
	if modelPhrase == nil || len(ranked) == 0 {
		return ranked
	}
	tokens := strings.Fields(strings.ToLower(*modelPhrase))
	if len(tokens) == 0 {
		return ranked
	}

	narrowed := make([]result.Ranked, 0, len(ranked))
	for _, r := range ranked {
		if nameContainsAll(r.Document.Name, tokens) {
			narrowed = append(narrowed, r)
		}
	}
	if len(narrowed) == 0 {
		return ranked
	}
	return narrowed
}

func nameContainsAll(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, t := range tokens {
		if !strings.Contains(lower, t) {
			return false
		}
	}
	return true
}
