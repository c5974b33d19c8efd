// Package store holds the canonical in-memory catalog snapshot. The catalog
// is replaced wholesale on sync and read-mostly during search, so it lives
// behind an atomic pointer: readers never block and never observe a
// partially replaced catalog.
package store

import (
	"sync/atomic"

	"github.com/huythanhnguyen/ddv/internal/domain/catalog"
)

type snapshot struct {
	docs []catalog.Document
	byID map[string]int
}

// Catalog is the canonical product document set.
type Catalog struct {
	current atomic.Pointer[snapshot]
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	c := &Catalog{}
	c.current.Store(&snapshot{byID: map[string]int{}})
	return c
}

// Replace swaps the entire catalog for the given documents. The slice is
// owned by the catalog after the call.
func (c *Catalog) Replace(docs []catalog.Document) {
	byID := make(map[string]int, len(docs))
	for i, d := range docs {
		byID[d.ID] = i
	}
	c.current.Store(&snapshot{docs: docs, byID: byID})
}

// All returns the current snapshot. Callers must not mutate the returned
// slice; it may be shared with concurrent readers.
func (c *Catalog) All() []catalog.Document {
	return c.current.Load().docs
}

// Get returns the document with the given id.
func (c *Catalog) Get(id string) (catalog.Document, bool) {
	snap := c.current.Load()
	i, ok := snap.byID[id]
	if !ok {
		return catalog.Document{}, false
	}
	return snap.docs[i], true
}

// Len returns the number of documents in the current snapshot.
func (c *Catalog) Len() int {
	return len(c.current.Load().docs)
}
