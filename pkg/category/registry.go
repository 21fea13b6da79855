// Package category maps extraction categories onto the relational schema.
//
// Each category has a handler that projects a loosely-shaped extraction
// record onto the columns of its target table. Unknown categories never
// fail: they fall through to a generic handler that stores the record in
// self_knowledge with the category string preserved, so no extracted fact
// is ever dropped on the floor.
package category

import (
	"strings"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
)

// Handler projects an extraction record onto the columns of one table.
type Handler interface {
	// Table is the relational table this handler writes to.
	Table() string
	// Normalize maps a record onto column values for Table. Provenance
	// columns are not the handler's concern; the enricher appends them.
	Normalize(rec extraction.Record) map[string]any
}

type handler struct {
	table     string
	normalize func(rec extraction.Record) map[string]any
}

func (h handler) Table() string { return h.table }

func (h handler) Normalize(rec extraction.Record) map[string]any {
	return h.normalize(rec)
}

// genericHandler stores records whose category has no dedicated table.
// The category string survives in the category column so nothing is lost.
type genericHandler struct{}

func (genericHandler) Table() string { return "self_knowledge" }

func (genericHandler) Normalize(rec extraction.Record) map[string]any {
	cat := strings.TrimSpace(rec.Category)
	if cat == "" {
		cat = "general"
	}
	return map[string]any{
		"category": cat,
		"insight":  rec.Insight,
		"evidence": rec.Evidence,
	}
}

// Lookup returns the handler for a category. The boolean reports whether a
// dedicated handler existed; the generic self_knowledge handler is returned
// otherwise.
func Lookup(cat string) (Handler, bool) {
	h, ok := registry[strings.ToLower(strings.TrimSpace(cat))]
	if !ok {
		return genericHandler{}, false
	}
	return h, true
}

// Categories returns the names of all categories with dedicated handlers.
func Categories() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
