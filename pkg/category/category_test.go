package category_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/category"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
)

func TestCategory(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Category Suite")
}

var _ = Describe("Registry", func() {
	It("routes known categories to their own tables", func() {
		h, ok := category.Lookup("fears")
		Expect(ok).To(BeTrue())
		Expect(h.Table()).To(Equal("fears"))
	})

	It("is case and whitespace insensitive", func() {
		h, ok := category.Lookup("  Joys ")
		Expect(ok).To(BeTrue())
		Expect(h.Table()).To(Equal("joys"))
	})

	It("folds philosophies and preferences into self_knowledge", func() {
		h, ok := category.Lookup("philosophies")
		Expect(ok).To(BeTrue())
		Expect(h.Table()).To(Equal("self_knowledge"))
		values := h.Normalize(extraction.Record{Insight: "music is universal"})
		Expect(values["category"]).To(Equal("philosophy"))
		Expect(values["insight"]).To(Equal("music is universal"))

		h, ok = category.Lookup("preferences")
		Expect(ok).To(BeTrue())
		values = h.Normalize(extraction.Record{Insight: "prefers mornings"})
		Expect(values["category"]).To(Equal("preference"))
	})

	It("falls back to self_knowledge for unknown categories", func() {
		h, ok := category.Lookup("daydreams")
		Expect(ok).To(BeFalse())
		Expect(h.Table()).To(Equal("self_knowledge"))

		values := h.Normalize(extraction.Record{
			Category: "daydreams",
			Insight:  "often imagines living by the sea",
		})
		Expect(values["category"]).To(Equal("daydreams"))
		Expect(values["insight"]).To(Equal("often imagines living by the sea"))
	})

	It("defaults the generic category to general when empty", func() {
		h, _ := category.Lookup("")
		values := h.Normalize(extraction.Record{Insight: "something"})
		Expect(values["category"]).To(Equal("general"))
	})

	It("derives title columns from the insight when no title is given", func() {
		h, _ := category.Lookup("fears")
		long := strings.Repeat("a", 80)
		values := h.Normalize(extraction.Record{Insight: long})
		Expect(values["fear"]).To(Equal(strings.Repeat("a", 50)))
		Expect(values["behavioral_response"]).To(Equal(long))
	})

	It("normalizes a joy record onto the joys columns", func() {
		h, _ := category.Lookup("joys")
		values := h.Normalize(extraction.Record{
			Title:       "Morning coffee ritual",
			Insight:     "Quiet mornings with coffee feel sacred",
			Analysis:    "Connects to a need for solitude",
			SubCategory: "daily ritual",
			Evidence:    "Mentioned it in three sessions",
		})
		Expect(values["joy"]).To(Equal("Morning coffee ritual"))
		Expect(values["what_it_feels_like"]).To(Equal("Quiet mornings with coffee feel sacred"))
		Expect(values["connection_to_meaning"]).To(Equal("Connects to a need for solitude"))
		Expect(values["category"]).To(Equal("daily ritual"))
	})

	It("only emits columns the target table has", func() {
		for _, name := range category.Categories() {
			h, _ := category.Lookup(name)
			values := h.Normalize(extraction.Record{
				Title: "t", Insight: "i", Evidence: "e", Analysis: "a",
			})
			table, found := category.TableNamed(h.Table())
			Expect(found).To(BeTrue(), "table %s missing from schema", h.Table())

			cols := map[string]bool{}
			for _, c := range table.Columns {
				cols[c.Name] = true
			}
			for col := range values {
				Expect(cols).To(HaveKey(col), "%s emits unknown column %s", name, col)
			}
		}
	})
})

var _ = Describe("Schema", func() {
	It("gives every category table the provenance columns", func() {
		for _, table := range category.Tables() {
			if table.Name == category.ConnectionsTable {
				continue
			}
			names := map[string]bool{}
			for _, c := range table.Columns {
				names[c.Name] = true
			}
			Expect(names).To(HaveKey("source_quote"))
			Expect(names).To(HaveKey("life_period"))
			Expect(names).To(HaveKey("date_recorded"))
		}
	})

	It("keeps nullable endpoint ids on the connections table", func() {
		table, ok := category.TableNamed(category.ConnectionsTable)
		Expect(ok).To(BeTrue())
		names := map[string]bool{}
		for _, c := range table.Columns {
			names[c.Name] = true
		}
		Expect(names).To(HaveKey("entry_1_id"))
		Expect(names).To(HaveKey("entry_2_id"))
		Expect(names).To(HaveKey("entry_1_title"))
		Expect(names).To(HaveKey("entry_2_title"))
	})
})

var _ = Describe("EmbedText", func() {
	It("builds newline-joined field lines in priority order", func() {
		text := category.EmbedText("joys", map[string]any{
			"id":                    int64(3),
			"joy":                   "Morning coffee",
			"category":              "ritual",
			"what_it_feels_like":    "calm",
			"connection_to_meaning": "",
			"evidence":              "said so",
		})
		Expect(text).To(Equal("joy: Morning coffee\ncategory: ritual\nwhat_it_feels_like: calm"))
	})

	It("skips none and null placeholder values", func() {
		text := category.EmbedText("wisdom", map[string]any{
			"insight": "go slow",
			"domain":  "None",
		})
		Expect(text).To(Equal("insight: go slow"))
	})

	It("falls back to all string fields when no priority field has a value", func() {
		text := category.EmbedText("self_knowledge", map[string]any{
			"source": "session",
			"id":     int64(1),
		})
		Expect(text).To(Equal("source: session"))
	})

	It("returns empty for rows with no text at all", func() {
		Expect(category.EmbedText("fears", map[string]any{"id": int64(9)})).To(BeEmpty())
	})

	It("marks exactly the semantic tables embeddable", func() {
		Expect(category.IsEmbeddable("fears")).To(BeTrue())
		Expect(category.IsEmbeddable("questions")).To(BeTrue())
		Expect(category.IsEmbeddable("entry_connections")).To(BeFalse())
		Expect(category.IsEmbeddable("aspirations")).To(BeFalse())
		Expect(category.EmbeddableTables).To(HaveLen(27))
	})

	It("has a field list for every embeddable table", func() {
		for _, table := range category.EmbeddableTables {
			_, ok := category.TableNamed(table)
			Expect(ok).To(BeTrue(), "embeddable table %s missing from schema", table)
			text := category.EmbedText(table, map[string]any{"only": "fallback"})
			Expect(text).To(Equal("only: fallback"))
		}
	})
})
