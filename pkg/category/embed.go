package category

import (
	"fmt"
	"sort"
	"strings"
)

// EmbeddableTables is the allow-list of tables whose rows get vector
// entries. Structural tables (entry_connections) and weakly-semantic ones
// (sensory_memories, creative_works, skills_competencies, aspirations,
// beauties, inferred_patterns) are relational-only.
var EmbeddableTables = []string{
	"self_knowledge", "life_events", "stories", "relationships",
	"decisions", "mistakes", "reasoning_patterns", "value_hierarchies",
	"cognitive_biases", "contradictions", "meaning_structures",
	"mortality_awareness", "body_knowledge",
	"fears", "joys", "sorrows", "loves", "longings",
	"wounds", "healings", "losses", "growth",
	"strengths", "vulnerabilities", "regrets", "wisdom", "questions",
}

// IsEmbeddable reports whether rows of table belong in the vector index.
func IsEmbeddable(table string) bool {
	for _, t := range EmbeddableTables {
		if t == table {
			return true
		}
	}
	return false
}

// embedFields lists, per table, the columns that carry the row's meaning,
// in priority order. Columns absent from a row are skipped.
var embedFields = map[string][]string{
	"self_knowledge":      {"category", "insight", "evidence"},
	"life_events":         {"event_type", "title", "description", "location", "impact", "lessons_learned"},
	"stories":             {"title", "full_narrative", "period", "themes"},
	"relationships":       {"person_name", "relationship_type", "significance", "shared_experiences"},
	"decisions":           {"title", "context", "what_was_chosen", "reasoning", "what_it_reveals"},
	"mistakes":            {"title", "what_happened", "why_it_happened", "pattern_category"},
	"reasoning_patterns":  {"pattern_name", "description", "when_used", "evidence"},
	"value_hierarchies":   {"value", "sacrifice_evidence", "evolution", "evidence"},
	"cognitive_biases":    {"bias_name", "description", "how_it_manifests", "evidence"},
	"contradictions":      {"tension", "how_navigated", "what_it_reveals"},
	"meaning_structures":  {"source_of_meaning", "category", "how_expressed"},
	"mortality_awareness": {"insight", "category", "what_changed", "impact_on_priorities"},
	"body_knowledge":      {"insight", "category", "what_body_knows"},
	"fears":               {"fear", "what_it_protects", "triggers", "behavioral_response"},
	"joys":                {"joy", "category", "what_it_feels_like", "connection_to_meaning"},
	"sorrows":             {"title", "description", "what_was_lost", "impact"},
	"loves":               {"what_or_who", "description", "why_loved", "how_expressed"},
	"longings":            {"what_is_longed_for", "description", "why_unfulfilled"},
	"wounds":              {"title", "description", "source", "how_it_manifests"},
	"healings":            {"title", "what_was_healed", "how_healed", "what_helped"},
	"losses":              {"what_was_lost", "description", "relationship_to_subject", "impact"},
	"growth":              {"title", "description", "what_triggered_growth", "what_was_gained"},
	"strengths":           {"strength_name", "description", "how_developed", "how_it_helps"},
	"vulnerabilities":     {"vulnerability", "description", "triggers", "how_managed"},
	"regrets":             {"what_happened", "what_would_do_differently", "why_it_matters", "lessons_learned"},
	"wisdom":              {"insight", "domain", "how_learned", "when_applicable"},
	"questions":           {"question", "context", "why_unresolved", "current_thinking"},
}

// EmbedText builds the canonical embedding document for a row: one
// "field: value" line per meaning-bearing column, skipping empties. When no
// priority field carries a value, every non-empty string column is used in
// sorted key order so the document stays deterministic.
func EmbedText(table string, row map[string]any) string {
	var parts []string

	for _, field := range embedFields[table] {
		v, ok := row[field]
		if !ok {
			continue
		}
		s := valueString(v)
		if s == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", field, s))
	}

	if len(parts) == 0 {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := row[k].(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					parts = append(parts, fmt.Sprintf("%s: %s", k, s))
				}
			}
		}
	}

	return strings.Join(parts, "\n")
}

func valueString(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		s = fmt.Sprintf("%v", t)
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", "null":
		return ""
	}
	return s
}
