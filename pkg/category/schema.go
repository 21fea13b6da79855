package category

// Column is a single relational column. Type is the SQLite-style affinity
// name ("TEXT" or "INTEGER"); the postgres driver maps these to its own
// types.
type Column struct {
	Name string
	Type string
}

// Table is a relational table definition: its category-specific columns
// followed by the shared provenance columns. Every table also gets an
// implicit integer primary key named "id", added by the storage drivers.
type Table struct {
	Name    string
	Columns []Column
}

// provenanceColumns are common to every category table: where the fact came
// from, when in the subject's life it happened, and when it was recorded.
var provenanceColumns = []Column{
	{"source_quote", "TEXT"},
	{"evidence_type", "TEXT"},
	{"life_period", "TEXT"},
	{"approximate_year", "INTEGER"},
	{"prompt_version", "TEXT"},
	{"date_recorded", "TEXT"},
}

func text(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{n, "TEXT"}
	}
	return cols
}

func withSignificance(cols []Column) []Column {
	return append(cols, Column{"significance", "INTEGER"})
}

// tableDefs is the authoritative relational schema, one table per category.
// Schema evolution is append-only: new tables and columns may be added,
// existing ones are never removed or retyped.
var tableDefs = []Table{
	{"self_knowledge", text("category", "insight", "evidence", "date_realized", "source")},
	{"life_events", withSignificance(text("title", "event_type", "date_start", "location", "description", "impact", "lessons_learned"))},
	{"stories", append(text("title", "full_narrative", "period", "themes"), Column{"emotional_weight", "INTEGER"})},
	{"relationships", text("person_name", "relationship_type", "how_met", "period_of_relationship", "current_status", "significance", "shared_experiences")},
	{"decisions", withSignificance(text("title", "context", "what_was_chosen", "reasoning", "what_it_reveals", "evidence"))},
	{"mistakes", withSignificance(text("title", "what_happened", "why_it_happened", "pattern_category", "evidence"))},
	{"reasoning_patterns", text("pattern_name", "description", "when_used", "evidence", "confidence")},
	{"value_hierarchies", text("value", "sacrifice_evidence", "evolution", "evidence")},
	{"cognitive_biases", text("bias_name", "description", "how_it_manifests", "evidence")},
	{"fears", withSignificance(text("fear", "what_it_protects", "triggers", "behavioral_response", "evidence"))},
	{"joys", text("joy", "category", "what_it_feels_like", "connection_to_meaning", "evidence")},
	{"wisdom", text("insight", "domain", "how_learned", "when_applicable", "evidence")},
	{"contradictions", text("tension", "how_navigated", "what_it_reveals", "evidence")},
	{"meaning_structures", withSignificance(text("source_of_meaning", "category", "how_expressed", "evidence"))},
	{"mortality_awareness", text("insight", "category", "what_changed", "impact_on_priorities", "evidence")},
	{"beauties", text("what", "category", "response", "why_beautiful", "evidence")},
	{"body_knowledge", text("insight", "category", "how_learned", "what_body_knows", "evidence")},
	{"inferred_patterns", text("pattern_name", "pattern_type", "description", "supporting_evidence", "confidence")},
	{"sorrows", withSignificance(text("title", "description", "what_was_lost", "when_occurred", "impact", "how_processed", "evidence"))},
	{"wounds", withSignificance(text("title", "description", "source", "age_when_occurred", "how_it_manifests", "healing_status", "evidence"))},
	{"losses", withSignificance(text("what_was_lost", "description", "when_occurred", "relationship_to_subject", "impact", "grieving_process", "evidence"))},
	{"healings", withSignificance(text("title", "what_was_healed", "how_healed", "when_healed", "what_helped", "evidence"))},
	{"growth", withSignificance(text("title", "description", "what_triggered_growth", "what_was_gained", "time_period", "evidence"))},
	{"loves", withSignificance(text("what_or_who", "description", "why_loved", "how_expressed", "time_period", "current_status", "evidence"))},
	{"longings", withSignificance(text("what_is_longed_for", "description", "why_unfulfilled", "how_it_manifests", "related_to", "evidence"))},
	{"strengths", withSignificance(text("strength_name", "description", "how_developed", "how_it_helps", "evidence"))},
	{"vulnerabilities", withSignificance(text("vulnerability", "description", "triggers", "how_managed", "evidence"))},
	{"regrets", withSignificance(text("what_happened", "what_would_do_differently", "why_it_matters", "lessons_learned", "time_period", "evidence"))},
	{"questions", withSignificance(text("question", "context", "why_unresolved", "current_thinking", "evidence"))},
	{"sensory_memories", append(text("title", "modality", "sensory_content", "associated_memory", "emotional_charge"), Column{"triggers_memory", "INTEGER"})},
	{"creative_works", text("title", "medium", "description", "date_created", "motivation", "reception", "current_status")},
	{"skills_competencies", append(text("skill_name", "category", "proficiency_level", "how_acquired"), Column{"years_practiced", "INTEGER"}, Column{"last_used", "TEXT"})},
	{"aspirations", text("title", "description", "category", "urgency", "achievability", "time_horizon")},
}

// connectionsTable is the relational graph layer. Endpoint ids are nullable;
// the extraction pass only knows titles.
var connectionsTable = Table{
	Name: "entry_connections",
	Columns: []Column{
		{"entry_1_table", "TEXT"},
		{"entry_1_id", "INTEGER"},
		{"entry_1_title", "TEXT"},
		{"entry_2_table", "TEXT"},
		{"entry_2_id", "INTEGER"},
		{"entry_2_title", "TEXT"},
		{"connection_type", "TEXT"},
		{"description", "TEXT"},
		{"source_pass", "TEXT"},
		{"date_recorded", "TEXT"},
	},
}

// ConnectionsTable is the name of the entry connections table.
const ConnectionsTable = "entry_connections"

// Tables returns the full relational schema: every category table (with
// provenance columns appended) plus the entry connections table.
func Tables() []Table {
	tables := make([]Table, 0, len(tableDefs)+1)
	for _, def := range tableDefs {
		cols := make([]Column, 0, len(def.Columns)+len(provenanceColumns))
		cols = append(cols, def.Columns...)
		cols = append(cols, provenanceColumns...)
		tables = append(tables, Table{Name: def.Name, Columns: cols})
	}
	tables = append(tables, connectionsTable)
	return tables
}

// TableNamed returns the schema definition for a table, or false when the
// table is not part of the schema.
func TableNamed(name string) (Table, bool) {
	for _, t := range Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
