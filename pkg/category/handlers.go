package category

import (
	"strings"
	"time"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/utils"
)

// head returns the first n characters of s, with no ellipsis. Used where a
// title column falls back to a prefix of the insight.
func head(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var registry = map[string]Handler{
	"self_knowledge": handler{"self_knowledge", func(rec extraction.Record) map[string]any {
		return selfKnowledge(utils.FirstNonEmpty(rec.SubCategory, "general"), rec)
	}},
	"philosophies": handler{"self_knowledge", func(rec extraction.Record) map[string]any {
		return selfKnowledge("philosophy", rec)
	}},
	"preferences": handler{"self_knowledge", func(rec extraction.Record) map[string]any {
		return selfKnowledge("preference", rec)
	}},
	"life_events": handler{"life_events", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":           utils.FirstNonEmpty(rec.Title, head(rec.Insight, 50)),
			"event_type":      utils.FirstNonEmpty(rec.EventType, rec.SubCategory, "general"),
			"date_start":      utils.FirstNonEmpty(rec.Date, rec.TimePeriod),
			"location":        rec.Location,
			"description":     rec.Insight,
			"impact":          utils.FirstNonEmpty(rec.Analysis, rec.Impact),
			"lessons_learned": rec.LessonsLearned,
			"significance":    rec.Significance,
		}
	}},
	"stories": handler{"stories", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":            utils.FirstNonEmpty(rec.Title, "Untitled Story"),
			"full_narrative":   rec.Insight,
			"period":           rec.TimePeriod,
			"themes":           strings.Join(rec.RelatedTopics, ","),
			"emotional_weight": rec.Significance,
		}
	}},
	"relationships": handler{"relationships", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"person_name":            utils.FirstNonEmpty(rec.Title, head(rec.Insight, 50), "Unknown Person"),
			"relationship_type":      utils.FirstNonEmpty(rec.SubCategory, rec.RelationshipType),
			"how_met":                rec.HowMet,
			"period_of_relationship": rec.TimePeriod,
			"current_status":         rec.CurrentStatus,
			"significance":           rec.Insight,
			"shared_experiences":     rec.Evidence,
		}
	}},
	"decisions": handler{"decisions", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":           utils.FirstNonEmpty(rec.Title, "Untitled Decision"),
			"context":         rec.Context,
			"what_was_chosen": rec.Insight,
			"reasoning":       rec.Analysis,
			"what_it_reveals": rec.WhatItReveals,
			"evidence":        rec.Evidence,
			"significance":    rec.Significance,
		}
	}},
	"mistakes": handler{"mistakes", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":            utils.FirstNonEmpty(rec.Title, "Untitled"),
			"what_happened":    rec.Insight,
			"why_it_happened":  rec.Analysis,
			"pattern_category": rec.SubCategory,
			"evidence":         rec.Evidence,
			"significance":     rec.Significance,
		}
	}},
	"reasoning_patterns": handler{"reasoning_patterns", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"pattern_name": utils.FirstNonEmpty(rec.Title, "Unnamed Pattern"),
			"description":  rec.Insight,
			"when_used":    rec.Analysis,
			"evidence":     rec.Evidence,
			"confidence":   utils.FirstNonEmpty(rec.Confidence, "medium"),
		}
	}},
	"value_hierarchies": handler{"value_hierarchies", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"value":              utils.FirstNonEmpty(rec.Title, head(rec.Insight, 50)),
			"sacrifice_evidence": rec.Insight,
			"evolution":          rec.Analysis,
			"evidence":           rec.Evidence,
		}
	}},
	"cognitive_biases": handler{"cognitive_biases", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"bias_name":        utils.FirstNonEmpty(rec.Title, "Unnamed Bias"),
			"description":      rec.Insight,
			"how_it_manifests": rec.Analysis,
			"evidence":         rec.Evidence,
		}
	}},
	"fears": handler{"fears", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"fear":                utils.FirstNonEmpty(rec.Title, head(rec.Insight, 50)),
			"what_it_protects":    rec.Analysis,
			"triggers":            rec.SubCategory,
			"behavioral_response": rec.Insight,
			"evidence":            rec.Evidence,
			"significance":        rec.Significance,
		}
	}},
	"joys": handler{"joys", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"joy":                   utils.FirstNonEmpty(rec.Title, head(rec.Insight, 50)),
			"category":              rec.SubCategory,
			"what_it_feels_like":    rec.Insight,
			"connection_to_meaning": rec.Analysis,
			"evidence":              rec.Evidence,
		}
	}},
	"wisdom": handler{"wisdom", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"insight":         rec.Insight,
			"domain":          rec.SubCategory,
			"how_learned":     rec.Analysis,
			"when_applicable": rec.Title,
			"evidence":        rec.Evidence,
		}
	}},
	"contradictions": handler{"contradictions", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"tension":         utils.FirstNonEmpty(rec.Title, head(rec.Insight, 100)),
			"how_navigated":   rec.Insight,
			"what_it_reveals": rec.Analysis,
			"evidence":        rec.Evidence,
		}
	}},
	"meaning_structures": handler{"meaning_structures", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"source_of_meaning": utils.FirstNonEmpty(rec.Title, head(rec.Insight, 50)),
			"category":          rec.SubCategory,
			"how_expressed":     rec.Insight,
			"evidence":          rec.Evidence,
			"significance":      rec.Significance,
		}
	}},
	"mortality_awareness": handler{"mortality_awareness", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"insight":              rec.Insight,
			"category":             rec.SubCategory,
			"what_changed":         rec.Analysis,
			"impact_on_priorities": rec.Title,
			"evidence":             rec.Evidence,
		}
	}},
	"beauties": handler{"beauties", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"what":          utils.FirstNonEmpty(rec.Title, head(rec.Insight, 50)),
			"category":      rec.SubCategory,
			"response":      rec.Insight,
			"why_beautiful": rec.Analysis,
			"evidence":      rec.Evidence,
		}
	}},
	"body_knowledge": handler{"body_knowledge", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"insight":         rec.Insight,
			"category":        rec.SubCategory,
			"how_learned":     rec.Title,
			"what_body_knows": rec.Analysis,
			"evidence":        rec.Evidence,
		}
	}},
	"inferred_patterns": handler{"inferred_patterns", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"pattern_name":        utils.FirstNonEmpty(rec.Title, "Unnamed Pattern"),
			"pattern_type":        rec.SubCategory,
			"description":         rec.Insight,
			"supporting_evidence": rec.Evidence,
			"confidence":          utils.FirstNonEmpty(rec.Confidence, "medium"),
		}
	}},
	"sorrows": handler{"sorrows", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":         rec.Title,
			"description":   rec.Insight,
			"what_was_lost": rec.SubCategory,
			"when_occurred": utils.FirstNonEmpty(rec.TimePeriod, rec.WhenOccurred),
			"impact":        rec.Impact,
			"how_processed": rec.Analysis,
			"evidence":      rec.Evidence,
			"significance":  rec.Significance,
		}
	}},
	"wounds": handler{"wounds", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":             rec.Title,
			"description":       rec.Insight,
			"source":            rec.SubCategory,
			"age_when_occurred": rec.TimePeriod,
			"how_it_manifests":  rec.Analysis,
			"healing_status":    rec.HealingStatus,
			"evidence":          rec.Evidence,
			"significance":      rec.Significance,
		}
	}},
	"losses": handler{"losses", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"what_was_lost":           rec.Title,
			"description":             rec.Insight,
			"when_occurred":           rec.TimePeriod,
			"relationship_to_subject": rec.SubCategory,
			"impact":                  rec.Impact,
			"grieving_process":        rec.Analysis,
			"evidence":                rec.Evidence,
			"significance":            rec.Significance,
		}
	}},
	"healings": handler{"healings", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":           rec.Title,
			"what_was_healed": rec.SubCategory,
			"how_healed":      rec.Insight,
			"when_healed":     rec.TimePeriod,
			"what_helped":     rec.Analysis,
			"evidence":        rec.Evidence,
			"significance":    rec.Significance,
		}
	}},
	"growth": handler{"growth", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":                 rec.Title,
			"description":           rec.Insight,
			"what_triggered_growth": rec.SubCategory,
			"what_was_gained":       rec.Analysis,
			"time_period":           rec.TimePeriod,
			"evidence":              rec.Evidence,
			"significance":          rec.Significance,
		}
	}},
	"loves": handler{"loves", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"what_or_who":    rec.Title,
			"description":    rec.Insight,
			"why_loved":      rec.Analysis,
			"how_expressed":  rec.SubCategory,
			"time_period":    rec.TimePeriod,
			"current_status": rec.CurrentStatus,
			"evidence":       rec.Evidence,
			"significance":   rec.Significance,
		}
	}},
	"longings": handler{"longings", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"what_is_longed_for": rec.Title,
			"description":        rec.Insight,
			"why_unfulfilled":    rec.Analysis,
			"how_it_manifests":   rec.SubCategory,
			"related_to":         rec.RelatedTo,
			"evidence":           rec.Evidence,
			"significance":       rec.Significance,
		}
	}},
	"strengths": handler{"strengths", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"strength_name": rec.Title,
			"description":   rec.Insight,
			"how_developed": rec.Analysis,
			"how_it_helps":  rec.SubCategory,
			"evidence":      rec.Evidence,
			"significance":  rec.Significance,
		}
	}},
	"vulnerabilities": handler{"vulnerabilities", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"vulnerability": rec.Title,
			"description":   rec.Insight,
			"triggers":      rec.SubCategory,
			"how_managed":   rec.Analysis,
			"evidence":      rec.Evidence,
			"significance":  rec.Significance,
		}
	}},
	"regrets": handler{"regrets", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"what_happened":             rec.Title,
			"what_would_do_differently": rec.Insight,
			"why_it_matters":            rec.Analysis,
			"lessons_learned":           rec.SubCategory,
			"time_period":               rec.TimePeriod,
			"evidence":                  rec.Evidence,
			"significance":              rec.Significance,
		}
	}},
	"questions": handler{"questions", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"question":         rec.Title,
			"context":          rec.SubCategory,
			"why_unresolved":   rec.Insight,
			"current_thinking": rec.Analysis,
			"evidence":         rec.Evidence,
			"significance":     rec.Significance,
		}
	}},
	"sensory_memories": handler{"sensory_memories", func(rec extraction.Record) map[string]any {
		triggers := 0
		if rec.TriggersMemory {
			triggers = 1
		}
		return map[string]any{
			"title":             rec.Title,
			"modality":          utils.FirstNonEmpty(rec.SubCategory, rec.Modality),
			"sensory_content":   rec.Insight,
			"associated_memory": utils.FirstNonEmpty(rec.Analysis, rec.AssociatedMemory),
			"emotional_charge":  rec.EmotionalCharge,
			"triggers_memory":   triggers,
		}
	}},
	"creative_works": handler{"creative_works", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":          rec.Title,
			"medium":         utils.FirstNonEmpty(rec.SubCategory, rec.Medium),
			"description":    rec.Insight,
			"date_created":   rec.TimePeriod,
			"motivation":     rec.Motivation,
			"reception":      rec.Reception,
			"current_status": rec.CurrentStatus,
		}
	}},
	"skills_competencies": handler{"skills_competencies", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"skill_name":        rec.Title,
			"category":          rec.SubCategory,
			"proficiency_level": rec.ProficiencyLevel,
			"how_acquired":      rec.Insight,
			"years_practiced":   rec.YearsPracticed,
			"last_used":         rec.LastUsed,
		}
	}},
	"aspirations": handler{"aspirations", func(rec extraction.Record) map[string]any {
		return map[string]any{
			"title":         rec.Title,
			"description":   rec.Insight,
			"category":      rec.SubCategory,
			"urgency":       rec.Urgency,
			"achievability": rec.Achievability,
			"time_horizon":  rec.TimeHorizon,
		}
	}},
}

func selfKnowledge(cat string, rec extraction.Record) map[string]any {
	return map[string]any{
		"category":      cat,
		"insight":       rec.Insight,
		"evidence":      rec.Evidence,
		"date_realized": time.Now().Format("2006-01-02"),
		"source":        "biographer_session",
	}
}
