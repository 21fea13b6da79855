// Package extraction defines the wire format for LLM-produced extraction
// records and entry connections.
//
// Records arrive as loosely-shaped JSON from the extraction collaborator.
// Decoding is deliberately tolerant: unknown fields are ignored, missing
// fields default, and the only hard requirement enforced downstream is a
// non-empty Insight. A record is consumed exactly once by the enricher;
// only its normalized projection is persisted.
package extraction

import (
	"encoding/json"
	"fmt"
	"io"
)

// DefaultSignificance is applied when a record does not carry a
// significance rating.
const DefaultSignificance = 5

// Record is a single candidate fact about the subject, as produced by the
// extraction collaborator. Category selects the target table; Insight is
// the primary content. Everything else is optional and defaulted by the
// per-category normalizers.
type Record struct {
	Category     string `json:"category"`
	Title        string `json:"title"`
	Insight      string `json:"insight"`
	Evidence     string `json:"evidence"`
	SubCategory  string `json:"sub_category"`
	TimePeriod   string `json:"time_period"`
	Significance int    `json:"significance"`
	Analysis     string `json:"analysis"`

	// Category-specific optional fields.
	Context          string   `json:"context"`
	EventType        string   `json:"event_type"`
	Date             string   `json:"date"`
	Location         string   `json:"location"`
	Impact           string   `json:"impact"`
	LessonsLearned   string   `json:"lessons_learned"`
	RelatedTopics    []string `json:"related_topics"`
	RelationshipType string   `json:"relationship_type"`
	HowMet           string   `json:"how_met"`
	CurrentStatus    string   `json:"current_status"`
	WhatItReveals    string   `json:"what_it_reveals"`
	Confidence       string   `json:"confidence"`
	WhenOccurred     string   `json:"when_occurred"`
	HealingStatus    string   `json:"healing_status"`
	RelatedTo        string   `json:"related_to"`
	Modality         string   `json:"modality"`
	AssociatedMemory string   `json:"associated_memory"`
	EmotionalCharge  string   `json:"emotional_charge"`
	TriggersMemory   bool     `json:"triggers_memory"`
	Medium           string   `json:"medium"`
	Motivation       string   `json:"motivation"`
	Reception        string   `json:"reception"`
	ProficiencyLevel string   `json:"proficiency_level"`
	YearsPracticed   int      `json:"years_practiced"`
	LastUsed         string   `json:"last_used"`
	Urgency          string   `json:"urgency"`
	Achievability    string   `json:"achievability"`
	TimeHorizon      string   `json:"time_horizon"`

	// Provenance fields, common to every category table.
	SourceQuote     string `json:"source_quote"`
	EvidenceType    string `json:"evidence_type"`
	LifePeriod      string `json:"life_period"`
	ApproximateYear int    `json:"approximate_year"`
	PromptVersion   string `json:"prompt_version"`
}

// UnmarshalJSON decodes a record and applies defaults: significance falls
// back to DefaultSignificance and is clamped to 1..10.
func (r *Record) UnmarshalJSON(data []byte) error {
	type alias Record
	var a alias
	a.Significance = DefaultSignificance
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Significance < 1 {
		a.Significance = 1
	}
	if a.Significance > 10 {
		a.Significance = 10
	}
	*r = Record(a)
	return nil
}

// Batch is the full payload the extraction collaborator hands over for one
// conversation pass: the extracted facts plus any cross-entry connections.
type Batch struct {
	Extractions []Record     `json:"extractions"`
	Connections []Connection `json:"connections"`
}

// DecodeBatch reads a JSON batch from r. A top-level JSON array is accepted
// as a bare list of extraction records with no connections.
func DecodeBatch(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading batch: %w", err)
	}

	for _, c := range data {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			continue
		}
		if c == '[' {
			var records []Record
			if err := json.Unmarshal(data, &records); err != nil {
				return nil, fmt.Errorf("decoding extraction list: %w", err)
			}
			return &Batch{Extractions: records}, nil
		}
		break
	}

	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("decoding batch: %w", err)
	}
	return &batch, nil
}
