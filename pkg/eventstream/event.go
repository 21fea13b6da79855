package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeEntryRecorded is emitted after an extraction record is
	// persisted to the relational store.
	EventTypeEntryRecorded = "biographer.entry.recorded"
)

// EntryRecordedEvent is a transport-neutral event payload for a persisted
// memory entry. It is emitted after the relational insert commits; the
// vector_synced flag reports whether the immediate vector sync succeeded.
type EntryRecordedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Entry         EntryMeta   `json:"entry"`
}

// EventSource identifies where the entry originated.
type EventSource struct {
	Project string `json:"project,omitempty"`
	Session string `json:"session,omitempty"`
}

// EntryMeta captures where the entry landed and what it was.
type EntryMeta struct {
	Table        string `json:"table"`
	RowID        int64  `json:"row_id"`
	EntryID      string `json:"entry_id"`
	Category     string `json:"category"`
	Title        string `json:"title,omitempty"`
	Significance int    `json:"significance,omitempty"`
	VectorSynced bool   `json:"vector_synced"`
}

// NewEntryRecordedEvent builds an event with a fresh id and timestamp.
func NewEntryRecordedEvent(source EventSource, entry EntryMeta) *EntryRecordedEvent {
	return &EntryRecordedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeEntryRecorded,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Entry:         entry,
	}
}
