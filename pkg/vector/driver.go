// Package vector provides interfaces and implementations for vector storage and embedding.
package vector

import "context"

// Entry represents a stored row projection with its embedding and metadata.
type Entry struct {
	// ID is the unique identifier for the entry, formed as
	// "{source_table}_{source_id}". The same row always maps to the same
	// ID, which is what makes re-syncing idempotent.
	ID string

	// Embedding is the vector representation of the entry document.
	Embedding []float32

	// Document is the text that was embedded.
	Document string

	// Metadata carries provenance: at minimum source_table, source_id
	// and synced_at.
	Metadata map[string]string
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Entry

	// Score is the similarity score in [0, 1] (higher = more similar).
	Score float32
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Upsert stores entries with their embeddings. An entry whose ID
	// already exists is replaced.
	Upsert(ctx context.Context, entries []Entry) error

	// Query finds the topK most similar entries to the given embedding.
	// A non-empty tables slice restricts results to entries whose
	// source_table is in the slice.
	Query(ctx context.Context, embedding []float32, topK int, tables []string) ([]QueryResult, error)

	// IDs returns the IDs of every stored entry. Used for drift detection
	// during bulk sync.
	IDs(ctx context.Context) ([]string, error)

	// All returns every stored entry with its embedding. Used for
	// whole-index analysis such as clustering.
	All(ctx context.Context) ([]Entry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Delete removes entries by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}

// EntryID builds the canonical vector entry ID for a relational row.
func EntryID(table string, id int64) string {
	return formatEntryID(table, id)
}
