// Package enrich coordinates the dual write of extraction records: the
// relational insert first, then the immediate vector sync.
//
// The relational store is the source of truth. A record counts as Added
// once its insert commits; a vector failure after that point is recorded
// as a sync failure and logged, never rolled back. Bulk sync repairs the
// drift later by re-deriving every vector entry from the relational rows.
package enrich

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/category"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/embeddings"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/eventstream"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

// DefaultEmbedTimeout bounds the embedding call during an immediate sync.
// A slow embedding server delays one record, not the whole batch.
const DefaultEmbedTimeout = 30 * time.Second

// Result tallies the outcome of one batch.
type Result struct {
	// Added counts records whose relational insert committed.
	Added int

	// Skipped counts records rejected before insert (no insight, invalid
	// connection endpoints).
	Skipped int

	// Errors counts records whose relational insert failed.
	Errors int

	// SyncFailures counts records that were Added but whose vector sync
	// failed. They remain queryable relationally and are repaired by the
	// next bulk sync.
	SyncFailures int
}

// Config holds optional enricher settings.
type Config struct {
	// EmbedTimeout bounds each embedding call. Defaults to
	// DefaultEmbedTimeout if zero.
	EmbedTimeout time.Duration

	// Source is stamped onto every published entry event.
	Source eventstream.EventSource
}

// Enricher routes extraction records into the relational store and keeps
// the vector index in step.
type Enricher struct {
	store        storage.Driver
	vectors      vector.Driver
	embedder     embeddings.Embedder
	publisher    eventstream.Publisher
	logger       *zap.Logger
	source       eventstream.EventSource
	embedTimeout time.Duration
}

// NewEnricher creates an enricher. The publisher may be a nop publisher
// when eventing is disabled.
func NewEnricher(
	cfg Config,
	store storage.Driver,
	vectors vector.Driver,
	embedder embeddings.Embedder,
	publisher eventstream.Publisher,
	logger *zap.Logger,
) *Enricher {
	timeout := cfg.EmbedTimeout
	if timeout == 0 {
		timeout = DefaultEmbedTimeout
	}

	return &Enricher{
		store:        store,
		vectors:      vectors,
		embedder:     embedder,
		publisher:    publisher,
		logger:       logger,
		source:       cfg.Source,
		embedTimeout: timeout,
	}
}

// ProcessBatch processes a full extraction batch: records first, then
// connections.
func (e *Enricher) ProcessBatch(ctx context.Context, batch *extraction.Batch) (records Result, connections Result) {
	records = e.ProcessExtractions(ctx, batch.Extractions)
	connections = e.ProcessConnections(ctx, batch.Connections, "extraction")
	return records, connections
}

// ProcessExtractions routes each record through its category handler and
// persists it. Records are independent: one failure never aborts the rest
// of the batch.
func (e *Enricher) ProcessExtractions(ctx context.Context, records []extraction.Record) Result {
	var result Result

	for _, rec := range records {
		if rec.Insight == "" {
			result.Skipped++
			continue
		}

		handler, known := category.Lookup(rec.Category)
		if !known {
			e.logger.Debug("unknown category routed to self_knowledge",
				zap.String("category", rec.Category),
			)
		}

		table := handler.Table()
		values := handler.Normalize(rec)
		addProvenance(values, rec)

		id, err := e.store.Insert(ctx, table, values)
		if err != nil {
			e.logger.Error("relational insert failed",
				zap.String("table", table),
				zap.String("category", rec.Category),
				zap.Error(err),
			)
			result.Errors++
			continue
		}
		result.Added++

		synced := true
		if category.IsEmbeddable(table) {
			if err := e.syncEntry(ctx, table, id, values); err != nil {
				e.logger.Warn("vector sync failed, row remains relational-only",
					zap.String("entry_id", vector.EntryID(table, id)),
					zap.Error(err),
				)
				result.SyncFailures++
				synced = false
			}
		}

		e.publish(ctx, rec, table, id, synced)
	}

	return result
}

// ProcessConnections persists entry connections. Endpoints are matched by
// title only; the id columns stay null until a resolution pass binds them.
func (e *Enricher) ProcessConnections(ctx context.Context, connections []extraction.Connection, sourcePass string) Result {
	var result Result

	for _, conn := range connections {
		if !conn.Valid() {
			result.Skipped++
			continue
		}

		if err := e.AddConnection(ctx, conn, sourcePass); err != nil {
			e.logger.Error("connection insert failed",
				zap.String("entry_1_title", conn.Entry1Title),
				zap.String("entry_2_title", conn.Entry2Title),
				zap.Error(err),
			)
			result.Errors++
			continue
		}
		result.Added++
	}

	return result
}

// AddConnection persists a single entry connection. Connections carry no
// insight text and are never vector-synced.
func (e *Enricher) AddConnection(ctx context.Context, conn extraction.Connection, sourcePass string) error {
	values := map[string]any{
		"entry_1_table":   conn.Entry1Table,
		"entry_1_title":   conn.Entry1Title,
		"entry_2_table":   conn.Entry2Table,
		"entry_2_title":   conn.Entry2Title,
		"connection_type": conn.ConnectionType,
		"description":     conn.Description,
		"source_pass":     sourcePass,
		"date_recorded":   time.Now().Format(time.RFC3339),
	}

	_, err := e.store.Insert(ctx, category.ConnectionsTable, values)
	return err
}

// syncEntry embeds the row's canonical document and upserts it into the
// vector index under the row's stable entry ID.
func (e *Enricher) syncEntry(ctx context.Context, table string, id int64, values map[string]any) error {
	document := category.EmbedText(table, values)
	if document == "" {
		return nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	defer cancel()

	embedding, err := e.embedder.EmbedDocument(embedCtx, document)
	if err != nil {
		return err
	}

	entry := vector.Entry{
		ID:        vector.EntryID(table, id),
		Embedding: embedding,
		Document:  document,
		Metadata: map[string]string{
			"source_table": table,
			"source_id":    formatID(id),
			"synced_at":    time.Now().UTC().Format(time.RFC3339),
		},
	}

	return e.vectors.Upsert(ctx, []vector.Entry{entry})
}

// publish emits the entry event. Publishing is best-effort; a broker
// outage must not affect the write path.
func (e *Enricher) publish(ctx context.Context, rec extraction.Record, table string, id int64, synced bool) {
	event := eventstream.NewEntryRecordedEvent(e.source, eventstream.EntryMeta{
		Table:        table,
		RowID:        id,
		EntryID:      vector.EntryID(table, id),
		Category:     rec.Category,
		Title:        rec.Title,
		Significance: rec.Significance,
		VectorSynced: synced,
	})

	if err := e.publisher.PublishEntry(ctx, event); err != nil {
		e.logger.Warn("entry event publish failed",
			zap.String("entry_id", event.Entry.EntryID),
			zap.Error(err),
		)
	}
}

// addProvenance appends the provenance columns shared by every category
// table. The connections table manages its own columns and never passes
// through here.
func addProvenance(values map[string]any, rec extraction.Record) {
	values["source_quote"] = rec.SourceQuote
	values["evidence_type"] = rec.EvidenceType
	values["life_period"] = rec.LifePeriod
	values["prompt_version"] = rec.PromptVersion
	values["date_recorded"] = time.Now().Format(time.RFC3339)
	if rec.ApproximateYear != 0 {
		values["approximate_year"] = rec.ApproximateYear
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
