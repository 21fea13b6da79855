// Package backfill rebuilds the vector index from the relational store.
//
// The relational store is the source of truth, so a full sync can always
// regenerate every vector entry: rows missed by the immediate sync (an
// embedding server outage, a crash between the two writes) are embedded
// and upserted, and vector entries whose source row no longer exists are
// pruned. Running it twice is harmless.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/category"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/embeddings"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

// Options configures backfill behavior.
type Options struct {
	// DryRun reports what would be synced without writing to the index.
	DryRun bool

	// KeepOrphans leaves vector entries in place even when their source
	// row is gone.
	KeepOrphans bool

	// Progress, if set, is called after each table finishes.
	Progress func(table string, synced, total int)
}

// Backfiller regenerates vector entries from relational rows.
type Backfiller struct {
	store    storage.Driver
	vectors  vector.Driver
	embedder embeddings.Embedder
	logger   *zap.Logger
	options  Options
}

// NewBackfiller creates a Backfiller over an already-open store and index.
func NewBackfiller(
	store storage.Driver,
	vectors vector.Driver,
	embedder embeddings.Embedder,
	logger *zap.Logger,
	opts Options,
) *Backfiller {
	return &Backfiller{
		store:    store,
		vectors:  vectors,
		embedder: embedder,
		logger:   logger,
		options:  opts,
	}
}

// Run walks every embeddable table, embeds each row's canonical document
// and upserts it under the row's stable entry ID. Rows that fail to embed
// or upsert are counted and skipped; one bad row never aborts the run.
func (b *Backfiller) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	seen := make(map[string]bool)

	for _, table := range category.EmbeddableTables {
		rows, err := b.store.Rows(ctx, table)
		if err != nil {
			var noTable storage.ErrNoTable
			if errors.As(err, &noTable) {
				// Older databases predate some tables.
				b.logger.Warn("table missing, skipping", zap.String("table", table))
				result.TablesMissing++
				continue
			}
			return nil, fmt.Errorf("failed to read table %s: %w", table, err)
		}

		result.TablesScanned++
		synced := 0

		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			id, ok := rowID(row)
			if !ok {
				result.Skipped++
				continue
			}
			entryID := vector.EntryID(table, id)
			seen[entryID] = true

			document := category.EmbedText(table, row)
			if document == "" {
				result.Skipped++
				continue
			}

			if b.options.DryRun {
				result.Synced++
				synced++
				continue
			}

			if err := b.syncRow(ctx, table, id, entryID, document); err != nil {
				b.logger.Warn("row sync failed",
					zap.String("entry_id", entryID),
					zap.Error(err),
				)
				result.Failures++
				continue
			}

			result.Synced++
			synced++
		}

		b.reportProgress(table, synced, len(rows))
	}

	if !b.options.KeepOrphans {
		removed, err := b.pruneOrphans(ctx, seen)
		if err != nil {
			return nil, err
		}
		result.OrphansRemoved = removed
	}

	return result, nil
}

func (b *Backfiller) syncRow(ctx context.Context, table string, id int64, entryID, document string) error {
	embedding, err := b.embedder.EmbedDocument(ctx, document)
	if err != nil {
		return err
	}

	entry := vector.Entry{
		ID:        entryID,
		Embedding: embedding,
		Document:  document,
		Metadata: map[string]string{
			"source_table": table,
			"source_id":    strconv.FormatInt(id, 10),
			"synced_at":    time.Now().UTC().Format(time.RFC3339),
		},
	}

	return b.vectors.Upsert(ctx, []vector.Entry{entry})
}

// reportProgress invokes the progress callback if one is set. A panic in
// caller code must not abort the sync.
func (b *Backfiller) reportProgress(table string, synced, total int) {
	if b.options.Progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("progress callback panicked", zap.Any("panic", r))
		}
	}()
	b.options.Progress(table, synced, total)
}

// pruneOrphans deletes vector entries whose entry ID was not seen during
// the table walk, including entries for tables that are no longer indexed.
func (b *Backfiller) pruneOrphans(ctx context.Context, seen map[string]bool) (int, error) {
	ids, err := b.vectors.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list vector entries: %w", err)
	}

	var orphans []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		orphans = append(orphans, id)
	}

	if len(orphans) == 0 || b.options.DryRun {
		return len(orphans), nil
	}

	b.logger.Info("pruning orphaned vector entries",
		zap.Int("count", len(orphans)),
	)

	if err := b.vectors.Delete(ctx, orphans); err != nil {
		return 0, fmt.Errorf("failed to delete orphaned entries: %w", err)
	}

	return len(orphans), nil
}

// rowID pulls the primary key out of a row map. Drivers scan ids back as
// different integer shapes.
func rowID(row map[string]any) (int64, bool) {
	switch v := row["id"].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}
