package backfill

import "fmt"

// Result contains statistics from a backfill run.
type Result struct {
	Synced         int
	Skipped        int
	Failures       int
	TablesMissing  int
	TablesScanned  int
	OrphansRemoved int
}

// Summary returns a human-readable summary of the backfill result.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"Sync complete: %d synced, %d skipped (no embeddable text), %d failed\n"+
			"Scanned %d tables (%d missing), removed %d orphaned entries",
		r.Synced, r.Skipped, r.Failures,
		r.TablesScanned, r.TablesMissing, r.OrphansRemoved,
	)
}
