// Package inmemory provides a map-backed relational store, used in tests
// and anywhere persistence isn't wanted.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/category"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	mu sync.RWMutex

	// rows maps table name to its rows, keyed by id.
	rows map[string]map[int64]map[string]any

	// nextID tracks the next primary key per table.
	nextID map[string]int64
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		rows:   make(map[string]map[int64]map[string]any),
		nextID: make(map[string]int64),
	}
}

func (d *Driver) Insert(_ context.Context, table string, values map[string]any) (int64, error) {
	def, ok := category.TableNamed(table)
	if !ok {
		return 0, storage.ErrNoTable{Table: table}
	}

	allowed := map[string]bool{}
	for _, col := range def.Columns {
		allowed[col.Name] = true
	}
	for col := range values {
		if !allowed[col] {
			return 0, storage.ErrNoColumn{Table: table, Column: col}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rows[table] == nil {
		d.rows[table] = make(map[int64]map[string]any)
	}
	d.nextID[table]++
	id := d.nextID[table]

	row := make(map[string]any, len(values)+1)
	for k, v := range values {
		row[k] = v
	}
	row["id"] = id
	d.rows[table][id] = row

	return id, nil
}

func (d *Driver) Rows(_ context.Context, table string) ([]map[string]any, error) {
	if _, ok := category.TableNamed(table); !ok {
		return nil, storage.ErrNoTable{Table: table}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]int64, 0, len(d.rows[table]))
	for id := range d.rows[table] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		row := make(map[string]any, len(d.rows[table][id]))
		for k, v := range d.rows[table][id] {
			row[k] = v
		}
		out = append(out, row)
	}

	return out, nil
}

func (d *Driver) Count(_ context.Context, table string) (int, error) {
	if _, ok := category.TableNamed(table); !ok {
		return 0, storage.ErrNoTable{Table: table}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.rows[table]), nil
}

func (d *Driver) Counts(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, table := range category.Tables() {
		count, err := d.Count(ctx, table.Name)
		if err != nil {
			return nil, err
		}
		counts[table.Name] = count
	}

	return counts, nil
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}
