// Package storage
package storage

import (
	"context"
)

// Driver defines the interface for persisting and retrieving rows in the
// relational store. The relational store is the source of truth: a row
// exists once its insert commits, regardless of what happens to the vector
// index afterwards. Tables and columns come from the category schema;
// drivers reject anything outside it.
type Driver interface {
	// Insert stores one row in table and returns its new primary key.
	// Unknown tables return ErrNoTable; unknown columns return ErrNoColumn.
	Insert(ctx context.Context, table string, values map[string]any) (int64, error)

	// Rows returns every row of table as column-name keyed maps, including
	// the id column, ordered by id.
	Rows(ctx context.Context, table string) ([]map[string]any, error)

	// Count returns the number of rows in table.
	Count(ctx context.Context, table string) (int, error)

	// Counts returns row counts for every table in the schema.
	Counts(ctx context.Context) (map[string]int, error)

	// Close closes the store and releases any resources.
	Close() error
}
