// Package postgres provides a PostgreSQL-backed relational store.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx PostgreSQL driver as "pgx"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/category"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
)

// Driver implements storage.Driver using PostgreSQL via pgx.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new PostgreSQL-backed store and migrates the schema.
// The connStr is a PostgreSQL connection string, e.g.
// "host=localhost port=5432 user=biographer dbname=biographer sslmode=disable"
// or a connection URI like "postgres://biographer@localhost:5432/biographer".
func NewDriver(ctx context.Context, connStr string) (*Driver, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify the connection is reachable
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// migrate creates missing tables and appends missing columns, mirroring the
// sqlite driver's append-only migration.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, table := range category.Tables() {
		defs := make([]string, 0, len(table.Columns)+1)
		defs = append(defs, "id BIGSERIAL PRIMARY KEY")
		for _, col := range table.Columns {
			defs = append(defs, col.Name+" "+columnType(col))
		}

		create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
			table.Name, strings.Join(defs, ", "))
		if _, err := db.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("creating %s: %w", table.Name, err)
		}

		for _, col := range table.Columns {
			alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
				table.Name, col.Name, columnType(col))
			if _, err := db.ExecContext(ctx, alter); err != nil {
				return fmt.Errorf("adding %s.%s: %w", table.Name, col.Name, err)
			}
		}
	}

	return nil
}

func columnType(col category.Column) string {
	if col.Type == "INTEGER" {
		return "BIGINT"
	}
	return "TEXT"
}

func (d *Driver) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	def, ok := category.TableNamed(table)
	if !ok {
		return 0, storage.ErrNoTable{Table: table}
	}

	allowed := map[string]bool{}
	for _, col := range def.Columns {
		allowed[col.Name] = true
	}

	cols := make([]string, 0, len(values))
	for col := range values {
		if !allowed[col] {
			return 0, storage.ErrNoColumn{Table: table, Column: col}
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		args[i] = values[col]
		marks[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))

	var id int64
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", table, err)
	}

	return id, nil
}

func (d *Driver) Rows(ctx context.Context, table string) ([]map[string]any, error) {
	if _, ok := category.TableNamed(table); !ok {
		return nil, storage.ErrNoTable{Table: table}
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY id", table))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = vals[i]
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (d *Driver) Count(ctx context.Context, table string) (int, error) {
	if _, ok := category.TableNamed(table); !ok {
		return 0, storage.ErrNoTable{Table: table}
	}

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := d.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}

	return count, nil
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

func (d *Driver) Close() error {
	return d.db.Close()
}
