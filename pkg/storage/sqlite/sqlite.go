// Package sqlite provides a SQLite-backed relational store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/category"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
)

// SQLiteDriver implements storage.Driver using SQLite via the
// github.com/mattn/go-sqlite3 driver.
type SQLiteDriver struct {
	db *sql.DB
}

// NewSQLiteDriver creates a new SQLite-backed store and migrates the schema.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteDriver{db: db}, nil
}

// migrate creates missing tables and appends missing columns. Schema changes
// are append-only; existing columns are never altered or dropped.
func migrate(db *sql.DB) error {
	for _, table := range category.Tables() {
		defs := make([]string, 0, len(table.Columns)+1)
		defs = append(defs, "id INTEGER PRIMARY KEY AUTOINCREMENT")
		for _, col := range table.Columns {
			defs = append(defs, col.Name+" "+col.Type)
		}

		create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
			table.Name, strings.Join(defs, ", "))
		if _, err := db.Exec(create); err != nil {
			return fmt.Errorf("creating %s: %w", table.Name, err)
		}

		existing, err := tableColumns(db, table.Name)
		if err != nil {
			return err
		}
		for _, col := range table.Columns {
			if existing[col.Name] {
				continue
			}
			alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				table.Name, col.Name, col.Type)
			if _, err := db.Exec(alter); err != nil {
				return fmt.Errorf("adding %s.%s: %w", table.Name, col.Name, err)
			}
		}
	}

	return nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}

	return cols, rows.Err()
}

func (d *SQLiteDriver) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
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
		marks[i] = "?"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", table, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}

	return id, nil
}

func (d *SQLiteDriver) Rows(ctx context.Context, table string) ([]map[string]any, error) {
	if _, ok := category.TableNamed(table); !ok {
		return nil, storage.ErrNoTable{Table: table}
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY id", table))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	return scanAll(rows)
}

func (d *SQLiteDriver) Count(ctx context.Context, table string) (int, error) {
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

func (d *SQLiteDriver) Counts(ctx context.Context) (map[string]int, error) {
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

func (d *SQLiteDriver) Close() error {
	return d.db.Close()
}

// scanAll converts generic sql rows into column-keyed maps. SQLite hands
// text back as []byte; those become strings.
func scanAll(rows *sql.Rows) ([]map[string]any, error) {
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
