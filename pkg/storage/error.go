package storage

// ErrNoTable is returned when a table isn't part of the schema.
type ErrNoTable struct {
	Table string
}

func (e ErrNoTable) Error() string {
	if e.Table == "" {
		return "no such table"
	}

	return "no such table: " + e.Table
}

// ErrNoColumn is returned when an insert names a column the schema doesn't
// define for its table.
type ErrNoColumn struct {
	Table  string
	Column string
}

func (e ErrNoColumn) Error() string {
	return "no such column: " + e.Table + "." + e.Column
}
