package testutils

import (
	"context"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
)

// PartialStore wraps a storage.Driver and reports the named tables as
// absent from the schema, the way an older database that predates them
// would. All other calls pass through.
type PartialStore struct {
	storage.Driver

	// MissingTables are reported via storage.ErrNoTable on Rows.
	MissingTables map[string]bool
}

// NewPartialStore creates a PartialStore over the given driver.
func NewPartialStore(driver storage.Driver, missing ...string) *PartialStore {
	m := make(map[string]bool, len(missing))
	for _, table := range missing {
		m[table] = true
	}
	return &PartialStore{
		Driver:        driver,
		MissingTables: m,
	}
}

func (p *PartialStore) Rows(ctx context.Context, table string) ([]map[string]any, error) {
	if p.MissingTables[table] {
		return nil, storage.ErrNoTable{Table: table}
	}
	return p.Driver.Rows(ctx, table)
}
