// Package storageutils is the storage utility package
package storageutils

import (
	"context"
	"fmt"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/inmemory"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/postgres"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage/sqlite"
)

type NewDriverOpts struct {
	ProviderType string

	// Target is the sqlite file path or postgres connection string.
	Target string
}

func NewDriver(ctx context.Context, o *NewDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case "sqlite":
		return sqlite.NewSQLiteDriver(o.Target)
	case "postgres":
		return postgres.NewDriver(ctx, o.Target)
	case "inmemory":
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
