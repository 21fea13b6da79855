package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector/chroma"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector/qdrant"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string

	// TargetURL is the chroma server URL.
	TargetURL string

	// DBPath is the sqlite-vec database file path.
	DBPath string

	// Host and Port locate the qdrant gRPC endpoint.
	Host string
	Port int

	// Dimensions is the embedding vector width.
	Dimensions uint

	Logger *zap.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlitevec":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewChromaDriver(chroma.Config{
			URL: o.TargetURL,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewQdrantDriver(ctx, qdrant.Config{
			Host:       o.Host,
			Port:       o.Port,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
