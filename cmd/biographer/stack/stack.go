// Package stack wires the biographer runtime components (relational store,
// vector index, embedder, event publisher) from resolved configuration.
// Commands share it so the construction order and defaults cannot drift
// between "biographer serve", "biographer sync", and friends.
package stack

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/config"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/embeddings"
	embeddingutils "github.com/wjcornelius/VECTOR-Biographer/pkg/embeddings/utils"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/eventstream"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/eventstream/kafka"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/eventstream/nop"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/storage"
	storageutils "github.com/wjcornelius/VECTOR-Biographer/pkg/storage/utils"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
	vectorutils "github.com/wjcornelius/VECTOR-Biographer/pkg/vector/utils"
)

// Options controls which optional components get built.
type Options struct {
	// ConfigDir overrides .biographer/ directory resolution.
	ConfigDir string

	// SkipEvents forces the nop publisher even when events.enabled is set.
	// Read-only commands use this so a search never touches Kafka.
	SkipEvents bool
}

// Stack holds the constructed runtime components.
type Stack struct {
	Store     storage.Driver
	Vectors   vector.Driver
	Embedder  embeddings.Embedder
	Publisher eventstream.Publisher

	// StorageTarget and VectorDBPath are the resolved file paths (or
	// connection strings) the components were opened with.
	StorageTarget string
	VectorDBPath  string

	logger *zap.Logger
}

// New builds the full component stack from a configured viper instance.
// Callers are expected to have run config.InitViper and bound any command
// flags first, so the usual precedence (flag > env > file > default) holds.
func New(ctx context.Context, v *viper.Viper, o Options, logger *zap.Logger) (*Stack, error) {
	cfger, err := config.NewConfiger(o.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	storageTarget := cfger.StorageTarget(&config.Config{
		Storage: config.StorageConfig{Target: v.GetString("storage.target")},
	})
	vectorDBPath := cfger.VectorDBPath(&config.Config{
		VectorStore: config.VectorStoreConfig{DBPath: v.GetString("vector_store.db_path")},
	})

	store, err := storageutils.NewDriver(ctx, &storageutils.NewDriverOpts{
		ProviderType: v.GetString("storage.provider"),
		Target:       storageTarget,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage driver: %w", err)
	}

	vectors, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: v.GetString("vector_store.provider"),
		TargetURL:    v.GetString("vector_store.target"),
		DBPath:       vectorDBPath,
		Host:         v.GetString("vector_store.host"),
		Port:         v.GetInt("vector_store.port"),
		Dimensions:   v.GetUint("vector_store.dimensions"),
		Logger:       logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: v.GetString("embedding.provider"),
		TargetURL:    v.GetString("embedding.target"),
		Model:        v.GetString("embedding.model"),
	})
	if err != nil {
		_ = vectors.Close()
		_ = store.Close()
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	publisher, err := newPublisher(v, o, logger)
	if err != nil {
		_ = vectors.Close()
		_ = store.Close()
		return nil, err
	}

	return &Stack{
		Store:         store,
		Vectors:       vectors,
		Embedder:      embedder,
		Publisher:     publisher,
		StorageTarget: storageTarget,
		VectorDBPath:  vectorDBPath,
		logger:        logger,
	}, nil
}

// Close releases every component. Errors are logged rather than returned
// since Close runs on the way out.
func (s *Stack) Close() {
	if err := s.Publisher.Close(); err != nil {
		s.logger.Warn("closing event publisher", zap.Error(err))
	}
	if err := s.Vectors.Close(); err != nil {
		s.logger.Warn("closing vector driver", zap.Error(err))
	}
	if err := s.Store.Close(); err != nil {
		s.logger.Warn("closing storage driver", zap.Error(err))
	}
}

func newPublisher(v *viper.Viper, o Options, logger *zap.Logger) (eventstream.Publisher, error) {
	if o.SkipEvents || !v.GetBool("events.enabled") {
		return nop.NewPublisher(), nil
	}

	brokers := strings.Split(v.GetString("events.brokers"), ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: brokers,
		Topic:   v.GetString("events.topic"),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	return publisher, nil
}
