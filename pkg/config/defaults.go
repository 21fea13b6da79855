package config

const (
	defaultStorageProvider = "sqlite"

	defaultVectorProvider = "sqlitevec"
	defaultChromaTarget   = "http://localhost:8000"
	defaultQdrantHost     = "localhost"
	defaultQdrantPort     = 6334

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultEventBrokers = "localhost:9092"
	defaultEventTopic   = "biographer.entries"

	defaultAPIListen = ":8081"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Target:     defaultChromaTarget,
			Host:       defaultQdrantHost,
			Port:       defaultQdrantPort,
			Dimensions: defaultEmbeddingDimensions,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Events: EventsConfig{
			Enabled: false,
			Brokers: defaultEventBrokers,
			Topic:   defaultEventTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
