// Package servecmder provides the serve command for running the biographer
// API and MCP server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/api"
	"github.com/wjcornelius/VECTOR-Biographer/api/mcp"
	"github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/stack"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/config"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/enrich"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/logger"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/retrieval"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/worker"
)

type ServeCommander struct {
	apiListen string
	noMCP     bool
	workers   int
	configDir string

	storageProvider   string
	storageTarget     string
	vectorProvider    string
	vectorTarget      string
	vectorDBPath      string
	vectorHost        string
	vectorDims        uint
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	eventsEnabled     bool
	eventBrokers      string
	eventTopic        string

	debug  bool
	viper  *viper.Viper
	logger *zap.Logger
}

const serveLongDesc string = `Run the biographer memory server.

Serves the HTTP API (search, status, extractions, clusters) and, unless
disabled, the MCP endpoint at /mcp for interviewing agents. Extraction
batches posted to the API are processed by a background worker so interview
turns never wait on embedding calls.

When events.enabled is set, every recorded entry is also published to Kafka.

Examples:
  biographer serve
  biographer serve --api-listen :9000
  biographer serve --no-mcp
  biographer serve --events-enabled --event-brokers localhost:9092`

const serveShortDesc string = "Run the biographer memory server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagStorageProvider,
				config.FlagStorageTarget,
				config.FlagVectorProvider,
				config.FlagVectorTarget,
				config.FlagVectorDBPath,
				config.FlagVectorHost,
				config.FlagVectorDims,
				config.FlagEmbeddingProv,
				config.FlagEmbeddingTgt,
				config.FlagEmbeddingModel,
				config.FlagEventsEnabled,
				config.FlagEventBrokers,
				config.FlagEventTopic,
				config.FlagAPIListen,
			})
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP endpoint")
	cmd.Flags().IntVar(&cmder.workers, "workers", worker.DefaultWorkers, "Background enrichment workers")

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageTarget, &cmder.storageTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorProvider, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorTarget, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorDBPath, &cmder.vectorDBPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorHost, &cmder.vectorHost)
	config.AddUintFlag(cmd, config.Flags, config.FlagVectorDims, &cmder.vectorDims)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddBoolFlag(cmd, config.Flags, config.FlagEventsEnabled, &cmder.eventsEnabled)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &cmder.eventTopic)

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx := cmd.Context()

	// Build shared components
	s, err := stack.New(ctx, c.viper, stack.Options{ConfigDir: c.configDir}, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	c.logger.Info("stores opened",
		zap.String("storage_provider", c.viper.GetString("storage.provider")),
		zap.String("storage_target", s.StorageTarget),
		zap.String("vector_provider", c.viper.GetString("vector_store.provider")),
	)

	enricher := enrich.NewEnricher(enrich.Config{}, s.Store, s.Vectors, s.Embedder, s.Publisher, c.logger)
	searcher := retrieval.NewSearcher(s.Embedder, s.Vectors, c.logger)

	pool := worker.NewPool(ctx, enricher, c.logger, worker.Options{
		Workers: c.workers,
	})
	defer func() {
		if err := pool.Close(); err != nil {
			c.logger.Warn("closing worker pool", zap.Error(err))
		}
	}()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Searcher: searcher,
		Enricher: enricher,
		Noop:     c.noMCP,
		Logger:   c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	listenAddr := c.viper.GetString("api.listen")
	apiServer := api.NewServer(
		api.Config{ListenAddr: listenAddr},
		s.Store,
		s.Vectors,
		searcher,
		pool,
		mcpServer,
		c.logger,
	)

	c.logger.Info("starting api server",
		zap.String("api_addr", listenAddr),
		zap.Bool("mcp_enabled", !c.noMCP),
		zap.Bool("events_enabled", c.viper.GetBool("events.enabled")),
	)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 1)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	watcher := c.watchConfig()
	if watcher != nil {
		defer watcher.Close()
	}

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down",
			zap.String("signal", sig.String()),
			zap.Int("pending_jobs", pool.Pending()),
		)
		if err := apiServer.Shutdown(); err != nil {
			c.logger.Warn("shutting down api server", zap.Error(err))
		}
		return nil
	}
}

// watchConfig logs a notice when config.toml changes on disk so operators
// know a restart is needed for the change to take effect. Returns nil when
// no config file exists.
func (c *ServeCommander) watchConfig() *fsnotify.Watcher {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil || cfger.GetTarget() == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Debug("config watcher unavailable", zap.Error(err))
		return nil
	}

	// Watch the directory, not the file: editors replace config.toml
	// rather than writing it in place.
	if err := watcher.Add(cfger.GetTargetDir()); err != nil {
		c.logger.Debug("watching config dir", zap.Error(err))
		_ = watcher.Close()
		return nil
	}

	target := cfger.GetTarget()
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != target {
					continue
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
					c.logger.Info("config.toml changed on disk, restart to apply",
						zap.String("path", event.Name))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Debug("config watcher error", zap.Error(err))
			}
		}
	}()

	return watcher
}
