// Package enrichcmder provides the enrich command for ingesting extraction
// batches into the knowledge base.
package enrichcmder

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/stack"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/cliui"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/config"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/enrich"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/logger"
)

type enrichCommander struct {
	file      string
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

const enrichLongDesc string = `Ingest an extraction batch into the knowledge base.

Reads a JSON extraction batch from the given file (or stdin when the file is
"-" or omitted), routes each record into its category table, and syncs every
committed row into the vector index. Cross-references in the batch are stored
as connections.

The batch may be either a full object with "extractions" and "connections"
arrays, or a bare JSON array of extraction records.

Examples:
  biographer enrich batch.json
  cat batch.json | biographer enrich
  biographer enrich - < batch.json`

const enrichShortDesc string = "Ingest an extraction batch"

func NewEnrichCmd() *cobra.Command {
	cmder := &enrichCommander{}

	cmd := &cobra.Command{
		Use:   "enrich [file]",
		Short: enrichShortDesc,
		Long:  enrichLongDesc,
		Args:  cobra.MaximumNArgs(1),
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
			})
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				cmder.file = args[0]
			}

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

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

func (c *enrichCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	batch, err := c.readBatch()
	if err != nil {
		return err
	}

	if len(batch.Extractions) == 0 && len(batch.Connections) == 0 {
		fmt.Println("Nothing to ingest: the batch is empty.")
		return nil
	}

	ctx := cmd.Context()

	s, err := stack.New(ctx, c.viper, stack.Options{ConfigDir: c.configDir}, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	enricher := enrich.NewEnricher(enrich.Config{}, s.Store, s.Vectors, s.Embedder, s.Publisher, c.logger)

	var records, connections enrich.Result
	if err := cliui.Step(os.Stdout, "Ingesting extraction batch", func() error {
		records, connections = enricher.ProcessBatch(ctx, batch)
		return nil
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Records: %d added, %d skipped, %d errors, %d sync failures\n",
		cliui.SuccessMark, records.Added, records.Skipped, records.Errors, records.SyncFailures)
	if len(batch.Connections) > 0 {
		fmt.Printf("  %s Connections: %d added, %d skipped, %d errors\n",
			cliui.SuccessMark, connections.Added, connections.Skipped, connections.Errors)
	}
	fmt.Println()

	if records.Errors > 0 || connections.Errors > 0 {
		return fmt.Errorf("%d records failed to ingest", records.Errors+connections.Errors)
	}

	return nil
}

func (c *enrichCommander) readBatch() (*extraction.Batch, error) {
	var r io.Reader = os.Stdin

	if c.file != "" && c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			return nil, fmt.Errorf("opening batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	batch, err := extraction.DecodeBatch(r)
	if err != nil {
		return nil, fmt.Errorf("decoding extraction batch: %w", err)
	}

	return batch, nil
}
