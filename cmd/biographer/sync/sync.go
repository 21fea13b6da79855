// Package synccmder provides the `biographer sync` CLI command.
package synccmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/stack"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/backfill"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/cliui"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/config"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/logger"
)

type syncCommander struct {
	dryRun      bool
	keepOrphans bool
	verbose     bool
	configDir   string

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

	debug  bool
	viper  *viper.Viper
	logger *zap.Logger
}

const syncLongDesc string = `Rebuild the vector index from the knowledge base.

Walks every embeddable table in the relational store, re-embeds each row's
text, and upserts the entry into the vector index. Vector entries whose
source row no longer exists are removed unless --keep-orphans is set.

The sync is idempotent: entries already in step are simply rewritten, and
rows that failed to sync during normal ingestion are repaired.

Examples:
  biographer sync
  biographer sync --dry-run
  biographer sync --keep-orphans --verbose`

const syncShortDesc string = "Rebuild the vector index from the knowledge base"

// NewSyncCmd creates the sync cobra command.
func NewSyncCmd() *cobra.Command {
	cmder := &syncCommander{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: syncShortDesc,
		Long:  syncLongDesc,
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
			})
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Preview the sync without writing")
	cmd.Flags().BoolVar(&cmder.keepOrphans, "keep-orphans", false, "Leave vector entries whose source row is gone")
	cmd.Flags().BoolVarP(&cmder.verbose, "verbose", "v", false, "Show per-table progress")

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

	return cmd
}

func (c *syncCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx := cmd.Context()

	s, err := stack.New(ctx, c.viper, stack.Options{
		ConfigDir:  c.configDir,
		SkipEvents: true,
	}, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if c.dryRun {
		fmt.Printf("  %s Dry run mode — no changes will be written\n\n", cliui.DimStyle.Render("●"))
	}

	if c.verbose {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Knowledge base:"), cliui.DimStyle.Render(s.StorageTarget))
		fmt.Printf("  %s %s\n\n", cliui.KeyStyle.Render("Vector index:  "), cliui.DimStyle.Render(s.VectorDBPath))
	}

	opts := backfill.Options{
		DryRun:      c.dryRun,
		KeepOrphans: c.keepOrphans,
	}
	if c.verbose {
		opts.Progress = func(table string, synced, total int) {
			cliui.Progress(os.Stdout, cliui.TableStyle.Render(table), synced, total)
		}
	}

	b := backfill.NewBackfiller(s.Store, s.Vectors, s.Embedder, c.logger, opts)

	var result *backfill.Result
	if c.verbose {
		// Per-table progress lines replace the spinner; both write to
		// stdout and would clobber each other.
		var runErr error
		result, runErr = b.Run(ctx)
		if runErr != nil {
			return runErr
		}
	} else {
		if err := cliui.Step(os.Stdout, "Syncing vector index", func() error {
			var runErr error
			result, runErr = b.Run(ctx)
			return runErr
		}); err != nil {
			return err
		}
	}

	fmt.Printf("\n  %s %s\n\n", cliui.SuccessMark, result.Summary())
	return nil
}
