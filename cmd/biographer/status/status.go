// Package statuscmder provides the status command for summarizing the
// knowledge base and vector index.
package statuscmder

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/stack"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/cliui"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/config"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/logger"
)

type statusCommander struct {
	configDir string

	storageProvider string
	storageTarget   string
	vectorProvider  string
	vectorTarget    string
	vectorDBPath    string
	vectorHost      string
	vectorDims      uint

	debug  bool
	viper  *viper.Viper
	logger *zap.Logger
}

const statusLongDesc string = `Show what the knowledge base holds.

Displays per-table row counts for the relational store and the total number
of entries in the vector index. A vector count that trails the row total
usually means a sync is due.

Examples:
  biographer status`

const statusShortDesc string = "Show knowledge base counts"

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
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

	config.AddStringFlag(cmd, config.Flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageTarget, &cmder.storageTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorProvider, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorTarget, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorDBPath, &cmder.vectorDBPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorHost, &cmder.vectorHost)
	config.AddUintFlag(cmd, config.Flags, config.FlagVectorDims, &cmder.vectorDims)

	return cmd
}

func (c *statusCommander) run(cmd *cobra.Command) error {
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

	counts, err := s.Store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("counting knowledge base rows: %w", err)
	}

	vectorCount, err := s.Vectors.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting vector entries: %w", err)
	}

	total := 0
	tables := make([]string, 0, len(counts))
	for table, n := range counts {
		total += n
		if n > 0 {
			tables = append(tables, table)
		}
	}
	sort.Slice(tables, func(i, j int) bool {
		if counts[tables[i]] != counts[tables[j]] {
			return counts[tables[i]] > counts[tables[j]]
		}
		return tables[i] < tables[j]
	})

	fmt.Printf("\n%s\n\n", cliui.HeaderStyle.Render("  Biographer knowledge base"))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Knowledge base:"), cliui.DimStyle.Render(s.StorageTarget))
	fmt.Printf("  %s  %d rows across %d tables\n", cliui.KeyStyle.Render("Entries:      "), total, len(tables))
	fmt.Printf("  %s  %d entries\n\n", cliui.KeyStyle.Render("Vector index: "), vectorCount)

	if total == 0 {
		fmt.Printf("  %s The knowledge base is empty. Run an interview or \"biographer enrich\".\n\n",
			cliui.DimStyle.Render("●"))
		return nil
	}

	for _, table := range tables {
		padded := fmt.Sprintf("%-24s", table)
		fmt.Printf("  %s %d\n", cliui.TableStyle.Render(padded), counts[table])
	}

	if vectorCount < total {
		fmt.Printf("\n  %s %d rows are not in the vector index. Run \"biographer sync\".\n",
			cliui.DimStyle.Render("●"), total-vectorCount)
	}

	fmt.Println()
	return nil
}
