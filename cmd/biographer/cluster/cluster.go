// Package clustercmder provides the cluster command for thematic grouping
// of the memory index.
package clustercmder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/stack"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/cluster"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/config"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/logger"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/utils"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	sizeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	tableStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	sampleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type clusterCommander struct {
	clusters  int
	configDir string

	vectorProvider string
	vectorTarget   string
	vectorDBPath   string
	vectorHost     string
	vectorDims     uint

	debug  bool
	viper  *viper.Viper
	logger *zap.Logger
}

const clusterLongDesc string = `Group the memory index into themes.

Partitions every embedded memory entry into clusters of semantically similar
entries, largest cluster first. Each cluster reports its size, the entry
nearest its center, a few sample entries, and the source tables its members
came from.

Useful for spotting what the interviews keep circling back to, and which
areas of the subject's life are still thin.

Examples:
  biographer cluster
  biographer cluster --clusters 12`

const clusterShortDesc string = "Group the memory index into themes"

func NewClusterCmd() *cobra.Command {
	cmder := &clusterCommander{}

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: clusterShortDesc,
		Long:  clusterLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
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

	cmd.Flags().IntVarP(&cmder.clusters, "clusters", "n", cluster.DefaultClusters, "Maximum number of clusters")

	config.AddStringFlag(cmd, config.Flags, config.FlagVectorProvider, &cmder.vectorProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorTarget, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorDBPath, &cmder.vectorDBPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagVectorHost, &cmder.vectorHost)
	config.AddUintFlag(cmd, config.Flags, config.FlagVectorDims, &cmder.vectorDims)

	return cmd
}

func (c *clusterCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	if c.clusters < 1 {
		return fmt.Errorf("clusters must be a positive number, got %d", c.clusters)
	}

	ctx := cmd.Context()

	s, err := stack.New(ctx, c.viper, stack.Options{
		ConfigDir:  c.configDir,
		SkipEvents: true,
	}, c.logger)
	if err != nil {
		return err
	}
	defer s.Close()

	clusters, err := cluster.Clusters(ctx, s.Vectors, c.clusters)
	if err != nil {
		return fmt.Errorf("clustering memory index: %w", err)
	}

	if len(clusters) == 0 {
		fmt.Println("The memory index is empty. Nothing to cluster.")
		return nil
	}

	fmt.Printf("\n%s\n\n", headerStyle.Render(fmt.Sprintf("%d memory themes", len(clusters))))

	for i, cl := range clusters {
		printCluster(i+1, cl)
	}

	return nil
}

func printCluster(rank int, cl cluster.Cluster) {
	fmt.Printf("  %s  %s  %s\n",
		sizeStyle.Render(fmt.Sprintf("#%d", rank)),
		dimStyle.Render(fmt.Sprintf("%d entries", cl.Size)),
		tableStyle.Render(strings.Join(cl.Tables, ", ")),
	)

	rep := strings.ReplaceAll(utils.Truncate(cl.Representative, 120), "\n", " ")
	fmt.Printf("  %s\n", sampleStyle.Render(rep))

	for _, sample := range cl.Samples {
		if sample == cl.Representative {
			continue
		}
		text := strings.ReplaceAll(utils.Truncate(sample, 100), "\n", " ")
		fmt.Printf("    %s %s\n", dimStyle.Render("·"), dimStyle.Render(text))
	}

	fmt.Println()
}
