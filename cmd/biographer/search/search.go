// Package searchcmder provides the search command for semantic search over
// the memory index.
package searchcmder

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/stack"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/config"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/logger"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/retrieval"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tableStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type searchCommander struct {
	query  string
	topK   int
	tables []string
	quiet  bool

	apiTarget string
	configDir string

	// Flag targets registered from the shared registry. The effective
	// values are read back through viper so the usual precedence holds.
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

const searchLongDesc string = `Search the memory index semantically.

Embeds the query text and returns the closest memory entries, best match
first. Each result shows the source table, row id, similarity score, and the
stored document text.

By default the search runs against the locally configured stores. Pass
--api-target to query a running biographer API server instead.

Use --quiet to output only entry ids, one per line, for piping.

Example:
  biographer search "what does she fear"
  biographer search "childhood summers" --top 10
  biographer search "family" --tables relationships,family_members
  biographer search "regrets" --api-target http://localhost:8081
  biographer search "joy" --quiet`

const searchShortDesc string = "Search the memory index"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", retrieval.DefaultTopK, "Number of results to return")
	cmd.Flags().StringSliceVar(&cmder.tables, "tables", nil, "Restrict results to these source tables")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only entry ids, one per line (for piping)")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", "", "Biographer API server URL (search remotely instead of locally)")

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

func (c *searchCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	var output *retrieval.SearchOutput
	var err error

	if c.apiTarget != "" {
		output, err = SearchAPI(c.apiTarget, c.query, c.topK, c.tables)
	} else {
		output, err = c.searchLocal(cmd)
	}
	if err != nil {
		return err
	}

	if output.Count == 0 {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, result := range output.Results {
			fmt.Println(result.ID)
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		tableStyle.Render(fmt.Sprintf("%q", output.Query)),
	)

	for i, result := range output.Results {
		printResult(i+1, result)
	}

	return nil
}

func (c *searchCommander) searchLocal(cmd *cobra.Command) (*retrieval.SearchOutput, error) {
	ctx := cmd.Context()

	s, err := stack.New(ctx, c.viper, stack.Options{
		ConfigDir:  c.configDir,
		SkipEvents: true,
	}, c.logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	searcher := retrieval.NewSearcher(s.Embedder, s.Vectors, c.logger)
	return searcher.Search(ctx, c.query, c.topK, c.tables), nil
}

func printResult(rank int, result retrieval.SearchResult) {
	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		tableStyle.Render(fmt.Sprintf("%s #%d", result.Table, result.RowID)),
	)

	preview := strings.ReplaceAll(utils.Truncate(result.Document, 160), "\n", " ")
	if preview == "" {
		preview = "(no document text)"
	}
	fmt.Printf("  %s\n", previewStyle.Render(preview))

	if synced := result.Metadata["synced_at"]; synced != "" {
		fmt.Printf("  %s\n", dimStyle.Render("synced "+synced))
	}

	fmt.Println()
}
