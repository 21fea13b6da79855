// Package biographercmder
package biographercmder

import (
	"github.com/spf13/cobra"

	clustercmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/cluster"
	configcmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/config"
	enrichcmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/enrich"
	initcmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/init"
	searchcmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/search"
	servecmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/serve"
	statuscmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/status"
	synccmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/sync"
	versioncmder "github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/version"
)

const biographerLongDesc string = `Biographer is a memory engine for biographical interviews.

It keeps everything learned about a subject in a categorized knowledge base
(a relational store) paired with a semantic vector index, and serves both to
interviewing agents over HTTP and MCP.

Common workflows:
  biographer init                  Set up a .biographer/ directory
  biographer serve                 Run the API and MCP server
  biographer search "childhood"    Search the memory index
  biographer enrich batch.json     Ingest an extraction batch
  biographer sync                  Rebuild the vector index from the store`

const biographerShortDesc string = "Biographer - biographical memory engine"

func NewBiographerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "biographer",
		Short: biographerShortDesc,
		Long:  biographerLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .biographer/ directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(enrichcmder.NewEnrichCmd())
	cmd.AddCommand(synccmder.NewSyncCmd())
	cmd.AddCommand(clustercmder.NewClusterCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
