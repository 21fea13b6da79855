// Package configcmder provides the config command for managing persistent
// biographer configuration stored in the .biographer/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent biographer configuration.

Configuration is stored as config.toml in the .biographer/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.target,
  vector_store.provider, vector_store.target, vector_store.db_path,
  vector_store.host, vector_store.port, vector_store.dimensions,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  events.enabled, events.brokers, events.topic,
  api.listen

Use subcommands to get, set, or list configuration values:
  biographer config set <key> <value>    Set a configuration value
  biographer config get <key>            Get a configuration value
  biographer config list                 List all configuration values

Examples:
  biographer config set storage.provider postgres
  biographer config set embedding.model nomic-embed-text
  biographer config get vector_store.provider
  biographer config list`

const configShortDesc string = "Manage persistent biographer configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
