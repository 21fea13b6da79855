// Package initcmder provides the init command for initializing a local
// .biographer directory in the current working directory.
package initcmder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/cmd/biographer/stack"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/cliui"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/config"
)

const (
	dirName = ".biographer"
)

const initLongDesc string = `Initialize a new .biographer/ directory in the current working directory.

Creates a local .biographer/ directory that takes precedence over the default
~/.biographer/ directory for the knowledge base, vector index, and
configuration.

This is useful for keeping one biography per project directory.

Examples:
  biographer init`

const initShortDesc string = "Initialize a local .biographer/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd)
		},
	}

	return cmd
}

func runInit(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .biographer directory: %w", err)
	}

	// Seed a config.toml with defaults so "biographer config list" has
	// something to show and edits have a file to land in.
	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("resolving config: %w", err)
	}
	if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	// Open and close the default stores once so knowledge.db and
	// vectors.db exist with their schemas applied.
	v, err := config.InitViper(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	s, err := stack.New(cmd.Context(), v, stack.Options{
		ConfigDir:  dir,
		SkipEvents: true,
	}, zap.NewNop())
	if err != nil {
		return fmt.Errorf("creating stores: %w", err)
	}
	s.Close()

	fmt.Printf("Initialized .biographer directory: %s\n", dir)
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Config:   "),
		cliui.DimStyle.Render(filepath.Join(dir, "config.toml")))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Knowledge:"),
		cliui.DimStyle.Render(s.StorageTarget))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Vectors:  "),
		cliui.DimStyle.Render(s.VectorDBPath))
	return nil
}
