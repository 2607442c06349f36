// Package cmd provides the CLI commands for the agentlink application.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentlink/agentlink/internal/config"
	"github.com/agentlink/agentlink/internal/logging"
	"github.com/agentlink/agentlink/internal/registry"
	"github.com/agentlink/agentlink/internal/wasmrt"
)

var pluginsDir string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "agentlink",
	Short: "Capability registry for agent tool plugins",
	Long: `agentlink discovers WASM plugin units, validates their self-described
metadata and exposes the admitted tools and their configuration requirements.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&pluginsDir, "plugins", "p", "", "plugins directory (defaults to configuration)")
}

// discover builds a registry over the configured plugins directory and runs
// one discovery pass. Logging is silenced so command output stays clean;
// rejections remain available as diagnostics.
func discover(ctx context.Context) (*registry.Registry, []registry.Diagnostic, error) {
	logging.Disable()

	dir := pluginsDir
	if dir == "" {
		dir = config.Get().Plugins.Path
	}

	reg := registry.New(dir, wasmrt.New)
	_, diags, err := reg.Discover(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("plugin discovery failed: %w", err)
	}

	return reg, diags, nil
}
