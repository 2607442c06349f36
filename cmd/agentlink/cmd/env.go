package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentlink/agentlink/internal/config"
	"github.com/agentlink/agentlink/internal/envreport"
)

var envOutput string

// envCmd groups the environment-variable reporting commands.
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Inspect plugin environment variable requirements",
	Long:  `Commands for aggregating and validating the configuration variables declared by plugins.`,
}

// envGenerateCmd writes the documented environment template file.
var envGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an environment template file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, _, err := discover(cmd.Context())
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		output := envOutput
		if output == "" {
			output = config.Get().Env.TemplatePath
		}

		if err := envreport.WriteTemplate(reg, output); err != nil {
			return err
		}

		vars := envreport.Collect(reg)
		required := 0
		for _, info := range vars {
			if info.Required {
				required++
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", output)
		fmt.Fprintf(cmd.OutOrStdout(), "Found %d plugins\n", len(reg.PluginIDs()))
		fmt.Fprintf(cmd.OutOrStdout(), "%d environment variables (%d required)\n", len(vars), required)

		return nil
	},
}

// envValidateCmd exits non-zero when required configuration is missing. This
// is the one hard-failure surface; the registry itself never fails hard.
var envValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate that all required environment variables are set",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, _, err := discover(cmd.Context())
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		missing := envreport.MissingRequired(reg, envreport.OSEnv)
		if len(missing) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "All required environment variables are set")
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Missing required environment variables:")
		for _, m := range missing {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s (required by %s)\n", m.Name, m.PluginDisplayName)
		}

		return fmt.Errorf("%d required environment variables are not set", len(missing))
	},
}

// envSummaryCmd prints declared variables grouped by plugin.
var envSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show environment variables by plugin",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, _, err := discover(cmd.Context())
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		fmt.Fprintln(cmd.OutOrStdout(), "Plugin environment variables:")
		fmt.Fprintln(cmd.OutOrStdout())

		for _, id := range reg.PluginIDs() {
			md, ok := reg.Plugin(id)
			if !ok || len(md.EnvVars) == 0 {
				continue
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s:\n", md.Name)

			names := make([]string, 0, len(md.EnvVars))
			for name := range md.EnvVars {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				status := "optional"
				if md.EnvVars[name].Required {
					status = "REQUIRED"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", name, status)
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}

		return nil
	},
}

// envConflictsCmd prints advisory naming-conflict warnings.
var envConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Check for potential variable naming conflicts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, _, err := discover(cmd.Context())
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		conflicts := envreport.DetectNamingConflicts(reg)
		if len(conflicts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No naming conflicts detected")
			return nil
		}

		for _, warning := range conflicts {
			fmt.Fprintln(cmd.OutOrStdout(), warning)
		}

		return nil
	},
}

func init() {
	envGenerateCmd.Flags().
		StringVarP(&envOutput, "output", "o", "", "output file (defaults to configuration)")
	envCmd.AddCommand(envGenerateCmd)
	envCmd.AddCommand(envValidateCmd)
	envCmd.AddCommand(envSummaryCmd)
	envCmd.AddCommand(envConflictsCmd)
	rootCmd.AddCommand(envCmd)
}
