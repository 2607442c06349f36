package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listDiagnostics bool

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered plugins and their tools",
	Long:  `List all admitted plugins with their metadata and registered tools.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, diags, err := discover(cmd.Context())
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		// Create tabwriter for aligned output
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "Plugin\tVersion\tDescription\tAuthor\tTools")
		fmt.Fprintln(w, "------\t-------\t-----------\t------\t-----")

		for _, id := range reg.PluginIDs() {
			md, ok := reg.Plugin(id)
			if !ok {
				continue
			}

			var tools []string
			for _, name := range reg.ListToolNames() {
				if strings.HasPrefix(name, id+".") {
					tools = append(tools, strings.TrimPrefix(name, id+"."))
				}
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				md.Name,
				md.Version,
				md.Description,
				md.Author,
				strings.Join(tools, ", "))
		}

		if err := w.Flush(); err != nil {
			return err
		}

		if listDiagnostics && len(diags) > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Diagnostics:")
			for _, d := range diags {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", d)
			}
		}

		return nil
	},
}

func init() {
	listCmd.Flags().
		BoolVar(&listDiagnostics, "diagnostics", false, "show rejection diagnostics from the discovery pass")
	rootCmd.AddCommand(listCmd)
}
