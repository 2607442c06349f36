package cmd

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/agentlink/agentlink/internal/registry"
)

// pluginRow is one entry in the browser list.
type pluginRow struct {
	id    string
	md    registry.Metadata
	tools []string
}

// browseModel is the TUI model for the interactive plugin browser: a plugin
// list on the left key, a metadata detail pane for the selection.
type browseModel struct {
	rows    []pluginRow
	current int
	done    bool
}

func newBrowseModel(reg *registry.Registry) browseModel {
	var rows []pluginRow
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

		rows = append(rows, pluginRow{id: id, md: md, tools: tools})
	}

	return browseModel{rows: rows}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "q", "esc", "ctrl+c":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		if m.current > 0 {
			m.current--
		}
	case "down", "j":
		if m.current < len(m.rows)-1 {
			m.current++
		}
	}

	return m, nil
}

func (m browseModel) View() string {
	if m.done {
		return ""
	}
	if len(m.rows) == 0 {
		return "No plugins discovered.\n\nPress q to quit.\n"
	}

	var b strings.Builder
	b.WriteString("Discovered plugins\n")
	b.WriteString("------------------\n")

	for i, row := range m.rows {
		cursor := "  "
		if i == m.current {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%s%s v%s\n", cursor, row.md.Name, row.md.Version)
	}

	row := m.rows[m.current]
	b.WriteString("\n")
	fmt.Fprintf(&b, "Identifier: %s\n", row.id)
	fmt.Fprintf(&b, "Author:     %s\n", row.md.Author)
	fmt.Fprintf(&b, "Platform:   %s\n", strings.Join(row.md.Platform, ", "))
	fmt.Fprintf(&b, "Requires:   go %s\n", row.md.RuntimeRequires)
	fmt.Fprintf(&b, "About:      %s\n", row.md.Description)
	if len(row.tools) > 0 {
		fmt.Fprintf(&b, "Tools:      %s\n", strings.Join(row.tools, ", "))
	}
	if len(row.md.EnvVars) > 0 {
		names := make([]string, 0, len(row.md.EnvVars))
		for name := range row.md.EnvVars {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "Env vars:   %s\n", strings.Join(names, ", "))
	}

	b.WriteString("\nup/down to select, q to quit.\n")

	return b.String()
}

// browseCmd represents the browse command.
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse discovered plugins interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, _, err := discover(cmd.Context())
		if err != nil {
			return err
		}
		defer reg.Close(cmd.Context())

		program := tea.NewProgram(newBrowseModel(reg))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("browser failed: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
