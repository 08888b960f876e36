package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"document-analyzer/internal/helper"
)

var (
	modeNameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	modeLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

var modesJSON bool

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List code-assistant modes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		if modesJSON {
			helper.PrettyPrint(out, cfg.Modes)
			return
		}
		for i, m := range cfg.Modes {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, modeNameStyle.Render(m.Name))
			fmt.Fprintln(out, modeLabelStyle.Render("System prompt:"))
			fmt.Fprintln(out, indent(m.SystemPrompt))
			if m.Example != "" {
				fmt.Fprintln(out, modeLabelStyle.Render("Example:"))
				fmt.Fprintln(out, indent(m.Example))
			}
		}
	},
}

func init() {
	modesCmd.Flags().BoolVar(&modesJSON, "json", false, "output modes as JSON")
	rootCmd.AddCommand(modesCmd)
}

func indent(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
