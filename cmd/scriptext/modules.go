package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/script-extensions/loader"
)

const nameWidth = 16

func newModulesCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List registered modules and globals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := jsBuilder(rootOpts.cfg)
			if err != nil {
				return err
			}
			policy, err := rootOpts.cfg.ConflictPolicy()
			if err != nil {
				return err
			}
			return listModules(cmd.OutOrStdout(), b, policy)
		},
	}
}

type listStyles struct {
	title  lipgloss.Style
	name   lipgloss.Style
	module lipgloss.Style
	global lipgloss.Style
	help   lipgloss.Style
}

func newListStyles(r *lipgloss.Renderer) listStyles {
	return listStyles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		name:   r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		module: r.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		global: r.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		help:   r.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

// listModules prints every registration once, in registration order.
func listModules(w io.Writer, b loader.Builder, policy loader.ConflictPolicy) error {
	_, res, gi, err := b.Build()
	if err != nil {
		return err
	}

	st := newListStyles(lipgloss.NewRenderer(w))

	var sb strings.Builder
	sb.WriteString(st.title.Render("Extensions"))
	sb.WriteString("\n\n")

	seen := make(map[string]bool)
	for _, name := range gi.Names() {
		if seen[name] {
			continue
		}
		seen[name] = true

		kind := st.global.Render("globals")
		if res.Has(name) {
			kind = st.module.Render("module")
		}

		pad := nameWidth - len(name)
		if pad < 1 {
			pad = 1
		}
		sb.WriteString("  ")
		sb.WriteString(st.name.Render(name))
		sb.WriteString(strings.Repeat(" ", pad))
		sb.WriteString(kind)
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(st.help.Render(fmt.Sprintf("conflicts: %s", policy)))
	sb.WriteString("\n")

	_, err = io.WriteString(w, sb.String())
	return err
}
