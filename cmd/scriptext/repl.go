package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dop251/goja"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/script-extensions/gojahost"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxTranscript = 20

func newReplCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Evaluate JavaScript interactively",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("repl needs an interactive terminal; use run for files")
			}

			host, err := newJSHost(rootOpts.cfg)
			if err != nil {
				return err
			}

			p := tea.NewProgram(newReplModel(host), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

type entry struct {
	err    error
	input  string
	output string
}

type replModel struct {
	host       *gojahost.Host
	input      textinput.Model
	transcript []entry
	history    []string
	histIdx    int
}

func newReplModel(host *gojahost.Host) *replModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = `require("printer").default.print()`
	ti.Width = 60
	ti.Focus()

	return &replModel{host: host, input: ti}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			m.eval(m.input.Value())
			m.input.SetValue("")
			return m, nil

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// eval runs src on the host. goja runtimes are single-threaded, so this
// happens inside Update rather than in a tea.Cmd.
func (m *replModel) eval(src string) {
	src = strings.TrimSpace(src)
	if src == "" {
		return
	}

	m.history = append(m.history, src)
	m.histIdx = len(m.history)

	e := entry{input: src}
	v, err := m.host.RunString(src)
	switch {
	case err != nil:
		e.err = err
	case v == nil || goja.IsUndefined(v):
		e.output = "undefined"
	default:
		e.output = v.String()
	}

	m.transcript = append(m.transcript, e)
	if len(m.transcript) > maxTranscript {
		m.transcript = m.transcript[len(m.transcript)-maxTranscript:]
	}
}

func (m *replModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("scriptext"))
	b.WriteString(" ")
	b.WriteString(m.host.Context().ID())
	b.WriteString("\n\n")

	for _, e := range m.transcript {
		b.WriteString(inputStyle.Render("> " + e.input))
		b.WriteString("\n")
		if e.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", e.err)))
		} else {
			b.WriteString(resultStyle.Render(e.output))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter evaluate • ↑/↓ history • esc quit"))

	return b.String()
}
