package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

type Styles struct {
	Prompt lipgloss.Style
	Label  lipgloss.Style
	Answer lipgloss.Style
	Error  lipgloss.Style
	Notice lipgloss.Style
	Tool   lipgloss.Style
}

// NewStyles returns the REPL colors for out: bold blue prompt, bold red
// answer label, green answer. Without color every style is plain.
func NewStyles(out io.Writer, color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{Prompt: plain, Label: plain, Answer: plain, Error: plain, Notice: plain, Tool: plain}
	}
	r := lipgloss.NewRenderer(out)
	return Styles{
		Prompt: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Label:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Answer: r.NewStyle().Foreground(lipgloss.Color("10")),
		Error:  r.NewStyle().Foreground(lipgloss.Color("9")),
		Notice: r.NewStyle().Faint(true),
		Tool:   r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
