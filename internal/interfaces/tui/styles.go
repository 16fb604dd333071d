package tui

import "github.com/charmbracelet/lipgloss"

var (
	Primary     = lipgloss.Color("#2196F3")
	Success     = lipgloss.Color("#8BC34A")
	Destructive = lipgloss.Color("#e53935")
	Muted       = lipgloss.Color("#8a94a6")
)

type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Focused  lipgloss.Style
	Error    lipgloss.Style
	Slot     lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Notice   lipgloss.Style
	Summary  lipgloss.Style
	Help     lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(Primary).MarginBottom(1),
		Label:    lipgloss.NewStyle().Bold(true),
		Focused:  lipgloss.NewStyle().Bold(true).Foreground(Primary),
		Error:    lipgloss.NewStyle().Foreground(Destructive),
		Slot:     lipgloss.NewStyle().Padding(0, 1),
		Cursor:   lipgloss.NewStyle().Padding(0, 1).Underline(true).Foreground(Primary),
		Selected: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(Success),
		Notice: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Destructive).
			Padding(0, 1),
		Summary: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Success).
			Padding(0, 1),
		Help: lipgloss.NewStyle().Foreground(Muted).MarginTop(1),
	}
}
