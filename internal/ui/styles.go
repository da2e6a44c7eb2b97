// Package ui renders the teacher's lobby and dashboard in the terminal.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zaqqye/feedhub_v1/internal/models"
)

var (
	primary = lipgloss.Color("#4085B4")
	muted   = lipgloss.Color("#A0A0A0")
)

type Styles struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	PIN      lipgloss.Style
	Card     lipgloss.Style
	Comment  lipgloss.Style
	Bar      lipgloss.Style
	Error    lipgloss.Style
	Footer   lipgloss.Style
	Disabled lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(primary).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 2).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			MarginBottom(1),
		Muted: lipgloss.NewStyle().Foreground(muted),
		PIN: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1).
			MarginBottom(1),
		Comment:  lipgloss.NewStyle().Italic(true),
		Bar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#55E78A")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E75555")).Bold(true),
		Footer:   lipgloss.NewStyle().Foreground(muted).MarginTop(1),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color("#303030")),
	}
}

// avatar draws the student's initial on their avatar colour.
func avatar(s models.Student) string {
	color := s.AvatarColor
	if color == "" {
		color = "#A8CFF5"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("#303030")).
		Bold(true).
		Padding(0, 1).
		Render(s.Initial())
}

func arrow(label string, enabled bool, st Styles) string {
	if enabled {
		return label
	}
	return st.Disabled.Render(label)
}

func bar(n, total, width int) string {
	if total == 0 || n == 0 {
		return ""
	}
	w := n * width / total
	if w == 0 {
		w = 1
	}
	return strings.Repeat("█", w)
}
