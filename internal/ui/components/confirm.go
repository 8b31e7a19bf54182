package components

import (
	"github.com/charmbracelet/lipgloss"

	"everest/internal/ui/theme"
)

var confirmStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.DoubleBorder()).
	BorderForeground(theme.Yellow).
	Background(theme.Mantle).
	Foreground(theme.Text).
	Padding(0, 2)

// Confirm renders a yes/no prompt box.
func Confirm(question, detail string, width int) string {
	body := theme.Warn.Render(question)
	if detail != "" {
		body += "\n" + theme.Muted.Render(detail)
	}
	body += "\n\n" + theme.Good.Render("y") + theme.Muted.Render(" confirm   ") + theme.Bad.Render("n") + theme.Muted.Render(" cancel")
	if width > 8 {
		return confirmStyle.Width(width - 4).Render(body)
	}
	return confirmStyle.Render(body)
}
