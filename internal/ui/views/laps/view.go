package laps

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "everest/internal/modules/session/dto"
	"everest/internal/platform/timefmt"
	"everest/internal/ui/theme"
)

// Model lists recorded laps newest first.
type Model struct {
	table  table.Model
	count  int
	width  int
	height int
}

func New() Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Surface1).
		BorderBottom(true).
		Foreground(theme.Sapphire).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.Base).
		Background(theme.Lavender).
		Bold(false)
	t.SetStyles(styles)
	return Model{table: t}
}

// SetLaps replaces the rows. The table is rebuilt only when the lap count
// changes so the cursor survives redraw ticks.
func (m *Model) SetLaps(laps []sessiondto.LapOutput) {
	if len(laps) == m.count && m.count > 0 {
		return
	}
	m.count = len(laps)
	rows := make([]table.Row, 0, len(laps))
	for i := len(laps) - 1; i >= 0; i-- {
		rows = append(rows, row(laps[i]))
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(max(height-2, 3))
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.count == 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("No laps yet"))
	}
	return m.table.View()
}

// ─── private ─────────────────────────────────────────────────────────────────

func columns(width int) []table.Column {
	// Seven columns share the width; the lap number gets a narrow slot.
	w := max((width-8)/7, 8)
	return []table.Column{
		{Title: "#", Width: 5},
		{Title: "Lap", Width: w},
		{Title: "Δ avg", Width: w},
		{Title: "Total", Width: w},
		{Title: "Pause", Width: w},
		{Title: "km", Width: w},
		{Title: "m", Width: w},
	}
}

func row(l sessiondto.LapOutput) table.Row {
	idx := strconv.Itoa(l.Index)
	if l.Forced {
		idx += "*"
	}
	pause := ""
	if l.PauseDurationMs > 0 {
		pause = timefmt.Clock(l.PauseDurationMs)
	}
	return table.Row{
		idx,
		timefmt.Clock(l.DurationMs),
		timefmt.Signed(l.DeltaFromAverageMs),
		timefmt.ClockHours(l.CumulativeElapsedMs),
		pause,
		fmt.Sprintf("%.1f", l.CumulativeDistanceKm),
		fmt.Sprintf("%.0f", l.CumulativeAscentM),
	}
}
