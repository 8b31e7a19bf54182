package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"everest/internal/platform/timefmt"
	"everest/internal/ui/theme"
)

var (
	labelStyle = theme.Muted.Width(10)
	bigStyle   = lipgloss.NewStyle().
			Foreground(theme.Text).
			Bold(true).
			Padding(1, 0)
)

func (m Model) renderTimer(width int) string {
	s := m.live
	var sb strings.Builder

	header := theme.State(s.State).Render(strings.ToUpper(s.State))
	if s.TrackName != "" {
		header += "  " + theme.Title.Render(s.TrackName)
	}
	if s.UserName != "" {
		header += theme.Muted.Render("  " + s.UserName)
	}
	sb.WriteString(header + "\n")

	if m.mode == modeCountdown {
		sb.WriteString(bigStyle.Foreground(theme.Yellow).Render(fmt.Sprintf("Starting in %d…", m.countdown)) + "\n")
		sb.WriteString(theme.Muted.Render("esc to cancel") + "\n")
		return theme.Pane.Width(max(width-2, 10)).Render(sb.String())
	}

	sb.WriteString(bigStyle.Render(timefmt.ClockHours(s.ElapsedMs)) + "\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("lap", timefmt.Clock(s.LapElapsedMs))
	if s.AverageLapMs > 0 {
		row("average", timefmt.Clock(s.AverageLapMs))
	}
	if s.State == "paused" {
		row("paused", theme.Warn.Render(timefmt.Clock(s.CurrentPauseMs)))
	}
	if s.TotalPausedMs > 0 {
		row("pauses", timefmt.ClockHours(s.TotalPausedMs))
	}
	sb.WriteString("\n")

	row("laps", fmt.Sprintf("%d / %d", s.LapCounter, s.GoalLaps))
	sb.WriteString(m.progress.ViewAs(s.ProgressPercent/100) + "\n\n")
	row("distance", fmt.Sprintf("%.1f km", s.TotalDistanceKm))
	row("ascent", fmt.Sprintf("%.0f m", s.TotalAscentM))
	if s.HasETA {
		row("eta", timefmt.ClockHours(s.ETAMs))
	}

	sb.WriteString("\n" + theme.Muted.Render(m.hint()))
	return theme.Pane.Width(max(width-2, 10)).Render(sb.String())
}

func (m Model) hint() string {
	switch m.live.State {
	case "running":
		return "space: lap  p: pause  f: finish"
	case "paused":
		return "p: resume  f: finish"
	case "finished":
		return "e: export  r: reset"
	}
	return "s: start  : settings"
}
