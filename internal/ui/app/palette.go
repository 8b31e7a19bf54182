package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	sessiondto "everest/internal/modules/session/dto"
)

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch parts[0] {
	case "goal":
		if len(parts) != 2 {
			m.status = "usage: goal <laps>"
			return m, nil
		}
		goal, err := strconv.Atoi(parts[1])
		if err != nil {
			m.status = "invalid goal"
			return m, nil
		}
		return m, m.settingsCmd("goal updated", func(ctx context.Context) (sessiondto.StatusOutput, error) {
			return m.session.UpdateGoal(ctx, sessiondto.GoalInput{GoalLaps: goal})
		})
	case "geometry":
		if len(parts) != 3 {
			m.status = "usage: geometry <km> <m>"
			return m, nil
		}
		km, errKm := strconv.ParseFloat(parts[1], 64)
		asc, errAsc := strconv.ParseFloat(parts[2], 64)
		if errKm != nil || errAsc != nil {
			m.status = "invalid geometry"
			return m, nil
		}
		return m, m.settingsCmd("lap geometry updated", func(ctx context.Context) (sessiondto.StatusOutput, error) {
			return m.session.UpdateLapGeometry(ctx, sessiondto.GeometryInput{LapDistanceKm: km, LapAscentM: asc})
		})
	case "athlete":
		track := m.live.TrackName
		return m, m.settingsCmd("athlete updated", func(ctx context.Context) (sessiondto.StatusOutput, error) {
			return m.session.UpdateReportMeta(ctx, sessiondto.ReportMetaInput{UserName: rest, TrackName: track})
		})
	case "track":
		user := m.live.UserName
		return m, m.settingsCmd("track updated", func(ctx context.Context) (sessiondto.StatusOutput, error) {
			return m.session.UpdateReportMeta(ctx, sessiondto.ReportMetaInput{UserName: user, TrackName: rest})
		})
	case "export":
		kind := "summary"
		if len(parts) >= 2 {
			kind = parts[1]
		}
		return m, m.exportCmd(kind)
	case "locale":
		if len(parts) != 2 || (parts[1] != "en" && parts[1] != "ru") {
			m.status = "usage: locale <en|ru>"
			return m, nil
		}
		m.summaryView.SetLocale(parts[1])
		m.status = "report locale: " + parts[1]
		if m.activeTab == tabSummary {
			return m, m.summaryView.Refresh()
		}
		return m, nil
	default:
		m.status = fmt.Sprintf("unknown command: %s", parts[0])
		return m, nil
	}
}

func (m Model) settingsCmd(verb string, fn func(ctx context.Context) (sessiondto.StatusOutput, error)) tea.Cmd {
	return func() tea.Msg {
		out, err := fn(context.Background())
		return actionMsg{verb: verb, status: out, err: err}
	}
}
