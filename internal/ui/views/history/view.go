package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "everest/internal/modules/session/dto"
	"everest/internal/platform/timefmt"
	"everest/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type HistoryPort interface {
	ListHistory(ctx context.Context) ([]sessiondto.HistoryItemOutput, error)
	GetHistory(ctx context.Context, id string) (sessiondto.HistoryDetailOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type ItemsLoadedMsg struct {
	Items []sessiondto.HistoryItemOutput
	Err   error
}

type DetailLoadedMsg struct {
	Detail sessiondto.HistoryDetailOutput
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type sessionItem struct {
	item sessiondto.HistoryItemOutput
}

func (i sessionItem) Title() string {
	name := i.item.TrackName
	if name == "" {
		name = "Untitled track"
	}
	return name
}

func (i sessionItem) Description() string {
	return fmt.Sprintf("%s  %d laps", i.item.ArchivedAt.Local().Format("2006-01-02 15:04"), i.item.LapCount)
}

func (i sessionItem) FilterValue() string { return i.item.TrackName + " " + i.item.UserName }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    HistoryPort
	list    list.Model
	detail  sessiondto.HistoryDetailOutput
	preview viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port HistoryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, preview: vp, spinner: sp}
}

// Refresh reloads the archive list.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	return tea.Batch(m.loadItemsCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ItemsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "History: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "History"
		items := make([]list.Item, len(msg.Items))
		for i, it := range msg.Items {
			items[i] = sessionItem{item: it}
		}
		cmds = append(cmds, m.list.SetItems(items))
		if len(msg.Items) > 0 {
			cmds = append(cmds, m.loadDetailCmd(msg.Items[0].ID))
		} else {
			m.detail = sessiondto.HistoryDetailOutput{}
			m.preview.SetContent(m.renderDetail())
		}

	case DetailLoadedMsg:
		if msg.Err == nil {
			m.detail = msg.Detail
			m.preview.SetContent(m.renderDetail())
			m.preview.GotoTop()
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			if item, ok := m.list.SelectedItem().(sessionItem); ok {
				cmds = append(cmds, m.loadDetailCmd(item.item.ID))
			}
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading history…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(max(detailW-2, 0)).
		Height(max(m.height-2, 0)).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is active, so the app
// model can leave keys to the list.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	listW := width * 4 / 10
	detailW := width - listW
	m.list.SetSize(listW, height)
	m.preview.Width = max(detailW-4, 0)
	m.preview.Height = max(height-4, 0)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) renderDetail() string {
	d := m.detail
	if d.ID == "" {
		return theme.Muted.Render("No archived sessions")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(sessionItem{item: d.HistoryItemOutput}.Title()) + "\n\n")
	if d.UserName != "" {
		sb.WriteString(theme.Muted.Render("athlete:  ") + d.UserName + "\n")
	}
	if d.StartedAt != nil {
		sb.WriteString(theme.Muted.Render("started:  ") + d.StartedAt.Local().Format("2006-01-02 15:04:05") + "\n")
	}
	if d.FinishedAt != nil {
		sb.WriteString(theme.Muted.Render("finished: ") + d.FinishedAt.Local().Format("2006-01-02 15:04:05") + "\n")
	}
	sb.WriteString(fmt.Sprintf("%s%d\n", theme.Muted.Render("laps:     "), d.LapCount))
	sb.WriteString(fmt.Sprintf("%s%.1f km  %.0f m\n", theme.Muted.Render("totals:   "), d.TotalDistanceKm, d.TotalAscentM))
	if d.AverageLapMs > 0 {
		sb.WriteString(theme.Muted.Render("avg lap:  ") + timefmt.Clock(d.AverageLapMs) + "\n")
	}
	if len(d.Pauses) > 0 {
		var paused float64
		for _, p := range d.Pauses {
			paused += p.DurationMs
		}
		sb.WriteString(fmt.Sprintf("%s%d (%s)\n", theme.Muted.Render("pauses:   "), len(d.Pauses), timefmt.ClockHours(paused)))
	}
	if len(d.Laps) > 0 {
		sb.WriteString("\n")
		for _, l := range d.Laps {
			mark := ""
			if l.Forced {
				mark = " *"
			}
			sb.WriteString(fmt.Sprintf("%4d  %s  %s%s\n", l.Index, timefmt.Clock(l.DurationMs), timefmt.ClockHours(l.CumulativeElapsedMs), mark))
		}
	}
	return sb.String()
}

func (m Model) loadItemsCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		items, err := port.ListHistory(context.Background())
		return ItemsLoadedMsg{Items: items, Err: err}
	}
}

func (m Model) loadDetailCmd(id string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		detail, err := port.GetHistory(context.Background(), id)
		return DetailLoadedMsg{Detail: detail, Err: err}
	}
}
