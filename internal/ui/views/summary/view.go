package summary

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	reportdto "everest/internal/modules/report/dto"
	apperrors "everest/internal/platform/errors"
	"everest/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type ReportPort interface {
	Preview(ctx context.Context, input reportdto.RenderInput) (reportdto.RenderOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Report reportdto.RenderOutput
	Err    error
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    ReportPort
	locale  string
	preview viewport.Model
	spinner spinner.Model
	loading bool
	empty   bool
	errText string
	width   int
	height  int
}

func New(port ReportPort, locale string) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1, 2)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, locale: locale, preview: vp, spinner: sp}
}

func (m Model) Locale() string { return m.locale }

// SetLocale switches the summary language; call Refresh afterwards.
func (m *Model) SetLocale(locale string) { m.locale = locale }

// Refresh re-renders the summary from the current session.
func (m *Model) Refresh() tea.Cmd {
	m.loading = true
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.errText = ""
		m.empty = false
		switch {
		case errors.Is(msg.Err, apperrors.ErrNoStatistics):
			m.empty = true
		case msg.Err != nil:
			m.errText = msg.Err.Error()
		default:
			m.preview.SetContent(msg.Report.Content)
			m.preview.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	switch {
	case m.loading:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Building summary…")
	case m.empty:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("No laps recorded yet"))
	case m.errText != "":
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Bad.Render(m.errText))
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Render(m.preview.View())
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.preview.Width = max(width-2, 0)
	m.preview.Height = max(height-2, 0)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) loadCmd() tea.Cmd {
	port, locale := m.port, m.locale
	return func() tea.Msg {
		out, err := port.Preview(context.Background(), reportdto.RenderInput{Kind: "summary", Locale: locale})
		return LoadedMsg{Report: out, Err: err}
	}
}
