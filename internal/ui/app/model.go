package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	reportdto "everest/internal/modules/report/dto"
	sessiondto "everest/internal/modules/session/dto"
	"everest/internal/platform/timefmt"
	"everest/internal/ui/components"
	"everest/internal/ui/theme"
	historyview "everest/internal/ui/views/history"
	lapsview "everest/internal/ui/views/laps"
	summaryview "everest/internal/ui/views/summary"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type sessionPort interface {
	NowMs() float64
	Start(ctx context.Context, input sessiondto.TimedInput) (sessiondto.StatusOutput, error)
	TogglePause(ctx context.Context, input sessiondto.TimedInput) (sessiondto.StatusOutput, error)
	AddLap(ctx context.Context, input sessiondto.LapInput) (sessiondto.LapResultOutput, error)
	Finish(ctx context.Context, input sessiondto.FinishInput) (sessiondto.FinishOutput, error)
	Reset(ctx context.Context, input sessiondto.ResetInput) (sessiondto.ResetOutput, error)
	UpdateGoal(ctx context.Context, input sessiondto.GoalInput) (sessiondto.StatusOutput, error)
	UpdateLapGeometry(ctx context.Context, input sessiondto.GeometryInput) (sessiondto.StatusOutput, error)
	UpdateReportMeta(ctx context.Context, input sessiondto.ReportMetaInput) (sessiondto.StatusOutput, error)
	Status(ctx context.Context) (sessiondto.StatusOutput, error)
	Autosave(ctx context.Context) bool
	Restore(ctx context.Context) (sessiondto.RestoreOutput, error)
	historyview.HistoryPort
}

type reportPort interface {
	Preview(ctx context.Context, input reportdto.RenderInput) (reportdto.RenderOutput, error)
	Export(ctx context.Context, input reportdto.RenderInput) (reportdto.ExportOutput, error)
}

// Options carries the runtime knobs the TUI reads from config.
type Options struct {
	CountdownSeconds int
	AutosaveInterval time.Duration
	Locale           string
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabTimer tabID = iota
	tabSummary
	tabHistory
	tabCount
)

var tabLabels = [tabCount]string{"Timer", "Summary", "History"}

// ─── modal state ─────────────────────────────────────────────────────────────

type mode int

const (
	modeNormal mode = iota
	modeCountdown
	modeConfirmLap
	modeConfirmFinish
	modeConfirmReset
)

const redrawInterval = 100 * time.Millisecond

// ─── async messages ───────────────────────────────────────────────────────────

type tickMsg struct{}

type statusMsg struct {
	status sessiondto.StatusOutput
	err    error
}

type restoredMsg struct {
	out sessiondto.RestoreOutput
	err error
}

type actionMsg struct {
	verb   string
	status sessiondto.StatusOutput
	err    error
}

type lapMsg struct {
	out sessiondto.LapResultOutput
	err error
}

type finishMsg struct {
	out sessiondto.FinishOutput
	err error
}

type resetMsg struct {
	out sessiondto.ResetOutput
	err error
}

type countdownMsg struct{ seq int }

type autosaveTickMsg struct{}

type autosavedMsg struct{ saved bool }

type exportedMsg struct {
	out reportdto.ExportOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Start   key.Binding
	Lap     key.Binding
	Pause   key.Binding
	Finish  key.Binding
	Reset   key.Binding
	Export  key.Binding
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Lap:     key.NewBinding(key.WithKeys(" ", "l"), key.WithHelp("space/l", "lap")),
		Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
		Finish:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export summary")),
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Lap, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Lap, k.Pause, k.Finish, k.Reset},
		{k.Export, k.Tab, k.Palette},
		{k.Help, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns the stopwatch intents, tab
// routing, confirmation prompts, the help overlay, and the command palette.
// Timestamps are read from the session clock at key press; everything else
// is delegated to the ports.
type Model struct {
	session sessionPort
	report  reportPort
	opts    Options

	lapsView    lapsview.Model
	summaryView summaryview.Model
	historyView historyview.Model
	progress    progress.Model

	live      sessiondto.StatusOutput
	mode      mode
	countdown int
	cdSeq     int
	pending   *sessiondto.RejectionOutput
	finishAt  float64
	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(session sessionPort, report reportPort, opts Options) Model {
	bar := progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Green)))
	return Model{
		session:     session,
		report:      report,
		opts:        opts,
		lapsView:    lapsview.New(),
		summaryView: summaryview.New(report, opts.Locale),
		historyView: historyview.New(session),
		progress:    bar,
		live:        sessiondto.StatusOutput{State: "idle"},
		activeTab:   tabTimer,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.restoreCmd(),
		m.tickCmd(),
		m.autosaveTickCmd(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.statusCmd(), m.tickCmd())

	case statusMsg:
		if msg.err == nil {
			m.apply(msg.status)
		}
		return m, nil

	case restoredMsg:
		if msg.err != nil {
			m.status = "restore: " + msg.err.Error()
			return m, nil
		}
		m.apply(msg.out.Status)
		if !msg.out.Restored {
			return m, nil
		}
		if msg.out.Status.State == "finished" {
			m.activeTab = tabSummary
			m.status = "finished session restored, press r to reset"
			return m, m.summaryView.Refresh()
		}
		m.status = fmt.Sprintf("restored %d laps, press s to continue", msg.out.Status.LapCounter)
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.apply(msg.status)
		m.status = msg.verb
		return m, nil

	case lapMsg:
		return m.handleLap(msg)

	case finishMsg:
		if msg.err != nil {
			m.status = "finish: " + msg.err.Error()
			return m, nil
		}
		m.apply(msg.out.Status)
		m.status = fmt.Sprintf("finished after %d laps in %s", msg.out.Status.LapCounter, timefmt.ClockHours(msg.out.Status.ElapsedMs))
		m.activeTab = tabSummary
		return m, m.summaryView.Refresh()

	case resetMsg:
		if msg.err != nil {
			m.status = "reset: " + msg.err.Error()
			return m, nil
		}
		m.apply(msg.out.Status)
		m.status = "session reset"
		if msg.out.ArchiveID != "" {
			m.status = "session archived and reset"
		}
		m.activeTab = tabTimer
		return m, m.historyView.Refresh()

	case countdownMsg:
		if m.mode != modeCountdown || msg.seq != m.cdSeq {
			return m, nil
		}
		m.countdown--
		if m.countdown > 0 {
			return m, m.countdownCmd()
		}
		m.mode = modeNormal
		return m, m.startCmd(m.session.NowMs())

	case autosaveTickMsg:
		return m, tea.Batch(m.autosaveCmd(), m.autosaveTickCmd())

	case autosavedMsg:
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = "export: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("exported %s (%d bytes)", msg.out.Path, msg.out.Bytes)
		}
		return m, nil

	case summaryview.LoadedMsg:
		var cmd tea.Cmd
		m.summaryView, cmd = m.summaryView.Update(msg)
		return m, cmd

	case historyview.ItemsLoadedMsg, historyview.DetailLoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quitCmd()
		}
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.mode != modeNormal {
			return m.handleModal(msg)
		}
		// Yield to the history list while its search filter is active.
		if m.activeTab == tabHistory && m.historyView.Filtering() {
			break
		}

		switch msg.String() {
		case "q":
			return m, m.quitCmd()
		case "tab":
			return m.switchTab((m.activeTab + 1) % tabCount)
		case "shift+tab":
			return m.switchTab((m.activeTab + tabCount - 1) % tabCount)
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "s":
			return m.beginStart()
		case " ", "l":
			if m.live.State == "paused" {
				m.status = "resume before recording a lap"
				return m, nil
			}
			return m, m.lapCmd(m.session.NowMs(), false)
		case "p":
			return m, m.togglePauseCmd(m.session.NowMs())
		case "f":
			if m.live.State != "running" && m.live.State != "paused" {
				m.status = "nothing to finish"
				return m, nil
			}
			m.finishAt = m.session.NowMs()
			m.mode = modeConfirmFinish
			return m, nil
		case "r":
			m.mode = modeConfirmReset
			return m, nil
		case "e":
			return m, m.exportCmd("summary")
		}
	}

	// Propagate the message to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTimer:
		m.lapsView, tabCmd = m.lapsView.Update(msg)
	case tabSummary:
		m.summaryView, tabCmd = m.summaryView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleLap(msg lapMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.status = msg.err.Error()
		return m, nil
	}
	m.apply(msg.out.Status)
	if !msg.out.Accepted {
		m.pending = msg.out.Rejection
		m.mode = modeConfirmLap
		m.status = "lap looks too short"
		return m, nil
	}
	lap := msg.out.Lap
	m.status = fmt.Sprintf("lap %d  %s", lap.Index, timefmt.Clock(lap.DurationMs))
	if msg.out.AutoFinished {
		m.status = fmt.Sprintf("goal reached: %d laps in %s", msg.out.Status.LapCounter, timefmt.ClockHours(msg.out.Status.ElapsedMs))
		m.activeTab = tabSummary
		return m, m.summaryView.Refresh()
	}
	return m, nil
}

func (m Model) handleModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if m.mode == modeCountdown {
		if k == "esc" || k == "s" {
			m.mode = modeNormal
			m.cdSeq++
			m.status = "start cancelled"
		}
		return m, nil
	}

	switch k {
	case "y", "enter":
		current := m.mode
		m.mode = modeNormal
		switch current {
		case modeConfirmLap:
			pending := m.pending
			m.pending = nil
			if pending == nil {
				return m, nil
			}
			return m, m.lapCmd(pending.AtMs, true)
		case modeConfirmFinish:
			return m, m.finishCmd(m.finishAt, true)
		case modeConfirmReset:
			return m, m.resetCmd()
		}
	case "n", "esc":
		m.mode = modeNormal
		m.pending = nil
		m.status = "cancelled"
	}
	return m, nil
}

func (m Model) beginStart() (tea.Model, tea.Cmd) {
	switch m.live.State {
	case "running", "paused":
		m.status = "already running"
		return m, nil
	case "finished":
		m.status = "session finished, press r to reset"
		return m, nil
	}
	if m.opts.CountdownSeconds <= 0 {
		return m, m.startCmd(m.session.NowMs())
	}
	m.mode = modeCountdown
	m.countdown = m.opts.CountdownSeconds
	m.cdSeq++
	return m, m.countdownCmd()
}

func (m Model) switchTab(tab tabID) (tea.Model, tea.Cmd) {
	m.activeTab = tab
	switch tab {
	case tabSummary:
		return m, m.summaryView.Refresh()
	case tabHistory:
		return m, m.historyView.Refresh()
	}
	return m, nil
}

// apply stores the latest status and pushes it into the timer widgets.
func (m *Model) apply(status sessiondto.StatusOutput) {
	m.live = status
	m.lapsView.SetLaps(status.Laps)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.mode == modeConfirmLap, m.mode == modeConfirmFinish, m.mode == modeConfirmReset:
		question, detail := m.confirmText()
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, components.Confirm(question, detail, min(m.width, 64)))
	default:
		content = m.activeView(contentH)
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView(height int) string {
	switch m.activeTab {
	case tabTimer:
		timerW := m.width * 45 / 100
		timer := lipgloss.NewStyle().Width(timerW).Height(height).Render(m.renderTimer(timerW))
		return lipgloss.JoinHorizontal(lipgloss.Top, timer, m.lapsView.View())
	case tabSummary:
		return m.summaryView.View()
	case tabHistory:
		return m.historyView.View()
	}
	return ""
}

func (m Model) confirmText() (string, string) {
	switch m.mode {
	case modeConfirmLap:
		if m.pending == nil {
			return "Record lap anyway?", ""
		}
		p := m.pending
		if p.Reason == "tooShortAbsolute" {
			return "Record lap anyway?", fmt.Sprintf("Lap time %s is below the %s minimum.",
				timefmt.Clock(p.LapTimeMs), timefmt.Clock(p.ThresholdMs))
		}
		return "Record lap anyway?", fmt.Sprintf("Lap time %s is under half the %s average.",
			timefmt.Clock(p.LapTimeMs), timefmt.Clock(p.AverageLapMs))
	case modeConfirmFinish:
		return "Finish the session?", "The running lap is recorded as the final lap."
	case modeConfirmReset:
		if m.live.LapCounter > 0 {
			return "Reset the session?", fmt.Sprintf("%d laps will be archived to history.", m.live.LapCounter)
		}
		return "Reset the session?", ""
	}
	return "", ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "everest  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := theme.State(m.live.State).Render("● "+m.live.State) + "  " + m.status
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── commands ─────────────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(redrawInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) countdownCmd() tea.Cmd {
	seq := m.cdSeq
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return countdownMsg{seq: seq} })
}

func (m Model) autosaveTickCmd() tea.Cmd {
	if m.opts.AutosaveInterval <= 0 {
		return nil
	}
	return tea.Tick(m.opts.AutosaveInterval, func(time.Time) tea.Msg { return autosaveTickMsg{} })
}

func (m Model) statusCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.Status(context.Background())
		return statusMsg{status: out, err: err}
	}
}

func (m Model) restoreCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.Restore(context.Background())
		return restoredMsg{out: out, err: err}
	}
}

func (m Model) autosaveCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return autosavedMsg{saved: session.Autosave(context.Background())}
	}
}

func (m Model) quitCmd() tea.Cmd {
	return tea.Sequence(m.autosaveCmd(), tea.Quit)
}

func (m Model) startCmd(at float64) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.Start(context.Background(), sessiondto.TimedInput{AtMs: at})
		return actionMsg{verb: "go!", status: out, err: err}
	}
}

func (m Model) togglePauseCmd(at float64) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.TogglePause(context.Background(), sessiondto.TimedInput{AtMs: at})
		verb := "paused"
		if out.State == "running" {
			verb = "resumed"
		}
		return actionMsg{verb: verb, status: out, err: err}
	}
}

func (m Model) lapCmd(at float64, forced bool) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.AddLap(context.Background(), sessiondto.LapInput{AtMs: at, Forced: forced})
		return lapMsg{out: out, err: err}
	}
}

func (m Model) finishCmd(at float64, recordLap bool) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.Finish(context.Background(), sessiondto.FinishInput{AtMs: at, RecordLap: recordLap})
		return finishMsg{out: out, err: err}
	}
}

func (m Model) resetCmd() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		out, err := session.Reset(context.Background(), sessiondto.ResetInput{Archive: true})
		return resetMsg{out: out, err: err}
	}
}

func (m Model) exportCmd(kind string) tea.Cmd {
	report, locale := m.report, m.summaryView.Locale()
	return func() tea.Msg {
		out, err := report.Export(context.Background(), reportdto.RenderInput{Kind: kind, Locale: locale})
		return exportedMsg{out: out, err: err}
	}
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	// tab bar: 2 lines; status bar: 2 lines.
	contentH := max(m.height-4, 1)
	timerW := m.width * 45 / 100
	m.lapsView.SetSize(m.width-timerW, contentH)
	m.summaryView.SetSize(m.width, contentH)
	m.historyView.SetSize(m.width, contentH)
	m.progress.Width = max(timerW-6, 10)
}
