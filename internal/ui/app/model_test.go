package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reportdto "everest/internal/modules/report/dto"
	sessiondto "everest/internal/modules/session/dto"
	"everest/internal/ui/components"
)

type fakeSession struct {
	now      float64
	state    string
	starts   []float64
	laps     []sessiondto.LapInput
	finishes []sessiondto.FinishInput
	resets   int
	goal     int
	saved    int
}

func (f *fakeSession) NowMs() float64 { return f.now }

func (f *fakeSession) status() sessiondto.StatusOutput {
	return sessiondto.StatusOutput{State: f.state, GoalLaps: f.goal, LapCounter: len(f.laps)}
}

func (f *fakeSession) Start(_ context.Context, in sessiondto.TimedInput) (sessiondto.StatusOutput, error) {
	f.starts = append(f.starts, in.AtMs)
	f.state = "running"
	return f.status(), nil
}

func (f *fakeSession) TogglePause(_ context.Context, _ sessiondto.TimedInput) (sessiondto.StatusOutput, error) {
	if f.state == "running" {
		f.state = "paused"
	} else {
		f.state = "running"
	}
	return f.status(), nil
}

// AddLap rejects every unforced lap.
func (f *fakeSession) AddLap(_ context.Context, in sessiondto.LapInput) (sessiondto.LapResultOutput, error) {
	if !in.Forced {
		return sessiondto.LapResultOutput{
			Rejection: &sessiondto.RejectionOutput{Reason: "tooShort", AtMs: in.AtMs, LapTimeMs: 1000, AverageLapMs: 10000},
			Status:    f.status(),
		}, nil
	}
	f.laps = append(f.laps, in)
	return sessiondto.LapResultOutput{
		Accepted: true,
		Lap:      sessiondto.LapOutput{Index: len(f.laps), DurationMs: 1000, Forced: true},
		Status:   f.status(),
	}, nil
}

func (f *fakeSession) Finish(_ context.Context, in sessiondto.FinishInput) (sessiondto.FinishOutput, error) {
	f.finishes = append(f.finishes, in)
	f.state = "finished"
	return sessiondto.FinishOutput{Status: f.status()}, nil
}

func (f *fakeSession) Reset(_ context.Context, _ sessiondto.ResetInput) (sessiondto.ResetOutput, error) {
	f.resets++
	f.state = "idle"
	f.laps = nil
	return sessiondto.ResetOutput{ArchiveID: "a1", Status: f.status()}, nil
}

func (f *fakeSession) UpdateGoal(_ context.Context, in sessiondto.GoalInput) (sessiondto.StatusOutput, error) {
	f.goal = in.GoalLaps
	return f.status(), nil
}

func (f *fakeSession) UpdateLapGeometry(context.Context, sessiondto.GeometryInput) (sessiondto.StatusOutput, error) {
	return f.status(), nil
}

func (f *fakeSession) UpdateReportMeta(context.Context, sessiondto.ReportMetaInput) (sessiondto.StatusOutput, error) {
	return f.status(), nil
}

func (f *fakeSession) Status(context.Context) (sessiondto.StatusOutput, error) {
	return f.status(), nil
}

func (f *fakeSession) Autosave(context.Context) bool {
	f.saved++
	return true
}

func (f *fakeSession) Restore(context.Context) (sessiondto.RestoreOutput, error) {
	return sessiondto.RestoreOutput{Restored: f.state == "finished", Status: f.status()}, nil
}

func (f *fakeSession) ListHistory(context.Context) ([]sessiondto.HistoryItemOutput, error) {
	return nil, nil
}

func (f *fakeSession) GetHistory(context.Context, string) (sessiondto.HistoryDetailOutput, error) {
	return sessiondto.HistoryDetailOutput{}, nil
}

type fakeReport struct{ exported []reportdto.RenderInput }

func (f *fakeReport) Preview(_ context.Context, in reportdto.RenderInput) (reportdto.RenderOutput, error) {
	return reportdto.RenderOutput{Kind: in.Kind, Content: "summary"}, nil
}

func (f *fakeReport) Export(_ context.Context, in reportdto.RenderInput) (reportdto.ExportOutput, error) {
	f.exported = append(f.exported, in)
	return reportdto.ExportOutput{Kind: in.Kind, Path: "/tmp/x.txt", Bytes: 3}, nil
}

func newTestModel(t *testing.T, countdown int) (Model, *fakeSession, *fakeReport) {
	t.Helper()
	session := &fakeSession{state: "idle", goal: 100}
	report := &fakeReport{}
	m := NewModel(session, report, Options{CountdownSeconds: countdown, Locale: "en"})
	return m, session, report
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	if k == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes a single, non-batched command and feeds its message back.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	return send(t, m, cmd())
}

func TestStartWithoutCountdownUsesKeyPressTime(t *testing.T) {
	m, session, _ := newTestModel(t, 0)
	session.now = 1234

	m, cmd := press(t, m, "s")
	session.now = 9999
	m, _ = run(t, m, cmd)

	assert.Equal(t, []float64{1234}, session.starts)
	assert.Equal(t, "running", m.live.State)
}

func TestCountdownStartsWhenItReachesZero(t *testing.T) {
	m, session, _ := newTestModel(t, 2)

	m, _ = press(t, m, "s")
	require.Equal(t, modeCountdown, m.mode)
	assert.Equal(t, 2, m.countdown)

	m, cmd := send(t, m, countdownMsg{seq: m.cdSeq})
	assert.Equal(t, 1, m.countdown)
	assert.NotNil(t, cmd)
	assert.Empty(t, session.starts)

	session.now = 3000
	m, cmd = send(t, m, countdownMsg{seq: m.cdSeq})
	assert.Equal(t, modeNormal, m.mode)
	m, _ = run(t, m, cmd)

	assert.Equal(t, []float64{3000}, session.starts)
	assert.Equal(t, "running", m.live.State)
}

func TestCancelledCountdownIgnoresStaleTicks(t *testing.T) {
	m, session, _ := newTestModel(t, 1)

	m, _ = press(t, m, "s")
	stale := m.cdSeq
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	require.Equal(t, modeNormal, m.mode)

	m, cmd := send(t, m, countdownMsg{seq: stale})
	assert.Nil(t, cmd)
	assert.Empty(t, session.starts)
}

func TestRejectedLapIsResubmittedWithOriginalTimestamp(t *testing.T) {
	m, session, _ := newTestModel(t, 0)
	session.state = "running"
	m.apply(session.status())

	session.now = 5000
	m, cmd := press(t, m, " ")
	m, _ = run(t, m, cmd)
	require.Equal(t, modeConfirmLap, m.mode)
	require.NotNil(t, m.pending)
	assert.Contains(t, m.View(), "Record lap anyway?")

	session.now = 8000
	m, cmd = press(t, m, "y")
	m, _ = run(t, m, cmd)

	require.Len(t, session.laps, 1)
	assert.Equal(t, sessiondto.LapInput{AtMs: 5000, Forced: true}, session.laps[0])
	assert.Equal(t, modeNormal, m.mode)
	assert.Equal(t, 1, m.live.LapCounter)
}

func TestDeclinedLapIsDropped(t *testing.T) {
	m, session, _ := newTestModel(t, 0)
	session.state = "running"
	m.apply(session.status())

	m, cmd := press(t, m, "l")
	m, _ = run(t, m, cmd)
	m, cmd = press(t, m, "n")

	assert.Nil(t, cmd)
	assert.Nil(t, m.pending)
	assert.Empty(t, session.laps)
}

func TestFinishConfirmRecordsClosingLapAtPressTime(t *testing.T) {
	m, session, _ := newTestModel(t, 0)
	session.state = "running"
	m.apply(session.status())

	session.now = 42000
	m, _ = press(t, m, "f")
	require.Equal(t, modeConfirmFinish, m.mode)

	session.now = 50000
	m, cmd := press(t, m, "y")
	m, _ = run(t, m, cmd)

	require.Len(t, session.finishes, 1)
	assert.Equal(t, sessiondto.FinishInput{AtMs: 42000, RecordLap: true}, session.finishes[0])
	assert.Equal(t, tabSummary, m.activeTab)
}

func TestResetNeedsConfirmation(t *testing.T) {
	m, session, _ := newTestModel(t, 0)

	m, cmd := press(t, m, "r")
	assert.Nil(t, cmd)
	assert.Equal(t, 0, session.resets)

	m, cmd = press(t, m, "y")
	m, _ = run(t, m, cmd)
	assert.Equal(t, 1, session.resets)
	assert.Equal(t, "session archived and reset", m.status)
}

func TestPaletteGoalCommand(t *testing.T) {
	m, session, _ := newTestModel(t, 0)

	m, cmd := send(t, m, components.PaletteSubmitMsg{Input: "goal 29"})
	m, _ = run(t, m, cmd)

	assert.Equal(t, 29, session.goal)
	assert.Equal(t, 29, m.live.GoalLaps)
	assert.Equal(t, "goal updated", m.status)
}

func TestPaletteRejectsBadInput(t *testing.T) {
	m, _, _ := newTestModel(t, 0)

	m, cmd := send(t, m, components.PaletteSubmitMsg{Input: "geometry ten"})
	assert.Nil(t, cmd)
	assert.Equal(t, "usage: geometry <km> <m>", m.status)

	m, cmd = send(t, m, components.PaletteSubmitMsg{Input: "warp 9"})
	assert.Nil(t, cmd)
	assert.Equal(t, "unknown command: warp", m.status)
}

func TestExportUsesSelectedLocale(t *testing.T) {
	m, _, report := newTestModel(t, 0)

	m, _ = send(t, m, components.PaletteSubmitMsg{Input: "locale ru"})
	m, cmd := send(t, m, components.PaletteSubmitMsg{Input: "export table"})
	m, _ = run(t, m, cmd)

	require.Len(t, report.exported, 1)
	assert.Equal(t, reportdto.RenderInput{Kind: "table", Locale: "ru"}, report.exported[0])
	assert.Contains(t, m.status, "/tmp/x.txt")
}

func TestRestoredFinishedSessionOpensSummary(t *testing.T) {
	m, session, _ := newTestModel(t, 0)
	session.state = "finished"

	m, _ = run(t, m, m.restoreCmd())

	assert.Equal(t, tabSummary, m.activeTab)
	assert.Equal(t, "finished", m.live.State)
}

func TestStartIgnoredWhenFinished(t *testing.T) {
	m, session, _ := newTestModel(t, 0)
	session.state = "finished"
	m.apply(session.status())

	m, cmd := press(t, m, "s")
	assert.Nil(t, cmd)
	assert.Empty(t, session.starts)
	assert.Equal(t, "session finished, press r to reset", m.status)
}

func TestLapKeyIgnoredWhilePaused(t *testing.T) {
	m, session, _ := newTestModel(t, 0)
	session.state = "paused"
	m.apply(session.status())

	for _, k := range []string{"l", " "} {
		var cmd tea.Cmd
		m, cmd = press(t, m, k)
		assert.Nil(t, cmd)
	}
	assert.Empty(t, session.laps)
	assert.Equal(t, modeNormal, m.mode)
	assert.Equal(t, "resume before recording a lap", m.status)
}

func TestFinishWhilePausedRecordsClosingLap(t *testing.T) {
	m, session, _ := newTestModel(t, 0)
	session.state = "paused"
	m.apply(session.status())

	session.now = 61000
	m, _ = press(t, m, "f")
	require.Equal(t, modeConfirmFinish, m.mode)

	m, cmd := press(t, m, "y")
	m, _ = run(t, m, cmd)

	require.Len(t, session.finishes, 1)
	assert.Equal(t, sessiondto.FinishInput{AtMs: 61000, RecordLap: true}, session.finishes[0])
	assert.Equal(t, "finished", m.live.State)
}
