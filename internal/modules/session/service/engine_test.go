package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"everest/internal/modules/session/domain"
	"everest/internal/modules/session/service"
	apperrors "everest/internal/platform/errors"
)

type fakeMono struct{ now float64 }

func (f *fakeMono) NowMs() float64 { return f.now }

type fakeClock struct{ at time.Time }

func (f fakeClock) Now() time.Time { return f.at }

type fakeID struct{}

func (fakeID) New() string { return "hist-1" }

type fakeSnapshots struct {
	mu       sync.Mutex
	saves    int
	last     domain.Snapshot
	saveErr  error
	loaded   domain.Snapshot
	loadErr  error
	cleared  int
	clearErr error
}

func (f *fakeSnapshots) Save(_ context.Context, snap domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.last = snap
	return f.saveErr
}

func (f *fakeSnapshots) Load(context.Context) (domain.Snapshot, error) {
	if f.loadErr != nil {
		return domain.Snapshot{}, f.loadErr
	}
	return f.loaded, nil
}

func (f *fakeSnapshots) Clear(context.Context) error {
	f.cleared++
	return f.clearErr
}

type fakeHistory struct {
	records   []domain.ArchivedSession
	appendErr error
}

func (f *fakeHistory) Append(_ context.Context, record domain.ArchivedSession) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) List(context.Context) ([]domain.ArchivedSession, error) {
	return f.records, nil
}

func (f *fakeHistory) Get(_ context.Context, id string) (domain.ArchivedSession, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.ArchivedSession{}, apperrors.ErrNotFound
}

func newEngine(snaps *fakeSnapshots, hist *fakeHistory) *service.Engine {
	settings := domain.DefaultSettings()
	settings.GoalLaps = 5
	return service.NewEngine(settings, &fakeMono{}, fakeClock{at: time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)}, fakeID{}, snaps, hist, nil)
}

func TestEnginePersistsAfterEachMutation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	snaps := &fakeSnapshots{}
	engine := newEngine(snaps, &fakeHistory{})

	if _, err := engine.Start(ctx, 0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := engine.AddLap(ctx, 60000, false); err != nil {
		t.Fatalf("lap: %v", err)
	}
	if _, err := engine.TogglePause(ctx, 61000); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := engine.TogglePause(ctx, 62000); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := engine.UpdateGoal(ctx, 9); err != nil {
		t.Fatalf("goal: %v", err)
	}
	if snaps.saves != 5 {
		t.Fatalf("expected 5 saves, got %d", snaps.saves)
	}
	if snaps.last.GoalLaps != 9 || len(snaps.last.Pauses) != 1 || snaps.last.LapCounter != 1 {
		t.Fatalf("unexpected last snapshot: %+v", snaps.last)
	}

	result, _, err := engine.AddLap(ctx, 63000, false)
	if err != nil || result.Outcome != domain.LapRejected {
		t.Fatalf("expected rejected lap, got %+v %v", result, err)
	}
	if _, err := engine.UpdateGoal(ctx, 0); err == nil {
		t.Fatalf("goal 0 must fail")
	}
	if snaps.saves != 5 {
		t.Fatalf("rejections must not persist, got %d saves", snaps.saves)
	}
}

func TestEngineKeepsStateWhenSaveFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine := newEngine(&fakeSnapshots{saveErr: errors.New("disk full")}, &fakeHistory{})

	s, err := engine.Start(ctx, 0)
	if err != nil {
		t.Fatalf("save failure must not surface: %v", err)
	}
	if s.State() != domain.StateRunning {
		t.Fatalf("expected running, got %s", s.State())
	}
	if engine.Autosave(ctx) {
		t.Fatalf("autosave should report the failed write")
	}
}

func TestEngineResetArchivesAndClears(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	snaps := &fakeSnapshots{}
	hist := &fakeHistory{}
	engine := newEngine(snaps, hist)
	_, _ = engine.UpdateReportMeta(ctx, "Ann", "Col")
	_, _ = engine.Start(ctx, 0)
	_, _, _ = engine.AddLap(ctx, 60000, false)

	id, s := engine.Reset(ctx, true)
	if id != "hist-1" || len(hist.records) != 1 {
		t.Fatalf("expected one archived record, got id %q and %d records", id, len(hist.records))
	}
	record := hist.records[0]
	if record.UserName != "Ann" || len(record.Laps) != 1 || record.TotalAscentM != 100 {
		t.Fatalf("unexpected archive: %+v", record)
	}
	if snaps.cleared != 1 {
		t.Fatalf("snapshot must be cleared on reset")
	}
	if s.State() != domain.StateIdle || s.LapCounter != 0 || s.UserName != "Ann" || s.GoalLaps != 5 {
		t.Fatalf("reset must keep settings and clear timing: %+v", s)
	}
}

func TestEngineResetSurvivesArchiveFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	snaps := &fakeSnapshots{clearErr: errors.New("busy")}
	engine := newEngine(snaps, &fakeHistory{appendErr: errors.New("db locked")})
	_, _ = engine.Start(ctx, 0)
	_, _, _ = engine.AddLap(ctx, 60000, false)

	id, s := engine.Reset(ctx, true)
	if id != "" {
		t.Fatalf("failed archive must not report an id")
	}
	if s.State() != domain.StateIdle || len(s.Laps) != 0 {
		t.Fatalf("reset must proceed after archive failure")
	}
}

func TestEngineResetSkipsArchiveWithoutLapsOrWhenDisabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	hist := &fakeHistory{}
	engine := newEngine(&fakeSnapshots{}, hist)
	_, _ = engine.Start(ctx, 0)
	engine.Reset(ctx, true)

	_, _ = engine.Start(ctx, 0)
	_, _, _ = engine.AddLap(ctx, 60000, false)
	engine.Reset(ctx, false)
	if len(hist.records) != 0 {
		t.Fatalf("nothing should be archived, got %d", len(hist.records))
	}
}

func TestEngineFinishRecordsClosingLap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine := newEngine(&fakeSnapshots{}, &fakeHistory{})
	_, _ = engine.Start(ctx, 0)
	_, _, _ = engine.AddLap(ctx, 60000, false)

	closing, s, err := engine.Finish(ctx, 65000, true)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if closing == nil || !closing.Forced || closing.DurationMs != 5000 || closing.Index != 2 {
		t.Fatalf("expected forced closing lap of 5000ms, got %+v", closing)
	}
	if s.State() != domain.StateFinished {
		t.Fatalf("expected finished, got %s", s.State())
	}
	if _, _, err := engine.Finish(ctx, 70000, false); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("second finish must fail, got %v", err)
	}
}

func TestEngineFinishWhilePausedCountsPauseInClosingLap(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine := newEngine(&fakeSnapshots{}, &fakeHistory{})
	_, _ = engine.Start(ctx, 0)
	_, _, _ = engine.AddLap(ctx, 60000, false)
	_, _ = engine.StartPause(ctx, 70000)

	closing, s, err := engine.Finish(ctx, 90000, true)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if closing == nil || closing.DurationMs != 30000 || closing.PauseDurationMs != 20000 {
		t.Fatalf("closing lap should span the pause, got %+v", closing)
	}
	if s.State() != domain.StateFinished || len(s.Pauses) != 1 || s.TotalPausedMs != 20000 {
		t.Fatalf("unexpected final state: %s pauses=%d paused=%.0f", s.State(), len(s.Pauses), s.TotalPausedMs)
	}
	if last := s.Laps[len(s.Laps)-1]; last.CumulativeElapsedMs != 90000 {
		t.Fatalf("total elapsed should reach the finish time, got %.0f", last.CumulativeElapsedMs)
	}
}

func TestEngineRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	source := domain.New(domain.DefaultSettings())
	_ = source.Start(0, time.Now())
	_, _ = source.AddLap(60000, false, time.Now())
	snaps := &fakeSnapshots{loaded: source.Snapshot()}
	engine := newEngine(snaps, &fakeHistory{})

	ok, s, err := engine.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("restore: ok=%v err=%v", ok, err)
	}
	if s.State() != domain.StateIdle || s.LapCounter != 1 || s.GoalLaps != domain.DefaultGoalLaps {
		t.Fatalf("unexpected restored session: %+v", s)
	}
	if _, _, err := engine.Restore(ctx); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("restore over a used session must fail, got %v", err)
	}
}

func TestEngineRestoreIgnoresMissingOrInvalidSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	missing := newEngine(&fakeSnapshots{loadErr: apperrors.ErrNoSavedSession}, &fakeHistory{})
	if ok, _, err := missing.Restore(ctx); ok || err != nil {
		t.Fatalf("missing snapshot: ok=%v err=%v", ok, err)
	}

	broken := domain.New(domain.DefaultSettings()).Snapshot()
	broken.LapCounter = 3
	invalid := newEngine(&fakeSnapshots{loaded: broken}, &fakeHistory{})
	ok, s, err := invalid.Restore(ctx)
	if ok || err != nil {
		t.Fatalf("invalid snapshot: ok=%v err=%v", ok, err)
	}
	if s.GoalLaps != 5 {
		t.Fatalf("invalid snapshot must leave the fresh session, got goal %d", s.GoalLaps)
	}
}

func TestEngineAutosaveOnlyWithProgress(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	snaps := &fakeSnapshots{}
	engine := newEngine(snaps, &fakeHistory{})
	if engine.Autosave(ctx) {
		t.Fatalf("pristine session should not be autosaved")
	}
	_, _ = engine.Start(ctx, 0)
	saves := snaps.saves
	if !engine.Autosave(ctx) || snaps.saves != saves+1 {
		t.Fatalf("running session should be autosaved")
	}
}

func TestEngineSerializesConcurrentLaps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine := newEngine(&fakeSnapshots{}, &fakeHistory{})
	_, _ = engine.Start(ctx, 0)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(ts float64) {
			defer wg.Done()
			_, _, _ = engine.AddLap(ctx, ts, true)
		}(float64(i * 1000))
	}
	wg.Wait()

	s := engine.Session()
	if s.LapCounter != 20 || len(s.Laps) != 20 {
		t.Fatalf("expected 20 laps, got counter %d and %d laps", s.LapCounter, len(s.Laps))
	}
}
