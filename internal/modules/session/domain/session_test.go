package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"everest/internal/modules/session/domain"
	apperrors "everest/internal/platform/errors"
)

var wall = time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)

func newSession(goal int) *domain.Session {
	settings := domain.DefaultSettings()
	settings.GoalLaps = goal
	return domain.New(settings)
}

func mustLap(t *testing.T, s *domain.Session, ts float64, forced bool) domain.LapResult {
	t.Helper()
	res, err := s.AddLap(ts, forced, wall)
	if err != nil {
		t.Fatalf("add lap at %.0f: %v", ts, err)
	}
	return res
}

func TestFirstLapIsAlwaysAccepted(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	if err := s.Start(0, wall); err != nil {
		t.Fatalf("start: %v", err)
	}
	res := mustLap(t, s, 12000, false)
	if res.Outcome != domain.LapAccepted {
		t.Fatalf("expected accepted lap, got %+v", res)
	}
	if res.Lap.Index != 1 || res.Lap.DurationMs != 12000 || res.Lap.DeltaFromAverageMs != 0 {
		t.Fatalf("unexpected lap 1: %+v", res.Lap)
	}
	if s.AverageLapMs != 12000 {
		t.Fatalf("expected average 12000, got %.1f", s.AverageLapMs)
	}
	if res.Lap.CumulativeDistanceKm != 10 || res.Lap.CumulativeAscentM != 100 {
		t.Fatalf("unexpected cumulative geometry: %+v", res.Lap)
	}
}

func TestShortLapBelowHalfAverageIsRejectedWithoutMutation(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	_ = s.Start(0, wall)
	mustLap(t, s, 12000, false)
	before := s.Clone()

	res := mustLap(t, s, 15000, false)
	if res.Outcome != domain.LapRejected {
		t.Fatalf("expected rejection, got %+v", res)
	}
	if res.Rejection.Reason != domain.ReasonTooShort {
		t.Fatalf("expected tooShort, got %s", res.Rejection.Reason)
	}
	if res.Rejection.LapTimeMs != 3000 || res.Rejection.AverageLapMs != 12000 || res.Rejection.ThresholdMs != 6000 {
		t.Fatalf("unexpected rejection payload: %+v", res.Rejection)
	}
	if s.LapCounter != before.LapCounter || len(s.Laps) != len(before.Laps) || s.LapStartTimestamp != before.LapStartTimestamp || s.AverageLapMs != before.AverageLapMs {
		t.Fatalf("rejection must not mutate the session")
	}
}

func TestShortLapUnderAbsoluteFloorIsRejected(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	_ = s.Start(0, wall)
	// a forced first lap of 2s gives an average low enough that rule 2 passes
	mustLap(t, s, 2000, true)

	res := mustLap(t, s, 7000, false)
	if res.Outcome != domain.LapRejected || res.Rejection.Reason != domain.ReasonTooShortAbsolute {
		t.Fatalf("expected tooShortAbsolute, got %+v", res)
	}
	if res.Rejection.LapTimeMs != 5000 {
		t.Fatalf("expected lap time 5000, got %.0f", res.Rejection.LapTimeMs)
	}
}

func TestForcedLapBypassesValidation(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	_ = s.Start(0, wall)
	mustLap(t, s, 12000, false)
	res := mustLap(t, s, 15000, true)
	if res.Outcome != domain.LapAccepted || !res.Lap.Forced {
		t.Fatalf("forced lap should be accepted and flagged, got %+v", res)
	}
	if res.Lap.DeltaFromAverageMs != 3000-12000 {
		t.Fatalf("unexpected delta %.0f", res.Lap.DeltaFromAverageMs)
	}
	if s.AverageLapMs != 7500 {
		t.Fatalf("expected average 7500, got %.1f", s.AverageLapMs)
	}
}

func TestValidateLapRuleOrder(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		counter int
		avg     float64
		lap     float64
		valid   bool
		reason  domain.RejectReason
	}{
		{name: "first lap", counter: 0, avg: 0, lap: 1, valid: true},
		{name: "zero average", counter: 3, avg: 0, lap: 1, valid: true},
		{name: "below half average", counter: 1, avg: 60000, lap: 20000, reason: domain.ReasonTooShort},
		{name: "half average beats floor", counter: 1, avg: 12000, lap: 5000, reason: domain.ReasonTooShort},
		{name: "under floor", counter: 1, avg: 2000, lap: 5000, reason: domain.ReasonTooShortAbsolute},
		{name: "at floor", counter: 1, avg: 2000, lap: 10000, valid: true},
		{name: "normal", counter: 5, avg: 600000, lap: 590000, valid: true},
	}
	for _, tc := range cases {
		verdict := domain.ValidateLap(tc.counter, tc.avg, tc.lap)
		if verdict.Valid != tc.valid || verdict.Reason != tc.reason {
			t.Fatalf("%s: got %+v", tc.name, verdict)
		}
	}
}

func TestGoalReachedAutoFinishes(t *testing.T) {
	t.Parallel()
	s := newSession(3)
	_ = s.Start(0, wall)
	mustLap(t, s, 60000, false)
	mustLap(t, s, 120000, false)
	res := mustLap(t, s, 180000, false)
	if !res.AutoFinished {
		t.Fatalf("third lap should auto-finish")
	}
	if s.State() != domain.StateFinished || s.Running || !s.Finished || s.FinishedAt == nil {
		t.Fatalf("expected finished session, got state %s", s.State())
	}
	if _, err := s.AddLap(240000, false, wall); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("lap after finish must be an invalid transition, got %v", err)
	}
}

func TestForcedLapDoesNotAutoFinish(t *testing.T) {
	t.Parallel()
	s := newSession(1)
	_ = s.Start(0, wall)
	res := mustLap(t, s, 60000, true)
	if res.AutoFinished || s.Finished {
		t.Fatalf("forced lap must not trigger auto-finish")
	}
}

func TestPauseIsIncludedInLapAndRecorded(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	_ = s.Start(0, wall)
	if err := s.StartPause(1000); err != nil {
		t.Fatalf("start pause: %v", err)
	}
	if err := s.EndPause(4000); err != nil {
		t.Fatalf("end pause: %v", err)
	}
	res := mustLap(t, s, 10000, false)
	if res.Lap.DurationMs != 10000 {
		t.Fatalf("lap must include the pause, got %.0f", res.Lap.DurationMs)
	}
	if res.Lap.PauseDurationMs != 3000 {
		t.Fatalf("expected 3000ms pause on lap, got %.0f", res.Lap.PauseDurationMs)
	}
	if s.TotalPausedMs != 3000 {
		t.Fatalf("expected total paused 3000, got %.0f", s.TotalPausedMs)
	}
	if len(s.Pauses) != 1 || s.Pauses[0].LapIndex != 1 || s.Pauses[0].DurationMs != 3000 {
		t.Fatalf("unexpected pauses: %+v", s.Pauses)
	}
}

func TestPauseAttributedToLapInProgressWhenItStarted(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	_ = s.Start(0, wall)
	_ = s.StartPause(50000)
	// laps are not blocked while paused; the pause still belongs to lap 1
	mustLap(t, s, 60000, false)
	_ = s.EndPause(70000)
	if s.Pauses[0].LapIndex != 1 {
		t.Fatalf("pause should stay on lap 1, got %d", s.Pauses[0].LapIndex)
	}
	res := mustLap(t, s, 130000, false)
	if res.Lap.PauseDurationMs != 0 {
		t.Fatalf("lap 2 must not inherit the lap 1 pause, got %.0f", res.Lap.PauseDurationMs)
	}
}

func TestInvalidTransitionsAreNoOps(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	if err := s.StartPause(0); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("pause while idle should fail, got %v", err)
	}
	if err := s.EndPause(0); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("end pause while idle should fail, got %v", err)
	}
	if err := s.Finish(0, wall); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("finish while idle should fail, got %v", err)
	}
	if _, err := s.AddLap(0, true, wall); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("lap while idle should fail, got %v", err)
	}
	_ = s.Start(0, wall)
	_ = s.StartPause(10)
	if err := s.StartPause(20); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("double pause should fail, got %v", err)
	}
	if s.PauseStartTimestamp != 10 {
		t.Fatalf("failed pause must not move the pause start")
	}
}

func TestStartTwiceIsReportedNoOp(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	if err := s.Start(100, wall); err != nil {
		t.Fatalf("start: %v", err)
	}
	once := s.Clone()
	err := s.Start(500, wall.Add(time.Minute))
	var te *domain.TransitionError
	if !errors.As(err, &te) || te.Error() != "start: already running" {
		t.Fatalf("expected already running, got %v", err)
	}
	if s.StartTimestamp != once.StartTimestamp || !s.StartedAt.Equal(*once.StartedAt) || s.LapStartTimestamp != once.LapStartTimestamp {
		t.Fatalf("second start must leave state identical")
	}
}

func TestFinishClosesOpenPause(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	_ = s.Start(0, wall)
	_ = s.StartPause(5000)
	if err := s.Finish(9000, wall); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if s.Paused || s.Running || !s.Finished {
		t.Fatalf("unexpected flags after finish: %s", s.State())
	}
	if len(s.Pauses) != 1 || s.Pauses[0].EndTimestamp != 9000 || s.TotalPausedMs != 4000 {
		t.Fatalf("open pause should be closed at finish: %+v", s.Pauses)
	}
	if err := s.Start(10000, wall); err == nil {
		t.Fatalf("start after finish must require reset")
	}
}

func TestResetKeepsSettings(t *testing.T) {
	t.Parallel()
	s := newSession(42)
	_ = s.UpdateLapGeometry(3.5, 250)
	_ = s.UpdateReportMeta("  Ann ", " Col ")
	_ = s.Start(0, wall)
	mustLap(t, s, 60000, false)
	s.Reset()
	if s.State() != domain.StateIdle || len(s.Laps) != 0 || s.LapCounter != 0 || s.AverageLapMs != 0 || s.StartedAt != nil {
		t.Fatalf("reset must clear timing state: %+v", s)
	}
	want := domain.Settings{UserName: "Ann", TrackName: "Col", GoalLaps: 42, LapDistanceKm: 3.5, LapAscentM: 250}
	if s.Settings() != want {
		t.Fatalf("settings not preserved: %+v", s.Settings())
	}
}

func TestSettingsValidation(t *testing.T) {
	t.Parallel()
	s := newSession(10)
	var fe *domain.FieldError
	if err := s.UpdateGoal(0); !errors.As(err, &fe) || fe.Field != "goalLaps" || !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("goal 0 must fail on goalLaps, got %v", err)
	}
	if err := s.UpdateLapGeometry(math.NaN(), 1); !errors.As(err, &fe) || fe.Field != "lapDistanceKm" {
		t.Fatalf("NaN distance must fail, got %v", err)
	}
	if err := s.UpdateLapGeometry(1, math.Inf(1)); !errors.As(err, &fe) || fe.Field != "lapAscentM" {
		t.Fatalf("infinite ascent must fail, got %v", err)
	}
	if err := s.UpdateLapGeometry(-1, 1); err == nil {
		t.Fatalf("negative distance must fail")
	}
	if s.GoalLaps != 10 || s.LapDistanceKm != domain.DefaultLapDistanceKm || s.LapAscentM != domain.DefaultLapAscentM {
		t.Fatalf("rejected input must leave settings unchanged")
	}
	long := make([]rune, domain.MaxNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := s.UpdateReportMeta(string(long), ""); !errors.As(err, &fe) || fe.Field != "userName" {
		t.Fatalf("long user name must fail, got %v", err)
	}
	if err := s.UpdateGoal(5); err != nil || s.GoalLaps != 5 {
		t.Fatalf("goal 5 should be accepted: %v", err)
	}
}

func TestDerivedAccessors(t *testing.T) {
	t.Parallel()
	s := newSession(4)
	if s.ElapsedMs(1000) != 0 || s.LapElapsedMs(1000) != 0 {
		t.Fatalf("idle session has no elapsed time")
	}
	if _, ok := s.ETAMs(); ok {
		t.Fatalf("no ETA before the first lap")
	}
	_ = s.Start(1000, wall)
	mustLap(t, s, 61000, false)
	_ = s.StartPause(70000)

	if got := s.ElapsedMs(80000); got != 79000 {
		t.Fatalf("elapsed: got %.0f", got)
	}
	if got := s.CurrentPauseMs(80000); got != 10000 {
		t.Fatalf("current pause: got %.0f", got)
	}
	if got := s.TotalPausedMsAt(80000); got != 10000 {
		t.Fatalf("total paused with open pause: got %.0f", got)
	}
	if got := s.ProgressPercent(); got != 25 {
		t.Fatalf("progress: got %.1f", got)
	}
	eta, ok := s.ETAMs()
	if !ok || eta != 3*60000 {
		t.Fatalf("eta: got %.0f %v", eta, ok)
	}

	prev := 0.0
	for _, now := range []float64{62000, 70000, 75000, 90000} {
		got := s.LapElapsedMs(now)
		if got < prev {
			t.Fatalf("lap clock went backwards at %.0f", now)
		}
		prev = got
	}
}

func TestProgressCapsAtHundred(t *testing.T) {
	t.Parallel()
	s := newSession(1)
	_ = s.Start(0, wall)
	mustLap(t, s, 60000, true)
	mustLap(t, s, 120000, true)
	if s.ProgressPercent() != 100 {
		t.Fatalf("progress must cap at 100, got %.1f", s.ProgressPercent())
	}
	if eta, ok := s.ETAMs(); !ok || eta != 0 {
		t.Fatalf("eta past the goal should be zero, got %.0f", eta)
	}
}

func TestLapCounterAndAverageInvariants(t *testing.T) {
	t.Parallel()
	s := newSession(8)
	_ = s.Start(0, wall)
	ts := 0.0
	for i, d := range []float64{600000, 580000, 100, 640000, 20000, 610000, 590000, 605000, 700000} {
		ts += d
		res, err := s.AddLap(ts, false, wall)
		if err != nil {
			break
		}
		if res.Outcome == domain.LapRejected {
			// a rejected tap leaves the lap running; the next tap closes it
			continue
		}
		if len(s.Laps) != s.LapCounter {
			t.Fatalf("step %d: %d laps vs counter %d", i, len(s.Laps), s.LapCounter)
		}
		if s.LapCounter > s.GoalLaps+1 {
			t.Fatalf("step %d: counter %d exceeds goal", i, s.LapCounter)
		}
		if mean := domain.MeanLapDuration(s.Laps); math.Abs(mean-s.AverageLapMs) > 1e-6 {
			t.Fatalf("step %d: average %.6f != mean %.6f", i, s.AverageLapMs, mean)
		}
	}
	if !s.Finished {
		t.Fatalf("expected the goal to be reached")
	}
}
