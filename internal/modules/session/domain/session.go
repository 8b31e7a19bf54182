package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "everest/internal/platform/errors"
)

const (
	DefaultGoalLaps      = 100
	DefaultLapDistanceKm = 10.0
	DefaultLapAscentM    = 100.0

	MaxNameLength = 120
)

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateFinished State = "finished"
)

// Settings is the part of a session that survives reset.
type Settings struct {
	UserName      string
	TrackName     string
	GoalLaps      int
	LapDistanceKm float64
	LapAscentM    float64
}

func DefaultSettings() Settings {
	return Settings{GoalLaps: DefaultGoalLaps, LapDistanceKm: DefaultLapDistanceKm, LapAscentM: DefaultLapAscentM}
}

type Lap struct {
	Index                int     `json:"index"`
	DurationMs           float64 `json:"durationMs"`
	CumulativeElapsedMs  float64 `json:"cumulativeElapsedMs"`
	PauseDurationMs      float64 `json:"pauseDurationMs"`
	DeltaFromAverageMs   float64 `json:"deltaFromAverageMs"`
	CumulativeDistanceKm float64 `json:"cumulativeDistanceKm"`
	CumulativeAscentM    float64 `json:"cumulativeAscentM"`
	Forced               bool    `json:"forced"`
}

type Pause struct {
	StartTimestamp float64 `json:"startTimestamp"`
	EndTimestamp   float64 `json:"endTimestamp"`
	DurationMs     float64 `json:"durationMs"`
	LapIndex       int     `json:"associatedLapIndex"`
}

// Session is the timing aggregate of one challenge attempt. Timestamps are
// milliseconds on the caller's monotonic timeline; StartedAt and FinishedAt
// are wall-clock and only used for reporting.
type Session struct {
	UserName      string
	TrackName     string
	GoalLaps      int
	LapDistanceKm float64
	LapAscentM    float64

	Running  bool
	Paused   bool
	Finished bool

	StartTimestamp      float64
	LapStartTimestamp   float64
	PauseStartTimestamp float64
	// PauseLapIndex is the lap in progress when the open pause began.
	PauseLapIndex int
	TotalPausedMs float64

	StartedAt  *time.Time
	FinishedAt *time.Time

	Laps         []Lap
	Pauses       []Pause
	LapCounter   int
	AverageLapMs float64
}

func New(settings Settings) *Session {
	return &Session{
		UserName:      settings.UserName,
		TrackName:     settings.TrackName,
		GoalLaps:      settings.GoalLaps,
		LapDistanceKm: settings.LapDistanceKm,
		LapAscentM:    settings.LapAscentM,
	}
}

func (s *Session) Settings() Settings {
	return Settings{
		UserName:      s.UserName,
		TrackName:     s.TrackName,
		GoalLaps:      s.GoalLaps,
		LapDistanceKm: s.LapDistanceKm,
		LapAscentM:    s.LapAscentM,
	}
}

func (s *Session) State() State {
	switch {
	case s.Finished:
		return StateFinished
	case s.Paused:
		return StatePaused
	case s.Running:
		return StateRunning
	default:
		return StateIdle
	}
}

// Clone returns a deep copy safe to hand out of the engine.
func (s *Session) Clone() Session {
	c := *s
	c.Laps = append([]Lap(nil), s.Laps...)
	c.Pauses = append([]Pause(nil), s.Pauses...)
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	return c
}

// ─── transitions ─────────────────────────────────────────────────────────────

func (s *Session) Start(ts float64, wall time.Time) error {
	if s.State() != StateIdle {
		return &TransitionError{Op: "start", State: s.State()}
	}
	s.Running = true
	s.Paused = false
	s.StartTimestamp = ts
	s.LapStartTimestamp = ts
	s.TotalPausedMs = 0
	at := wall
	s.StartedAt = &at
	return nil
}

func (s *Session) StartPause(ts float64) error {
	if !s.Running || s.Paused {
		return &TransitionError{Op: "start pause", State: s.State()}
	}
	s.Paused = true
	s.PauseStartTimestamp = ts
	s.PauseLapIndex = s.LapCounter + 1
	return nil
}

func (s *Session) EndPause(ts float64) error {
	if !s.Paused {
		return &TransitionError{Op: "end pause", State: s.State()}
	}
	duration := ts - s.PauseStartTimestamp
	s.Pauses = append(s.Pauses, Pause{
		StartTimestamp: s.PauseStartTimestamp,
		EndTimestamp:   ts,
		DurationMs:     duration,
		LapIndex:       s.PauseLapIndex,
	})
	s.TotalPausedMs += duration
	s.Paused = false
	s.PauseStartTimestamp = 0
	s.PauseLapIndex = 0
	return nil
}

// AddLap closes the current lap at ts. A non-forced lap that fails the
// short-lap policy comes back as LapRejected with the session untouched.
// A non-forced lap that reaches the goal finishes the session at ts.
func (s *Session) AddLap(ts float64, forced bool, wall time.Time) (LapResult, error) {
	if !s.Running {
		return LapResult{}, &TransitionError{Op: "add lap", State: s.State()}
	}
	lapTime := ts - s.LapStartTimestamp
	if !forced {
		verdict := ValidateLap(s.LapCounter, s.AverageLapMs, lapTime)
		if !verdict.Valid {
			return LapResult{Outcome: LapRejected, Rejection: verdict}, nil
		}
	}

	delta := 0.0
	if s.LapCounter > 0 {
		delta = lapTime - s.AverageLapMs
	}
	index := s.LapCounter + 1
	lapPauses := 0.0
	for _, p := range s.Pauses {
		if p.LapIndex == index {
			lapPauses += p.DurationMs
		}
	}
	lap := Lap{
		Index:                index,
		DurationMs:           lapTime,
		CumulativeElapsedMs:  ts - s.StartTimestamp,
		PauseDurationMs:      lapPauses,
		DeltaFromAverageMs:   delta,
		CumulativeDistanceKm: float64(index) * s.LapDistanceKm,
		CumulativeAscentM:    float64(index) * s.LapAscentM,
		Forced:               forced,
	}
	s.Laps = append(s.Laps, lap)
	s.LapCounter++
	s.AverageLapMs = (s.AverageLapMs*float64(s.LapCounter-1) + lapTime) / float64(s.LapCounter)
	s.LapStartTimestamp = ts
	if len(s.Laps) != s.LapCounter {
		panic(fmt.Sprintf("session: lap counter %d diverged from %d recorded laps", s.LapCounter, len(s.Laps)))
	}

	result := LapResult{Outcome: LapAccepted, Lap: lap}
	if !forced && s.LapCounter >= s.GoalLaps {
		if err := s.Finish(ts, wall); err != nil {
			return LapResult{}, err
		}
		result.AutoFinished = true
	}
	return result, nil
}

// Finish stops the session, closing an open pause at ts first.
func (s *Session) Finish(ts float64, wall time.Time) error {
	if !s.Running {
		return &TransitionError{Op: "finish", State: s.State()}
	}
	if s.Paused {
		if err := s.EndPause(ts); err != nil {
			return err
		}
	}
	s.Running = false
	s.Finished = true
	at := wall
	s.FinishedAt = &at
	return nil
}

// Reset returns the session to idle, keeping settings.
func (s *Session) Reset() {
	*s = *New(s.Settings())
}

// ─── settings ────────────────────────────────────────────────────────────────

func (s *Session) UpdateGoal(goal int) error {
	if goal < 1 {
		return &FieldError{Field: "goalLaps", Reason: "must be at least 1"}
	}
	s.GoalLaps = goal
	return nil
}

func (s *Session) UpdateLapGeometry(distanceKm, ascentM float64) error {
	if !finiteNonNegative(distanceKm) {
		return &FieldError{Field: "lapDistanceKm", Reason: "must be a finite non-negative number"}
	}
	if !finiteNonNegative(ascentM) {
		return &FieldError{Field: "lapAscentM", Reason: "must be a finite non-negative number"}
	}
	s.LapDistanceKm = distanceKm
	s.LapAscentM = ascentM
	return nil
}

func (s *Session) UpdateReportMeta(user, track string) error {
	user = strings.TrimSpace(user)
	track = strings.TrimSpace(track)
	if utf8.RuneCountInString(user) > MaxNameLength {
		return &FieldError{Field: "userName", Reason: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	}
	if utf8.RuneCountInString(track) > MaxNameLength {
		return &FieldError{Field: "trackName", Reason: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	}
	s.UserName = user
	s.TrackName = track
	return nil
}

// ─── derived ─────────────────────────────────────────────────────────────────

func (s *Session) ElapsedMs(now float64) float64 {
	if !s.Running {
		return 0
	}
	return now - s.StartTimestamp
}

// LapElapsedMs keeps growing while paused; pauses never stop the lap clock.
func (s *Session) LapElapsedMs(now float64) float64 {
	if !s.Running {
		return 0
	}
	return now - s.LapStartTimestamp
}

func (s *Session) CurrentPauseMs(now float64) float64 {
	if !s.Paused {
		return 0
	}
	return now - s.PauseStartTimestamp
}

func (s *Session) TotalPausedMsAt(now float64) float64 {
	return s.TotalPausedMs + s.CurrentPauseMs(now)
}

func (s *Session) ProgressPercent() float64 {
	if s.GoalLaps <= 0 {
		return 0
	}
	return math.Min(100, float64(s.LapCounter)/float64(s.GoalLaps)*100)
}

// ETAMs estimates the time left to reach the goal. ok is false until a lap
// gives an average to extrapolate from.
func (s *Session) ETAMs() (eta float64, ok bool) {
	if s.LapCounter == 0 || s.AverageLapMs == 0 {
		return 0, false
	}
	remaining := s.GoalLaps - s.LapCounter
	if remaining < 0 {
		remaining = 0
	}
	return float64(remaining) * s.AverageLapMs, true
}

func (s *Session) TotalDistanceKm() float64 {
	return float64(s.LapCounter) * s.LapDistanceKm
}

func (s *Session) TotalAscentM() float64 {
	return float64(s.LapCounter) * s.LapAscentM
}

// ─── errors ──────────────────────────────────────────────────────────────────

type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	switch {
	case e.Op == "start" && e.State == StateFinished:
		return "start: session is finished, reset first"
	case e.Op == "start":
		return "start: already running"
	case e.Op == "restore":
		return "restore: a session is already in progress"
	case e.State == StateIdle:
		return e.Op + ": timer not running"
	default:
		return fmt.Sprintf("%s: not allowed while %s", e.Op, e.State)
	}
}

func (e *TransitionError) Unwrap() error { return apperrors.ErrInvalidTransition }

type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + " " + e.Reason }

func (e *FieldError) Unwrap() error { return apperrors.ErrInvalidInput }

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
