package domain

import (
	"fmt"
	"time"
)

// Snapshot is the persisted layout of a session. Monotonic anchors are not
// part of it: a restored session is idle or finished.
type Snapshot struct {
	UserName        string     `json:"userName"`
	TrackName       string     `json:"trackName"`
	GoalLaps        int        `json:"goalLaps"`
	LapDistanceKm   float64    `json:"lapDistanceKm"`
	LapAscentM      float64    `json:"lapAscentM"`
	IsFinished      bool       `json:"isFinished"`
	Laps            []Lap      `json:"laps"`
	Pauses          []Pause    `json:"pauses"`
	LapCounter      int        `json:"lapCounter"`
	AverageLapTime  float64    `json:"averageLapTime"`
	TotalPausedTime float64    `json:"totalPausedTime"`
	StartDateTime   *time.Time `json:"startDateTime"`
	FinishDateTime  *time.Time `json:"finishDateTime"`
}

func (s *Session) Snapshot() Snapshot {
	c := s.Clone()
	laps := c.Laps
	if laps == nil {
		laps = []Lap{}
	}
	pauses := c.Pauses
	if pauses == nil {
		pauses = []Pause{}
	}
	return Snapshot{
		UserName:        c.UserName,
		TrackName:       c.TrackName,
		GoalLaps:        c.GoalLaps,
		LapDistanceKm:   c.LapDistanceKm,
		LapAscentM:      c.LapAscentM,
		IsFinished:      c.Finished,
		Laps:            laps,
		Pauses:          pauses,
		LapCounter:      c.LapCounter,
		AverageLapTime:  c.AverageLapMs,
		TotalPausedTime: c.TotalPausedMs,
		StartDateTime:   c.StartedAt,
		FinishDateTime:  c.FinishedAt,
	}
}

// Restore rebuilds a session from a snapshot, refusing anything that would
// violate the session invariants.
func Restore(snap Snapshot) (*Session, error) {
	if snap.GoalLaps < 1 {
		return nil, fmt.Errorf("restore: goalLaps %d below 1", snap.GoalLaps)
	}
	if !finiteNonNegative(snap.LapDistanceKm) || !finiteNonNegative(snap.LapAscentM) {
		return nil, fmt.Errorf("restore: lap geometry must be finite and non-negative")
	}
	if snap.LapCounter != len(snap.Laps) {
		return nil, fmt.Errorf("restore: lapCounter %d does not match %d laps", snap.LapCounter, len(snap.Laps))
	}
	for i, lap := range snap.Laps {
		if lap.Index != i+1 {
			return nil, fmt.Errorf("restore: lap %d has index %d", i+1, lap.Index)
		}
		if !finiteNonNegative(lap.DurationMs) {
			return nil, fmt.Errorf("restore: lap %d has invalid duration", lap.Index)
		}
	}
	if !finiteNonNegative(snap.TotalPausedTime) || !finiteNonNegative(snap.AverageLapTime) {
		return nil, fmt.Errorf("restore: negative or non-finite totals")
	}

	s := New(Settings{
		UserName:      snap.UserName,
		TrackName:     snap.TrackName,
		GoalLaps:      snap.GoalLaps,
		LapDistanceKm: snap.LapDistanceKm,
		LapAscentM:    snap.LapAscentM,
	})
	s.Finished = snap.IsFinished
	s.Laps = append([]Lap(nil), snap.Laps...)
	s.Pauses = append([]Pause(nil), snap.Pauses...)
	s.LapCounter = snap.LapCounter
	s.AverageLapMs = snap.AverageLapTime
	if s.AverageLapMs == 0 && len(s.Laps) > 0 {
		s.AverageLapMs = MeanLapDuration(s.Laps)
	}
	s.TotalPausedMs = snap.TotalPausedTime
	s.StartedAt = snap.StartDateTime
	s.FinishedAt = snap.FinishDateTime
	return s, nil
}

// MeanLapDuration recomputes the average from scratch; AverageLapMs must
// agree with it within floating point error.
func MeanLapDuration(laps []Lap) float64 {
	if len(laps) == 0 {
		return 0
	}
	sum := 0.0
	for _, lap := range laps {
		sum += lap.DurationMs
	}
	return sum / float64(len(laps))
}
