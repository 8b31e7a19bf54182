package domain

import (
	"math"
	"time"
)

const msPerHour = 3_600_000

type LapRow struct {
	Index           int
	CumulativeMs    float64
	DurationMs      float64
	DeltaMs         float64
	PauseMs         float64
	PauseAdjustedMs float64
	AscentRateMPerH float64
	Forced          bool
}

type Statistics struct {
	UserName      string
	TrackName     string
	GoalLaps      int
	LapDistanceKm float64
	LapAscentM    float64
	StartedAt     *time.Time
	FinishedAt    *time.Time
	Finished      bool

	TotalLaps int
	// TotalElapsedMs is the cumulative time of the last lap, not the
	// start-to-finish wall delta.
	TotalElapsedMs float64
	TotalHours     float64
	// TotalLapMs is the sum of lap durations, pauses included.
	TotalLapMs float64
	MovingMs   float64

	TotalDistanceKm  float64
	TotalAscentM     float64
	AscentSpeedMPerH float64
	DistanceGradient float64

	MaxLapMs    float64
	MinLapMs    float64
	MeanLapMs   float64
	StdDevLapMs float64

	PauseCount       int
	TotalPauseMs     float64
	MaxPauseMs       float64
	AvgPausePerLapMs float64

	Laps   []LapRow
	Pauses []Pause
}

// Calculate derives report statistics. ok is false when no lap exists.
func Calculate(s Session) (Statistics, bool) {
	if len(s.Laps) == 0 {
		return Statistics{}, false
	}
	st := Statistics{
		UserName:      s.UserName,
		TrackName:     s.TrackName,
		GoalLaps:      s.GoalLaps,
		LapDistanceKm: s.LapDistanceKm,
		LapAscentM:    s.LapAscentM,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
		Finished:      s.Finished,
		TotalLaps:     s.LapCounter,
		MeanLapMs:     s.AverageLapMs,
		MinLapMs:      math.Inf(1),
		MaxLapMs:      math.Inf(-1),
		Pauses:        append([]Pause(nil), s.Pauses...),
	}

	variance := 0.0
	st.Laps = make([]LapRow, 0, len(s.Laps))
	for _, lap := range s.Laps {
		st.MaxLapMs = math.Max(st.MaxLapMs, lap.DurationMs)
		st.MinLapMs = math.Min(st.MinLapMs, lap.DurationMs)
		st.TotalLapMs += lap.DurationMs
		variance += (lap.DurationMs - st.MeanLapMs) * (lap.DurationMs - st.MeanLapMs)
		st.Laps = append(st.Laps, LapRow{
			Index:           lap.Index,
			CumulativeMs:    lap.CumulativeElapsedMs,
			DurationMs:      lap.DurationMs,
			DeltaMs:         lap.DeltaFromAverageMs,
			PauseMs:         lap.PauseDurationMs,
			PauseAdjustedMs: lap.DurationMs - lap.PauseDurationMs,
			AscentRateMPerH: ascentRate(s.LapAscentM, lap.DurationMs),
			Forced:          lap.Forced,
		})
	}
	st.StdDevLapMs = math.Sqrt(variance / float64(len(s.Laps)))

	st.PauseCount = len(s.Pauses)
	st.TotalPauseMs = s.TotalPausedMs
	for _, p := range s.Pauses {
		st.MaxPauseMs = math.Max(st.MaxPauseMs, p.DurationMs)
	}
	if s.LapCounter > 0 {
		st.AvgPausePerLapMs = st.TotalPauseMs / float64(s.LapCounter)
	}

	st.TotalDistanceKm = s.TotalDistanceKm()
	st.TotalAscentM = s.TotalAscentM()
	if st.TotalDistanceKm > 0 {
		st.DistanceGradient = st.TotalAscentM / st.TotalDistanceKm
	}
	st.TotalElapsedMs = s.Laps[len(s.Laps)-1].CumulativeElapsedMs
	st.TotalHours = st.TotalElapsedMs / msPerHour
	if st.TotalHours > 0 {
		st.AscentSpeedMPerH = st.TotalAscentM / st.TotalHours
	}
	st.MovingMs = st.TotalLapMs - st.TotalPauseMs
	return st, true
}

func ascentRate(lapAscentM, durationMs float64) float64 {
	if durationMs <= 0 {
		return 0
	}
	return lapAscentM * msPerHour / durationMs
}
