package dto

import "time"

// TimedInput carries the caller's authoritative monotonic timestamp.
type TimedInput struct {
	AtMs float64
}

type LapInput struct {
	AtMs   float64
	Forced bool
}

type FinishInput struct {
	AtMs float64
	// RecordLap closes the running lap as a forced lap before finishing.
	RecordLap bool
}

type ResetInput struct {
	Archive bool
}

type GoalInput struct {
	GoalLaps int
}

type GeometryInput struct {
	LapDistanceKm float64
	LapAscentM    float64
}

type ReportMetaInput struct {
	UserName  string
	TrackName string
}

type LapOutput struct {
	Index                int
	DurationMs           float64
	CumulativeElapsedMs  float64
	PauseDurationMs      float64
	DeltaFromAverageMs   float64
	CumulativeDistanceKm float64
	CumulativeAscentM    float64
	Forced               bool
}

type PauseOutput struct {
	StartMs    float64
	EndMs      float64
	DurationMs float64
	LapIndex   int
}

type StatusOutput struct {
	State         string
	UserName      string
	TrackName     string
	GoalLaps      int
	LapDistanceKm float64
	LapAscentM    float64

	NowMs           float64
	ElapsedMs       float64
	LapElapsedMs    float64
	CurrentPauseMs  float64
	TotalPausedMs   float64
	ProgressPercent float64
	ETAMs           float64
	HasETA          bool

	LapCounter      int
	AverageLapMs    float64
	TotalDistanceKm float64
	TotalAscentM    float64
	StartedAt       *time.Time
	FinishedAt      *time.Time
	Laps            []LapOutput
	Pauses          []PauseOutput
}

type RejectionOutput struct {
	Reason       string
	AtMs         float64
	LapTimeMs    float64
	AverageLapMs float64
	ThresholdMs  float64
}

type LapResultOutput struct {
	Accepted     bool
	Lap          LapOutput
	Rejection    *RejectionOutput
	AutoFinished bool
	Status       StatusOutput
}

type FinishOutput struct {
	ClosingLap *LapOutput
	Status     StatusOutput
}

type ResetOutput struct {
	ArchiveID string
	Status    StatusOutput
}

type RestoreOutput struct {
	Restored bool
	Status   StatusOutput
}

type LapRowOutput struct {
	Index           int
	CumulativeMs    float64
	DurationMs      float64
	DeltaMs         float64
	PauseMs         float64
	PauseAdjustedMs float64
	AscentRateMPerH float64
	Forced          bool
}

type StatisticsOutput struct {
	UserName      string
	TrackName     string
	GoalLaps      int
	LapDistanceKm float64
	LapAscentM    float64
	StartedAt     *time.Time
	FinishedAt    *time.Time
	Finished      bool

	TotalLaps        int
	TotalElapsedMs   float64
	TotalHours       float64
	TotalLapMs       float64
	MovingMs         float64
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

	Laps   []LapRowOutput
	Pauses []PauseOutput
}

type HistoryItemOutput struct {
	ID              string
	ArchivedAt      time.Time
	UserName        string
	TrackName       string
	StartedAt       *time.Time
	FinishedAt      *time.Time
	LapCount        int
	TotalDistanceKm float64
	TotalAscentM    float64
	AverageLapMs    float64
}

type HistoryDetailOutput struct {
	HistoryItemOutput
	Laps   []LapOutput
	Pauses []PauseOutput
}
