package domain

const (
	// ShortLapRatio is the fraction of the running average below which a lap
	// is treated as an accidental double tap.
	ShortLapRatio = 0.5
	// MinLapMs is the absolute floor, independent of the average.
	MinLapMs = 10_000
)

type RejectReason string

const (
	ReasonTooShort         RejectReason = "tooShort"
	ReasonTooShortAbsolute RejectReason = "tooShortAbsolute"
)

type LapVerdict struct {
	Valid        bool
	Reason       RejectReason
	LapTimeMs    float64
	AverageLapMs float64
	ThresholdMs  float64
}

// ValidateLap applies the short-lap rules in order; the first match wins.
func ValidateLap(lapCounter int, averageLapMs, lapTimeMs float64) LapVerdict {
	if lapCounter == 0 || averageLapMs == 0 {
		return LapVerdict{Valid: true, LapTimeMs: lapTimeMs}
	}
	threshold := averageLapMs * ShortLapRatio
	if lapTimeMs < threshold {
		return LapVerdict{
			Reason:       ReasonTooShort,
			LapTimeMs:    lapTimeMs,
			AverageLapMs: averageLapMs,
			ThresholdMs:  threshold,
		}
	}
	if lapTimeMs < MinLapMs {
		return LapVerdict{Reason: ReasonTooShortAbsolute, LapTimeMs: lapTimeMs, ThresholdMs: MinLapMs}
	}
	return LapVerdict{Valid: true, LapTimeMs: lapTimeMs}
}

type LapOutcome string

const (
	LapAccepted LapOutcome = "accepted"
	LapRejected LapOutcome = "rejected"
)

// LapResult is either an accepted lap (Lap set) or a rejection (Rejection
// set) that the caller may override by resubmitting the same timestamp as
// forced.
type LapResult struct {
	Outcome      LapOutcome
	Lap          Lap
	Rejection    LapVerdict
	AutoFinished bool
}
