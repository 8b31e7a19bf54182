package clock

import "time"

// Clock abstracts wall time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Monotonic yields milliseconds on a process-local monotonic timeline.
// Readings are only comparable within one process.
type Monotonic interface {
	NowMs() float64
}

type ProcessMonotonic struct {
	origin time.Time
}

func NewProcessMonotonic() ProcessMonotonic {
	return ProcessMonotonic{origin: time.Now()}
}

func (m ProcessMonotonic) NowMs() float64 {
	return float64(time.Since(m.origin)) / float64(time.Millisecond)
}
