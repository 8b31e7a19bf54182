// Package timefmt renders millisecond durations the way the stopwatch shows
// them: whole seconds, MM:SS below an hour and HH:MM:SS above.
package timefmt

import (
	"fmt"
	"math"
)

// Clock formats ms as MM:SS or HH:MM:SS. Negative or non-finite input
// renders as zero.
func Clock(ms float64) string {
	return format(ms, false)
}

// ClockHours always includes the hour field.
func ClockHours(ms float64) string {
	return format(ms, true)
}

// Signed prefixes a non-negative delta with "+" and a negative one with "-".
func Signed(ms float64) string {
	if ms < 0 {
		return "-" + Clock(-ms)
	}
	return "+" + Clock(ms)
}

func format(ms float64, alwaysHours bool) string {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		ms = 0
	}
	total := int64(ms / 1000)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 || alwaysHours {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
