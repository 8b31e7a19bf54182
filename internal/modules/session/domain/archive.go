package domain

import "time"

// ArchivedSession is the compact history record written on reset.
type ArchivedSession struct {
	ID              string     `json:"id"`
	ArchivedAt      time.Time  `json:"archivedAt"`
	UserName        string     `json:"userName"`
	TrackName       string     `json:"trackName"`
	StartedAt       *time.Time `json:"startedAt"`
	FinishedAt      *time.Time `json:"finishedAt"`
	Laps            []Lap      `json:"laps"`
	Pauses          []Pause    `json:"pauses"`
	TotalDistanceKm float64    `json:"totalDistanceKm"`
	TotalAscentM    float64    `json:"totalAscentM"`
	AverageLapMs    float64    `json:"averageLapMs"`
}

// Archive builds a history record; ok is false when there is nothing worth
// keeping (no laps).
func (s *Session) Archive(id string, at time.Time) (ArchivedSession, bool) {
	if len(s.Laps) == 0 {
		return ArchivedSession{}, false
	}
	c := s.Clone()
	return ArchivedSession{
		ID:              id,
		ArchivedAt:      at,
		UserName:        c.UserName,
		TrackName:       c.TrackName,
		StartedAt:       c.StartedAt,
		FinishedAt:      c.FinishedAt,
		Laps:            c.Laps,
		Pauses:          c.Pauses,
		TotalDistanceKm: c.TotalDistanceKm(),
		TotalAscentM:    c.TotalAscentM(),
		AverageLapMs:    c.AverageLapMs,
	}, true
}
