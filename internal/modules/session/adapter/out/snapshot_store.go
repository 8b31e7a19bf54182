package out

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"everest/internal/modules/session/domain"
	sessionout "everest/internal/modules/session/port/out"
	apperrors "everest/internal/platform/errors"
)

type FileSnapshotStore struct {
	path string
}

func NewFileSnapshotStore(path string) sessionout.SnapshotStore {
	return &FileSnapshotStore{path: path}
}

func (s *FileSnapshotStore) Save(_ context.Context, snapshot domain.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load decodes field by field: an absent or malformed field falls back to
// its default instead of discarding the whole document.
func (s *FileSnapshotStore) Load(_ context.Context) (domain.Snapshot, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Snapshot{}, apperrors.ErrNoSavedSession
		}
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: decode snapshot: %v", apperrors.ErrNoSavedSession, err)
	}

	snap := domain.Snapshot{
		GoalLaps:      domain.DefaultGoalLaps,
		LapDistanceKm: domain.DefaultLapDistanceKm,
		LapAscentM:    domain.DefaultLapAscentM,
		Laps:          []domain.Lap{},
		Pauses:        []domain.Pause{},
	}
	field(fields, "userName", &snap.UserName)
	field(fields, "trackName", &snap.TrackName)
	checkedField(fields, "goalLaps", &snap.GoalLaps, func(v int) bool { return v >= 1 })
	checkedField(fields, "lapDistanceKm", &snap.LapDistanceKm, finiteNonNegative)
	checkedField(fields, "lapAscentM", &snap.LapAscentM, finiteNonNegative)
	field(fields, "isFinished", &snap.IsFinished)
	field(fields, "laps", &snap.Laps)
	field(fields, "pauses", &snap.Pauses)
	checkedField(fields, "averageLapTime", &snap.AverageLapTime, finiteNonNegative)
	checkedField(fields, "totalPausedTime", &snap.TotalPausedTime, finiteNonNegative)
	snap.StartDateTime = timeField(fields, "startDateTime")
	snap.FinishDateTime = timeField(fields, "finishDateTime")
	if !field(fields, "lapCounter", &snap.LapCounter) {
		snap.LapCounter = len(snap.Laps)
	}
	if snap.Laps == nil {
		snap.Laps = []domain.Lap{}
	}
	if snap.Pauses == nil {
		snap.Pauses = []domain.Pause{}
	}
	return snap, nil
}

func (s *FileSnapshotStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// field decodes one key into dst, leaving dst untouched when the key is
// missing, null or malformed. It reports whether dst was set.
func field[T any](fields map[string]json.RawMessage, key string, dst *T) bool {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

func timeField(fields map[string]json.RawMessage, key string) *time.Time {
	var t time.Time
	if !field(fields, key, &t) {
		return nil
	}
	return &t
}

// checkedField is field with a range check: an out-of-range value keeps the
// default just like a malformed one.
func checkedField[T any](fields map[string]json.RawMessage, key string, dst *T, valid func(T) bool) bool {
	var v T
	if !field(fields, key, &v) || !valid(v) {
		return false
	}
	*dst = v
	return true
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
