package domain_test

import (
	"reflect"
	"testing"

	"everest/internal/modules/session/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	s := newSession(7)
	_ = s.UpdateReportMeta("Ann", "Col du Test")
	_ = s.Start(0, wall)
	_ = s.StartPause(1000)
	_ = s.EndPause(4000)
	mustLap(t, s, 600000, false)
	mustLap(t, s, 1200000, false)
	_ = s.Finish(1250000, wall)

	snap := s.Snapshot()
	restored, err := domain.Restore(snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !reflect.DeepEqual(restored.Snapshot(), snap) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", restored.Snapshot(), snap)
	}
	if restored.State() != domain.StateFinished {
		t.Fatalf("finished session should restore finished, got %s", restored.State())
	}
}

func TestSnapshotRoundTripWithoutLaps(t *testing.T) {
	t.Parallel()
	s := newSession(3)
	snap := s.Snapshot()
	if snap.Laps == nil || snap.Pauses == nil {
		t.Fatalf("snapshot should carry empty lists, not null")
	}
	restored, err := domain.Restore(snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !reflect.DeepEqual(restored.Snapshot(), snap) {
		t.Fatalf("round trip mismatch for empty session")
	}
	if restored.State() != domain.StateIdle {
		t.Fatalf("expected idle, got %s", restored.State())
	}
}

func TestRestoreRejectsInconsistentSnapshot(t *testing.T) {
	t.Parallel()
	s := newSession(3)
	_ = s.Start(0, wall)
	mustLap(t, s, 60000, false)
	snap := s.Snapshot()

	broken := snap
	broken.LapCounter = 2
	if _, err := domain.Restore(broken); err == nil {
		t.Fatalf("lap counter mismatch must be rejected")
	}
	broken = snap
	broken.GoalLaps = 0
	if _, err := domain.Restore(broken); err == nil {
		t.Fatalf("goal below 1 must be rejected")
	}
	broken = snap
	broken.Laps = []domain.Lap{{Index: 4, DurationMs: 1}}
	if _, err := domain.Restore(broken); err == nil {
		t.Fatalf("out of order lap index must be rejected")
	}
}

func TestRestoreRecomputesMissingAverage(t *testing.T) {
	t.Parallel()
	s := newSession(5)
	_ = s.Start(0, wall)
	mustLap(t, s, 60000, false)
	mustLap(t, s, 180000, false)
	snap := s.Snapshot()
	snap.AverageLapTime = 0
	restored, err := domain.Restore(snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.AverageLapMs != 90000 {
		t.Fatalf("expected recomputed average 90000, got %.1f", restored.AverageLapMs)
	}
}
