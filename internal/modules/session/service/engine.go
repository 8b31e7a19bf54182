package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"everest/internal/modules/session/domain"
	sessionout "everest/internal/modules/session/port/out"
	"everest/internal/platform/clock"
	apperrors "everest/internal/platform/errors"
	"everest/internal/platform/id"
	"everest/internal/platform/logging"
)

// Engine owns the one live session. Every operation takes the mutex, so the
// TUI's command goroutines and the autosave tick may call it concurrently.
// Persistence is best-effort: failures are logged and the in-memory session
// stays authoritative.
type Engine struct {
	mu        sync.Mutex
	session   *domain.Session
	mono      clock.Monotonic
	wall      clock.Clock
	idGen     id.Generator
	snapshots sessionout.SnapshotStore
	history   sessionout.HistoryLog
	logger    *slog.Logger
}

func NewEngine(settings domain.Settings, mono clock.Monotonic, wall clock.Clock, idGen id.Generator, snapshots sessionout.SnapshotStore, history sessionout.HistoryLog, logger *slog.Logger) *Engine {
	return &Engine{
		session:   domain.New(settings),
		mono:      mono,
		wall:      wall,
		idGen:     idGen,
		snapshots: snapshots,
		history:   history,
		logger:    logging.OrDiscard(logger).With("component", "session"),
	}
}

func (e *Engine) NowMs() float64 {
	return e.mono.NowMs()
}

// Session returns a copy of the current state.
func (e *Engine) Session() domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}

func (e *Engine) Start(ctx context.Context, ts float64) (domain.Session, error) {
	return e.mutate(ctx, "start", func(s *domain.Session) error {
		return s.Start(ts, e.wall.Now())
	})
}

func (e *Engine) StartPause(ctx context.Context, ts float64) (domain.Session, error) {
	return e.mutate(ctx, "start pause", func(s *domain.Session) error {
		return s.StartPause(ts)
	})
}

func (e *Engine) EndPause(ctx context.Context, ts float64) (domain.Session, error) {
	return e.mutate(ctx, "end pause", func(s *domain.Session) error {
		return s.EndPause(ts)
	})
}

func (e *Engine) TogglePause(ctx context.Context, ts float64) (domain.Session, error) {
	return e.mutate(ctx, "toggle pause", func(s *domain.Session) error {
		if s.Paused {
			return s.EndPause(ts)
		}
		return s.StartPause(ts)
	})
}

// AddLap records a lap at ts. A rejected lap is not persisted; the caller
// may resubmit the same ts with forced set.
func (e *Engine) AddLap(ctx context.Context, ts float64, forced bool) (domain.LapResult, domain.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.session.AddLap(ts, forced, e.wall.Now())
	if err != nil {
		return domain.LapResult{}, e.session.Clone(), err
	}
	if result.Outcome == domain.LapRejected {
		e.logger.Info("lap rejected", "reason", result.Rejection.Reason, "lap_ms", result.Rejection.LapTimeMs, "threshold_ms", result.Rejection.ThresholdMs)
		return result, e.session.Clone(), nil
	}
	e.logger.Info("lap recorded", "lap", result.Lap.Index, "duration_ms", result.Lap.DurationMs, "forced", forced)
	if result.AutoFinished {
		e.logger.Info("goal reached", "laps", e.session.LapCounter)
	}
	e.persistLocked(ctx)
	return result, e.session.Clone(), nil
}

// Finish ends the session at ts. With recordLap the running lap is first
// closed as a forced lap; the closing lap is returned.
func (e *Engine) Finish(ctx context.Context, ts float64, recordLap bool) (*domain.Lap, domain.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session.Running {
		return nil, e.session.Clone(), &domain.TransitionError{Op: "finish", State: e.session.State()}
	}
	var closing *domain.Lap
	if recordLap {
		// Close the open pause first so it is counted in the closing lap.
		if e.session.Paused {
			if err := e.session.EndPause(ts); err != nil {
				return nil, e.session.Clone(), err
			}
		}
		result, err := e.session.AddLap(ts, true, e.wall.Now())
		if err != nil {
			return nil, e.session.Clone(), err
		}
		lap := result.Lap
		closing = &lap
	}
	if err := e.session.Finish(ts, e.wall.Now()); err != nil {
		return closing, e.session.Clone(), err
	}
	e.logger.Info("session finished", "laps", e.session.LapCounter)
	e.persistLocked(ctx)
	return closing, e.session.Clone(), nil
}

// Reset archives the session when asked and it has laps, then returns to
// idle with settings kept and the stored snapshot cleared. The archive id
// is empty when nothing was archived.
func (e *Engine) Reset(ctx context.Context, archive bool) (string, domain.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	archiveID := ""
	if archive && e.history != nil {
		if record, ok := e.session.Archive(e.idGen.New(), e.wall.Now()); ok {
			if err := e.history.Append(ctx, record); err != nil {
				e.logger.Warn("archive session failed", "error", err)
			} else {
				archiveID = record.ID
			}
		}
	}
	e.session.Reset()
	if e.snapshots != nil {
		if err := e.snapshots.Clear(ctx); err != nil {
			e.logger.Warn("clear snapshot failed", "error", err)
		}
	}
	e.logger.Info("session reset", "archived", archiveID != "")
	return archiveID, e.session.Clone()
}

func (e *Engine) UpdateGoal(ctx context.Context, goal int) (domain.Session, error) {
	return e.mutate(ctx, "update goal", func(s *domain.Session) error {
		return s.UpdateGoal(goal)
	})
}

func (e *Engine) UpdateLapGeometry(ctx context.Context, distanceKm, ascentM float64) (domain.Session, error) {
	return e.mutate(ctx, "update lap geometry", func(s *domain.Session) error {
		return s.UpdateLapGeometry(distanceKm, ascentM)
	})
}

func (e *Engine) UpdateReportMeta(ctx context.Context, user, track string) (domain.Session, error) {
	return e.mutate(ctx, "update report meta", func(s *domain.Session) error {
		return s.UpdateReportMeta(user, track)
	})
}

// Autosave writes the snapshot when there is something worth keeping. It
// reports whether a write was attempted and succeeded.
func (e *Engine) Autosave(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.session.Running && len(e.session.Laps) == 0 {
		return false
	}
	return e.persistLocked(ctx)
}

// Restore replaces a pristine session with the stored snapshot. It returns
// false when nothing valid is stored.
func (e *Engine) Restore(ctx context.Context) (bool, domain.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.State() != domain.StateIdle || len(e.session.Laps) > 0 {
		return false, e.session.Clone(), &domain.TransitionError{Op: "restore", State: e.session.State()}
	}
	if e.snapshots == nil {
		return false, e.session.Clone(), nil
	}
	snap, err := e.snapshots.Load(ctx)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNoSavedSession) {
			e.logger.Warn("load snapshot failed", "error", err)
		}
		return false, e.session.Clone(), nil
	}
	restored, err := domain.Restore(snap)
	if err != nil {
		e.logger.Warn("discarding invalid snapshot", "error", err)
		return false, e.session.Clone(), nil
	}
	e.session = restored
	e.logger.Info("session restored", "laps", restored.LapCounter, "finished", restored.Finished)
	return true, e.session.Clone(), nil
}

func (e *Engine) History(ctx context.Context) ([]domain.ArchivedSession, error) {
	if e.history == nil {
		return nil, nil
	}
	return e.history.List(ctx)
}

func (e *Engine) HistoryEntry(ctx context.Context, id string) (domain.ArchivedSession, error) {
	if e.history == nil {
		return domain.ArchivedSession{}, apperrors.ErrNotFound
	}
	return e.history.Get(ctx, id)
}

func (e *Engine) mutate(ctx context.Context, op string, apply func(*domain.Session) error) (domain.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := apply(e.session); err != nil {
		e.logger.Debug("operation refused", "op", op, "error", err)
		return e.session.Clone(), err
	}
	e.logger.Debug("operation applied", "op", op, "state", e.session.State())
	e.persistLocked(ctx)
	return e.session.Clone(), nil
}

func (e *Engine) persistLocked(ctx context.Context) bool {
	if e.snapshots == nil {
		return false
	}
	if err := e.snapshots.Save(ctx, e.session.Snapshot()); err != nil {
		e.logger.Warn("save snapshot failed", "error", err)
		return false
	}
	return true
}
