package usecase

import (
	"context"

	"everest/internal/modules/session/domain"
	sessiondto "everest/internal/modules/session/dto"
	sessionin "everest/internal/modules/session/port/in"
	"everest/internal/modules/session/service"
	apperrors "everest/internal/platform/errors"
)

type Interactor struct {
	engine *service.Engine
}

func NewInteractor(engine *service.Engine) sessionin.Usecase {
	return &Interactor{engine: engine}
}

func (i *Interactor) NowMs() float64 {
	return i.engine.NowMs()
}

func (i *Interactor) Start(ctx context.Context, input sessiondto.TimedInput) (sessiondto.StatusOutput, error) {
	s, err := i.engine.Start(ctx, input.AtMs)
	return toStatus(s, input.AtMs), err
}

func (i *Interactor) StartPause(ctx context.Context, input sessiondto.TimedInput) (sessiondto.StatusOutput, error) {
	s, err := i.engine.StartPause(ctx, input.AtMs)
	return toStatus(s, input.AtMs), err
}

func (i *Interactor) EndPause(ctx context.Context, input sessiondto.TimedInput) (sessiondto.StatusOutput, error) {
	s, err := i.engine.EndPause(ctx, input.AtMs)
	return toStatus(s, input.AtMs), err
}

func (i *Interactor) TogglePause(ctx context.Context, input sessiondto.TimedInput) (sessiondto.StatusOutput, error) {
	s, err := i.engine.TogglePause(ctx, input.AtMs)
	return toStatus(s, input.AtMs), err
}

func (i *Interactor) AddLap(ctx context.Context, input sessiondto.LapInput) (sessiondto.LapResultOutput, error) {
	result, s, err := i.engine.AddLap(ctx, input.AtMs, input.Forced)
	out := sessiondto.LapResultOutput{Status: toStatus(s, input.AtMs)}
	if err != nil {
		return out, err
	}
	if result.Outcome == domain.LapRejected {
		out.Rejection = &sessiondto.RejectionOutput{
			Reason:       string(result.Rejection.Reason),
			AtMs:         input.AtMs,
			LapTimeMs:    result.Rejection.LapTimeMs,
			AverageLapMs: result.Rejection.AverageLapMs,
			ThresholdMs:  result.Rejection.ThresholdMs,
		}
		return out, nil
	}
	out.Accepted = true
	out.Lap = toLap(result.Lap)
	out.AutoFinished = result.AutoFinished
	return out, nil
}

func (i *Interactor) Finish(ctx context.Context, input sessiondto.FinishInput) (sessiondto.FinishOutput, error) {
	closing, s, err := i.engine.Finish(ctx, input.AtMs, input.RecordLap)
	out := sessiondto.FinishOutput{Status: toStatus(s, input.AtMs)}
	if closing != nil {
		lap := toLap(*closing)
		out.ClosingLap = &lap
	}
	return out, err
}

func (i *Interactor) Reset(ctx context.Context, input sessiondto.ResetInput) (sessiondto.ResetOutput, error) {
	archiveID, s := i.engine.Reset(ctx, input.Archive)
	return sessiondto.ResetOutput{ArchiveID: archiveID, Status: toStatus(s, i.engine.NowMs())}, nil
}

func (i *Interactor) UpdateGoal(ctx context.Context, input sessiondto.GoalInput) (sessiondto.StatusOutput, error) {
	s, err := i.engine.UpdateGoal(ctx, input.GoalLaps)
	return toStatus(s, i.engine.NowMs()), err
}

func (i *Interactor) UpdateLapGeometry(ctx context.Context, input sessiondto.GeometryInput) (sessiondto.StatusOutput, error) {
	s, err := i.engine.UpdateLapGeometry(ctx, input.LapDistanceKm, input.LapAscentM)
	return toStatus(s, i.engine.NowMs()), err
}

func (i *Interactor) UpdateReportMeta(ctx context.Context, input sessiondto.ReportMetaInput) (sessiondto.StatusOutput, error) {
	s, err := i.engine.UpdateReportMeta(ctx, input.UserName, input.TrackName)
	return toStatus(s, i.engine.NowMs()), err
}

func (i *Interactor) Status(_ context.Context) (sessiondto.StatusOutput, error) {
	return toStatus(i.engine.Session(), i.engine.NowMs()), nil
}

func (i *Interactor) Statistics(_ context.Context) (sessiondto.StatisticsOutput, error) {
	st, ok := domain.Calculate(i.engine.Session())
	if !ok {
		return sessiondto.StatisticsOutput{}, apperrors.ErrNoStatistics
	}
	return toStatistics(st), nil
}

func (i *Interactor) Autosave(ctx context.Context) bool {
	return i.engine.Autosave(ctx)
}

func (i *Interactor) Restore(ctx context.Context) (sessiondto.RestoreOutput, error) {
	restored, s, err := i.engine.Restore(ctx)
	return sessiondto.RestoreOutput{Restored: restored, Status: toStatus(s, i.engine.NowMs())}, err
}

func (i *Interactor) ListHistory(ctx context.Context) ([]sessiondto.HistoryItemOutput, error) {
	records, err := i.engine.History(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.HistoryItemOutput, 0, len(records))
	for _, r := range records {
		out = append(out, toHistoryItem(r))
	}
	return out, nil
}

func (i *Interactor) GetHistory(ctx context.Context, id string) (sessiondto.HistoryDetailOutput, error) {
	if id == "" {
		return sessiondto.HistoryDetailOutput{}, apperrors.ErrInvalidInput
	}
	record, err := i.engine.HistoryEntry(ctx, id)
	if err != nil {
		return sessiondto.HistoryDetailOutput{}, err
	}
	return sessiondto.HistoryDetailOutput{
		HistoryItemOutput: toHistoryItem(record),
		Laps:              toLaps(record.Laps),
		Pauses:            toPauses(record.Pauses),
	}, nil
}

func toStatus(s domain.Session, now float64) sessiondto.StatusOutput {
	eta, hasETA := s.ETAMs()
	return sessiondto.StatusOutput{
		State:           string(s.State()),
		UserName:        s.UserName,
		TrackName:       s.TrackName,
		GoalLaps:        s.GoalLaps,
		LapDistanceKm:   s.LapDistanceKm,
		LapAscentM:      s.LapAscentM,
		NowMs:           now,
		ElapsedMs:       s.ElapsedMs(now),
		LapElapsedMs:    s.LapElapsedMs(now),
		CurrentPauseMs:  s.CurrentPauseMs(now),
		TotalPausedMs:   s.TotalPausedMsAt(now),
		ProgressPercent: s.ProgressPercent(),
		ETAMs:           eta,
		HasETA:          hasETA,
		LapCounter:      s.LapCounter,
		AverageLapMs:    s.AverageLapMs,
		TotalDistanceKm: s.TotalDistanceKm(),
		TotalAscentM:    s.TotalAscentM(),
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		Laps:            toLaps(s.Laps),
		Pauses:          toPauses(s.Pauses),
	}
}

func toLap(l domain.Lap) sessiondto.LapOutput {
	return sessiondto.LapOutput{
		Index:                l.Index,
		DurationMs:           l.DurationMs,
		CumulativeElapsedMs:  l.CumulativeElapsedMs,
		PauseDurationMs:      l.PauseDurationMs,
		DeltaFromAverageMs:   l.DeltaFromAverageMs,
		CumulativeDistanceKm: l.CumulativeDistanceKm,
		CumulativeAscentM:    l.CumulativeAscentM,
		Forced:               l.Forced,
	}
}

func toLaps(laps []domain.Lap) []sessiondto.LapOutput {
	out := make([]sessiondto.LapOutput, 0, len(laps))
	for _, l := range laps {
		out = append(out, toLap(l))
	}
	return out
}

func toPauses(pauses []domain.Pause) []sessiondto.PauseOutput {
	out := make([]sessiondto.PauseOutput, 0, len(pauses))
	for _, p := range pauses {
		out = append(out, sessiondto.PauseOutput{StartMs: p.StartTimestamp, EndMs: p.EndTimestamp, DurationMs: p.DurationMs, LapIndex: p.LapIndex})
	}
	return out
}

func toHistoryItem(r domain.ArchivedSession) sessiondto.HistoryItemOutput {
	return sessiondto.HistoryItemOutput{
		ID:              r.ID,
		ArchivedAt:      r.ArchivedAt,
		UserName:        r.UserName,
		TrackName:       r.TrackName,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		LapCount:        len(r.Laps),
		TotalDistanceKm: r.TotalDistanceKm,
		TotalAscentM:    r.TotalAscentM,
		AverageLapMs:    r.AverageLapMs,
	}
}

func toStatistics(st domain.Statistics) sessiondto.StatisticsOutput {
	rows := make([]sessiondto.LapRowOutput, 0, len(st.Laps))
	for _, r := range st.Laps {
		rows = append(rows, sessiondto.LapRowOutput{
			Index:           r.Index,
			CumulativeMs:    r.CumulativeMs,
			DurationMs:      r.DurationMs,
			DeltaMs:         r.DeltaMs,
			PauseMs:         r.PauseMs,
			PauseAdjustedMs: r.PauseAdjustedMs,
			AscentRateMPerH: r.AscentRateMPerH,
			Forced:          r.Forced,
		})
	}
	return sessiondto.StatisticsOutput{
		UserName:         st.UserName,
		TrackName:        st.TrackName,
		GoalLaps:         st.GoalLaps,
		LapDistanceKm:    st.LapDistanceKm,
		LapAscentM:       st.LapAscentM,
		StartedAt:        st.StartedAt,
		FinishedAt:       st.FinishedAt,
		Finished:         st.Finished,
		TotalLaps:        st.TotalLaps,
		TotalElapsedMs:   st.TotalElapsedMs,
		TotalHours:       st.TotalHours,
		TotalLapMs:       st.TotalLapMs,
		MovingMs:         st.MovingMs,
		TotalDistanceKm:  st.TotalDistanceKm,
		TotalAscentM:     st.TotalAscentM,
		AscentSpeedMPerH: st.AscentSpeedMPerH,
		DistanceGradient: st.DistanceGradient,
		MaxLapMs:         st.MaxLapMs,
		MinLapMs:         st.MinLapMs,
		MeanLapMs:        st.MeanLapMs,
		StdDevLapMs:      st.StdDevLapMs,
		PauseCount:       st.PauseCount,
		TotalPauseMs:     st.TotalPauseMs,
		MaxPauseMs:       st.MaxPauseMs,
		AvgPausePerLapMs: st.AvgPausePerLapMs,
		Laps:             rows,
		Pauses:           toPauses(st.Pauses),
	}
}
