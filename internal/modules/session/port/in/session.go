package in

import (
	"context"

	"everest/internal/modules/session/dto"
)

type Usecase interface {
	NowMs() float64
	Start(ctx context.Context, input dto.TimedInput) (dto.StatusOutput, error)
	StartPause(ctx context.Context, input dto.TimedInput) (dto.StatusOutput, error)
	EndPause(ctx context.Context, input dto.TimedInput) (dto.StatusOutput, error)
	TogglePause(ctx context.Context, input dto.TimedInput) (dto.StatusOutput, error)
	AddLap(ctx context.Context, input dto.LapInput) (dto.LapResultOutput, error)
	Finish(ctx context.Context, input dto.FinishInput) (dto.FinishOutput, error)
	Reset(ctx context.Context, input dto.ResetInput) (dto.ResetOutput, error)
	UpdateGoal(ctx context.Context, input dto.GoalInput) (dto.StatusOutput, error)
	UpdateLapGeometry(ctx context.Context, input dto.GeometryInput) (dto.StatusOutput, error)
	UpdateReportMeta(ctx context.Context, input dto.ReportMetaInput) (dto.StatusOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)
	Statistics(ctx context.Context) (dto.StatisticsOutput, error)
	Autosave(ctx context.Context) bool
	Restore(ctx context.Context) (dto.RestoreOutput, error)
	ListHistory(ctx context.Context) ([]dto.HistoryItemOutput, error)
	GetHistory(ctx context.Context, id string) (dto.HistoryDetailOutput, error)
}
