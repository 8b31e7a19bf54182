package in

import (
	"context"

	sessiondto "everest/internal/modules/session/dto"
	sessionin "everest/internal/modules/session/port/in"
)

// CLIHandler serves the one-shot subcommands. Live timing only happens in
// the TUI, since monotonic anchors do not survive the process.
type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Status(ctx context.Context) (sessiondto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

func (h CLIHandler) Restore(ctx context.Context) (sessiondto.RestoreOutput, error) {
	return h.usecase.Restore(ctx)
}

func (h CLIHandler) SetGoal(ctx context.Context, goal int) (sessiondto.StatusOutput, error) {
	return h.usecase.UpdateGoal(ctx, sessiondto.GoalInput{GoalLaps: goal})
}

func (h CLIHandler) SetGeometry(ctx context.Context, distanceKm, ascentM float64) (sessiondto.StatusOutput, error) {
	return h.usecase.UpdateLapGeometry(ctx, sessiondto.GeometryInput{LapDistanceKm: distanceKm, LapAscentM: ascentM})
}

func (h CLIHandler) SetMeta(ctx context.Context, user, track string) (sessiondto.StatusOutput, error) {
	return h.usecase.UpdateReportMeta(ctx, sessiondto.ReportMetaInput{UserName: user, TrackName: track})
}

func (h CLIHandler) Reset(ctx context.Context, archive bool) (sessiondto.ResetOutput, error) {
	return h.usecase.Reset(ctx, sessiondto.ResetInput{Archive: archive})
}

func (h CLIHandler) History(ctx context.Context) ([]sessiondto.HistoryItemOutput, error) {
	return h.usecase.ListHistory(ctx)
}

func (h CLIHandler) HistoryEntry(ctx context.Context, id string) (sessiondto.HistoryDetailOutput, error) {
	return h.usecase.GetHistory(ctx, id)
}
