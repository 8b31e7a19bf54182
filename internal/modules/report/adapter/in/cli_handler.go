package in

import (
	"context"

	reportdto "everest/internal/modules/report/dto"
	reportin "everest/internal/modules/report/port/in"
)

type CLIHandler struct {
	usecase reportin.Usecase
}

func NewCLIHandler(usecase reportin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Preview(ctx context.Context, kind, locale string) (reportdto.RenderOutput, error) {
	return h.usecase.Preview(ctx, reportdto.RenderInput{Kind: kind, Locale: locale})
}

func (h CLIHandler) Export(ctx context.Context, kind, locale string) (reportdto.ExportOutput, error) {
	return h.usecase.Export(ctx, reportdto.RenderInput{Kind: kind, Locale: locale})
}
