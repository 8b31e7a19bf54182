package in

import (
	"context"

	"everest/internal/modules/report/dto"
)

type Usecase interface {
	Preview(ctx context.Context, input dto.RenderInput) (dto.RenderOutput, error)
	Export(ctx context.Context, input dto.RenderInput) (dto.ExportOutput, error)
}
