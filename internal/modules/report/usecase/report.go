package usecase

import (
	"context"
	"log/slog"

	"everest/internal/modules/report/domain"
	reportdto "everest/internal/modules/report/dto"
	reportin "everest/internal/modules/report/port/in"
	reportout "everest/internal/modules/report/port/out"
	"everest/internal/modules/report/service"
	sessionin "everest/internal/modules/session/port/in"
	"everest/internal/platform/logging"
)

type Interactor struct {
	sessions sessionin.Usecase
	renderer *service.Renderer
	writer   reportout.DocumentWriter
	logger   *slog.Logger
}

func NewInteractor(sessions sessionin.Usecase, renderer *service.Renderer, writer reportout.DocumentWriter, logger *slog.Logger) reportin.Usecase {
	return &Interactor{sessions: sessions, renderer: renderer, writer: writer, logger: logging.OrDiscard(logger).With("component", "report")}
}

func (i *Interactor) Preview(ctx context.Context, input reportdto.RenderInput) (reportdto.RenderOutput, error) {
	doc, err := i.render(ctx, input)
	if err != nil {
		return reportdto.RenderOutput{}, err
	}
	return reportdto.RenderOutput{Kind: string(doc.Kind), Filename: doc.Filename, Content: doc.Body}, nil
}

func (i *Interactor) Export(ctx context.Context, input reportdto.RenderInput) (reportdto.ExportOutput, error) {
	doc, err := i.render(ctx, input)
	if err != nil {
		return reportdto.ExportOutput{}, err
	}
	content := doc.Bytes()
	path, err := i.writer.Write(ctx, doc.Filename, content)
	if err != nil {
		return reportdto.ExportOutput{}, err
	}
	i.logger.Info("report exported", "kind", doc.Kind, "path", path)
	return reportdto.ExportOutput{Kind: string(doc.Kind), Filename: doc.Filename, Path: path, Bytes: len(content)}, nil
}

func (i *Interactor) render(ctx context.Context, input reportdto.RenderInput) (domain.Document, error) {
	kind, err := domain.ParseKind(input.Kind)
	if err != nil {
		return domain.Document{}, err
	}
	var locale domain.Locale
	if input.Locale != "" {
		if locale, err = domain.ParseLocale(input.Locale); err != nil {
			return domain.Document{}, err
		}
	}
	stats, err := i.sessions.Statistics(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	return i.renderer.Render(kind, locale, stats)
}
