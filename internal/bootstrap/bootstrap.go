package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	reportinadapter "everest/internal/modules/report/adapter/in"
	reportoutadapter "everest/internal/modules/report/adapter/out"
	reportdomain "everest/internal/modules/report/domain"
	reportin "everest/internal/modules/report/port/in"
	reportservice "everest/internal/modules/report/service"
	reportusecase "everest/internal/modules/report/usecase"
	sessioninadapter "everest/internal/modules/session/adapter/in"
	sessionoutadapter "everest/internal/modules/session/adapter/out"
	sessiondomain "everest/internal/modules/session/domain"
	sessionin "everest/internal/modules/session/port/in"
	sessionservice "everest/internal/modules/session/service"
	sessionusecase "everest/internal/modules/session/usecase"
	"everest/internal/platform/clock"
	"everest/internal/platform/config"
	"everest/internal/platform/id"
	uiapp "everest/internal/ui/app"
)

type App struct {
	Config     config.Config
	SessionCLI sessioninadapter.CLIHandler
	ReportCLI  reportinadapter.CLIHandler

	sessions sessionin.Usecase
	reports  reportin.Usecase
	history  *sessionoutadapter.SQLiteHistoryLog
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	wall := clock.SystemClock{}

	locale, err := reportdomain.ParseLocale(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("report locale: %w", err)
	}

	history, err := sessionoutadapter.NewSQLiteHistoryLog(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new history log: %w", err)
	}

	settings := sessiondomain.Settings{
		GoalLaps:      cfg.Defaults.GoalLaps,
		LapDistanceKm: cfg.Defaults.LapDistanceKm,
		LapAscentM:    cfg.Defaults.LapAscentM,
	}
	engine := sessionservice.NewEngine(
		settings,
		clock.NewProcessMonotonic(),
		wall,
		id.UUID{},
		sessionoutadapter.NewFileSnapshotStore(cfg.SnapshotPath),
		history,
		logger,
	)
	sessionUC := sessionusecase.NewInteractor(engine)

	reportUC := reportusecase.NewInteractor(
		sessionUC,
		reportservice.NewRenderer(wall, locale, time.Local),
		reportoutadapter.NewFileDocumentWriter(cfg.ReportDir),
		logger,
	)

	return &App{
		Config:     cfg,
		SessionCLI: sessioninadapter.NewCLIHandler(sessionUC),
		ReportCLI:  reportinadapter.NewCLIHandler(reportUC),
		sessions:   sessionUC,
		reports:    reportUC,
		history:    history,
	}, nil
}

func (a *App) Close() error {
	return a.history.Close()
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.sessions, app.reports, uiapp.Options{
		CountdownSeconds: app.Config.CountdownSeconds,
		AutosaveInterval: app.Config.AutosaveInterval,
		Locale:           app.Config.Locale,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
