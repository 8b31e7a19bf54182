package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"everest/internal/bootstrap"
	"everest/internal/platform/config"
	"everest/internal/platform/logging"
)

func main() {
	// A missing .env is fine; the environment and everest.yaml still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "everest",
		Short:         "Everesting lap stopwatch",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for session, history and reports")

	root.AddCommand(newTUICmd(&dataDir))
	root.AddCommand(newStatusCmd(&dataDir))
	root.AddCommand(newSettingsCmd(&dataDir))
	root.AddCommand(newReportCmd(&dataDir))
	root.AddCommand(newHistoryCmd(&dataDir))
	root.AddCommand(newResetCmd(&dataDir))
	return root
}

func defaultDataDir() string {
	if dir := os.Getenv("EVEREST_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".everest"
	}
	return filepath.Join(home, ".everest")
}

// loadApp wires the application with logs going to logOut. When logOut is
// nil the log file under the data dir is used.
func loadApp(dataDir string, logOut io.Writer) (*bootstrap.App, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if logOut == nil {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logOut = f
	}
	logger, err := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, logger)
}

// openSession loads the app and restores the saved session so one-shot
// commands see the same state the TUI left behind.
func openSession(dataDir string) (*bootstrap.App, error) {
	app, err := loadApp(dataDir, os.Stderr)
	if err != nil {
		return nil, err
	}
	if _, err := app.SessionCLI.Restore(context.Background()); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func newTUICmd(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive stopwatch",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*dataDir, nil)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunTUI(app)
		},
	}
}
