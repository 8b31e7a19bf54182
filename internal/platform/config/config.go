package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const fileName = "everest.yaml"

type SessionDefaults struct {
	GoalLaps      int     `yaml:"goal_laps" env:"GOAL_LAPS"`
	LapDistanceKm float64 `yaml:"lap_distance_km" env:"LAP_DISTANCE_KM"`
	LapAscentM    float64 `yaml:"lap_ascent_m" env:"LAP_ASCENT_M"`
}

type Config struct {
	DataDir      string `yaml:"-"`
	SnapshotPath string `yaml:"-"`
	DBPath       string `yaml:"-"`
	LogPath      string `yaml:"-"`

	ReportDir        string          `yaml:"report_dir" env:"REPORT_DIR"`
	Locale           string          `yaml:"locale" env:"LOCALE"`
	LogLevel         string          `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat        string          `yaml:"log_format" env:"LOG_FORMAT"`
	AutosaveInterval time.Duration   `yaml:"autosave_interval" env:"AUTOSAVE_INTERVAL"`
	CountdownSeconds int             `yaml:"countdown_seconds" env:"COUNTDOWN_SECONDS"`
	Defaults         SessionDefaults `yaml:"defaults" envPrefix:"DEFAULT_"`
}

func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Config{
		DataDir:          dataDir,
		SnapshotPath:     filepath.Join(dataDir, "session.json"),
		DBPath:           filepath.Join(dataDir, "everest.db"),
		LogPath:          filepath.Join(dataDir, "everest.log"),
		ReportDir:        filepath.Join(dataDir, "reports"),
		Locale:           "en",
		LogLevel:         "info",
		LogFormat:        "text",
		AutosaveInterval: 10 * time.Second,
		CountdownSeconds: 3,
		Defaults: SessionDefaults{
			GoalLaps:      100,
			LapDistanceKm: 10,
			LapAscentM:    100,
		},
	}, nil
}

// Load layers <dataDir>/everest.yaml and EVEREST_* environment variables
// over the defaults from New. A relative report dir is resolved against
// dataDir.
func Load(dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	raw, err := os.ReadFile(filepath.Join(dataDir, fileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", fileName, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read %s: %w", fileName, err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "EVEREST_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ReportDir != "" && !filepath.IsAbs(cfg.ReportDir) {
		cfg.ReportDir = filepath.Join(dataDir, cfg.ReportDir)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Locale {
	case "en", "ru":
	default:
		return fmt.Errorf("unsupported locale %q", c.Locale)
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave interval must be positive")
	}
	if c.CountdownSeconds < 0 || c.CountdownSeconds > 10 {
		return fmt.Errorf("countdown seconds must be within 0..10")
	}
	if c.Defaults.GoalLaps < 1 {
		return fmt.Errorf("default goal laps must be at least 1")
	}
	if !nonNegative(c.Defaults.LapDistanceKm) {
		return fmt.Errorf("default lap distance must be a non-negative number")
	}
	if !nonNegative(c.Defaults.LapAscentM) {
		return fmt.Errorf("default lap ascent must be a non-negative number")
	}
	if c.ReportDir == "" {
		return fmt.Errorf("report dir is required")
	}
	return nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
