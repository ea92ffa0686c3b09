package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// #region settings

// Settings holds process configuration, sourced from the environment with an
// optional YAML tuning file for pipeline policy values.
type Settings struct {
	Port      int
	RulesPath string
	DBPath    string // tick log database; empty disables tick logging
	LogLevel  string
	Tuning    Tuning
}

// Tuning carries the policy knobs the pipeline treats as configuration rather
// than constants: smoothing, history depth, and the cooldown override margin.
type Tuning struct {
	SmoothingAlpha  float64  `yaml:"smoothing_alpha"`
	HistoryCapacity int      `yaml:"history_capacity"`
	OverrideMargin  int      `yaml:"override_margin"`
	ExtraFillers    []string `yaml:"extra_fillers"`
}

// DefaultTuning returns the standard policy values.
func DefaultTuning() Tuning {
	return Tuning{
		SmoothingAlpha:  0.4,
		HistoryCapacity: 8,
		OverrideMargin:  2,
	}
}

// #endregion settings

// #region load

// Load reads settings from .env (when present) and the environment, then
// merges the optional tuning file named by COACH_TUNING_PATH.
func Load() (Settings, error) {
	_ = godotenv.Load()

	s := Settings{
		Port:      envInt("COACH_PORT", 8080),
		RulesPath: envStr("COACH_RULES_PATH", "data/rules.json"),
		DBPath:    envStr("COACH_DB_PATH", ""),
		LogLevel:  envStr("COACH_LOG_LEVEL", "info"),
		Tuning:    DefaultTuning(),
	}

	if path := envStr("COACH_TUNING_PATH", ""); path != "" {
		tuning, err := loadTuning(path)
		if err != nil {
			return Settings{}, err
		}
		s.Tuning = tuning
	}
	return s, nil
}

func loadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning %s: %w", path, err)
	}
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if t.SmoothingAlpha <= 0 || t.SmoothingAlpha > 1 {
		return Tuning{}, fmt.Errorf("tuning %s: smoothing_alpha %.3f outside (0, 1]", path, t.SmoothingAlpha)
	}
	if t.HistoryCapacity < 1 {
		return Tuning{}, fmt.Errorf("tuning %s: history_capacity must be >= 1", path)
	}
	if t.OverrideMargin < 1 {
		return Tuning{}, fmt.Errorf("tuning %s: override_margin must be >= 1", path)
	}
	return t, nil
}

// #endregion load

// #region env-helpers

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// #endregion env-helpers
