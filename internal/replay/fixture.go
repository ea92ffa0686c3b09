package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prepdeck/coach-engine/internal/machine"
	"github.com/prepdeck/coach-engine/internal/rules"
	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/signals"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Rules           json.RawMessage         `json:"rules"`
	Config          FixtureConfig           `json:"config"`
	Ticks           []FixtureTick           `json:"ticks"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig mirrors replay.Config with JSON tags.
type FixtureConfig struct {
	SmoothingAlpha  float64 `json:"smoothing_alpha"`
	OverrideMargin  int     `json:"override_margin"`
	HistoryCapacity int     `json:"history_capacity"`
}

// FixtureTick mirrors replay.Tick with JSON tags.
type FixtureTick struct {
	TickID string            `json:"tick_id"`
	AtMs   int64             `json:"at_ms"`
	Sample signals.RawSample `json:"sample"`
}

// FixtureExpectedResult captures the expected state and decision per tick.
type FixtureExpectedResult struct {
	TickID   string `json:"tick_id"`
	StateID  string `json:"state_id"`
	Decision string `json:"decision"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Table parses the fixture's embedded rules document.
func (f *Fixture) Table() (*rules.Table, error) {
	return rules.Parse(f.Rules)
}

// ToConfig converts the fixture config to a domain Config, filling defaults.
func (f *Fixture) ToConfig() Config {
	config := DefaultConfig()
	if f.Config.SmoothingAlpha > 0 {
		config.Score = score.Config{SmoothingAlpha: f.Config.SmoothingAlpha, MinHistory: config.Score.MinHistory}
	}
	if f.Config.OverrideMargin > 0 {
		config.Machine = machine.Config{OverrideMargin: f.Config.OverrideMargin}
	}
	if f.Config.HistoryCapacity > 0 {
		config.HistoryCapacity = f.Config.HistoryCapacity
	}
	return config
}

// ToTicks converts fixture ticks to domain ticks.
func (f *Fixture) ToTicks() []Tick {
	ticks := make([]Tick, len(f.Ticks))
	for i, ft := range f.Ticks {
		ticks[i] = Tick{TickID: ft.TickID, AtMs: ft.AtMs, Sample: ft.Sample}
	}
	return ticks
}

// #endregion fixture-loader
