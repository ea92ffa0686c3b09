package replay

import (
	"time"

	"github.com/prepdeck/coach-engine/internal/engine"
	"github.com/prepdeck/coach-engine/internal/machine"
	"github.com/prepdeck/coach-engine/internal/rules"
	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/session"
	"github.com/prepdeck/coach-engine/internal/signals"
	"github.com/prepdeck/coach-engine/internal/transcript"
)

// #region types

// Tick is a single recorded ingest for replay, timed as an offset from the
// session start so runs are fully deterministic.
type Tick struct {
	TickID string
	AtMs   int64
	Sample signals.RawSample
}

// Config bundles pipeline tuning for a replay run.
type Config struct {
	Score           score.Config
	Machine         machine.Config
	HistoryCapacity int
}

// DefaultConfig returns the standard pipeline tuning.
func DefaultConfig() Config {
	return Config{
		Score:           score.DefaultConfig(),
		Machine:         machine.DefaultConfig(),
		HistoryCapacity: engine.DefaultHistoryCapacity,
	}
}

// Result captures the outcome of replaying one tick.
type Result struct {
	TickID     string
	StateID    string
	Decision   string
	Confidence float64
	Anxiety    float64
}

// #endregion types

// #region replay

// Replay pushes the recorded ticks through the full pure pipeline
// (normalize → aggregate → evaluate) against a fixed rule table, entirely
// in-memory. The primary regression harness: if weighting, smoothing, or
// transition parameters drift, expected results catch it.
func Replay(table *rules.Table, ticks []Tick, config Config) []Result {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	normalizer := signals.NewNormalizer()
	aggregator := score.NewAggregator(config.Score)
	mach := machine.NewMachine(config.Machine)
	analyzer := transcript.NewAnalyzer()

	capacity := config.HistoryCapacity
	if capacity <= 0 {
		capacity = engine.DefaultHistoryCapacity
	}
	st := &session.State{ID: "replay", History: session.NewHistory(capacity)}

	results := make([]Result, 0, len(ticks))
	for _, tick := range ticks {
		now := base.Add(time.Duration(tick.AtMs) * time.Millisecond)

		sample := tick.Sample
		if len(sample.Transcript) > 0 {
			sample = sample.WithTranscriptStats(analyzer.Analyze(sample.Transcript))
		}

		var prior *signals.MetricVector
		if st.HasVector {
			prior = &st.LastVector
		}
		vec := normalizer.Normalize(sample, prior)
		scores := aggregator.Aggregate(vec, st.History.Items(), now)
		out := mach.Evaluate(st, vec, scores, table, now)

		st.LastVector = vec
		st.HasVector = true

		results = append(results, Result{
			TickID:     tick.TickID,
			StateID:    out.StateID,
			Decision:   string(out.Decision),
			Confidence: scores.Confidence,
			Anxiety:    scores.Anxiety,
		})
	}
	return results
}

// #endregion replay
