package score

import (
	"time"

	"github.com/prepdeck/coach-engine/internal/signals"
)

// #region aggregator

// Aggregator combines a MetricVector, optionally blended with recent history,
// into scalar confidence and anxiety scores in [0, 1]. Pure and deterministic:
// identical inputs produce bit-identical output.
type Aggregator struct {
	config Config
}

// NewAggregator creates an Aggregator with the given configuration.
func NewAggregator(config Config) *Aggregator {
	if config.SmoothingAlpha <= 0 || config.SmoothingAlpha > 1 {
		config.SmoothingAlpha = DefaultConfig().SmoothingAlpha
	}
	if config.MinHistory <= 0 {
		config.MinHistory = DefaultConfig().MinHistory
	}
	return &Aggregator{config: config}
}

// Aggregate computes the tick's ScorePair. history is ordered oldest-first;
// with fewer than MinHistory entries the raw computed score is used unsmoothed.
func (a *Aggregator) Aggregate(vec signals.MetricVector, history []signals.MetricVector, now time.Time) ScorePair {
	confidence := rawConfidence(vec)
	anxiety := rawAnxiety(vec)

	if len(history) >= a.config.MinHistory {
		confidence = a.smooth(history, vec, rawConfidence)
		anxiety = a.smooth(history, vec, rawAnxiety)
	}

	return ScorePair{
		Confidence: confidence,
		Anxiety:    anxiety,
		ComputedAt: now,
	}
}

// smooth folds an exponential moving average over the history, oldest first,
// ending with the current vector so the most recent tick carries the highest
// weight.
func (a *Aggregator) smooth(history []signals.MetricVector, vec signals.MetricVector, raw func(signals.MetricVector) float64) float64 {
	alpha := a.config.SmoothingAlpha
	s := raw(history[0])
	for _, h := range history[1:] {
		s = alpha*raw(h) + (1-alpha)*s
	}
	return alpha*raw(vec) + (1-alpha)*s
}

// #endregion aggregator

// #region formulas

// rawConfidence applies the fixed confidence weighting, clamped to [0, 1].
func rawConfidence(v signals.MetricVector) float64 {
	sum := 0.5 +
		0.5*v.FacialPositivity +
		0.3*v.FacialEngagement -
		0.4*v.FillerRatio -
		0.3*v.MumbleScore
	return signals.Clamp01(sum)
}

// rawAnxiety applies the fixed anxiety weighting, clamped to [0, 1].
func rawAnxiety(v signals.MetricVector) float64 {
	sum := 0.6*v.FacialAnxiety +
		0.25*v.FillerRatio +
		0.15*v.MumbleScore
	return signals.Clamp01(sum)
}

// #endregion formulas
