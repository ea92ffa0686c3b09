package score

import "time"

// #region score-pair

// ScorePair holds the derived confidence/anxiety scalars for one tick.
// Always recomputed from a MetricVector, never mutated independently.
type ScorePair struct {
	Confidence float64   `json:"confidence"`
	Anxiety    float64   `json:"anxiety"`
	ComputedAt time.Time `json:"computed_at"`
}

// ScoreField names a score addressable by rule guards.
type ScoreField string

const (
	FieldConfidence ScoreField = "confidence"
	FieldAnxiety    ScoreField = "anxiety"
)

// Get returns the value for a score field. ok is false for unknown names.
func (s ScorePair) Get(f ScoreField) (value float64, ok bool) {
	switch f {
	case FieldConfidence:
		return s.Confidence, true
	case FieldAnxiety:
		return s.Anxiety, true
	}
	return 0, false
}

// KnownField reports whether name resolves to a score field.
func KnownField(name string) bool {
	_, ok := ScorePair{}.Get(ScoreField(name))
	return ok
}

// #endregion score-pair

// #region config

// Config holds smoothing parameters for score aggregation.
type Config struct {
	SmoothingAlpha float64 // EMA weight of the most recent tick
	MinHistory     int     // history entries required before smoothing kicks in
}

// DefaultConfig returns the standard smoothing parameters.
func DefaultConfig() Config {
	return Config{
		SmoothingAlpha: 0.4,
		MinHistory:     2,
	}
}

// #endregion config
