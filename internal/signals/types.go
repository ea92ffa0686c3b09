package signals

import (
	"github.com/prepdeck/coach-engine/internal/transcript"
)

// #region fields

// Field names a metric addressable by rule guards.
type Field string

const (
	FieldFacialEngagement Field = "facial.engagement"
	FieldFacialPositivity Field = "facial.positivity"
	FieldFacialAnxiety    Field = "facial.anxiety"
	FieldFillerRatio      Field = "vocal.fillerRatio"
	FieldMumbleScore      Field = "vocal.mumbleScore"
	FieldSpeechRateWpm    Field = "vocal.speechRateWpm"
)

// MetricFields lists every metric field in declaration order.
func MetricFields() []Field {
	return []Field{
		FieldFacialEngagement,
		FieldFacialPositivity,
		FieldFacialAnxiety,
		FieldFillerRatio,
		FieldMumbleScore,
		FieldSpeechRateWpm,
	}
}

// #endregion fields

// #region raw-sample

// FacialMetrics carries per-tick facial affect scores. Nil pointers mean the
// upstream provider produced no value for that field.
type FacialMetrics struct {
	Engagement *float64 `json:"engagement,omitempty"`
	Positivity *float64 `json:"positivity,omitempty"`
	Anxiety    *float64 `json:"anxiety,omitempty"`
}

// VocalMetrics carries per-tick prosody and fluency scores.
type VocalMetrics struct {
	FillerRatio   *float64 `json:"filler_ratio,omitempty"`
	MumbleScore   *float64 `json:"mumble_score,omitempty"`
	SpeechRateWpm *float64 `json:"speech_rate_wpm,omitempty"`
}

// RawSample is the best-effort union of whatever upstream providers produced
// for one tick. Any subset, including the empty sample, is acceptable.
type RawSample struct {
	Facial     *FacialMetrics       `json:"facial,omitempty"`
	Vocal      *VocalMetrics        `json:"vocal,omitempty"`
	Transcript []transcript.Segment `json:"transcript,omitempty"`
}

// WithTranscriptStats returns a copy of the sample whose missing vocal fields
// are filled from derived transcript stats. Explicit upstream values win.
func (r RawSample) WithTranscriptStats(stats transcript.Stats) RawSample {
	var vocal VocalMetrics
	if r.Vocal != nil {
		vocal = *r.Vocal
	}
	if vocal.FillerRatio == nil {
		v := stats.FillerRatio
		vocal.FillerRatio = &v
	}
	if vocal.MumbleScore == nil {
		v := stats.MumbleScore
		vocal.MumbleScore = &v
	}
	if vocal.SpeechRateWpm == nil && stats.SpeechRateWpm > 0 {
		v := stats.SpeechRateWpm
		vocal.SpeechRateWpm = &v
	}
	r.Vocal = &vocal
	return r
}

// #endregion raw-sample

// #region metric-vector

// MetricVector is the fixed-shape normalized snapshot of all tracked features
// for one tick. Every field holds a value after normalization; gaps are filled
// by the carry-forward-then-neutral policy.
type MetricVector struct {
	FacialEngagement float64 `json:"facial_engagement"`
	FacialPositivity float64 `json:"facial_positivity"`
	FacialAnxiety    float64 `json:"facial_anxiety"`
	FillerRatio      float64 `json:"filler_ratio"`
	MumbleScore      float64 `json:"mumble_score"`
	SpeechRateWpm    float64 `json:"speech_rate_wpm"`
}

// Get returns the value for a metric field. ok is false for unknown names.
func (v MetricVector) Get(f Field) (value float64, ok bool) {
	switch f {
	case FieldFacialEngagement:
		return v.FacialEngagement, true
	case FieldFacialPositivity:
		return v.FacialPositivity, true
	case FieldFacialAnxiety:
		return v.FacialAnxiety, true
	case FieldFillerRatio:
		return v.FillerRatio, true
	case FieldMumbleScore:
		return v.MumbleScore, true
	case FieldSpeechRateWpm:
		return v.SpeechRateWpm, true
	}
	return 0, false
}

// KnownField reports whether name resolves to a metric field.
func KnownField(name string) bool {
	_, ok := MetricVector{}.Get(Field(name))
	return ok
}

// #endregion metric-vector
