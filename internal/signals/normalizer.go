package signals

// #region neutral

// Neutral fill values used when a field has never been observed for a session.
// Unit-interval metrics sit at the midpoint; speech rate uses a conversational
// baseline since the midpoint of an unbounded range is undefined.
const (
	NeutralUnit          = 0.5
	NeutralSpeechRateWpm = 110.0
)

// NeutralVector returns the all-neutral MetricVector used on a first tick with
// no observations.
func NeutralVector() MetricVector {
	return MetricVector{
		FacialEngagement: NeutralUnit,
		FacialPositivity: NeutralUnit,
		FacialAnxiety:    NeutralUnit,
		FillerRatio:      NeutralUnit,
		MumbleScore:      NeutralUnit,
		SpeechRateWpm:    NeutralSpeechRateWpm,
	}
}

// #endregion neutral

// #region normalizer

// Normalizer converts raw provider samples into bounded MetricVectors.
// It never fails: out-of-range values are clamped, missing fields reuse the
// prior vector's value, and with no prior the neutral fill applies.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize builds the tick's MetricVector from raw and the session's prior
// vector. prior is nil on a session's first tick. No side effects.
func (n *Normalizer) Normalize(raw RawSample, prior *MetricVector) MetricVector {
	base := NeutralVector()
	if prior != nil {
		base = *prior
	}

	if f := raw.Facial; f != nil {
		setUnit(&base.FacialEngagement, f.Engagement)
		setUnit(&base.FacialPositivity, f.Positivity)
		setUnit(&base.FacialAnxiety, f.Anxiety)
	}
	if v := raw.Vocal; v != nil {
		setUnit(&base.FillerRatio, v.FillerRatio)
		setUnit(&base.MumbleScore, v.MumbleScore)
		setNonNegative(&base.SpeechRateWpm, v.SpeechRateWpm)
	}
	return base
}

// #endregion normalizer

// #region helpers

func setUnit(dst *float64, src *float64) {
	if src == nil {
		return
	}
	*dst = Clamp01(*src)
}

func setNonNegative(dst *float64, src *float64) {
	if src == nil {
		return
	}
	v := *src
	if v < 0 {
		v = 0
	}
	*dst = v
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
