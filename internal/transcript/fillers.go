package transcript

import (
	"strings"
)

// #region lexicon

// defaultFillers is the baseline filler lexicon. Entries may contain spaces
// and are matched as lowercase substrings within a segment.
var defaultFillers = []string{
	"um",
	"uh",
	"like",
	"you know",
	"actually",
	"basically",
	"literally",
}

// #endregion lexicon

// #region types

// Segment is one transcribed utterance with timing and recognizer confidence.
type Segment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start_time"`
	End        float64 `json:"end_time"`
	Confidence float64 `json:"confidence"`
}

// Stats holds vocal features derived from a transcript.
type Stats struct {
	FillerRatio   float64
	MumbleScore   float64
	SpeechRateWpm float64
	FillerHits    int
	Highlights    []string // up to maxHighlights segments containing a filler
}

const maxHighlights = 5

// #endregion types

// #region analyzer

// Analyzer derives filler and fluency statistics from transcript segments.
type Analyzer struct {
	fillers []string
}

// NewAnalyzer creates an Analyzer with the default lexicon plus any extra terms.
func NewAnalyzer(extra ...string) *Analyzer {
	fillers := make([]string, 0, len(defaultFillers)+len(extra))
	fillers = append(fillers, defaultFillers...)
	for _, e := range extra {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			fillers = append(fillers, e)
		}
	}
	return &Analyzer{fillers: fillers}
}

// #endregion analyzer

// #region analyze

// Analyze computes filler ratio, mumble score, and speech rate from segments.
// Empty input yields zero Stats.
func (a *Analyzer) Analyze(segments []Segment) Stats {
	if len(segments) == 0 {
		return Stats{}
	}

	var (
		totalWords int
		fillerHits int
		confSum    float64
		highlights []string
		earliest   = segments[0].Start
		latest     = segments[0].End
	)

	for _, seg := range segments {
		lower := strings.ToLower(seg.Text)
		words := strings.Fields(lower)
		totalWords += len(words)
		confSum += seg.Confidence

		hit := false
		for _, filler := range a.fillers {
			if n := countOccurrences(lower, filler); n > 0 {
				fillerHits += n
				hit = true
			}
		}
		if hit && len(highlights) < maxHighlights {
			highlights = append(highlights, seg.Text)
		}

		if seg.Start < earliest {
			earliest = seg.Start
		}
		if seg.End > latest {
			latest = seg.End
		}
	}

	stats := Stats{
		FillerHits: fillerHits,
		Highlights: highlights,
	}
	if totalWords > 0 {
		stats.FillerRatio = clamp01(float64(fillerHits) / float64(totalWords))
	}
	if n := float64(len(segments)); n > 0 {
		stats.MumbleScore = clamp01(1 - confSum/n)
	}
	if minutes := (latest - earliest) / 60.0; minutes > 0 && totalWords > 0 {
		stats.SpeechRateWpm = float64(totalWords) / minutes
	}
	return stats
}

// #endregion analyze

// #region helpers

// countOccurrences counts non-overlapping occurrences of filler in text.
// Both are expected to be lowercase already.
func countOccurrences(text, filler string) int {
	if filler == "" {
		return 0
	}
	// Single-word fillers match whole tokens only, so "like" does not count
	// inside "likely". Multi-word fillers fall back to substring counting.
	if !strings.Contains(filler, " ") {
		count := 0
		for _, tok := range strings.FieldsFunc(text, isWordBoundary) {
			if tok == filler {
				count++
			}
		}
		return count
	}
	return strings.Count(text, filler)
}

func isWordBoundary(r rune) bool {
	if r >= 'a' && r <= 'z' {
		return false
	}
	if r >= '0' && r <= '9' {
		return false
	}
	return r != '\''
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
