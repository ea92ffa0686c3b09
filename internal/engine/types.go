package engine

import (
	"time"

	"github.com/prepdeck/coach-engine/internal/machine"
	"github.com/prepdeck/coach-engine/internal/score"
)

// #region coaching-response

// CoachingResponse is the payload returned to the caller for every tick.
type CoachingResponse struct {
	SessionID  string   `json:"session_id"`
	StateID    string   `json:"state_id"`
	StateName  string   `json:"state"`
	VoiceLine  string   `json:"voice_line"`
	Subtitle   string   `json:"subtitle"`
	Tip        string   `json:"tip"`
	Confidence float64  `json:"confidence"`
	Anxiety    float64  `json:"anxiety"`
	Decision   string   `json:"decision"`
	Highlights []string `json:"transcript_highlights,omitempty"`
}

// #endregion coaching-response

// #region session-info

// SessionInfo is a read-only snapshot of a session.
type SessionInfo struct {
	SessionID      string    `json:"session_id"`
	StateID        string    `json:"state_id"`
	EnteredStateAt time.Time `json:"entered_state_at"`
	CreatedAt      time.Time `json:"created_at"`
	HistoryLen     int       `json:"history_len"`
}

// #endregion session-info

// #region options

// Options bundles engine tuning. Zero values fall back to defaults.
type Options struct {
	HistoryCapacity int            // metric history ring size K
	Score           score.Config   // smoothing parameters
	Machine         machine.Config // cooldown override policy
	ExtraFillers    []string       // lexicon additions for transcript analysis
}

// DefaultHistoryCapacity is the standard metric history ring size.
const DefaultHistoryCapacity = 8

// #endregion options
