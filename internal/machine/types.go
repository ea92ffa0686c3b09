package machine

import "github.com/prepdeck/coach-engine/internal/rules"

// #region decision

// Decision labels what the evaluator did with the tick.
type Decision string

const (
	DecisionEnter      Decision = "enter"      // first tick of a session
	DecisionHold       Decision = "hold"       // candidate equals current state
	DecisionTransition Decision = "transition" // cooldown elapsed, normal move
	DecisionOverride   Decision = "override"   // priority margin bypassed cooldown
	DecisionBlocked    Decision = "blocked"    // cooldown held the current state
)

// #endregion decision

// #region config

// Config holds the anti-flicker policy knobs.
type Config struct {
	// OverrideMargin is the priority gap at which a candidate preempts the
	// current state's cooldown (emergency escalation, e.g. an anxiety spike).
	OverrideMargin int
}

// DefaultConfig returns the standard policy values.
func DefaultConfig() Config {
	return Config{OverrideMargin: 2}
}

// #endregion config

// #region outcome

// Outcome reports the active state after a tick and how it was reached.
type Outcome struct {
	StateID      string
	StateName    string
	Response     rules.Response
	Decision     Decision
	Reason       string
	Transitioned bool
}

// #endregion outcome
