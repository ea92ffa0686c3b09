package machine

import (
	"fmt"
	"time"

	"github.com/prepdeck/coach-engine/internal/rules"
	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/session"
	"github.com/prepdeck/coach-engine/internal/signals"
)

// #region machine

// Machine evaluates one coaching tick: it selects the next active state under
// guard, priority, and cooldown rules and emits that state's response.
// Stateless itself; all per-session state lives in the passed session record.
type Machine struct {
	config Config
}

// NewMachine creates a Machine with the given policy configuration.
func NewMachine(config Config) *Machine {
	if config.OverrideMargin <= 0 {
		config.OverrideMargin = DefaultConfig().OverrideMargin
	}
	return &Machine{config: config}
}

// #endregion machine

// #region evaluate

// Evaluate picks the tick's active state and mutates st accordingly.
// The caller must hold the session's lock. Deterministic for fixed inputs.
//
// Transition policy:
//   - candidate == current: hold, cooldown timer untouched.
//   - candidate != current: blocked while the current state's cooldown has not
//     elapsed, unless the candidate outranks it by at least OverrideMargin.
//   - permitted transitions reset EnteredStateAt and append vec to history.
func (m *Machine) Evaluate(st *session.State, vec signals.MetricVector, scores score.ScorePair, table *rules.Table, now time.Time) Outcome {
	candidate := table.Select(scores, vec)

	// First tick: enter whichever state matched, no cooldown to respect.
	if st.CurrentStateID == "" {
		m.enter(st, candidate, vec, now)
		return outcome(candidate, DecisionEnter, true, "initial state")
	}

	if candidate.ID == st.CurrentStateID {
		return outcome(candidate, DecisionHold, false, "candidate equals active state")
	}

	current, ok := table.Lookup(st.CurrentStateID)
	if !ok {
		// Active state vanished in a rules reload; move on without a cooldown.
		m.enter(st, candidate, vec, now)
		return outcome(candidate, DecisionTransition, true,
			fmt.Sprintf("state %s no longer defined", st.CurrentStateID))
	}

	elapsed := now.Sub(st.EnteredStateAt)
	cooldown := time.Duration(current.CooldownMs) * time.Millisecond

	if elapsed >= cooldown {
		m.enter(st, candidate, vec, now)
		return outcome(candidate, DecisionTransition, true,
			fmt.Sprintf("cooldown elapsed (%dms >= %dms)", elapsed.Milliseconds(), current.CooldownMs))
	}

	if candidate.Priority-current.Priority >= m.config.OverrideMargin {
		m.enter(st, candidate, vec, now)
		return outcome(candidate, DecisionOverride, true,
			fmt.Sprintf("priority %d overrides %d within cooldown", candidate.Priority, current.Priority))
	}

	// Blocked: stay put and keep emitting the current state's response.
	return outcome(current, DecisionBlocked, false,
		fmt.Sprintf("cooldown holds %s for %dms more", current.ID, (cooldown - elapsed).Milliseconds()))
}

// enter commits a permitted transition.
func (m *Machine) enter(st *session.State, def rules.StateDefinition, vec signals.MetricVector, now time.Time) {
	st.CurrentStateID = def.ID
	st.EnteredStateAt = now
	st.History.Append(vec)
}

func outcome(def rules.StateDefinition, d Decision, transitioned bool, reason string) Outcome {
	return Outcome{
		StateID:      def.ID,
		StateName:    def.Name,
		Response:     def.Response,
		Decision:     d,
		Reason:       reason,
		Transitioned: transitioned,
	}
}

// #endregion evaluate
