package rules

import (
	"math"

	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/signals"
)

// #region comparator

// Comparator is a threshold comparison operator. Both mnemonic ("gte") and
// symbolic (">=") spellings are accepted in config and canonicalized at load.
type Comparator string

const (
	CmpGTE Comparator = "gte"
	CmpGT  Comparator = "gt"
	CmpLTE Comparator = "lte"
	CmpLT  Comparator = "lt"
	CmpEQ  Comparator = "eq"
	CmpNE  Comparator = "ne"
)

const eqTolerance = 1e-6

// parseComparator canonicalizes a comparator spelling. ok is false for
// unsupported operators.
func parseComparator(s string) (Comparator, bool) {
	switch s {
	case "gte", ">=":
		return CmpGTE, true
	case "gt", ">":
		return CmpGT, true
	case "lte", "<=":
		return CmpLTE, true
	case "lt", "<":
		return CmpLT, true
	case "eq", "==":
		return CmpEQ, true
	case "ne", "!=":
		return CmpNE, true
	}
	return "", false
}

func (c Comparator) apply(actual, expected float64) bool {
	switch c {
	case CmpGTE:
		return actual >= expected
	case CmpGT:
		return actual > expected
	case CmpLTE:
		return actual <= expected
	case CmpLT:
		return actual < expected
	case CmpEQ:
		return math.Abs(actual-expected) <= eqTolerance
	case CmpNE:
		return math.Abs(actual-expected) > eqTolerance
	}
	return false
}

// #endregion comparator

// #region guard

// fieldKind records where a guard field resolves, decided once at load time.
type fieldKind int

const (
	fieldScore fieldKind = iota
	fieldMetric
)

// Condition is one parsed threshold comparison: field ⋚ literal.
type Condition struct {
	Field string
	Op    Comparator
	Value float64

	kind fieldKind
}

// Guard is a conjunction of conditions. An empty guard is always true.
type Guard []Condition

// Eval evaluates the guard against the tick's scores and metrics.
func (g Guard) Eval(scores score.ScorePair, vec signals.MetricVector) bool {
	for _, c := range g {
		var actual float64
		switch c.kind {
		case fieldScore:
			actual, _ = scores.Get(score.ScoreField(c.Field))
		case fieldMetric:
			actual, _ = vec.Get(signals.Field(c.Field))
		}
		if !c.Op.apply(actual, c.Value) {
			return false
		}
	}
	return true
}

// #endregion guard

// #region state-definition

// Response is the pre-authored coaching payload emitted while a state is active.
type Response struct {
	VoiceLine string `json:"voice_line"`
	Subtitle  string `json:"subtitle"`
	Tip       string `json:"tip"`
}

// StateDefinition is one validated coaching state.
type StateDefinition struct {
	ID         string
	Name       string
	Priority   int
	CooldownMs int64
	Default    bool
	Guard      Guard
	Response   Response
}

// #endregion state-definition

// #region table

// Table is the immutable validated rule set shared across sessions.
// Never mutated after Load; reloads build a fresh Table.
type Table struct {
	states    []StateDefinition
	byID      map[string]int
	defaultID string
}

// States returns state definitions in declaration order.
// Callers must not mutate the returned slice.
func (t *Table) States() []StateDefinition {
	return t.states
}

// Lookup returns the definition for id. ok is false when the id is unknown
// (possible for stale session state after a reload).
func (t *Table) Lookup(id string) (StateDefinition, bool) {
	i, ok := t.byID[id]
	if !ok {
		return StateDefinition{}, false
	}
	return t.states[i], true
}

// Default returns the designated fallback state.
func (t *Table) Default() StateDefinition {
	def, _ := t.Lookup(t.defaultID)
	return def
}

// Select returns the active candidate for the tick: the highest-priority state
// whose guard holds, ties broken by declaration order. Guard totality is
// guaranteed by load-time validation, so Select always returns a state.
func (t *Table) Select(scores score.ScorePair, vec signals.MetricVector) StateDefinition {
	best := -1
	for i, st := range t.states {
		if !st.Guard.Eval(scores, vec) {
			continue
		}
		if best == -1 || st.Priority > t.states[best].Priority {
			best = i
		}
	}
	if best == -1 {
		return t.Default()
	}
	return t.states[best]
}

// #endregion table
