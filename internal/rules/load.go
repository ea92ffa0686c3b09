package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/signals"
)

// #region errors

// Load-time validation failures. All are fatal: a process must not start with
// an invalid rule set.
var (
	ErrNoStates       = errors.New("rules: no states defined")
	ErrDuplicateState = errors.New("rules: duplicate state id")
	ErrUnknownField   = errors.New("rules: guard references unknown field")
	ErrBadComparator  = errors.New("rules: unsupported comparator")
	ErrNoDefaultState = errors.New("rules: no default state with an always-true guard")
	ErrGuardedDefault = errors.New("rules: default state must have an empty guard")
	ErrNegativeValue  = errors.New("rules: negative cooldown")
)

// #endregion errors

// #region document

// document is the wire shape of a rules file.
type document struct {
	States []stateDoc `json:"states"`
}

type stateDoc struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Priority   int            `json:"priority"`
	CooldownMs int64          `json:"cooldown_ms"`
	Default    bool           `json:"default"`
	Guard      []conditionDoc `json:"guard"`
	Response   Response       `json:"response"`
}

type conditionDoc struct {
	Metric string  `json:"metric"`
	Op     string  `json:"op"`
	Value  float64 `json:"value"`
}

// #endregion document

// #region load

// Load reads and validates a rules file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates a rules document and builds the immutable Table.
// Guards are resolved into a typed expression tree here; unknown fields and
// operators are rejected now so evaluation never fails at runtime.
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(doc.States) == 0 {
		return nil, ErrNoStates
	}

	t := &Table{
		states: make([]StateDefinition, 0, len(doc.States)),
		byID:   make(map[string]int, len(doc.States)),
	}

	for i, sd := range doc.States {
		if sd.ID == "" {
			return nil, fmt.Errorf("state %d: missing id", i)
		}
		if _, exists := t.byID[sd.ID]; exists {
			return nil, fmt.Errorf("state %q: %w", sd.ID, ErrDuplicateState)
		}
		if sd.CooldownMs < 0 {
			return nil, fmt.Errorf("state %q: %w", sd.ID, ErrNegativeValue)
		}

		guard, err := parseGuard(sd.ID, sd.Guard)
		if err != nil {
			return nil, err
		}
		if sd.Default && len(guard) > 0 {
			return nil, fmt.Errorf("state %q: %w", sd.ID, ErrGuardedDefault)
		}

		name := sd.Name
		if name == "" {
			name = sd.ID
		}
		t.byID[sd.ID] = len(t.states)
		t.states = append(t.states, StateDefinition{
			ID:         sd.ID,
			Name:       name,
			Priority:   sd.Priority,
			CooldownMs: sd.CooldownMs,
			Default:    sd.Default,
			Guard:      guard,
			Response:   sd.Response,
		})
	}

	if err := resolveDefault(t); err != nil {
		return nil, err
	}
	return t, nil
}

// parseGuard resolves each condition's field and comparator.
func parseGuard(stateID string, docs []conditionDoc) (Guard, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	guard := make(Guard, 0, len(docs))
	for _, cd := range docs {
		op, ok := parseComparator(cd.Op)
		if !ok {
			return nil, fmt.Errorf("state %q: operator %q: %w", stateID, cd.Op, ErrBadComparator)
		}
		cond := Condition{Field: cd.Metric, Op: op, Value: cd.Value}
		switch {
		case score.KnownField(cd.Metric):
			cond.kind = fieldScore
		case signals.KnownField(cd.Metric):
			cond.kind = fieldMetric
		default:
			return nil, fmt.Errorf("state %q: field %q: %w", stateID, cd.Metric, ErrUnknownField)
		}
		guard = append(guard, cond)
	}
	return guard, nil
}

// resolveDefault picks the fallback state: the first state flagged default,
// else the first state with an empty guard. At least one empty-guard state is
// required so the guard set is total.
func resolveDefault(t *Table) error {
	for _, st := range t.states {
		if st.Default {
			t.defaultID = st.ID
			return nil
		}
	}
	for _, st := range t.states {
		if len(st.Guard) == 0 {
			t.defaultID = st.ID
			return nil
		}
	}
	return ErrNoDefaultState
}

// #endregion load
