package machine

import (
	"testing"
	"time"

	"github.com/prepdeck/coach-engine/internal/rules"
	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/session"
	"github.com/prepdeck/coach-engine/internal/signals"
)

const testRules = `{
  "states": [
    {
      "id": "high_confidence",
      "priority": 2,
      "cooldown_ms": 4000,
      "guard": [{"metric": "confidence", "op": "gte", "value": 0.8}],
      "response": {"voice_line": "Great energy!", "subtitle": "Confident.", "tip": "Keep going."}
    },
    {
      "id": "anxiety_alert",
      "priority": 5,
      "cooldown_ms": 1000,
      "guard": [{"metric": "anxiety", "op": "gte", "value": 0.7}],
      "response": {"voice_line": "Breathe.", "subtitle": "Anxiety spike.", "tip": "Slow down."}
    },
    {
      "id": "wobbly",
      "priority": 3,
      "cooldown_ms": 2000,
      "guard": [{"metric": "confidence", "op": "lt", "value": 0.3}],
      "response": {"voice_line": "Steady on.", "subtitle": "Losing steam.", "tip": "Re-center."}
    },
    {
      "id": "steady",
      "priority": 0,
      "cooldown_ms": 3000,
      "default": true,
      "response": {"voice_line": "Doing fine.", "subtitle": "Baseline.", "tip": "Stay engaged."}
    }
  ]
}`

var t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func testTable(t *testing.T) *rules.Table {
	t.Helper()
	table, err := rules.Parse([]byte(testRules))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return table
}

func freshSession() *session.State {
	return &session.State{ID: "s1", History: session.NewHistory(8)}
}

func inState(id string, enteredAt time.Time) *session.State {
	st := freshSession()
	st.CurrentStateID = id
	st.EnteredStateAt = enteredAt
	return st
}

func TestEvaluateFirstTickEntersMatchingState(t *testing.T) {
	m := NewMachine(DefaultConfig())
	st := freshSession()

	out := m.Evaluate(st, signals.NeutralVector(), score.ScorePair{Confidence: 0.55, Anxiety: 0.5}, testTable(t), t0)

	if out.Decision != DecisionEnter {
		t.Fatalf("expected enter, got %s", out.Decision)
	}
	if out.StateID != "steady" {
		t.Fatalf("neutral first tick should land on default, got %s", out.StateID)
	}
	if st.CurrentStateID != "steady" || !st.EnteredStateAt.Equal(t0) {
		t.Fatalf("session not updated: %+v", st)
	}
	if st.History.Len() != 1 {
		t.Fatalf("entering a state should append history, len=%d", st.History.Len())
	}
}

func TestEvaluateHoldKeepsCooldownTimerAndHistory(t *testing.T) {
	m := NewMachine(DefaultConfig())
	st := inState("steady", t0)
	st.History.Append(signals.NeutralVector())
	table := testTable(t)

	out := m.Evaluate(st, signals.NeutralVector(), score.ScorePair{Confidence: 0.55}, table, t0.Add(10*time.Second))

	if out.Decision != DecisionHold {
		t.Fatalf("expected hold, got %s", out.Decision)
	}
	if out.Transitioned {
		t.Fatal("hold must not report a transition")
	}
	if !st.EnteredStateAt.Equal(t0) {
		t.Fatal("hold must not reset the cooldown timer")
	}
	if st.History.Len() != 1 {
		t.Fatalf("hold must not append history, len=%d", st.History.Len())
	}
	if out.Response.Tip != "Stay engaged." {
		t.Fatalf("hold should emit active state's response, got %q", out.Response.Tip)
	}
}

func TestEvaluateBlockedWithinCooldown(t *testing.T) {
	m := NewMachine(DefaultConfig())
	// steady has a 3000ms cooldown; only 1s elapsed.
	st := inState("steady", t0)

	out := m.Evaluate(st, signals.NeutralVector(), score.ScorePair{Confidence: 0.9}, testTable(t), t0.Add(1*time.Second))

	if out.Decision != DecisionBlocked {
		t.Fatalf("expected blocked, got %s (%s)", out.Decision, out.Reason)
	}
	if out.StateID != "steady" {
		t.Fatalf("blocked tick must stay in current state, got %s", out.StateID)
	}
	if st.CurrentStateID != "steady" || !st.EnteredStateAt.Equal(t0) {
		t.Fatal("blocked tick must leave session untouched")
	}
}

func TestEvaluateTransitionAfterCooldown(t *testing.T) {
	m := NewMachine(DefaultConfig())
	st := inState("steady", t0)

	now := t0.Add(3 * time.Second) // exactly the cooldown boundary
	out := m.Evaluate(st, signals.NeutralVector(), score.ScorePair{Confidence: 0.9}, testTable(t), now)

	if out.Decision != DecisionTransition {
		t.Fatalf("expected transition, got %s (%s)", out.Decision, out.Reason)
	}
	if out.StateID != "high_confidence" {
		t.Fatalf("expected high_confidence, got %s", out.StateID)
	}
	if !st.EnteredStateAt.Equal(now) {
		t.Fatal("transition must reset the cooldown timer")
	}
	if st.History.Len() != 1 {
		t.Fatalf("transition must append history, len=%d", st.History.Len())
	}
}

func TestEvaluateOverrideBypassesCooldown(t *testing.T) {
	m := NewMachine(Config{OverrideMargin: 2})
	// steady (priority 0) entered moments ago, cooldown unexpired.
	st := inState("steady", t0)

	out := m.Evaluate(st, signals.NeutralVector(), score.ScorePair{Confidence: 0.5, Anxiety: 0.9}, testTable(t), t0.Add(500*time.Millisecond))

	if out.Decision != DecisionOverride {
		t.Fatalf("expected override, got %s (%s)", out.Decision, out.Reason)
	}
	if out.StateID != "anxiety_alert" {
		t.Fatalf("expected anxiety_alert, got %s", out.StateID)
	}
	if out.Response.Tip != "Slow down." {
		t.Fatalf("override should emit the alert response, got %q", out.Response.Tip)
	}
}

func TestEvaluateBelowMarginDoesNotOverride(t *testing.T) {
	m := NewMachine(Config{OverrideMargin: 2})
	// high_confidence (priority 2) vs wobbly (priority 3): gap 1 < margin 2.
	st := inState("high_confidence", t0)

	out := m.Evaluate(st, signals.NeutralVector(), score.ScorePair{Confidence: 0.1}, testTable(t), t0.Add(time.Second))

	if out.Decision != DecisionBlocked {
		t.Fatalf("gap below margin must stay blocked, got %s", out.Decision)
	}
	if out.StateID != "high_confidence" {
		t.Fatalf("expected high_confidence, got %s", out.StateID)
	}
}

func TestEvaluateStaleStateAfterReload(t *testing.T) {
	m := NewMachine(DefaultConfig())
	st := inState("retired_state", t0)

	out := m.Evaluate(st, signals.NeutralVector(), score.ScorePair{Confidence: 0.55}, testTable(t), t0.Add(time.Millisecond))

	if out.Decision != DecisionTransition {
		t.Fatalf("stale state should transition freely, got %s", out.Decision)
	}
	if st.CurrentStateID != "steady" {
		t.Fatalf("expected steady, got %s", st.CurrentStateID)
	}
}

func TestEvaluateDeterminism(t *testing.T) {
	m := NewMachine(DefaultConfig())
	table := testTable(t)
	scores := score.ScorePair{Confidence: 0.9, Anxiety: 0.2}
	now := t0.Add(5 * time.Second)

	var first Outcome
	for i := 0; i < 10; i++ {
		st := inState("steady", t0)
		out := m.Evaluate(st, signals.NeutralVector(), scores, table, now)
		if i == 0 {
			first = out
			continue
		}
		if out != first {
			t.Fatalf("run %d: non-deterministic outcome %+v vs %+v", i, out, first)
		}
	}
}
