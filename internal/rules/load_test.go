package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prepdeck/coach-engine/internal/score"
	"github.com/prepdeck/coach-engine/internal/signals"
)

const validDoc = `{
  "states": [
    {
      "id": "high_confidence",
      "name": "High Confidence",
      "priority": 2,
      "cooldown_ms": 5000,
      "guard": [{"metric": "confidence", "op": "gte", "value": 0.8}],
      "response": {"voice_line": "Great energy!", "subtitle": "You sound confident.", "tip": "Keep this pace."}
    },
    {
      "id": "anxiety_alert",
      "name": "Anxiety Alert",
      "priority": 5,
      "cooldown_ms": 0,
      "guard": [{"metric": "anxiety", "op": ">=", "value": 0.7}],
      "response": {"voice_line": "Take a breath.", "subtitle": "Anxiety rising.", "tip": "Slow down and breathe."}
    },
    {
      "id": "steady",
      "name": "Steady",
      "priority": 0,
      "cooldown_ms": 3000,
      "default": true,
      "response": {"voice_line": "Doing fine.", "subtitle": "Steady baseline.", "tip": "Stay engaged."}
    }
  ]
}`

func mustParse(t *testing.T, doc string) *Table {
	t.Helper()
	table, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return table
}

func TestParseValidDocument(t *testing.T) {
	table := mustParse(t, validDoc)

	if len(table.States()) != 3 {
		t.Fatalf("expected 3 states, got %d", len(table.States()))
	}
	if table.Default().ID != "steady" {
		t.Fatalf("expected default steady, got %s", table.Default().ID)
	}
	if _, ok := table.Lookup("anxiety_alert"); !ok {
		t.Fatal("anxiety_alert should resolve")
	}
	if _, ok := table.Lookup("missing"); ok {
		t.Fatal("unknown id should not resolve")
	}
}

func TestParseRejectsDuplicateID(t *testing.T) {
	doc := `{"states": [
		{"id": "a", "response": {}},
		{"id": "a", "response": {}}
	]}`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrDuplicateState) {
		t.Fatalf("expected ErrDuplicateState, got %v", err)
	}
}

func TestParseRejectsUnknownGuardField(t *testing.T) {
	doc := `{"states": [
		{"id": "a", "guard": [{"metric": "vocal.volume", "op": "gte", "value": 0.5}], "response": {}},
		{"id": "fallback", "default": true, "response": {}}
	]}`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestParseRejectsBadComparator(t *testing.T) {
	doc := `{"states": [
		{"id": "a", "guard": [{"metric": "confidence", "op": "~=", "value": 0.5}], "response": {}},
		{"id": "fallback", "default": true, "response": {}}
	]}`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrBadComparator) {
		t.Fatalf("expected ErrBadComparator, got %v", err)
	}
}

func TestParseRequiresDefaultState(t *testing.T) {
	doc := `{"states": [
		{"id": "a", "guard": [{"metric": "confidence", "op": "gte", "value": 0.5}], "response": {}}
	]}`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrNoDefaultState) {
		t.Fatalf("expected ErrNoDefaultState, got %v", err)
	}
}

func TestParseRejectsGuardedDefault(t *testing.T) {
	doc := `{"states": [
		{"id": "a", "default": true, "guard": [{"metric": "confidence", "op": "gte", "value": 0.5}], "response": {}}
	]}`
	_, err := Parse([]byte(doc))
	if !errors.Is(err, ErrGuardedDefault) {
		t.Fatalf("expected ErrGuardedDefault, got %v", err)
	}
}

func TestParseEmptyGuardBecomesDefault(t *testing.T) {
	doc := `{"states": [
		{"id": "a", "guard": [{"metric": "confidence", "op": "lt", "value": 0.2}], "response": {}},
		{"id": "b", "response": {}}
	]}`
	table := mustParse(t, doc)
	if table.Default().ID != "b" {
		t.Fatalf("first empty-guard state should be default, got %s", table.Default().ID)
	}
}

func TestGuardEvalConjunction(t *testing.T) {
	table := mustParse(t, `{"states": [
		{"id": "focused", "guard": [
			{"metric": "confidence", "op": ">=", "value": 0.6},
			{"metric": "vocal.fillerRatio", "op": "<", "value": 0.2}
		], "response": {}},
		{"id": "fallback", "default": true, "response": {}}
	]}`)
	focused, _ := table.Lookup("focused")

	vec := signals.NeutralVector()
	vec.FillerRatio = 0.1
	if !focused.Guard.Eval(score.ScorePair{Confidence: 0.7}, vec) {
		t.Fatal("both conditions hold, guard should pass")
	}
	vec.FillerRatio = 0.3
	if focused.Guard.Eval(score.ScorePair{Confidence: 0.7}, vec) {
		t.Fatal("one condition fails, conjunction should fail")
	}
}

func TestSelectHighestPriorityWins(t *testing.T) {
	table := mustParse(t, validDoc)

	// Both high_confidence and anxiety_alert guards true: priority 5 beats 2,
	// regardless of declaration order.
	pair := score.ScorePair{Confidence: 0.9, Anxiety: 0.9}
	got := table.Select(pair, signals.NeutralVector())
	if got.ID != "anxiety_alert" {
		t.Fatalf("expected anxiety_alert, got %s", got.ID)
	}
}

func TestSelectTieBrokenByDeclarationOrder(t *testing.T) {
	table := mustParse(t, `{"states": [
		{"id": "first", "priority": 3, "guard": [{"metric": "confidence", "op": "gte", "value": 0.5}], "response": {}},
		{"id": "second", "priority": 3, "guard": [{"metric": "confidence", "op": "gte", "value": 0.5}], "response": {}},
		{"id": "fallback", "default": true, "response": {}}
	]}`)
	got := table.Select(score.ScorePair{Confidence: 0.6}, signals.NeutralVector())
	if got.ID != "first" {
		t.Fatalf("expected declaration-order tie-break, got %s", got.ID)
	}
}

func TestSelectFallsBackToDefault(t *testing.T) {
	table := mustParse(t, validDoc)
	got := table.Select(score.ScorePair{Confidence: 0.5, Anxiety: 0.2}, signals.NeutralVector())
	if got.ID != "steady" {
		t.Fatalf("expected default state, got %s", got.ID)
	}
}

func TestProviderReloadSwapsAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	if err := os.WriteFile(path, []byte(validDoc), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	p, err := NewProvider(path)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	before := p.Table()

	// Broken reload keeps the old table.
	if err := os.WriteFile(path, []byte(`{"states": []}`), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if err := p.Reload(); err == nil {
		t.Fatal("expected reload failure for empty states")
	}
	if p.Table() != before {
		t.Fatal("failed reload must keep previous table")
	}

	// Valid reload swaps in a new table.
	replacement := `{"states": [{"id": "only", "default": true, "response": {"tip": "new"}}]}`
	if err := os.WriteFile(path, []byte(replacement), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	if err := p.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if p.Table() == before {
		t.Fatal("reload should install a new table")
	}
	if p.Table().Default().Response.Tip != "new" {
		t.Fatalf("unexpected reloaded table: %+v", p.Table().Default())
	}
}
