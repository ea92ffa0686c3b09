package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prepdeck/coach-engine/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("verbose", false, "print per-tick scores")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--verbose]")
		os.Exit(2)
	}

	os.Exit(run(*fixturePath, *verbose))
}

// #endregion main

// #region run

func run(fixturePath string, verbose bool) int {
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	table, err := f.Table()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fixture rules: %v\n", err)
		return 2
	}

	if f.Description != "" {
		fmt.Printf("Fixture: %s\n", f.Description)
	}

	results := replay.Replay(table, f.ToTicks(), f.ToConfig())

	drift := 0
	expected := make(map[string]replay.FixtureExpectedResult, len(f.ExpectedResults))
	for _, e := range f.ExpectedResults {
		expected[e.TickID] = e
	}

	for _, r := range results {
		status := " "
		if e, ok := expected[r.TickID]; ok {
			if e.StateID != r.StateID || e.Decision != r.Decision {
				status = "DRIFT"
				drift++
			} else {
				status = "ok"
			}
		}
		if verbose {
			fmt.Printf("%-8s %-18s %-11s conf=%.3f anx=%.3f %s\n",
				r.TickID, r.StateID, r.Decision, r.Confidence, r.Anxiety, status)
		} else {
			fmt.Printf("%-8s %-18s %-11s %s\n", r.TickID, r.StateID, r.Decision, status)
		}
	}

	if drift > 0 {
		fmt.Fprintf(os.Stderr, "%d tick(s) drifted from expected results\n", drift)
		return 1
	}
	fmt.Printf("%d ticks replayed, no drift\n", len(results))
	return 0
}

// #endregion run
