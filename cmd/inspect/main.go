package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prepdeck/coach-engine/internal/ticklog"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to tick log database")
	session := flag.String("session", "", "show recent ticks for one session")
	last := flag.Int("last", 20, "number of recent ticks to show")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/ticks.db [--session id] [--last N] [--json]")
		os.Exit(2)
	}

	ticks, err := ticklog.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer ticks.Close()

	if *session != "" {
		err = runSessionMode(ticks, *session, *last, *jsonOut)
	} else {
		err = runStatsMode(ticks, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region session-mode

func runSessionMode(ticks *ticklog.Log, sessionID string, last int, jsonOut bool) error {
	entries, err := ticks.Recent(sessionID, last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no ticks found for session")
		return nil
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	fmt.Printf("%-24s %-16s %-16s %-11s %6s %6s\n",
		"TIME", "FROM", "TO", "DECISION", "CONF", "ANX")
	for _, e := range entries {
		from := e.FromState
		if from == "" {
			from = "-"
		}
		fmt.Printf("%-24s %-16s %-16s %-11s %6.3f %6.3f\n",
			e.CreatedAt.Format(time.RFC3339), from, e.ToState, e.Decision, e.Confidence, e.Anxiety)
	}
	return nil
}

// #endregion session-mode

// #region stats-mode

func runStatsMode(ticks *ticklog.Log, jsonOut bool) error {
	stats, err := ticks.StateStats()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintln(os.Stderr, "tick log is empty")
		return nil
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(stats)
	}

	fmt.Printf("%-20s %6s %12s %9s %9s\n", "STATE", "TICKS", "TRANSITIONS", "AVG CONF", "AVG ANX")
	for _, s := range stats {
		fmt.Printf("%-20s %6d %12d %9.3f %9.3f\n",
			s.StateID, s.Ticks, s.Transitions, s.AvgConfidence, s.AvgAnxiety)
	}
	return nil
}

// #endregion stats-mode
