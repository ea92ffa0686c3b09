package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prepdeck/coach-engine/internal/rules"
)

// #region main

func main() {
	rulesPath := flag.String("rules", "", "path to rules JSON")
	flag.Parse()

	if *rulesPath == "" {
		fmt.Fprintln(os.Stderr, "usage: rules-check --rules path/to/rules.json")
		os.Exit(2)
	}

	table, err := rules.Load(*rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid rules: %v\n", err)
		os.Exit(1)
	}

	states := table.States()
	def := table.Default()
	fmt.Printf("%s: %d states, default %q\n", *rulesPath, len(states), def.ID)
	fmt.Printf("%-20s %-20s %8s %11s %7s %6s\n",
		"ID", "NAME", "PRIORITY", "COOLDOWN_MS", "DEFAULT", "GUARD")
	for _, s := range states {
		mark := ""
		if s.Default {
			mark = "*"
		}
		fmt.Printf("%-20s %-20s %8d %11d %7s %6d\n",
			s.ID, s.Name, s.Priority, s.CooldownMs, mark, len(s.Guard))
	}
}

// #endregion main
