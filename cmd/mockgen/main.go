package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"flow-metrics/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	outDir := flag.String("out", "./snapshots", "Snapshot directory to write to")
	org := flag.String("org", "mock-org", "Organisation id of the generated snapshot")
	count := flag.Int("count", 200, "Number of work items to generate")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Seed:         *seed,
		Now:          time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) for %s to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *org, *outDir)

	fx := engine.Generate(cfg)
	if err := engine.Save(*outDir, *org, fx); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
