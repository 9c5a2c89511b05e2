package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"lotto-mcp/cmd/drawgen/engine"
)

func main() {
	scenario := flag.String("scenario", "uniform", "Scenario to generate: uniform, hot, gappy")
	outDir := flag.String("out", "./cache", "Output directory for the draws.jsonl cache")
	count := flag.Int("count", 1100, "Number of draws to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Count:    *count,
		Seed:     *seed,
	}

	fmt.Printf("Generating scenario '%s' (Count: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.Count, cfg.Seed, *outDir)

	records, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate draws: %v\n", err)
		os.Exit(1)
	}
	if err := engine.Save(*outDir, records); err != nil {
		fmt.Printf("Failed to save draws: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
