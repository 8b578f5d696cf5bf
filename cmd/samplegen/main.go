package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"insurelytics/cmd/samplegen/engine"
)

func main() {
	scenario := flag.String("scenario", "clean", "Scenario to generate: clean, noisy")
	out := flag.String("out", "./.cache/sample.xlsx", "Output workbook path")
	count := flag.Int("count", 51, "Number of jurisdictions to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Count:    *count,
		Seed:     *seed,
	}

	fmt.Printf("Generating scenario '%s' (Count: %d, Seed: %d) to %s...\n", cfg.Scenario, cfg.Count, cfg.Seed, *out)

	rows, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate sample data: %v\n", err)
		os.Exit(1)
	}
	if err := engine.Save(*out, rows); err != nil {
		fmt.Printf("Failed to save workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
