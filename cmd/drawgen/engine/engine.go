package engine

import (
	"fmt"
	"math/rand"
	"os"
	"slices"

	"lotto-mcp/internal/draw"
	"lotto-mcp/internal/history"
)

type GeneratorConfig struct {
	Scenario string // "uniform", "hot" or "gappy"
	Count    int
	Seed     int64
}

// Generate produces Count valid draws starting at round 1. "hot" biases a
// handful of numbers upward; "gappy" drops roughly one round in twenty so
// that some matches have no successor.
func Generate(cfg GeneratorConfig) ([]draw.Record, error) {
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", draw.ErrInvalidArgument)
	}
	switch cfg.Scenario {
	case "", "uniform", "hot", "gappy":
	default:
		return nil, fmt.Errorf("%w: unknown scenario %q", draw.ErrInvalidArgument, cfg.Scenario)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	weights := make([]float64, draw.Size)
	for i := range weights {
		weights[i] = 1
	}
	if cfg.Scenario == "hot" {
		for _, n := range []int{7, 13, 27, 34, 43} {
			weights[n-draw.Base] = 2.5
		}
	}

	records := make([]draw.Record, 0, cfg.Count)
	for round := 1; len(records) < cfg.Count; round++ {
		if cfg.Scenario == "gappy" && round > 1 && rng.Intn(20) == 0 {
			continue
		}
		picked := sample(rng, weights, draw.PickCount+1)
		numbers := slices.Clone(picked[:draw.PickCount])
		slices.Sort(numbers)
		records = append(records, draw.Record{
			Round:   round,
			Numbers: numbers,
			Bonus:   picked[draw.PickCount],
		})
	}
	return records, nil
}

// sample draws k distinct numbers without replacement, proportional to weights.
func sample(rng *rand.Rand, weights []float64, k int) []int {
	w := slices.Clone(weights)
	out := make([]int, 0, k)
	for len(out) < k {
		total := 0.0
		for _, v := range w {
			total += v
		}
		x := rng.Float64() * total
		for i, v := range w {
			x -= v
			if x < 0 || i == len(w)-1 && v > 0 {
				out = append(out, i+draw.Base)
				w[i] = 0
				break
			}
		}
	}
	return out
}

// Save writes records as the JSONL history cache in outDir.
func Save(outDir string, records []draw.Record) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	return history.WriteRecords(outDir, records)
}
