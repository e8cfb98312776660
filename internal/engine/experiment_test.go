package engine

import (
	"context"
	"testing"

	"github.com/alienxp03/parley/internal/core"
)

func TestRunExperiment(t *testing.T) {
	eng, _ := setupTestEngine(t)
	ctx := context.Background()

	var scores []float64
	cfg := ExperimentConfig{
		Sizes:     []int{10, 20},
		Runs:      3,
		Seed:      11,
		MaxRounds: 30,
		Progress: func(size, run int, outcome *core.Outcome) {
			scores = append(scores, outcome.Score)
		},
	}

	results, err := eng.RunExperiment(ctx, cfg)
	if err != nil {
		t.Fatalf("experiment failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if len(scores) != 6 {
		t.Fatalf("expected 6 runs reported, got %d", len(scores))
	}

	for i, res := range results {
		if res.Size != cfg.Sizes[i] || res.Runs != 3 {
			t.Errorf("result %d: unexpected size or runs: %+v", i, res)
		}
		if res.Agreements < 0 || res.Agreements > res.Runs {
			t.Errorf("size %d: %d agreements out of %d runs", res.Size, res.Agreements, res.Runs)
		}
		if res.AgreementRate != float64(res.Agreements)/3 {
			t.Errorf("size %d: agreement rate %v does not match %d/3", res.Size, res.AgreementRate, res.Agreements)
		}
		if res.MeanScore < 0 || res.MeanScore > 2 {
			t.Errorf("size %d: mean score %v out of range", res.Size, res.MeanScore)
		}
		if res.MeanRounds < 1 || res.MeanRounds > 30 {
			t.Errorf("size %d: mean rounds %v out of range", res.Size, res.MeanRounds)
		}

		var sum float64
		for _, s := range scores[i*3 : i*3+3] {
			sum += s
		}
		if diff := sum/3 - res.MeanScore; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("size %d: mean score %v, runs average %v", res.Size, res.MeanScore, sum/3)
		}
	}

	summaries, err := eng.ListNegotiations(100, 0)
	if err != nil {
		t.Fatalf("failed to list negotiations: %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("experiment left %d negotiations behind", len(summaries))
	}

	t.Run("Repeatable", func(t *testing.T) {
		again, err := eng.RunExperiment(ctx, ExperimentConfig{Sizes: cfg.Sizes, Runs: cfg.Runs, Seed: cfg.Seed, MaxRounds: cfg.MaxRounds})
		if err != nil {
			t.Fatalf("experiment failed: %v", err)
		}
		for i := range results {
			if again[i] != results[i] {
				t.Errorf("size %d: %+v vs %+v", results[i].Size, again[i], results[i])
			}
		}
	})

	t.Run("Keep", func(t *testing.T) {
		if _, err := eng.RunExperiment(ctx, ExperimentConfig{Sizes: []int{10}, Runs: 2, Seed: 1, MaxRounds: 30, Keep: true}); err != nil {
			t.Fatalf("experiment failed: %v", err)
		}
		summaries, err := eng.ListNegotiations(100, 0)
		if err != nil {
			t.Fatalf("failed to list negotiations: %v", err)
		}
		if len(summaries) != 2 {
			t.Errorf("expected 2 kept negotiations, got %d", len(summaries))
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := eng.RunExperiment(ctx, ExperimentConfig{Sizes: []int{10}}); err == nil {
			t.Error("expected error for zero runs")
		}
		if _, err := eng.RunExperiment(ctx, ExperimentConfig{Sizes: []int{1}, Runs: 1}); err == nil {
			t.Error("expected error for a corpus too small to generate")
		}
	})
}
