package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alienxp03/parley/internal/catalog"
	"github.com/alienxp03/parley/internal/core"
)

// DefaultExperimentSizes are the corpus sizes swept when none are given.
var DefaultExperimentSizes = []int{10, 20, 30, 40, 50, 100}

// ExperimentConfig describes a sweep over generated corpus sizes. Run i of
// every size uses seed Seed+i, so a sweep with a fixed seed is repeatable.
type ExperimentConfig struct {
	Sizes     []int
	Runs      int
	Seed      int64 // 0 picks a time-based seed
	MaxRounds int
	PartyA    core.PartySpec
	PartyB    core.PartySpec
	// Keep leaves the negotiations in storage instead of deleting them
	// once their outcome has been counted.
	Keep bool
	// Progress, when set, is called after every run.
	Progress func(size, run int, outcome *core.Outcome)
}

// ExperimentResult aggregates the runs of one corpus size. Runs without an
// agreement count as score 0 in MeanScore.
type ExperimentResult struct {
	Size          int     `json:"size"`
	Runs          int     `json:"runs"`
	Agreements    int     `json:"agreements"`
	AgreementRate float64 `json:"agreement_rate"`
	MeanScore     float64 `json:"mean_score"`
	MeanRounds    float64 `json:"mean_rounds"`
}

// RunExperiment plays cfg.Runs negotiations for every corpus size and
// reports the agreement rate and mean score per size.
func (e *Engine) RunExperiment(ctx context.Context, cfg ExperimentConfig) ([]ExperimentResult, error) {
	sizes := cfg.Sizes
	if len(sizes) == 0 {
		sizes = DefaultExperimentSizes
	}
	if cfg.Runs < 1 {
		return nil, fmt.Errorf("experiment needs at least one run per size, got %d", cfg.Runs)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = core.TimeSeed()
	}
	slog.Info("Experiment started", "sizes", sizes, "runs", cfg.Runs, "seed", seed)

	results := make([]ExperimentResult, 0, len(sizes))
	for _, size := range sizes {
		alternatives, err := catalog.Generate(size)
		if err != nil {
			return nil, fmt.Errorf("failed to generate catalog of size %d: %w", size, err)
		}

		res := ExperimentResult{Size: len(alternatives), Runs: cfg.Runs}
		var scores, rounds float64
		for i := 0; i < cfg.Runs; i++ {
			outcome, err := e.experimentRun(ctx, cfg, alternatives, seed+int64(i))
			if err != nil {
				return nil, fmt.Errorf("size %d run %d: %w", size, i+1, err)
			}
			if outcome.Agreed {
				res.Agreements++
			}
			scores += outcome.Score
			rounds += float64(outcome.Rounds)
			if cfg.Progress != nil {
				cfg.Progress(res.Size, i+1, outcome)
			}
		}

		n := float64(cfg.Runs)
		res.AgreementRate = float64(res.Agreements) / n
		res.MeanScore = scores / n
		res.MeanRounds = rounds / n
		slog.Info("Experiment size done", "size", res.Size, "agreement_rate", res.AgreementRate, "mean_score", res.MeanScore)
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) experimentRun(ctx context.Context, cfg ExperimentConfig, alternatives []core.Alternative, seed int64) (*core.Outcome, error) {
	n, err := e.CreateNegotiation(ctx, core.NewNegotiationConfig{
		Title:     fmt.Sprintf("Experiment: %d alternatives, seed %d", len(alternatives), seed),
		PartyA:    cfg.PartyA,
		PartyB:    cfg.PartyB,
		Catalog:   alternatives,
		Seed:      seed,
		MaxRounds: cfg.MaxRounds,
	})
	if err != nil {
		return nil, err
	}

	outcome, err := e.RunNegotiation(ctx, n.ID, nil)
	if !cfg.Keep {
		if derr := e.storage.DeleteNegotiation(n.ID); derr != nil {
			err = errors.Join(err, fmt.Errorf("failed to delete negotiation: %w", derr))
		}
	}
	if err != nil {
		return nil, err
	}
	return outcome, nil
}
