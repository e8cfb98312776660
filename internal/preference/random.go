package preference

import (
	"math/rand"

	"github.com/alienxp03/parley/internal/core"
)

// span is a half-open [Min, Max) range a single cut point is drawn from.
type span struct {
	Min, Max float64
}

// cutRanges lists, per criterion, the ranges of the VERY_BAD, BAD and GOOD
// boundaries. Ranges never overlap so the drawn cuts are always monotonic.
var cutRanges = [core.NumCriteria][3]span{
	core.ProductionCost:    {{17000, 19000}, {14000, 16000}, {11000, 13000}},
	core.Consumption:       {{6.0, 8.0}, {3.0, 5.0}, {0.1, 2.0}},
	core.Durability:        {{1.7, 2.0}, {2.4, 2.7}, {3.1, 3.4}},
	core.EnvironmentImpact: {{3.0, 3.4}, {2.3, 2.7}, {1.6, 2.0}},
	core.Noise:             {{68, 72}, {58, 62}, {48, 52}},
	core.CostPerKm:         {{0.08, 0.10}, {0.05, 0.06}, {0.02, 0.03}},
}

// RandomRanking returns a uniformly random permutation of the criteria.
func RandomRanking(rng *rand.Rand) []core.Criterion {
	ranking := core.Criteria()
	rng.Shuffle(len(ranking), func(i, j int) {
		ranking[i], ranking[j] = ranking[j], ranking[i]
	})
	return ranking
}

// RandomThresholds draws three cut points per criterion.
func RandomThresholds(rng *rand.Rand) []core.CriterionThreshold {
	out := make([]core.CriterionThreshold, 0, core.NumCriteria)
	for _, c := range core.Criteria() {
		t := core.CriterionThreshold{Criterion: c}
		for i, r := range cutRanges[c] {
			t.Cuts[i] = r.Min + rng.Float64()*(r.Max-r.Min)
		}
		out = append(out, t)
	}
	return out
}
