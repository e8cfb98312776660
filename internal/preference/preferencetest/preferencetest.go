// Package preferencetest provides fixed thresholds and graded alternatives so
// tests can describe a catalog by grades instead of raw measurements.
package preferencetest

import (
	"math/rand"

	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/preference"
)

// Thresholds returns unit-spaced cuts: 3/2/1 for lower-is-better criteria and
// 1/2/3 for durability.
func Thresholds() []core.CriterionThreshold {
	out := make([]core.CriterionThreshold, 0, core.NumCriteria)
	for _, c := range core.Criteria() {
		t := core.CriterionThreshold{Criterion: c, Cuts: [3]float64{3, 2, 1}}
		if c.HigherIsBetter() {
			t.Cuts = [3]float64{1, 2, 3}
		}
		out = append(out, t)
	}
	return out
}

// valueFor returns a raw value that Thresholds grades as g on c.
func valueFor(c core.Criterion, g core.Grade) float64 {
	if c.HigherIsBetter() {
		return float64(g) + 0.5
	}
	return 3.5 - float64(g)
}

// Alternative builds an alternative graded as given under Thresholds.
// Criteria missing from grades default to fill.
func Alternative(id string, fill core.Grade, grades map[core.Criterion]core.Grade) core.Alternative {
	var vals [core.NumCriteria]float64
	for _, c := range core.Criteria() {
		g, ok := grades[c]
		if !ok {
			g = fill
		}
		vals[c] = valueFor(c, g)
	}
	return core.Alternative{
		ID:                id,
		ProductionCost:    vals[core.ProductionCost],
		Consumption:       vals[core.Consumption],
		Durability:        vals[core.Durability],
		EnvironmentImpact: vals[core.EnvironmentImpact],
		Noise:             vals[core.Noise],
		CostPerKm:         vals[core.CostPerKm],
	}
}

// Ranking completes a partial ranking with the remaining criteria in
// canonical order.
func Ranking(head ...core.Criterion) []core.Criterion {
	seen := make(map[core.Criterion]bool, core.NumCriteria)
	out := make([]core.Criterion, 0, core.NumCriteria)
	for _, c := range head {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range core.Criteria() {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// Model builds a preference model over alts using Thresholds and the given
// ranking. It panics on invalid input.
func Model(alts []core.Alternative, ranking []core.Criterion) *preference.Model {
	m, err := preference.New(alts, ranking, Thresholds())
	if err != nil {
		panic(err)
	}
	return m
}

// RandomModel builds a model with a seeded random ranking over alts.
func RandomModel(alts []core.Alternative, seed int64) *preference.Model {
	m, err := preference.NewRandom(alts, rand.New(rand.NewSource(seed)))
	if err != nil {
		panic(err)
	}
	return m
}
