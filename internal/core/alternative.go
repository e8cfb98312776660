package core

import "fmt"

// Alternative is one option of the shared catalog, with one raw measurement
// per criterion. Alternatives are read-only once built.
type Alternative struct {
	ID                string  `json:"id" yaml:"id"`
	Description       string  `json:"description,omitempty" yaml:"description,omitempty"`
	ProductionCost    float64 `json:"production_cost" yaml:"production_cost"`
	Consumption       float64 `json:"consumption" yaml:"consumption"`
	Durability        float64 `json:"durability" yaml:"durability"`
	EnvironmentImpact float64 `json:"environment_impact" yaml:"environment_impact"`
	Noise             float64 `json:"noise" yaml:"noise"`
	CostPerKm         float64 `json:"cost_per_km" yaml:"cost_per_km"`
}

// attributeGetters maps each criterion to the field holding its raw value.
var attributeGetters = [NumCriteria]func(Alternative) float64{
	ProductionCost:    func(a Alternative) float64 { return a.ProductionCost },
	Consumption:       func(a Alternative) float64 { return a.Consumption },
	Durability:        func(a Alternative) float64 { return a.Durability },
	EnvironmentImpact: func(a Alternative) float64 { return a.EnvironmentImpact },
	Noise:             func(a Alternative) float64 { return a.Noise },
	CostPerKm:         func(a Alternative) float64 { return a.CostPerKm },
}

// Value returns the raw measurement of the alternative on criterion c.
func (a Alternative) Value(c Criterion) (float64, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCriterion, int(c))
	}
	return attributeGetters[c](a), nil
}

// CriterionThreshold holds the three cut points splitting the raw values of
// one criterion into four grade buckets, ordered from the VERY_BAD boundary
// to the VERY_GOOD boundary.
type CriterionThreshold struct {
	Criterion Criterion  `json:"criterion" yaml:"criterion"`
	Cuts      [3]float64 `json:"cuts" yaml:"cuts"`
}

// Monotonic reports whether the cut points move in the criterion's
// direction: strictly decreasing when lower is better, strictly increasing
// when higher is better.
func (t CriterionThreshold) Monotonic() bool {
	if t.Criterion.HigherIsBetter() {
		return t.Cuts[0] < t.Cuts[1] && t.Cuts[1] < t.Cuts[2]
	}
	return t.Cuts[0] > t.Cuts[1] && t.Cuts[1] > t.Cuts[2]
}

// GradeOf locates the bucket v falls into.
func (t CriterionThreshold) GradeOf(v float64) Grade {
	if t.Criterion.HigherIsBetter() {
		switch {
		case v < t.Cuts[0]:
			return VeryBad
		case v < t.Cuts[1]:
			return Bad
		case v < t.Cuts[2]:
			return Good
		default:
			return VeryGood
		}
	}
	switch {
	case v > t.Cuts[0]:
		return VeryBad
	case v > t.Cuts[1]:
		return Bad
	case v > t.Cuts[2]:
		return Good
	default:
		return VeryGood
	}
}
