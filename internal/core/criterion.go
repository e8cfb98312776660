package core

import (
	"fmt"
	"strings"
)

// Criterion is one of the fixed decision dimensions alternatives are judged on.
type Criterion int

const (
	ProductionCost Criterion = iota
	Consumption
	Durability
	EnvironmentImpact
	Noise
	CostPerKm
)

// NumCriteria is the size of the closed criterion set.
const NumCriteria = 6

var criterionNames = [NumCriteria]string{
	"PRODUCTION_COST",
	"CONSUMPTION",
	"DURABILITY",
	"ENVIRONMENT_IMPACT",
	"NOISE",
	"COST_PER_KM",
}

// Criteria returns the fixed criterion set in canonical order.
func Criteria() []Criterion {
	return []Criterion{ProductionCost, Consumption, Durability, EnvironmentImpact, Noise, CostPerKm}
}

// Valid reports whether c belongs to the fixed criterion set.
func (c Criterion) Valid() bool {
	return c >= ProductionCost && c <= CostPerKm
}

// String returns the canonical wire name of the criterion.
func (c Criterion) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Criterion(%d)", int(c))
	}
	return criterionNames[c]
}

// HigherIsBetter reports whether larger raw values are preferable.
// Durability is the only criterion that is maximised.
func (c Criterion) HigherIsBetter() bool {
	return c == Durability
}

// MarshalText implements encoding.TextMarshaler.
func (c Criterion) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCriterion, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Criterion) UnmarshalText(text []byte) error {
	parsed, err := ParseCriterion(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCriterion resolves a criterion name, ignoring case and surrounding
// space. Use LookupCriterion where only the canonical token is valid.
func ParseCriterion(s string) (Criterion, error) {
	return LookupCriterion(strings.ToUpper(strings.TrimSpace(s)))
}

// LookupCriterion resolves an exact canonical criterion name.
func LookupCriterion(name string) (Criterion, error) {
	for i, n := range criterionNames {
		if n == name {
			return Criterion(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCriterion, name)
}

// Grade is the four-level ordinal scale an alternative receives on a criterion.
type Grade int

const (
	VeryBad Grade = iota
	Bad
	Good
	VeryGood
)

var gradeNames = [...]string{"VERY_BAD", "BAD", "GOOD", "VERY_GOOD"}

// Grades returns the scale from worst to best.
func Grades() []Grade {
	return []Grade{VeryBad, Bad, Good, VeryGood}
}

// Valid reports whether g is on the scale.
func (g Grade) Valid() bool {
	return g >= VeryBad && g <= VeryGood
}

// Favorable reports whether the grade is GOOD or better.
func (g Grade) Favorable() bool {
	return g >= Good
}

func (g Grade) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Grade(%d)", int(g))
	}
	return gradeNames[g]
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseGrade resolves a grade name, ignoring case and surrounding space.
func ParseGrade(s string) (Grade, error) {
	return LookupGrade(strings.ToUpper(strings.TrimSpace(s)))
}

// LookupGrade resolves an exact canonical grade name.
func LookupGrade(name string) (Grade, error) {
	for i, n := range gradeNames {
		if n == name {
			return Grade(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, name)
}
