// Package argument builds, selects, encodes and rebuts the justifications
// exchanged during a negotiation.
package argument

import (
	"fmt"

	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/preference"
)

// Polarity tells whether a justification supports or attacks its target.
type Polarity int

const (
	Support Polarity = iota
	Attack
)

// Negate returns the opposite polarity.
func (p Polarity) Negate() Polarity {
	if p == Support {
		return Attack
	}
	return Support
}

func (p Polarity) String() string {
	if p == Attack {
		return "attack"
	}
	return "support"
}

// admits reports whether grade g can back a claim of this polarity.
func (p Polarity) admits(g core.Grade) bool {
	if p == Support {
		return g.Favorable()
	}
	return !g.Favorable()
}

// CoupleValue asserts the grade of the target on one criterion.
type CoupleValue struct {
	Criterion core.Criterion `json:"criterion"`
	Grade     core.Grade     `json:"grade"`
}

func (cv CoupleValue) String() string {
	return fmt.Sprintf("%s = %s", cv.Criterion, cv.Grade)
}

// Comparison asserts that Better outranks Worse.
type Comparison struct {
	Better core.Criterion `json:"better"`
	Worse  core.Criterion `json:"worse"`
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s > %s", c.Better, c.Worse)
}

// Claims is the full set of admissible premises for a target and polarity.
// Both lists follow the owner's criterion ranking.
type Claims struct {
	CoupleValues []CoupleValue
	Comparisons  []Comparison
}

// ComputeClaims lists every couple value of target admitted by polarity and
// every ordered pair (ci, cj) with ci ranked above cj. It does not mutate
// anything.
func ComputeClaims(target string, polarity Polarity, model *preference.Model) (Claims, error) {
	if _, err := model.Alternative(target); err != nil {
		return Claims{}, err
	}

	ranking := model.Ranking()
	var claims Claims
	for _, c := range ranking {
		g, err := model.Grade(target, c)
		if err != nil {
			return Claims{}, err
		}
		if polarity.admits(g) {
			claims.CoupleValues = append(claims.CoupleValues, CoupleValue{Criterion: c, Grade: g})
		}
	}

	claims.Comparisons = make([]Comparison, 0, len(ranking)*(len(ranking)-1)/2)
	for i := range ranking {
		for j := i + 1; j < len(ranking); j++ {
			claims.Comparisons = append(claims.Comparisons, Comparison{Better: ranking[i], Worse: ranking[j]})
		}
	}
	return claims, nil
}

// Argument is one agent's justification for or against a single target.
// It is rebuilt from scratch by CommitAsOwn, never patched.
type Argument struct {
	polarity    Polarity
	target      string
	values      []CoupleValue
	comparisons []Comparison
	ranking     []core.Criterion
}

// NewArgument returns an empty argument about target.
func NewArgument(target string, polarity Polarity) *Argument {
	return &Argument{target: target, polarity: polarity}
}

// CommitAsOwn clears the argument and stores the claims computed from model.
func (a *Argument) CommitAsOwn(model *preference.Model) error {
	claims, err := ComputeClaims(a.target, a.polarity, model)
	if err != nil {
		return fmt.Errorf("failed to build argument for %s: %w", a.target, err)
	}
	a.values = claims.CoupleValues
	a.comparisons = claims.Comparisons
	a.ranking = model.Ranking()
	return nil
}

// Generate computes the claims for target and polarity. When they match the
// argument's own target and polarity the claims are committed too; any other
// pair is only computed.
func (a *Argument) Generate(target string, polarity Polarity, model *preference.Model) (Claims, error) {
	if target == a.target && polarity == a.polarity {
		if err := a.CommitAsOwn(model); err != nil {
			return Claims{}, err
		}
		return Claims{CoupleValues: a.CoupleValues(), Comparisons: a.Comparisons()}, nil
	}
	return ComputeClaims(target, polarity, model)
}

// MarkUsed drops a couple value that has been sent.
func (a *Argument) MarkUsed(cv CoupleValue) {
	for i, v := range a.values {
		if v == cv {
			a.values = append(a.values[:i:i], a.values[i+1:]...)
			return
		}
	}
}

// Target returns the alternative the argument is about.
func (a *Argument) Target() string { return a.target }

// Polarity returns whether the argument supports or attacks its target.
func (a *Argument) Polarity() Polarity { return a.polarity }

// CoupleValues returns a copy of the remaining couple value claims.
func (a *Argument) CoupleValues() []CoupleValue {
	return append([]CoupleValue(nil), a.values...)
}

// Comparisons returns a copy of the comparison claims.
func (a *Argument) Comparisons() []Comparison {
	return append([]Comparison(nil), a.comparisons...)
}

// HasComparison reports whether cmp is among the comparison claims.
func (a *Argument) HasComparison(cmp Comparison) bool {
	for _, c := range a.comparisons {
		if c == cmp {
			return true
		}
	}
	return false
}

func (a *Argument) value(c core.Criterion) (CoupleValue, bool) {
	for _, v := range a.values {
		if v.Criterion == c {
			return v, true
		}
	}
	return CoupleValue{}, false
}
