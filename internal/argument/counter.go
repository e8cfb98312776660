package argument

import (
	"fmt"

	"github.com/alienxp03/parley/internal/core"
	"github.com/alienxp03/parley/internal/preference"
)

// Counter looks for a rebuttal of an opponent claim under model. A nil claim
// with a nil error means no rebuttal exists and the agent has to concede.
//
// The checks run in order: a higher ranked counter-example alternative, a
// contradicted comparison, a contradicted grade on the same criterion, and
// finally a contradicted grade on a criterion the agent ranks above the
// disputed one.
func Counter(claim Claim, model *preference.Model) (*Claim, error) {
	target := claim.Alternative
	if _, err := model.Alternative(target); err != nil {
		return nil, fmt.Errorf("failed to counter %q: %w", claim.Encode(), err)
	}

	// A favorable claim is contradicted by an unfavorable grade and vice versa.
	contradicts := func(g core.Grade) bool {
		return !claim.Polarity.admits(g)
	}

	focus := claim.Value.Criterion
	if claim.Comparison != nil {
		focus = claim.Comparison.Better
	}

	own, err := model.Grade(target, focus)
	if err != nil {
		return nil, err
	}
	better, err := model.HasBetterAlternative(target, focus, own, claim.Polarity == Support)
	if err != nil {
		return nil, err
	}
	if better != nil {
		g, err := model.Grade(better.ID, focus)
		if err != nil {
			return nil, err
		}
		return &Claim{
			Polarity:    Support,
			Alternative: better.ID,
			Value:       CoupleValue{Criterion: focus, Grade: g},
		}, nil
	}

	if cmp := claim.Comparison; cmp != nil {
		flipped, err := model.Prefers(cmp.Worse, cmp.Better)
		if err != nil {
			return nil, err
		}
		if flipped {
			g, err := model.Grade(target, cmp.Worse)
			if err != nil {
				return nil, err
			}
			if contradicts(g) {
				return &Claim{
					Polarity:    claim.Polarity.Negate(),
					Alternative: target,
					Value:       CoupleValue{Criterion: cmp.Worse, Grade: g},
					Comparison:  &Comparison{Better: cmp.Worse, Worse: cmp.Better},
				}, nil
			}
		}
	} else {
		g, err := model.Grade(target, claim.Value.Criterion)
		if err != nil {
			return nil, err
		}
		if contradicts(g) {
			return &Claim{
				Polarity:    claim.Polarity.Negate(),
				Alternative: target,
				Value:       CoupleValue{Criterion: claim.Value.Criterion, Grade: g},
			}, nil
		}
	}

	disputed := claim.Value.Criterion
	for _, c := range model.Ranking() {
		if c == disputed {
			break
		}
		g, err := model.Grade(target, c)
		if err != nil {
			return nil, err
		}
		if contradicts(g) {
			return &Claim{
				Polarity:    claim.Polarity.Negate(),
				Alternative: target,
				Value:       CoupleValue{Criterion: c, Grade: g},
				Comparison:  &Comparison{Better: c, Worse: disputed},
			}, nil
		}
	}

	return nil, nil
}
