package argument

import "github.com/alienxp03/parley/internal/core"

// SelectBestPremise picks the strongest unused couple value of a.
//
// Without an opponent criterion it takes the claim on the highest ranked
// criterion and pairs it with the comparison against the next criterion in
// the ranking. With one, it takes the first claim ranked above the
// opponent's criterion and pairs it with (chosen, opponent). Both results are
// nil when nothing is left or nothing outranks the opponent.
func SelectBestPremise(a *Argument, opponent *core.Criterion) (*Comparison, *CoupleValue) {
	if len(a.values) == 0 {
		return nil, nil
	}

	if opponent == nil {
		for i, c := range a.ranking {
			cv, ok := a.value(c)
			if !ok {
				continue
			}
			if i+1 < len(a.ranking) {
				cmp := Comparison{Better: c, Worse: a.ranking[i+1]}
				if a.HasComparison(cmp) {
					return &cmp, &cv
				}
			}
			return nil, &cv
		}
		return nil, nil
	}

	for _, c := range a.ranking {
		if c == *opponent {
			return nil, nil
		}
		cv, ok := a.value(c)
		if !ok {
			continue
		}
		cmp := Comparison{Better: c, Worse: *opponent}
		if a.HasComparison(cmp) {
			return &cmp, &cv
		}
		return nil, &cv
	}
	return nil, nil
}
