// Package preference implements an agent's private, ordinal preference model:
// a ranking of the decision criteria plus per-criterion thresholds that grade
// every alternative of the catalog.
package preference

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/alienxp03/parley/internal/core"
)

// Model is one agent's preference model. It is owned by a single agent and is
// only mutated through Evaluate.
type Model struct {
	ranking    []core.Criterion
	position   [core.NumCriteria]int // criterion -> index in ranking
	thresholds [core.NumCriteria]core.CriterionThreshold

	alternatives []core.Alternative
	index        map[string]int // alternative id -> index in alternatives
	grades       [][core.NumCriteria]core.Grade
	scores       []int
	ranked       []int // indices into alternatives, score descending, stable
}

// New builds a model from an explicit ranking and thresholds, then evaluates
// the given alternatives.
func New(alternatives []core.Alternative, ranking []core.Criterion, thresholds []core.CriterionThreshold) (*Model, error) {
	m := &Model{}
	if err := m.setRanking(ranking); err != nil {
		return nil, err
	}
	if err := m.setThresholds(thresholds); err != nil {
		return nil, err
	}
	if err := m.Evaluate(alternatives); err != nil {
		return nil, err
	}
	return m, nil
}

// NewRandom draws a uniformly random ranking and random thresholds from rng.
func NewRandom(alternatives []core.Alternative, rng *rand.Rand) (*Model, error) {
	ranking := RandomRanking(rng)
	return New(alternatives, ranking, RandomThresholds(rng))
}

// NewWithRanking keeps a fixed ranking and only draws thresholds from rng.
func NewWithRanking(alternatives []core.Alternative, ranking []core.Criterion, rng *rand.Rand) (*Model, error) {
	return New(alternatives, ranking, RandomThresholds(rng))
}

func (m *Model) setRanking(ranking []core.Criterion) error {
	if err := ValidateRanking(ranking); err != nil {
		return err
	}
	m.ranking = append([]core.Criterion(nil), ranking...)
	for i, c := range m.ranking {
		m.position[c] = i
	}
	return nil
}

func (m *Model) setThresholds(thresholds []core.CriterionThreshold) error {
	var seen [core.NumCriteria]bool
	for _, t := range thresholds {
		if !t.Criterion.Valid() {
			return fmt.Errorf("%w: unknown criterion %d", core.ErrInvalidThresholds, int(t.Criterion))
		}
		if seen[t.Criterion] {
			return fmt.Errorf("%w: duplicate thresholds for %s", core.ErrInvalidThresholds, t.Criterion)
		}
		if !t.Monotonic() {
			return fmt.Errorf("%w: cuts %v for %s are not monotonic", core.ErrInvalidThresholds, t.Cuts, t.Criterion)
		}
		seen[t.Criterion] = true
		m.thresholds[t.Criterion] = t
	}
	for _, c := range core.Criteria() {
		if !seen[c] {
			return fmt.Errorf("%w: missing thresholds for %s", core.ErrInvalidThresholds, c)
		}
	}
	return nil
}

// ValidateRanking checks that ranking is a permutation of the criterion set.
func ValidateRanking(ranking []core.Criterion) error {
	if len(ranking) != core.NumCriteria {
		return fmt.Errorf("%w: got %d criteria, want %d", core.ErrInvalidRanking, len(ranking), core.NumCriteria)
	}
	var seen [core.NumCriteria]bool
	for _, c := range ranking {
		if !c.Valid() {
			return fmt.Errorf("%w: %w", core.ErrInvalidRanking, core.ErrInvalidCriterion)
		}
		if seen[c] {
			return fmt.Errorf("%w: %s listed twice", core.ErrInvalidRanking, c)
		}
		seen[c] = true
	}
	return nil
}

// Evaluate replaces the evaluated alternative set and recomputes the grade
// table, the scores and the score-descending order.
func (m *Model) Evaluate(alternatives []core.Alternative) error {
	index := make(map[string]int, len(alternatives))
	for i, alt := range alternatives {
		if _, dup := index[alt.ID]; dup {
			return fmt.Errorf("duplicate alternative id %q", alt.ID)
		}
		index[alt.ID] = i
	}

	grades := make([][core.NumCriteria]core.Grade, len(alternatives))
	scores := make([]int, len(alternatives))
	for i, alt := range alternatives {
		for _, c := range core.Criteria() {
			v, _ := alt.Value(c)
			g := m.thresholds[c].GradeOf(v)
			grades[i][c] = g
			scores[i] += int(g) * m.weight(c)
		}
	}

	ranked := make([]int, len(alternatives))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return scores[ranked[a]] > scores[ranked[b]]
	})

	m.alternatives = append([]core.Alternative(nil), alternatives...)
	m.index = index
	m.grades = grades
	m.scores = scores
	m.ranked = ranked
	return nil
}

// weight gives the most important criterion weight NumCriteria and the least
// important weight 1.
func (m *Model) weight(c core.Criterion) int {
	return core.NumCriteria - m.position[c]
}

func (m *Model) lookup(id string) (int, error) {
	i, ok := m.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", core.ErrAlternativeNotFound, id)
	}
	return i, nil
}

// Ranking returns a copy of the criterion ranking, most important first.
func (m *Model) Ranking() []core.Criterion {
	return append([]core.Criterion(nil), m.ranking...)
}

// Thresholds returns the thresholds in canonical criterion order.
func (m *Model) Thresholds() []core.CriterionThreshold {
	out := make([]core.CriterionThreshold, core.NumCriteria)
	copy(out, m.thresholds[:])
	return out
}

// Alternatives returns the evaluated alternatives in catalog order.
func (m *Model) Alternatives() []core.Alternative {
	return append([]core.Alternative(nil), m.alternatives...)
}

// Alternative returns the evaluated alternative with the given id.
func (m *Model) Alternative(id string) (core.Alternative, error) {
	i, err := m.lookup(id)
	if err != nil {
		return core.Alternative{}, err
	}
	return m.alternatives[i], nil
}

// Grade returns the grade of alternative id on criterion c.
func (m *Model) Grade(id string, c core.Criterion) (core.Grade, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %d", core.ErrInvalidCriterion, int(c))
	}
	i, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	return m.grades[i][c], nil
}

// Prefers reports whether c1 is ranked before c2.
func (m *Model) Prefers(c1, c2 core.Criterion) (bool, error) {
	if !c1.Valid() || !c2.Valid() {
		return false, fmt.Errorf("%w: comparing %d and %d", core.ErrInvalidCriterion, int(c1), int(c2))
	}
	return m.position[c1] < m.position[c2], nil
}

// Position returns the 0-based position of c in the ranking.
func (m *Model) Position(c core.Criterion) int {
	return m.position[c]
}

// Score returns the aggregate score of alternative id.
func (m *Model) Score(id string) (int, error) {
	i, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	return m.scores[i], nil
}

// Ranked returns the evaluated alternatives ordered by descending score.
// Ties keep catalog order.
func (m *Model) Ranked() []core.Alternative {
	out := make([]core.Alternative, len(m.ranked))
	for i, idx := range m.ranked {
		out[i] = m.alternatives[idx]
	}
	return out
}

// RankOf returns the 0-based position of alternative id in the score order.
func (m *Model) RankOf(id string) (int, error) {
	i, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	for pos, idx := range m.ranked {
		if idx == i {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", core.ErrAlternativeNotFound, id)
}

// MostPreferred returns the alternative with the highest score.
func (m *Model) MostPreferred() (core.Alternative, error) {
	if len(m.ranked) == 0 {
		return core.Alternative{}, fmt.Errorf("%w: no alternatives evaluated", core.ErrAlternativeNotFound)
	}
	return m.alternatives[m.ranked[0]], nil
}

// IsTopDecile reports whether alternative id ranks within the first
// floor(0.1*n)+1 positions of the score order.
func (m *Model) IsTopDecile(id string) (bool, error) {
	pos, err := m.RankOf(id)
	if err != nil {
		return false, err
	}
	cutoff := int(0.1*float64(len(m.ranked))) + 1
	return pos < cutoff, nil
}

// HasBetterAlternative scans the alternatives ranked strictly above id and
// returns the first whose grade on c is strictly greater than g (seekingHigher)
// or strictly lower (otherwise). It returns nil when there is none.
func (m *Model) HasBetterAlternative(id string, c core.Criterion, g core.Grade, seekingHigher bool) (*core.Alternative, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidCriterion, int(c))
	}
	pos, err := m.RankOf(id)
	if err != nil {
		return nil, err
	}
	for _, idx := range m.ranked[:pos] {
		candidate := m.grades[idx][c]
		if (seekingHigher && candidate > g) || (!seekingHigher && candidate < g) {
			alt := m.alternatives[idx]
			return &alt, nil
		}
	}
	return nil, nil
}
