package argument

import (
	"fmt"
	"strings"

	"github.com/alienxp03/parley/internal/core"
)

const (
	attackPrefix   = "NOT "
	idSeparator    = ", "
	valueSeparator = " = "
	andSeparator   = " and "
	cmpSeparator   = " > "
)

// Claim is a single justification as it travels between agents:
// "[NOT ]<id>, <criterion> = <grade>[ and <criterion> > <criterion>]".
type Claim struct {
	Polarity    Polarity
	Alternative string
	Value       CoupleValue
	Comparison  *Comparison
}

// Encode renders the claim in wire form.
func (c Claim) Encode() string {
	var b strings.Builder
	if c.Polarity == Attack {
		b.WriteString(attackPrefix)
	}
	b.WriteString(c.Alternative)
	b.WriteString(idSeparator)
	b.WriteString(c.Value.String())
	if c.Comparison != nil {
		b.WriteString(andSeparator)
		b.WriteString(c.Comparison.String())
	}
	return b.String()
}

func (c Claim) String() string { return c.Encode() }

// Equal compares two claims by value, including the comparison.
func (c Claim) Equal(other Claim) bool {
	if c.Polarity != other.Polarity || c.Alternative != other.Alternative || c.Value != other.Value {
		return false
	}
	if c.Comparison == nil || other.Comparison == nil {
		return c.Comparison == nil && other.Comparison == nil
	}
	return *c.Comparison == *other.Comparison
}

// Decode parses wire content. Criterion and grade tokens must be the exact
// canonical names. Grammar violations and unknown grades wrap
// core.ErrMalformedArgument; unknown criterion tokens wrap
// core.ErrInvalidCriterion.
func Decode(s string) (Claim, error) {
	var c Claim
	rest := s
	if strings.HasPrefix(rest, attackPrefix) {
		c.Polarity = Attack
		rest = strings.TrimPrefix(rest, attackPrefix)
	}

	idx := strings.LastIndex(rest, idSeparator)
	if idx <= 0 {
		return Claim{}, fmt.Errorf("%w: missing alternative in %q", core.ErrMalformedArgument, s)
	}
	c.Alternative = rest[:idx]
	rest = rest[idx+len(idSeparator):]

	parts := strings.Split(rest, andSeparator)
	if len(parts) > 2 {
		return Claim{}, fmt.Errorf("%w: too many premises in %q", core.ErrMalformedArgument, s)
	}

	value, err := decodeCoupleValue(parts[0])
	if err != nil {
		return Claim{}, fmt.Errorf("failed to decode %q: %w", s, err)
	}
	c.Value = value

	if len(parts) == 2 {
		cmp, err := decodeComparison(parts[1])
		if err != nil {
			return Claim{}, fmt.Errorf("failed to decode %q: %w", s, err)
		}
		c.Comparison = &cmp
	}
	return c, nil
}

func decodeCoupleValue(s string) (CoupleValue, error) {
	crit, grade, ok := strings.Cut(s, valueSeparator)
	if !ok {
		return CoupleValue{}, fmt.Errorf("%w: expected <criterion> = <grade>, got %q", core.ErrMalformedArgument, s)
	}
	c, err := core.LookupCriterion(crit)
	if err != nil {
		return CoupleValue{}, err
	}
	g, err := core.LookupGrade(grade)
	if err != nil {
		return CoupleValue{}, fmt.Errorf("%w: %w", core.ErrMalformedArgument, err)
	}
	return CoupleValue{Criterion: c, Grade: g}, nil
}

func decodeComparison(s string) (Comparison, error) {
	better, worse, ok := strings.Cut(s, cmpSeparator)
	if !ok {
		return Comparison{}, fmt.Errorf("%w: expected <criterion> > <criterion>, got %q", core.ErrMalformedArgument, s)
	}
	b, err := core.LookupCriterion(better)
	if err != nil {
		return Comparison{}, err
	}
	w, err := core.LookupCriterion(worse)
	if err != nil {
		return Comparison{}, err
	}
	if b == w {
		return Comparison{}, fmt.Errorf("%w: %s compared with itself", core.ErrMalformedArgument, b)
	}
	return Comparison{Better: b, Worse: w}, nil
}
