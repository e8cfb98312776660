package core

import "errors"

// Sentinel errors shared by the negotiation packages. Callers wrap them with
// context and match with errors.Is.
var (
	// ErrAlternativeNotFound is returned when an alternative id is not part of
	// the catalog an agent knows.
	ErrAlternativeNotFound = errors.New("alternative not found")

	// ErrMalformedArgument is returned when wire content does not match the
	// argument grammar.
	ErrMalformedArgument = errors.New("malformed argument")

	// ErrInvalidCriterion is returned for criterion tokens outside the fixed set.
	ErrInvalidCriterion = errors.New("invalid criterion")

	// ErrInvalidGrade is returned for grade tokens outside the scale.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrInvalidRanking is returned when a criterion ranking is not a
	// permutation of the criterion set.
	ErrInvalidRanking = errors.New("invalid criterion ranking")

	// ErrInvalidThresholds is returned when threshold cut points are missing
	// or not monotonic in the criterion's direction.
	ErrInvalidThresholds = errors.New("invalid thresholds")
)
