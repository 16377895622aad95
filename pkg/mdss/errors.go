package mdss

import "errors"

var (
	// ErrEmptySubgroup is returned when scoring is requested on a subgroup
	// with no members. The score is undefined on zero rows.
	ErrEmptySubgroup = errors.New("subgroup has no members")

	// ErrDegenerateProbability is returned when a predicted probability is
	// exactly 0 or 1. The log-likelihood diverges at the boundary.
	ErrDegenerateProbability = errors.New("predicted probability must be strictly between 0 and 1")

	// ErrEmptyDataset is returned when a scan is invoked on zero rows.
	ErrEmptyDataset = errors.New("dataset has no rows")

	// ErrNumericalOptimization is returned when the odds-multiplier
	// optimization fails and the boundary fallback does not produce a
	// finite score.
	ErrNumericalOptimization = errors.New("odds multiplier optimization failed")
)
