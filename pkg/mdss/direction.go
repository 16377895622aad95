package mdss

import "fmt"

// Direction selects which kind of model bias a scan or score tests for.
type Direction int

const (
	// UnderPrediction tests for subgroups whose observed outcomes exceed
	// the model's predictions (odds multiplier q >= 1).
	UnderPrediction Direction = iota

	// OverPrediction tests for subgroups the model favors: observed
	// outcomes fall below the model's predictions. Internally scored by
	// complementing outcomes and probabilities so the solver always works
	// on q >= 1.
	OverPrediction
)

const (
	directionUnder = "under"
	directionOver  = "over"
)

func (d Direction) String() string {
	if d == OverPrediction {
		return directionOver
	}
	return directionUnder
}

// ParseDirection converts a string flag value to a Direction.
func ParseDirection(val string) (Direction, error) {
	switch val {
	case directionUnder, "underestimated":
		return UnderPrediction, nil
	case directionOver, "overestimated":
		return OverPrediction, nil
	default:
		return UnderPrediction, fmt.Errorf("invalid direction: %q (expected %q or %q)", val, directionUnder, directionOver)
	}
}
