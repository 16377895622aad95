// Package mdss implements multi-dimensional subset scan bias auditing:
// a Bernoulli likelihood-ratio score for a fixed subgroup's predictions,
// and a linear-time-subset-scanning search for the most anomalous
// subgroup of a discretized dataset.
package mdss

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// BernoulliScorer computes the bias score of a fixed subgroup: the
// log-likelihood ratio of a multiplicative-odds alternative against the
// model's own predictions, maximized over the odds multiplier q.
//
// Under the null, the odds of y_i are p_i/(1-p_i). Under the alternative
// every member's odds are multiplied by a constant q >= 1, giving
//
//	L(q) = log(q)*sum(y_i) - sum(log(1 - p_i + q*p_i))
//
// The score is L(q*) and is always >= 0 since q=1 recovers the null.
type BernoulliScorer struct {
	solver qSolver
}

func NewBernoulliScorer() *BernoulliScorer {
	return &BernoulliScorer{solver: newBisectionSolver()}
}

// Score computes the bias score for the subgroup slice given by the
// parallel outcome and probability sequences. Direction selects whether
// the alternative models under- or over-prediction; the opposite
// direction is scored on the complemented data so the optimization is
// always over q >= 1.
func (s *BernoulliScorer) Score(outcomes []int, probabilities []float64, dir Direction) (float64, error) {
	if len(outcomes) != len(probabilities) {
		return 0, fmt.Errorf("outcomes (%d) and probabilities (%d) must be the same length", len(outcomes), len(probabilities))
	}
	if len(outcomes) == 0 {
		return 0, ErrEmptySubgroup
	}
	ys, ps, err := orient(outcomes, probabilities, dir)
	if err != nil {
		return 0, err
	}
	return s.scoreOriented(ys, ps)
}

// scoreOriented scores already-oriented data: outcomes as floats, and
// both sequences flipped when the scan direction calls for it. The empty
// slice is the caller's problem; Score guards it for the public contract.
func (s *BernoulliScorer) scoreOriented(ys, ps []float64) (float64, error) {
	sumY := floats.Sum(ys)
	sumP := floats.Sum(ps)

	// dL/dq at q=1 is sum(y) - sum(p). A non-positive slope means the
	// constrained optimum sits on the boundary q=1, where L=0.
	if sumY-sumP <= 0 {
		return 0, nil
	}

	deriv := func(q float64) float64 {
		d := sumY / q
		for _, p := range ps {
			d -= p / (1 - p + q*p)
		}
		return d
	}

	q, bracketed := s.solver.maximize(deriv)
	score := likelihoodRatio(q, sumY, ps)
	if !bracketed {
		// Bracket never closed: compare the furthest probed boundary
		// against the null, which concavity makes safe.
		score = math.Max(0, score)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, ErrNumericalOptimization
	}
	if score < 0 {
		score = 0
	}
	return score, nil
}

// likelihoodRatio evaluates L(q) for the oriented subgroup.
func likelihoodRatio(q, sumY float64, ps []float64) float64 {
	llr := math.Log(q) * sumY
	for _, p := range ps {
		llr -= math.Log(1 - p + q*p)
	}
	return llr
}

// orient converts outcomes to floats and, for the over-prediction
// direction, complements both sequences so that the alternative is always
// "higher odds than predicted". Probabilities at exactly 0 or 1 are
// rejected here, before any log is taken.
func orient(outcomes []int, probabilities []float64, dir Direction) (ys, ps []float64, err error) {
	ys = make([]float64, len(outcomes))
	ps = make([]float64, len(probabilities))
	for i, p := range probabilities {
		if p <= 0 || p >= 1 {
			return nil, nil, fmt.Errorf("row %d has probability %f: %w", i, p, ErrDegenerateProbability)
		}
		y := outcomes[i]
		if y != 0 && y != 1 {
			return nil, nil, fmt.Errorf("row %d has outcome %d, expected 0 or 1", i, y)
		}
		if dir == OverPrediction {
			ys[i] = float64(1 - y)
			ps[i] = 1 - p
		} else {
			ys[i] = float64(y)
			ps[i] = p
		}
	}
	return ys, ps, nil
}
