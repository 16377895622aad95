package mdss

// qSolver locates the maximizer of the profile log-likelihood on [1, inf)
// given its derivative. Kept behind an interface so the likelihood formula
// in the scorer stays independently testable.
type qSolver interface {
	// maximize returns the maximizing q and whether a bracket around the
	// stationary point was established. When bracketed is false the
	// returned q is the furthest boundary probed and the caller falls
	// back to boundary evaluation.
	maximize(deriv func(float64) float64) (q float64, bracketed bool)
}

const (
	solverTolDefault       = 1e-9
	solverDoublingsDefault = 60
)

// bisectionSolver bisects the derivative on an expanding bracket. The
// derivative is strictly decreasing past the stationary point, so a sign
// change pins the maximizer.
type bisectionSolver struct {
	tol       float64
	doublings int
}

func newBisectionSolver() bisectionSolver {
	return bisectionSolver{tol: solverTolDefault, doublings: solverDoublingsDefault}
}

func (s bisectionSolver) maximize(deriv func(float64) float64) (float64, bool) {
	lo := 1.0
	if deriv(lo) <= 0 {
		// Unconstrained optimum is at or below the domain boundary.
		return lo, true
	}

	hi := 2.0
	bracketed := false
	for i := 0; i < s.doublings; i++ {
		if deriv(hi) < 0 {
			bracketed = true
			break
		}
		lo = hi
		hi *= 2
	}
	if !bracketed {
		return hi, false
	}

	for hi-lo > s.tol*hi {
		mid := lo + (hi-lo)/2
		if deriv(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo + (hi-lo)/2, true
}
