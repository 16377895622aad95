package mdss

import (
	"math"
	"sort"
)

// valueStat carries the per-value aggregates the LTSS step ranks on:
// the rows a single feature value matches (restricted to the constraints
// on all other features), the observed positives, and the model's
// expected positives among those rows.
type valueStat struct {
	value    string
	rows     []int
	observed float64
	expected float64
}

// priority is the observed/expected ratio that orders values for the
// greedy inclusion step. Values matching no rows rank last.
func (v valueStat) priority() float64 {
	if v.expected == 0 {
		if v.observed > 0 {
			return v.observed
		}
		return 0
	}
	return v.observed / v.expected
}

// rankValues sorts value aggregates by descending priority, breaking ties
// on the value string so the scan stays deterministic.
func rankValues(stats []valueStat) []valueStat {
	ranked := make([]valueStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := ranked[i].priority(), ranked[j].priority()
		if pi != pj {
			return pi > pj
		}
		return ranked[i].value < ranked[j].value
	})
	return ranked
}

// prefixChoice is the outcome of one LTSS aggregation: the value subset
// picked for a feature and its locally-penalized score.
type prefixChoice struct {
	values    []string
	raw       float64
	penalized float64
}

// bestPrefix applies the LTSS aggregation: walk the ranked values in
// order, score each cumulative prefix, and keep the prefix maximizing the
// penalized score. The full-domain prefix carries no penalty because it
// is equivalent to dropping the constraint. Ties go to the shorter
// prefix, which keeps the search from cycling.
func bestPrefix(ranked []valueStat, penalty float64, score func(rows []int) (float64, error)) (prefixChoice, error) {
	best := prefixChoice{penalized: math.Inf(-1)}

	var rows []int
	for k := 1; k <= len(ranked); k++ {
		rows = append(rows, ranked[k-1].rows...)

		raw, err := score(rows)
		if err != nil {
			return prefixChoice{}, err
		}

		localPenalty := penalty * float64(k)
		if k == len(ranked) {
			localPenalty = 0
		}
		penalized := raw - localPenalty
		if penalized > best.penalized {
			values := make([]string, k)
			for i := 0; i < k; i++ {
				values[i] = ranked[i].value
			}
			sort.Strings(values)
			best = prefixChoice{values: values, raw: raw, penalized: penalized}
		}
	}
	return best, nil
}
