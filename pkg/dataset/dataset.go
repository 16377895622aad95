// Package dataset provides the discretized tabular view the bias scanner
// consumes: categorical feature columns aligned index-for-index with
// observed binary outcomes and predicted probabilities.
package dataset

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fairlens/fairscan/pkg/mdss"
)

// Dataset is an immutable observation set. Feature values are kept as
// strings; callers discretize continuous columns before loading.
type Dataset struct {
	names    []string
	cols     map[string][]string
	domains  map[string][]string
	outcomes []int
	probs    []float64
}

// New builds a Dataset from parallel columns. Every feature column must
// match the outcome/probability length; outcomes must be 0/1.
// Probability range is checked at scoring time, not here, so callers can
// assemble first and audit later.
func New(outcomes []int, probabilities []float64, features map[string][]string) (*Dataset, error) {
	if len(outcomes) != len(probabilities) {
		return nil, errors.Errorf("outcomes (%d) and probabilities (%d) must be the same length", len(outcomes), len(probabilities))
	}
	if len(features) == 0 {
		return nil, errors.New("at least one feature column is required")
	}
	for i, y := range outcomes {
		if y != 0 && y != 1 {
			return nil, errors.Errorf("row %d has outcome %d, expected 0 or 1", i, y)
		}
	}

	d := &Dataset{
		cols:     make(map[string][]string, len(features)),
		domains:  make(map[string][]string, len(features)),
		outcomes: append([]int(nil), outcomes...),
		probs:    append([]float64(nil), probabilities...),
	}
	for name, col := range features {
		if len(col) != len(outcomes) {
			return nil, errors.Errorf("feature %q has %d rows, expected %d", name, len(col), len(outcomes))
		}
		d.names = append(d.names, name)
		d.cols[name] = append([]string(nil), col...)
		d.domains[name] = distinct(col)
	}
	sort.Strings(d.names)
	return d, nil
}

func distinct(col []string) []string {
	seen := make(map[string]bool, len(col))
	var out []string
	for _, v := range col {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the row count.
func (d *Dataset) Len() int { return len(d.outcomes) }

// Features returns the feature names in a fixed, sorted order.
func (d *Dataset) Features() []string { return d.names }

// Domain returns the sorted distinct values of a feature.
func (d *Dataset) Domain(feature string) []string { return d.domains[feature] }

// Value returns the feature value at a row.
func (d *Dataset) Value(feature string, row int) string { return d.cols[feature][row] }

// Outcome returns the observed binary outcome at a row.
func (d *Dataset) Outcome(row int) int { return d.outcomes[row] }

// Probability returns the predicted probability at a row.
func (d *Dataset) Probability(row int) float64 { return d.probs[row] }

// MatchIndices returns the rows a subgroup admits, in row order.
func (d *Dataset) MatchIndices(sub mdss.Subgroup) []int {
	var rows []int
	for i := 0; i < d.Len(); i++ {
		ok := true
		for f := range sub {
			if !sub.Allows(f, d.cols[f][i]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	return rows
}

// Slice projects outcomes and probabilities onto the given rows, the
// shape the score function takes.
func (d *Dataset) Slice(rows []int) ([]int, []float64) {
	ys := make([]int, len(rows))
	ps := make([]float64, len(rows))
	for i, r := range rows {
		ys[i] = d.outcomes[r]
		ps[i] = d.probs[r]
	}
	return ys, ps
}

// Stats summarizes a set of rows for reporting.
type Stats struct {
	Rows            int     `json:"rows" yaml:"rows"`
	PositiveRate    float64 `json:"positive_rate" yaml:"positive_rate"`
	MeanProbability float64 `json:"mean_probability" yaml:"mean_probability"`
}

// Summary computes summary statistics over the whole dataset.
func (d *Dataset) Summary() Stats {
	rows := make([]int, d.Len())
	for i := range rows {
		rows[i] = i
	}
	return d.RowStats(rows)
}

// RowStats computes summary statistics over a row subset.
func (d *Dataset) RowStats(rows []int) Stats {
	if len(rows) == 0 {
		return Stats{}
	}
	ys, ps := d.Slice(rows)
	var positives float64
	for _, y := range ys {
		positives += float64(y)
	}
	return Stats{
		Rows:            len(rows),
		PositiveRate:    positives / float64(len(rows)),
		MeanProbability: stat.Mean(ps, nil),
	}
}

// TotalExpected returns the model's expected positive count over rows.
func (d *Dataset) TotalExpected(rows []int) float64 {
	_, ps := d.Slice(rows)
	return floats.Sum(ps)
}

func parseOutcome(val string) (int, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid outcome value: %q", val)
	}
	if f != 0 && f != 1 {
		return 0, errors.Errorf("outcome must be 0 or 1, got %q", val)
	}
	return int(f), nil
}
