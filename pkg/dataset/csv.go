package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// LoadOptions name the reserved columns of a CSV source and, optionally,
// restrict which of the remaining columns become features.
type LoadOptions struct {
	// OutcomeColumn holds the observed binary outcome (0/1).
	OutcomeColumn string

	// ProbabilityColumn holds the classifier's predicted probability
	// for the positive class.
	ProbabilityColumn string

	// FeatureColumns, when non-empty, selects the feature columns.
	// Otherwise every non-reserved column is a feature.
	FeatureColumns []string
}

// LoadCSV reads a header-driven CSV file into a Dataset.
func LoadCSV(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset: %s", path)
	}
	defer f.Close()

	d, err := ReadCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset: %s", path)
	}
	return d, nil
}

// ReadCSV parses CSV content from a reader. The first record is the
// header; all rows must have the header's width.
func ReadCSV(r io.Reader, opts LoadOptions) (*Dataset, error) {
	if opts.OutcomeColumn == "" || opts.ProbabilityColumn == "" {
		return nil, errors.New("outcome and probability column names are required")
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	outcomeIdx, ok := index[opts.OutcomeColumn]
	if !ok {
		return nil, errors.Errorf("outcome column %q not in header", opts.OutcomeColumn)
	}
	probIdx, ok := index[opts.ProbabilityColumn]
	if !ok {
		return nil, errors.Errorf("probability column %q not in header", opts.ProbabilityColumn)
	}

	featureNames := opts.FeatureColumns
	if len(featureNames) == 0 {
		for _, name := range header {
			if name != opts.OutcomeColumn && name != opts.ProbabilityColumn {
				featureNames = append(featureNames, name)
			}
		}
	}
	featureIdx := make(map[string]int, len(featureNames))
	for _, name := range featureNames {
		i, ok := index[name]
		if !ok {
			return nil, errors.Errorf("feature column %q not in header", name)
		}
		if i == outcomeIdx || i == probIdx {
			return nil, errors.Errorf("column %q cannot be both a feature and a reserved column", name)
		}
		featureIdx[name] = i
	}
	if len(featureIdx) == 0 {
		return nil, errors.New("no feature columns found")
	}

	var outcomes []int
	var probs []float64
	features := make(map[string][]string, len(featureIdx))

	row := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV row %d", row+1)
		}

		y, err := parseOutcome(rec[outcomeIdx])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", row+1)
		}
		p, err := strconv.ParseFloat(rec[probIdx], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d has invalid probability %q", row+1, rec[probIdx])
		}

		outcomes = append(outcomes, y)
		probs = append(probs, p)
		for name, i := range featureIdx {
			features[name] = append(features[name], rec[i])
		}
		row++
	}
	if row == 0 {
		return nil, errors.New("dataset has no rows")
	}

	return New(outcomes, probs, features)
}
