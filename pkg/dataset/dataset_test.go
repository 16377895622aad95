package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairlens/fairscan/pkg/mdss"
)

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	d, err := New(
		[]int{1, 1, 0, 0},
		[]float64{0.2, 0.3, 0.8, 0.7},
		map[string][]string{
			"age":    {"young", "young", "old", "old"},
			"region": {"north", "south", "north", "south"},
		},
	)
	require.NoError(t, err)
	return d
}

func TestNew_Valid(t *testing.T) {
	d := testDataset(t)
	assert.Equal(t, 4, d.Len())
	assert.Equal(t, []string{"age", "region"}, d.Features())
	assert.Equal(t, []string{"old", "young"}, d.Domain("age"))
	assert.Equal(t, "north", d.Value("region", 0))
	assert.Equal(t, 1, d.Outcome(0))
	assert.Equal(t, 0.2, d.Probability(0))
}

func TestNew_LengthMismatch(t *testing.T) {
	_, err := New([]int{1}, []float64{0.5, 0.5}, map[string][]string{"f": {"a"}})
	assert.Error(t, err)

	_, err = New([]int{1, 0}, []float64{0.5, 0.5}, map[string][]string{"f": {"a"}})
	assert.Error(t, err)
}

func TestNew_InvalidOutcome(t *testing.T) {
	_, err := New([]int{2}, []float64{0.5}, map[string][]string{"f": {"a"}})
	assert.Error(t, err)
}

func TestNew_NoFeatures(t *testing.T) {
	_, err := New([]int{1}, []float64{0.5}, nil)
	assert.Error(t, err)
}

func TestMatchIndices(t *testing.T) {
	d := testDataset(t)

	assert.Equal(t, []int{0, 1}, d.MatchIndices(mdss.Subgroup{"age": []string{"young"}}))
	assert.Equal(t, []int{0}, d.MatchIndices(mdss.Subgroup{
		"age":    []string{"young"},
		"region": []string{"north"},
	}))

	// The empty subgroup matches everything.
	assert.Len(t, d.MatchIndices(mdss.Subgroup{}), 4)

	// An unknown value matches nothing.
	assert.Empty(t, d.MatchIndices(mdss.Subgroup{"age": []string{"ancient"}}))
}

func TestSlice(t *testing.T) {
	d := testDataset(t)
	ys, ps := d.Slice([]int{0, 2})
	assert.Equal(t, []int{1, 0}, ys)
	assert.Equal(t, []float64{0.2, 0.8}, ps)
}

func TestSummary(t *testing.T) {
	d := testDataset(t)
	s := d.Summary()
	assert.Equal(t, 4, s.Rows)
	assert.InDelta(t, 0.5, s.PositiveRate, 1e-12)
	assert.InDelta(t, 0.5, s.MeanProbability, 1e-12)
}

func TestRowStats_Empty(t *testing.T) {
	d := testDataset(t)
	assert.Equal(t, Stats{}, d.RowStats(nil))
}

func TestReadCSV_Valid(t *testing.T) {
	src := strings.Join([]string{
		"age,region,label,prob",
		"young,north,1,0.2",
		"young,south,1,0.3",
		"old,north,0,0.8",
	}, "\n")

	d, err := ReadCSV(strings.NewReader(src), LoadOptions{
		OutcomeColumn:     "label",
		ProbabilityColumn: "prob",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, []string{"age", "region"}, d.Features())
	assert.Equal(t, 1, d.Outcome(0))
	assert.Equal(t, 0.8, d.Probability(2))
}

func TestReadCSV_ExplicitFeatures(t *testing.T) {
	src := strings.Join([]string{
		"id,age,label,prob",
		"r1,young,1,0.2",
		"r2,old,0,0.8",
	}, "\n")

	d, err := ReadCSV(strings.NewReader(src), LoadOptions{
		OutcomeColumn:     "label",
		ProbabilityColumn: "prob",
		FeatureColumns:    []string{"age"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, d.Features())
}

func TestReadCSV_Errors(t *testing.T) {
	valid := "age,label,prob\nyoung,1,0.2"

	cases := []struct {
		name string
		src  string
		opts LoadOptions
	}{
		{"missing options", valid, LoadOptions{}},
		{"missing outcome column", valid, LoadOptions{OutcomeColumn: "nope", ProbabilityColumn: "prob"}},
		{"missing probability column", valid, LoadOptions{OutcomeColumn: "label", ProbabilityColumn: "nope"}},
		{"unknown feature", valid, LoadOptions{OutcomeColumn: "label", ProbabilityColumn: "prob", FeatureColumns: []string{"nope"}}},
		{"reserved as feature", valid, LoadOptions{OutcomeColumn: "label", ProbabilityColumn: "prob", FeatureColumns: []string{"label"}}},
		{"bad outcome", "age,label,prob\nyoung,5,0.2", LoadOptions{OutcomeColumn: "label", ProbabilityColumn: "prob"}},
		{"bad probability", "age,label,prob\nyoung,1,abc", LoadOptions{OutcomeColumn: "label", ProbabilityColumn: "prob"}},
		{"no rows", "age,label,prob", LoadOptions{OutcomeColumn: "label", ProbabilityColumn: "prob"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.src), tc.opts)
			assert.Error(t, err)
		})
	}
}

func TestLoadCSV_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	src := "age,label,prob\nyoung,1,0.2\nold,0,0.8\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))

	d, err := LoadCSV(path, LoadOptions{OutcomeColumn: "label", ProbabilityColumn: "prob"})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV("/does/not/exist.csv", LoadOptions{OutcomeColumn: "label", ProbabilityColumn: "prob"})
	assert.Error(t, err)
}
