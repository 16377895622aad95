package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairlens/fairscan/pkg/mdss"
)

func testResult() *Result {
	return &Result{
		Dataset:              "testdata/scores.csv",
		Direction:            "under",
		Penalty:              1e-6,
		Restarts:             10,
		MaxPasses:            10,
		Seed:                 1,
		Score:                4.83,
		Subgroup:             mdss.Subgroup{"age": []string{"young"}},
		MatchedRows:          12,
		GroupPositiveRate:    1.0,
		GroupMeanProbability: 0.2,
		RestPositiveRate:     0.5,
	}
}

func TestSaveResult_NilDB(t *testing.T) {
	_, err := SaveResult(nil, testResult())
	assert.Error(t, err)
}

func TestSaveResult_NilResult(t *testing.T) {
	db := setupTestDB(t)
	_, err := SaveResult(db, nil)
	assert.Error(t, err)
}

func TestSaveResult_RoundTrip(t *testing.T) {
	db := setupTestDB(t)

	id, err := SaveResult(db, testResult())
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := GetResult(db, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "testdata/scores.csv", got.Dataset)
	assert.Equal(t, "under", got.Direction)
	assert.Equal(t, mdss.Subgroup{"age": []string{"young"}}, got.Subgroup)
	assert.InDelta(t, 4.83, got.Score, 1e-12)
	assert.Equal(t, 12, got.MatchedRows)
	assert.False(t, got.Created.IsZero())
}

func TestGetResult_NotFound(t *testing.T) {
	db := setupTestDB(t)
	got, err := GetResult(db, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetResult_NilDB(t *testing.T) {
	_, err := GetResult(nil, 1)
	assert.Error(t, err)
}

func TestListResults_Empty(t *testing.T) {
	db := setupTestDB(t)
	list, err := ListResults(db, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListResults_NewestFirst(t *testing.T) {
	db := setupTestDB(t)

	older := testResult()
	older.Created = time.Now().UTC().Add(-time.Hour)
	newer := testResult()
	newer.Score = 9.99

	_, err := SaveResult(db, older)
	require.NoError(t, err)
	_, err = SaveResult(db, newer)
	require.NoError(t, err)

	list, err := ListResults(db, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.InDelta(t, 9.99, list[0].Score, 1e-12)
}

func TestListResults_Limit(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 5; i++ {
		_, err := SaveResult(db, testResult())
		require.NoError(t, err)
	}

	list, err := ListResults(db, 3)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestListResults_InvalidLimit(t *testing.T) {
	db := setupTestDB(t)
	_, err := ListResults(db, 0)
	assert.Error(t, err)
}
