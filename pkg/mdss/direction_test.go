package mdss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("under")
	require.NoError(t, err)
	assert.Equal(t, UnderPrediction, d)

	d, err = ParseDirection("over")
	require.NoError(t, err)
	assert.Equal(t, OverPrediction, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "under", UnderPrediction.String())
	assert.Equal(t, "over", OverPrediction.String())
}
