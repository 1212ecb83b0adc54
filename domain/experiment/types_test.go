package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTestKind(t *testing.T) {
	k, err := ParseTestKind(" Proportion ")
	require.NoError(t, err)
	assert.Equal(t, TestKindProportion, k)

	k, err = ParseTestKind("mean")
	require.NoError(t, err)
	assert.Equal(t, TestKindMean, k)

	_, err = ParseTestKind("median")
	assert.Error(t, err)
}

func TestParseTailKind(t *testing.T) {
	for in, want := range map[string]TailKind{
		"one":        TailOne,
		"Two":        TailTwo,
		"two-tailed": TailTwo,
		"one_tailed": TailOne,
	} {
		got, err := ParseTailKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTailKind("three")
	assert.Error(t, err)
}

func TestParseOneTailedMode(t *testing.T) {
	m, err := ParseOneTailedMode("")
	require.NoError(t, err)
	assert.Equal(t, DirectionAgnostic, m)

	m, err = ParseOneTailedMode("directional")
	require.NoError(t, err)
	assert.Equal(t, Directional, m)

	_, err = ParseOneTailedMode("sideways")
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Proportion", TestKindProportion.Label())
	assert.Equal(t, "Mean", TestKindMean.Label())
	assert.Equal(t, "Two-tailed", TailTwo.Label())
	assert.Equal(t, "One-tailed", TailOne.Label())
	assert.True(t, TailOne.Valid())
	assert.False(t, TailKind("").Valid())
}
