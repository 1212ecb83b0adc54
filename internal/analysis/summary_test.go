package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "abstat/internal/errors"
)

func TestSummarize_MeanAndSampleStdDev(t *testing.T) {
	s, err := Summarize("test", []float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)

	assert.Equal(t, 8, s.SampleSize)
	assert.InDelta(t, 5.0, s.Value, 1e-12)
	// population sd is 2; sample sd is 2*sqrt(8/7)
	assert.InDelta(t, 2.138089935299395, s.StdDev, 1e-12)
}

func TestSummarize_SingleObservation(t *testing.T) {
	s, err := Summarize("control", []float64{42})
	require.NoError(t, err)

	assert.Equal(t, 1, s.SampleSize)
	assert.Equal(t, 42.0, s.Value)
	assert.Equal(t, 0.0, s.StdDev)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize("control", nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParameter))
	assert.Equal(t, "control.observations", apperrors.GetField(err))
}

func TestSummarizeBinary(t *testing.T) {
	s, err := SummarizeBinary("test", []float64{1, 0, 0, 1, 1})
	require.NoError(t, err)

	assert.Equal(t, 5, s.SampleSize)
	assert.InDelta(t, 0.6, s.Value, 1e-12)
}

func TestSummarizeBinary_RejectsNonBinary(t *testing.T) {
	_, err := SummarizeBinary("test", []float64{1, 0, 0.5})

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParameter))
}
