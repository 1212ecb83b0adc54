package samplesize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abstat/domain/experiment"
	apperrors "abstat/internal/errors"
)

// TestForProportions_EmailCampaign: 10% -> 15% click-through, 95% confidence, 80% power, 50/50
func TestForProportions_EmailCampaign(t *testing.T) {
	n, err := ForProportions(0.10, 0.15, 0.05, 0.8, 0.5, experiment.TailTwo)
	require.NoError(t, err)

	// (1.95996+0.84162)² · 0.2175 / 0.0025 = 682.85 per unit allocation, / 0.25
	assert.Equal(t, 2732, n)
}

// TestForMeans_PricingStrategy: +$5 spend, sigma $20, one-tailed
func TestForMeans_PricingStrategy(t *testing.T) {
	n, err := ForMeans(5, 20, 0.05, 0.8, 0.5, experiment.TailOne)
	require.NoError(t, err)

	// 2·400·(1.64485+0.84162)² / 25 = 197.84, / 0.25
	assert.Equal(t, 792, n)
}

func TestForProportions_DirectionDoesNotMatter(t *testing.T) {
	up, err := ForProportions(0.10, 0.15, 0.05, 0.8, 0.5, experiment.TailTwo)
	require.NoError(t, err)
	down, err := ForProportions(0.15, 0.10, 0.05, 0.8, 0.5, experiment.TailTwo)
	require.NoError(t, err)

	assert.Equal(t, up, down)
}

func TestForMeans_NegativeDelta(t *testing.T) {
	pos, err := ForMeans(5, 20, 0.05, 0.8, 0.5, experiment.TailTwo)
	require.NoError(t, err)
	neg, err := ForMeans(-5, 20, 0.05, 0.8, 0.5, experiment.TailTwo)
	require.NoError(t, err)

	assert.Equal(t, pos, neg)
}

func TestForProportions_UnequalSplit(t *testing.T) {
	n, err := ForProportions(0.10, 0.15, 0.05, 0.8, 0.3, experiment.TailTwo)
	require.NoError(t, err)

	assert.Equal(t, 3252, n)
}

func TestForProportions_InvalidParameters(t *testing.T) {
	tests := []struct {
		name                string
		baseline, target    float64
		alpha, power, split float64
		field               string
	}{
		{"zero effect", 0.1, 0.1, 0.05, 0.8, 0.5, "target"},
		{"baseline above one", 1.1, 0.1, 0.05, 0.8, 0.5, "baseline"},
		{"target negative", 0.1, -0.2, 0.05, 0.8, 0.5, "target"},
		{"alpha zero", 0.1, 0.2, 0, 0.8, 0.5, "alpha"},
		{"alpha one", 0.1, 0.2, 1, 0.8, 0.5, "alpha"},
		{"power one", 0.1, 0.2, 0.05, 1, 0.5, "power"},
		{"alpha rounds to a unit quantile", 0.1, 0.2, 1e-17, 0.8, 0.5, "alpha"},
		{"split zero", 0.1, 0.2, 0.05, 0.8, 0, "splitRatio"},
		{"split one", 0.1, 0.2, 0.05, 0.8, 1, "splitRatio"},
		{"split NaN", 0.1, 0.2, 0.05, 0.8, math.NaN(), "splitRatio"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := ForProportions(tc.baseline, tc.target, tc.alpha, tc.power, tc.split, experiment.TailTwo)
			require.Error(t, err)
			assert.Zero(t, n)
			assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)
			assert.Equal(t, tc.field, apperrors.GetField(err))
		})
	}
}

func TestForMeans_AlphaTooSmallForQuantile(t *testing.T) {
	n, err := ForMeans(5, 20, 1e-17, 0.8, 0.5, experiment.TailTwo)
	require.Error(t, err)
	assert.Zero(t, n)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParameter))
	assert.Equal(t, "alpha", apperrors.GetField(err))

	_, err = ForMeans(5, 20, 1e-17, 0.8, 0.5, experiment.TailOne)
	assert.Equal(t, "alpha", apperrors.GetField(err))
}

func TestForMeans_InvalidParameters(t *testing.T) {
	_, err := ForMeans(0, 20, 0.05, 0.8, 0.5, experiment.TailTwo)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)
	assert.Equal(t, "delta", apperrors.GetField(err))

	_, err = ForMeans(5, 0, 0.05, 0.8, 0.5, experiment.TailTwo)
	assert.Equal(t, "sigma", apperrors.GetField(err))

	_, err = ForMeans(5, -3, 0.05, 0.8, 0.5, experiment.TailTwo)
	assert.Equal(t, "sigma", apperrors.GetField(err))

	_, err = ForMeans(5, 20, 0.05, 0.8, 0.5, experiment.TailKind("both"))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestForMeans_UnboundedEffect(t *testing.T) {
	_, err := ForMeans(1e-300, 1, 0.05, 0.8, 0.5, experiment.TailTwo)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)
	assert.Equal(t, "delta", apperrors.GetField(err))
}

func TestForMeans_HugeEffectStillAtLeastOne(t *testing.T) {
	n, err := ForMeans(1e6, 1, 0.05, 0.8, 0.5, experiment.TailTwo)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
}

func TestSplit_RoundsEachSideUp(t *testing.T) {
	even := Split(2732, 0.5)
	assert.Equal(t, experiment.SampleSizeResult{TotalSize: 2732, ControlSize: 1366, TestSize: 1366}, even)

	uneven := Split(101, 0.3)
	assert.Equal(t, 31, uneven.ControlSize)
	assert.Equal(t, 71, uneven.TestSize)
	assert.Equal(t, uneven.TotalSize+1, uneven.ControlSize+uneven.TestSize)
}

func TestPlan(t *testing.T) {
	result, err := Plan(experiment.SampleSizeParameters{
		TestKind:   experiment.TestKindProportion,
		TailKind:   experiment.TailTwo,
		Alpha:      DefaultAlpha,
		Power:      DefaultPower,
		SplitRatio: DefaultSplitRatio,
		Baseline:   0.10,
		Target:     0.15,
	})
	require.NoError(t, err)
	assert.Equal(t, 2732, result.TotalSize)
	assert.Equal(t, 1366, result.ControlSize)

	result, err = Plan(experiment.SampleSizeParameters{
		TestKind:   experiment.TestKindMean,
		TailKind:   experiment.TailOne,
		Alpha:      0.05,
		Power:      0.8,
		SplitRatio: 0.5,
		Delta:      5,
		Sigma:      20,
	})
	require.NoError(t, err)
	assert.Equal(t, 792, result.TotalSize)
	assert.Equal(t, 396, result.TestSize)

	_, err = Plan(experiment.SampleSizeParameters{TestKind: "ratio"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

// fixedQuantile answers every quantile with the same z
type fixedQuantile struct{ z float64 }

func (f fixedQuantile) CDF(float64) float64      { return 0.5 }
func (f fixedQuantile) Quantile(float64) float64 { return f.z }

func TestEngine_UsesInjectedDistribution(t *testing.T) {
	e := NewEngine(fixedQuantile{z: 1})

	// (1+1)² · 2 · 1 / 1 / 0.25
	n, err := e.ForMeans(1, 1, 0.05, 0.8, 0.5, experiment.TailTwo)
	require.NoError(t, err)
	assert.Equal(t, 32, n)

	_, err = NewEngine(fixedQuantile{z: math.Inf(1)}).ForMeans(1, 1, 0.05, 0.8, 0.5, experiment.TailTwo)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidParameter))
	assert.Equal(t, "alpha", apperrors.GetField(err))
}
