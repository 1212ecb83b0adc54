package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardNormal_KnownValues(t *testing.T) {
	n := NewStandardNormal()

	assert.InDelta(t, 0.5, n.CDF(0), 1e-12)
	assert.InDelta(t, 0.975002104851780, n.CDF(1.96), 1e-12)
	assert.InDelta(t, 1.959963984540054, n.Quantile(0.975), 1e-10)
	assert.InDelta(t, 1.644853626951472, n.Quantile(0.95), 1e-10)
	assert.InDelta(t, 0.841621233572914, n.Quantile(0.8), 1e-10)
	assert.InDelta(t, 3.090232306167813, n.Quantile(0.999), 1e-10)
}

func TestStandardNormal_QuantileInvertsCDF(t *testing.T) {
	n := NewStandardNormal()
	for _, p := range []float64{0.001, 0.05, 0.2, 0.5, 0.8, 0.9, 0.99, 0.999} {
		assert.InDelta(t, p, n.CDF(n.Quantile(p)), 1e-12, "p=%v", p)
	}
}

func TestStandardNormal_QuantileOutOfRange(t *testing.T) {
	n := NewStandardNormal()

	assert.True(t, math.IsNaN(n.Quantile(-0.1)))
	assert.True(t, math.IsNaN(n.Quantile(1.1)))
	assert.True(t, math.IsNaN(n.Quantile(math.NaN())))
}

func TestStandardNormal_SurvivalMatchesComplement(t *testing.T) {
	n := NewStandardNormal()
	for _, x := range []float64{-2, 0, 1, 3} {
		assert.InDelta(t, 1-n.CDF(x), n.Survival(x), 1e-12)
	}
	assert.Greater(t, n.Survival(9), 0.0)
}
