package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"abstat/ports"
)

// StandardNormal adapts gonum's unit normal to ports.NormalDistribution.
// Quantile returns ±Inf at p = 1 / p = 0 and NaN outside [0,1]; callers
// validate p before asking.
type StandardNormal struct {
	dist distuv.Normal
}

var _ ports.NormalDistribution = StandardNormal{}

// NewStandardNormal creates the N(0,1) provider
func NewStandardNormal() StandardNormal {
	return StandardNormal{dist: distuv.UnitNormal}
}

// CDF computes Φ(x)
func (n StandardNormal) CDF(x float64) float64 {
	return n.dist.CDF(x)
}

// Quantile computes Φ⁻¹(p)
func (n StandardNormal) Quantile(p float64) float64 {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return math.NaN()
	}
	return n.dist.Quantile(p)
}

// Survival computes 1 - Φ(x) without cancellation in the upper tail
func (n StandardNormal) Survival(x float64) float64 {
	return n.dist.Survival(x)
}
