package ports

// NormalDistribution provides the standard normal primitives the engines need
type NormalDistribution interface {
	// CDF returns Φ(x)
	CDF(x float64) float64

	// Quantile returns Φ⁻¹(p) for p in (0,1)
	Quantile(p float64) float64
}
