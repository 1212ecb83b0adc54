// Package samplesize computes the minimum total sample size for a two-group
// experiment from closed-form power-analysis formulas.
package samplesize

import (
	"math"

	"abstat/domain/experiment"
	"abstat/internal/analysis"
	apperrors "abstat/internal/errors"
	"abstat/ports"
)

const (
	DefaultAlpha      = 0.05
	DefaultPower      = 0.8
	DefaultSplitRatio = 0.5
)

// Engine holds the normal provider used for z-quantiles. Safe for concurrent use.
type Engine struct {
	normal ports.NormalDistribution
}

// NewEngine creates an engine backed by the given normal provider
func NewEngine(normal ports.NormalDistribution) *Engine {
	return &Engine{normal: normal}
}

var defaultEngine = NewEngine(analysis.NewStandardNormal())

// ForProportions returns ceil((zα+zβ)²·(p0(1−p0)+p1(1−p1)) / Δ² / (r(1−r)))
func ForProportions(baseline, target, alpha, power, splitRatio float64, tail experiment.TailKind) (int, error) {
	return defaultEngine.ForProportions(baseline, target, alpha, power, splitRatio, tail)
}

// ForMeans returns ceil(2σ²(zα+zβ)² / δ² / (r(1−r)))
func ForMeans(delta, sigma, alpha, power, splitRatio float64, tail experiment.TailKind) (int, error) {
	return defaultEngine.ForMeans(delta, sigma, alpha, power, splitRatio, tail)
}

// Plan computes the total for params and splits it across groups
func Plan(params experiment.SampleSizeParameters) (*experiment.SampleSizeResult, error) {
	return defaultEngine.Plan(params)
}

// Split allocates total by ratio. Each side is rounded up on its own, so
// ControlSize + TestSize can be TotalSize + 1.
func Split(total int, splitRatio float64) experiment.SampleSizeResult {
	return experiment.SampleSizeResult{
		TotalSize:   total,
		ControlSize: ceilInt(float64(total) * splitRatio),
		TestSize:    ceilInt(float64(total) * (1 - splitRatio)),
	}
}

// ForProportions computes the total sample size for a difference in proportions
func (e *Engine) ForProportions(baseline, target, alpha, power, splitRatio float64, tail experiment.TailKind) (int, error) {
	if err := checkProportion("baseline", baseline); err != nil {
		return 0, err
	}
	if err := checkProportion("target", target); err != nil {
		return 0, err
	}
	if baseline == target {
		return 0, apperrors.InvalidParameter("target", target, "must differ from baseline (zero effect size)")
	}
	zSum, err := e.zSum(alpha, power, splitRatio, tail)
	if err != nil {
		return 0, err
	}

	delta := math.Abs(target - baseline)
	variance := baseline*(1-baseline) + target*(1-target)
	n := zSum * zSum * variance / (delta * delta)

	return adjust(n, splitRatio, "target", target)
}

// ForMeans computes the total sample size for a difference in means
func (e *Engine) ForMeans(delta, sigma, alpha, power, splitRatio float64, tail experiment.TailKind) (int, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) || delta == 0 {
		return 0, apperrors.InvalidParameter("delta", delta, "must be finite and non-zero")
	}
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma <= 0 {
		return 0, apperrors.InvalidParameter("sigma", sigma, "must be finite and > 0")
	}
	zSum, err := e.zSum(alpha, power, splitRatio, tail)
	if err != nil {
		return 0, err
	}

	n := 2 * sigma * sigma * zSum * zSum / (delta * delta)

	return adjust(n, splitRatio, "delta", delta)
}

// Plan dispatches on params.TestKind
func (e *Engine) Plan(params experiment.SampleSizeParameters) (*experiment.SampleSizeResult, error) {
	var (
		total int
		err   error
	)
	switch params.TestKind {
	case experiment.TestKindProportion:
		total, err = e.ForProportions(params.Baseline, params.Target, params.Alpha, params.Power, params.SplitRatio, params.TailKind)
	case experiment.TestKindMean:
		total, err = e.ForMeans(params.Delta, params.Sigma, params.Alpha, params.Power, params.SplitRatio, params.TailKind)
	default:
		return nil, apperrors.InvalidInput("unknown test kind " + string(params.TestKind))
	}
	if err != nil {
		return nil, err
	}

	result := Split(total, params.SplitRatio)
	return &result, nil
}

// zSum validates the shared parameters and returns zα + zβ
func (e *Engine) zSum(alpha, power, splitRatio float64, tail experiment.TailKind) (float64, error) {
	if err := checkOpenUnit("alpha", alpha); err != nil {
		return 0, err
	}
	if err := checkOpenUnit("power", power); err != nil {
		return 0, err
	}
	if err := checkOpenUnit("splitRatio", splitRatio); err != nil {
		return 0, err
	}

	var zAlpha float64
	switch tail {
	case experiment.TailTwo:
		zAlpha = e.normal.Quantile(1 - alpha/2)
	case experiment.TailOne:
		zAlpha = e.normal.Quantile(1 - alpha)
	default:
		return 0, apperrors.InvalidInput("unknown tail kind " + string(tail))
	}
	if !isFinite(zAlpha) {
		return 0, apperrors.InvalidParameter("alpha", alpha, "too close to 0 for a finite z-quantile")
	}
	zBeta := e.normal.Quantile(power)
	if !isFinite(zBeta) {
		return 0, apperrors.InvalidParameter("power", power, "too close to 0 or 1 for a finite z-quantile")
	}
	return zAlpha + zBeta, nil
}

// maxTotal keeps the result exactly representable as both float64 and int
const maxTotal = 1 << 53

// adjust scales for unequal allocation and rounds up to at least one
func adjust(n, splitRatio float64, effectField string, effect float64) (int, error) {
	adjusted := math.Ceil(n / (splitRatio * (1 - splitRatio)))
	if math.IsNaN(adjusted) || adjusted > maxTotal {
		return 0, apperrors.InvalidParameter(effectField, effect, "effect too small, required sample size is unbounded")
	}
	if adjusted < 1 {
		return 1, nil
	}
	return int(adjusted), nil
}

func ceilInt(v float64) int {
	return int(math.Ceil(v))
}

func checkProportion(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return apperrors.InvalidParameter(field, v, "must be in [0, 1]")
	}
	return nil
}

func checkOpenUnit(field string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return apperrors.InvalidParameter(field, v, "must be in (0, 1)")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
