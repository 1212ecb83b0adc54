// Package significance implements the classical two-sample z-test for
// proportions and means.
package significance

import (
	"math"

	"abstat/domain/experiment"
	"abstat/internal/analysis"
	apperrors "abstat/internal/errors"
	"abstat/ports"
)

const (
	DefaultConfidenceLevel = 0.95
	DefaultPooled          = true
)

// survivor is implemented by providers that can compute 1 - Φ(x) directly
type survivor interface {
	Survival(x float64) float64
}

// Engine computes z-scores, p-values and significance decisions.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	normal ports.NormalDistribution
}

// NewEngine creates an engine backed by the given normal provider
func NewEngine(normal ports.NormalDistribution) *Engine {
	return &Engine{normal: normal}
}

var defaultEngine = NewEngine(analysis.NewStandardNormal())

// ZScoreProportions computes (testProp - controlProp) / SE. With pooled set,
// SE uses the weighted pooled proportion; otherwise each group's own variance.
func ZScoreProportions(testProp, controlProp float64, nTest, nControl int, pooled bool) (float64, error) {
	if err := checkProportion("testProp", testProp); err != nil {
		return 0, err
	}
	if err := checkProportion("controlProp", controlProp); err != nil {
		return 0, err
	}
	if err := checkSampleSizes(nTest, nControl); err != nil {
		return 0, err
	}

	nt, nc := float64(nTest), float64(nControl)
	var se float64
	if pooled {
		p := (testProp*nt + controlProp*nc) / (nt + nc)
		se = math.Sqrt(p * (1 - p) * (1/nt + 1/nc))
	} else {
		se = math.Sqrt(testProp*(1-testProp)/nt + controlProp*(1-controlProp)/nc)
	}
	if se == 0 {
		return 0, apperrors.DivisionByZero("standard error", "both proportions sit at the same boundary (0 or 1), so the pooled variance vanishes")
	}

	z := (testProp - controlProp) / se
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, apperrors.InvalidParameter("testProp", testProp, "z-score is not finite for these inputs")
	}
	return z, nil
}

// ZScoreMeans computes (testMean - controlMean) / sqrt(sdT²/nT + sdC²/nC)
func ZScoreMeans(testMean, controlMean, stdTest, stdControl float64, nTest, nControl int) (float64, error) {
	if err := checkFinite("testMean", testMean); err != nil {
		return 0, err
	}
	if err := checkFinite("controlMean", controlMean); err != nil {
		return 0, err
	}
	if err := checkStdDev("stdTest", stdTest); err != nil {
		return 0, err
	}
	if err := checkStdDev("stdControl", stdControl); err != nil {
		return 0, err
	}
	if err := checkSampleSizes(nTest, nControl); err != nil {
		return 0, err
	}

	se := math.Sqrt(stdTest*stdTest/float64(nTest) + stdControl*stdControl/float64(nControl))
	if se == 0 {
		return 0, apperrors.DivisionByZero("standard error", "both standard deviations are zero")
	}
	if math.IsInf(se, 0) {
		field, v := "stdTest", stdTest
		if stdControl > stdTest {
			field, v = "stdControl", stdControl
		}
		return 0, apperrors.InvalidParameter(field, v, "variance overflows float64")
	}

	// The difference of two finite means can still overflow
	z := (testMean - controlMean) / se
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, apperrors.InvalidParameter("testMean", testMean, "difference from controlMean overflows the z-score")
	}
	return z, nil
}

// PValue uses |z|: two-tailed 2·(1 − Φ(|z|)), one-tailed 1 − Φ(|z|).
// The one-tailed value is the same whichever group is ahead.
func PValue(z float64, tail experiment.TailKind) (float64, error) {
	return defaultEngine.PValue(z, tail)
}

// DirectionalPValue is PValue with a signed one-tailed test: 1 − Φ(z), small
// only when test > control. Two-tailed results match PValue.
func DirectionalPValue(z float64, tail experiment.TailKind) (float64, error) {
	return defaultEngine.DirectionalPValue(z, tail)
}

// thresholdTolerance absorbs the representation error of 1 - confidenceLevel
// (1 - 0.95 evaluates to 0.050000000000000044).
const thresholdTolerance = 1e-12

// EvaluateSignificance reports pValue < 1 - confidenceLevel. Equality is not significant.
func EvaluateSignificance(pValue, confidenceLevel float64) bool {
	alpha := 1 - confidenceLevel
	return pValue < alpha && alpha-pValue > thresholdTolerance*alpha
}

// Evaluate runs the full test for the given parameters and group summaries
func Evaluate(params experiment.TestParameters, test, control experiment.GroupSummary) (*experiment.SignificanceResult, error) {
	return defaultEngine.Evaluate(params, test, control)
}

// PValue computes the direction-agnostic p-value
func (e *Engine) PValue(z float64, tail experiment.TailKind) (float64, error) {
	if err := checkZ(z); err != nil {
		return 0, err
	}
	switch tail {
	case experiment.TailTwo:
		return clampUnit(2 * e.upperTail(math.Abs(z))), nil
	case experiment.TailOne:
		return clampUnit(e.upperTail(math.Abs(z))), nil
	default:
		return 0, apperrors.InvalidInput("unknown tail kind " + string(tail))
	}
}

// DirectionalPValue computes the signed one-tailed p-value
func (e *Engine) DirectionalPValue(z float64, tail experiment.TailKind) (float64, error) {
	if tail != experiment.TailOne {
		return e.PValue(z, tail)
	}
	if err := checkZ(z); err != nil {
		return 0, err
	}
	return clampUnit(e.upperTail(z)), nil
}

// Evaluate computes z, p and the significance decision
func (e *Engine) Evaluate(params experiment.TestParameters, test, control experiment.GroupSummary) (*experiment.SignificanceResult, error) {
	if err := checkOpenUnit("confidenceLevel", params.ConfidenceLevel); err != nil {
		return nil, err
	}

	var (
		z   float64
		err error
	)
	switch params.TestKind {
	case experiment.TestKindProportion:
		z, err = ZScoreProportions(test.Value, control.Value, test.SampleSize, control.SampleSize, params.Pooled)
	case experiment.TestKindMean:
		z, err = ZScoreMeans(test.Value, control.Value, test.StdDev, control.StdDev, test.SampleSize, control.SampleSize)
	default:
		return nil, apperrors.InvalidInput("unknown test kind " + string(params.TestKind))
	}
	if err != nil {
		return nil, err
	}

	var p float64
	if params.OneTailedMode == experiment.Directional {
		p, err = e.DirectionalPValue(z, params.TailKind)
	} else {
		p, err = e.PValue(z, params.TailKind)
	}
	if err != nil {
		return nil, err
	}

	return &experiment.SignificanceResult{
		ZScore:        z,
		PValue:        p,
		IsSignificant: EvaluateSignificance(p, params.ConfidenceLevel),
	}, nil
}

func (e *Engine) upperTail(x float64) float64 {
	if s, ok := e.normal.(survivor); ok {
		return s.Survival(x)
	}
	return 1 - e.normal.CDF(x)
}

func clampUnit(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}

func checkZ(z float64) error {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return apperrors.InvalidParameter("zScore", z, "must be finite")
	}
	return nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperrors.InvalidParameter(field, v, "must be finite")
	}
	return nil
}

func checkProportion(field string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return apperrors.InvalidParameter(field, v, "must be in [0, 1]")
	}
	return nil
}

func checkStdDev(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return apperrors.InvalidParameter(field, v, "must be finite and >= 0")
	}
	return nil
}

func checkOpenUnit(field string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v >= 1 {
		return apperrors.InvalidParameter(field, v, "must be in (0, 1)")
	}
	return nil
}

func checkSampleSizes(nTest, nControl int) error {
	if nTest <= 0 {
		return apperrors.InvalidParameter("nTest", float64(nTest), "must be > 0")
	}
	if nControl <= 0 {
		return apperrors.InvalidParameter("nControl", float64(nControl), "must be > 0")
	}
	return nil
}
