package experiment

import (
	"fmt"
	"strings"
)

// ============================================================================
// TEST CONFIGURATION
// ============================================================================

// TestKind selects what the group value represents
type TestKind string

const (
	TestKindProportion TestKind = "proportion" // Value is a rate in [0,1]
	TestKindMean       TestKind = "mean"       // Value is an unrestricted mean
)

// TailKind selects one- or two-tailed p-values and z-quantiles
type TailKind string

const (
	TailOne TailKind = "one"
	TailTwo TailKind = "two"
)

// OneTailedMode controls how a one-tailed p-value treats the sign of z.
// DirectionAgnostic uses |z| so the result ignores which group is ahead.
// Directional uses the signed z and only rewards test > control.
type OneTailedMode string

const (
	DirectionAgnostic OneTailedMode = "agnostic"
	Directional       OneTailedMode = "directional"
)

// ParseTestKind accepts the names used by the CLI and the forms
func ParseTestKind(s string) (TestKind, error) {
	switch TestKind(strings.ToLower(strings.TrimSpace(s))) {
	case TestKindProportion:
		return TestKindProportion, nil
	case TestKindMean:
		return TestKindMean, nil
	default:
		return "", fmt.Errorf("unknown test type %q (want proportion|mean)", s)
	}
}

// ParseTailKind accepts "one"/"two" as well as the long forms
func ParseTailKind(s string) (TailKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one", "one-tailed", "one_tailed":
		return TailOne, nil
	case "two", "two-tailed", "two_tailed":
		return TailTwo, nil
	default:
		return "", fmt.Errorf("unknown tail type %q (want one|two)", s)
	}
}

// ParseOneTailedMode maps an empty string to DirectionAgnostic
func ParseOneTailedMode(s string) (OneTailedMode, error) {
	switch OneTailedMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionAgnostic:
		return DirectionAgnostic, nil
	case Directional:
		return Directional, nil
	default:
		return "", fmt.Errorf("unknown one-tailed mode %q (want agnostic|directional)", s)
	}
}

// Label renders the test kind the way reports print it ("Proportion", "Mean")
func (k TestKind) Label() string {
	switch k {
	case TestKindProportion:
		return "Proportion"
	case TestKindMean:
		return "Mean"
	default:
		return string(k)
	}
}

// Label renders the tail kind the way reports print it
func (t TailKind) Label() string {
	if t == TailTwo {
		return "Two-tailed"
	}
	return "One-tailed"
}

// Valid reports whether t is one of the known tail kinds
func (t TailKind) Valid() bool {
	return t == TailOne || t == TailTwo
}

// ============================================================================
// SIGNIFICANCE TEST
// ============================================================================

// GroupSummary holds one group's observed statistic.
// StdDev is only read for mean tests.
type GroupSummary struct {
	Value      float64 `json:"value"`             // Proportion in [0,1] or a mean
	SampleSize int     `json:"sample_size"`       // > 0
	StdDev     float64 `json:"std_dev,omitempty"` // >= 0, mean tests only
}

// TestParameters configures a two-sample z-test
type TestParameters struct {
	TestKind        TestKind      `json:"test_kind"`
	TailKind        TailKind      `json:"tail_kind"`
	ConfidenceLevel float64       `json:"confidence_level"` // In (0,1)
	Pooled          bool          `json:"pooled"`           // Proportions only
	OneTailedMode   OneTailedMode `json:"one_tailed_mode,omitempty"`
}

// SignificanceResult is the outcome of a z-test.
// INVARIANT: IsSignificant == (PValue < 1 - ConfidenceLevel)
type SignificanceResult struct {
	ZScore        float64 `json:"z_score"`
	PValue        float64 `json:"p_value"` // In [0,1]
	IsSignificant bool    `json:"is_significant"`
}

// ============================================================================
// SAMPLE SIZE
// ============================================================================

// SampleSizeParameters configures a power analysis.
// Baseline/Target are read for proportions, Delta/Sigma for means.
type SampleSizeParameters struct {
	TestKind   TestKind `json:"test_kind"`
	TailKind   TailKind `json:"tail_kind"`
	Alpha      float64  `json:"alpha"`       // In (0,1)
	Power      float64  `json:"power"`       // In (0,1)
	SplitRatio float64  `json:"split_ratio"` // Control share, in (0,1)

	Baseline float64 `json:"baseline,omitempty"`
	Target   float64 `json:"target,omitempty"`

	Delta float64 `json:"delta,omitempty"`
	Sigma float64 `json:"sigma,omitempty"`
}

// SampleSizeResult is a total requirement and its allocation.
// ControlSize and TestSize are each rounded up from the total, so their sum
// may exceed TotalSize by one.
type SampleSizeResult struct {
	TotalSize   int `json:"total_size"`
	ControlSize int `json:"control_size"`
	TestSize    int `json:"test_size"`
}
