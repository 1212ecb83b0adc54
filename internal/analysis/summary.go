package analysis

import (
	"math"

	"github.com/montanaflynn/stats"

	"abstat/domain/experiment"
	apperrors "abstat/internal/errors"
)

// Summarize reduces raw continuous observations to a mean-test GroupSummary
// (mean, sample standard deviation, n). A single observation has StdDev 0.
func Summarize(field string, observations []float64) (experiment.GroupSummary, error) {
	if len(observations) == 0 {
		return experiment.GroupSummary{}, apperrors.InvalidParameter(field+".observations", 0, "must contain at least one value")
	}
	for _, v := range observations {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return experiment.GroupSummary{}, apperrors.InvalidParameter(field+".observations", v, "must be finite")
		}
	}

	data := stats.Float64Data(observations)
	mean, err := data.Mean()
	if err != nil {
		return experiment.GroupSummary{}, apperrors.Wrapf(err, "failed to compute %s mean", field)
	}

	stdDev := 0.0
	if len(observations) > 1 {
		stdDev, err = data.StandardDeviationSample()
		if err != nil {
			return experiment.GroupSummary{}, apperrors.Wrapf(err, "failed to compute %s standard deviation", field)
		}
	}

	return experiment.GroupSummary{
		Value:      mean,
		SampleSize: len(observations),
		StdDev:     stdDev,
	}, nil
}

// SummarizeBinary reduces 0/1 outcomes to a proportion-test GroupSummary
func SummarizeBinary(field string, outcomes []float64) (experiment.GroupSummary, error) {
	if len(outcomes) == 0 {
		return experiment.GroupSummary{}, apperrors.InvalidParameter(field+".observations", 0, "must contain at least one value")
	}
	for _, v := range outcomes {
		if v != 0 && v != 1 {
			return experiment.GroupSummary{}, apperrors.InvalidParameter(field+".observations", v, "must be 0 or 1 for a proportion test")
		}
	}

	successes, err := stats.Sum(outcomes)
	if err != nil {
		return experiment.GroupSummary{}, apperrors.Wrapf(err, "failed to count %s successes", field)
	}

	return experiment.GroupSummary{
		Value:      successes / float64(len(outcomes)),
		SampleSize: len(outcomes),
	}, nil
}
