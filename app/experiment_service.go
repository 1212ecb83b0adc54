package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"abstat/domain/experiment"
	"abstat/internal/analysis"
	"abstat/internal/config"
	"abstat/internal/errors"
	"abstat/internal/metrics"
	"abstat/internal/report"
	"abstat/internal/samplesize"
	"abstat/internal/significance"
	"abstat/ports"
)

// GroupInput is one group as supplied by a form, CLI or JSON body: either
// summary statistics or raw observations.
type GroupInput struct {
	Value        *float64  `json:"value,omitempty"`
	SampleSize   *int      `json:"sample_size,omitempty"`
	StdDev       *float64  `json:"std_dev,omitempty"`
	Observations []float64 `json:"observations,omitempty"`
}

// SignificanceRequest asks for a two-sample z-test. Nil optional fields take
// the configured defaults.
type SignificanceRequest struct {
	TestType        string     `json:"test_type" binding:"required,oneof=proportion mean"`
	Tail            string     `json:"tail,omitempty" binding:"omitempty,oneof=one two"`
	ConfidenceLevel *float64   `json:"confidence_level,omitempty"`
	Pooled          *bool      `json:"pooled,omitempty"`
	OneTailedMode   string     `json:"one_tailed_mode,omitempty" binding:"omitempty,oneof=agnostic directional"`
	Test            GroupInput `json:"test"`
	Control         GroupInput `json:"control"`
}

// SampleSizeRequest asks for a power analysis
type SampleSizeRequest struct {
	TestType   string   `json:"test_type" binding:"required,oneof=proportion mean"`
	Tail       string   `json:"tail,omitempty" binding:"omitempty,oneof=one two"`
	Alpha      *float64 `json:"alpha,omitempty"`
	Power      *float64 `json:"power,omitempty"`
	SplitRatio *float64 `json:"split_ratio,omitempty"`
	Baseline   *float64 `json:"baseline,omitempty"`
	Target     *float64 `json:"target,omitempty"`
	Delta      *float64 `json:"delta,omitempty"`
	Sigma      *float64 `json:"sigma,omitempty"`
}

// SignificanceOutcome carries the resolved inputs alongside the result
type SignificanceOutcome struct {
	Parameters experiment.TestParameters     `json:"parameters"`
	Test       experiment.GroupSummary       `json:"test"`
	Control    experiment.GroupSummary       `json:"control"`
	Result     experiment.SignificanceResult `json:"result"`
	Report     report.Report                 `json:"report"`
}

// SampleSizeOutcome carries the resolved parameters alongside the result
type SampleSizeOutcome struct {
	Parameters experiment.SampleSizeParameters `json:"parameters"`
	Result     experiment.SampleSizeResult     `json:"result"`
	Report     report.Report                   `json:"report"`
}

// BatchSummary describes one batch run
type BatchSummary struct {
	RunID     string `json:"run_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// ExperimentService is the single entry point the CLI, API, UI and batch
// adapters use. It fills defaults, checks presence of inputs, and delegates
// the arithmetic to the engines.
type ExperimentService struct {
	significance *significance.Engine
	sampleSize   *samplesize.Engine
	defaults     config.DefaultsConfig
	recorder     *metrics.Recorder
}

// NewExperimentService wires both engines to one normal provider.
// recorder may be nil.
func NewExperimentService(normal ports.NormalDistribution, defaults config.DefaultsConfig, recorder *metrics.Recorder) *ExperimentService {
	return &ExperimentService{
		significance: significance.NewEngine(normal),
		sampleSize:   samplesize.NewEngine(normal),
		defaults:     defaults,
		recorder:     recorder,
	}
}

// BuiltinDefaults mirrors the engine package defaults
func BuiltinDefaults() config.DefaultsConfig {
	return config.DefaultsConfig{
		ConfidenceLevel: significance.DefaultConfidenceLevel,
		Alpha:           samplesize.DefaultAlpha,
		Power:           samplesize.DefaultPower,
		SplitRatio:      samplesize.DefaultSplitRatio,
		TailKind:        experiment.TailTwo,
		Pooled:          significance.DefaultPooled,
		OneTailedMode:   experiment.DirectionAgnostic,
	}
}

// NewDefaultExperimentService uses gonum's normal and the builtin defaults
func NewDefaultExperimentService() *ExperimentService {
	return NewExperimentService(analysis.NewStandardNormal(), BuiltinDefaults(), nil)
}

// Defaults returns the defaults the service fills in
func (s *ExperimentService) Defaults() config.DefaultsConfig {
	return s.defaults
}

// AnalyzeSignificance resolves the request and runs the z-test
func (s *ExperimentService) AnalyzeSignificance(ctx context.Context, req SignificanceRequest) (out *SignificanceOutcome, err error) {
	started := time.Now()
	defer func() { s.recorder.Observe(metrics.KindSignificance, started, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params, err := s.resolveTestParameters(req)
	if err != nil {
		return nil, err
	}
	test, err := resolveGroup("test", params.TestKind, req.Test)
	if err != nil {
		return nil, err
	}
	control, err := resolveGroup("control", params.TestKind, req.Control)
	if err != nil {
		return nil, err
	}

	result, err := s.significance.Evaluate(params, test, control)
	if err != nil {
		return nil, err
	}

	return &SignificanceOutcome{
		Parameters: params,
		Test:       test,
		Control:    control,
		Result:     *result,
		Report:     report.Significance(params, test, control, *result),
	}, nil
}

// PlanSampleSize resolves the request and runs the power analysis
func (s *ExperimentService) PlanSampleSize(ctx context.Context, req SampleSizeRequest) (out *SampleSizeOutcome, err error) {
	started := time.Now()
	defer func() { s.recorder.Observe(metrics.KindSampleSize, started, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params, err := s.resolveSampleSizeParameters(req)
	if err != nil {
		return nil, err
	}

	result, err := s.sampleSize.Plan(params)
	if err != nil {
		return nil, err
	}

	return &SampleSizeOutcome{
		Parameters: params,
		Result:     *result,
		Report:     report.SampleSize(params, *result),
	}, nil
}

// EvaluateRows runs every row concurrently, bounded by concurrency.
// Row failures are recorded on the row; only cancellation stops the run.
func (s *ExperimentService) EvaluateRows(ctx context.Context, rows []ports.ExperimentRow, concurrency int) ([]ports.ExperimentResultRow, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]ports.ExperimentResultRow, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := ports.ExperimentResultRow{ExperimentRow: row}
			if row.ParseError != nil {
				out.Err = row.ParseError
			} else {
				started := time.Now()
				out.Result, out.Err = s.significance.Evaluate(row.Parameters, row.Test, row.Control)
				s.recorder.Observe(metrics.KindBatch, started, out.Err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunBatch reads experiments from src, evaluates them and writes to sink
func (s *ExperimentService) RunBatch(ctx context.Context, src ports.ExperimentSource, sink ports.ResultSink, concurrency int) (*BatchSummary, error) {
	rows, err := src.ReadExperiments(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read experiments")
	}

	results, err := s.EvaluateRows(ctx, rows, concurrency)
	if err != nil {
		return nil, errors.Wrap(err, "batch evaluation interrupted")
	}

	if err := sink.WriteResults(ctx, results); err != nil {
		return nil, errors.Wrap(err, "failed to write results")
	}

	summary := &BatchSummary{RunID: uuid.NewString(), Total: len(results)}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary, nil
}

func (s *ExperimentService) resolveTestParameters(req SignificanceRequest) (experiment.TestParameters, error) {
	kind, err := experiment.ParseTestKind(req.TestType)
	if err != nil {
		return experiment.TestParameters{}, errors.InvalidInput(err.Error())
	}

	tail := s.defaults.TailKind
	if req.Tail != "" {
		if tail, err = experiment.ParseTailKind(req.Tail); err != nil {
			return experiment.TestParameters{}, errors.InvalidInput(err.Error())
		}
	}

	mode := s.defaults.OneTailedMode
	if req.OneTailedMode != "" {
		if mode, err = experiment.ParseOneTailedMode(req.OneTailedMode); err != nil {
			return experiment.TestParameters{}, errors.InvalidInput(err.Error())
		}
	}

	return experiment.TestParameters{
		TestKind:        kind,
		TailKind:        tail,
		ConfidenceLevel: floatOr(req.ConfidenceLevel, s.defaults.ConfidenceLevel),
		Pooled:          boolOr(req.Pooled, s.defaults.Pooled),
		OneTailedMode:   mode,
	}, nil
}

func (s *ExperimentService) resolveSampleSizeParameters(req SampleSizeRequest) (experiment.SampleSizeParameters, error) {
	kind, err := experiment.ParseTestKind(req.TestType)
	if err != nil {
		return experiment.SampleSizeParameters{}, errors.InvalidInput(err.Error())
	}

	tail := s.defaults.TailKind
	if req.Tail != "" {
		if tail, err = experiment.ParseTailKind(req.Tail); err != nil {
			return experiment.SampleSizeParameters{}, errors.InvalidInput(err.Error())
		}
	}

	params := experiment.SampleSizeParameters{
		TestKind:   kind,
		TailKind:   tail,
		Alpha:      floatOr(req.Alpha, s.defaults.Alpha),
		Power:      floatOr(req.Power, s.defaults.Power),
		SplitRatio: floatOr(req.SplitRatio, s.defaults.SplitRatio),
	}

	switch kind {
	case experiment.TestKindProportion:
		if req.Baseline == nil || req.Target == nil {
			return params, errors.InvalidInput("baseline and target must be provided for proportion type")
		}
		params.Baseline, params.Target = *req.Baseline, *req.Target
	case experiment.TestKindMean:
		if req.Delta == nil || req.Sigma == nil {
			return params, errors.InvalidInput("delta and sigma must be provided for mean type")
		}
		params.Delta, params.Sigma = *req.Delta, *req.Sigma
	}
	return params, nil
}

// resolveGroup turns raw observations or summary fields into a GroupSummary
func resolveGroup(name string, kind experiment.TestKind, in GroupInput) (experiment.GroupSummary, error) {
	if len(in.Observations) > 0 {
		if kind == experiment.TestKindProportion {
			return analysis.SummarizeBinary(name, in.Observations)
		}
		return analysis.Summarize(name, in.Observations)
	}

	if in.Value == nil || in.SampleSize == nil {
		return experiment.GroupSummary{}, errors.InvalidInput(name + " group value and sample size must be provided")
	}
	summary := experiment.GroupSummary{Value: *in.Value, SampleSize: *in.SampleSize}

	if kind == experiment.TestKindMean {
		if in.StdDev == nil {
			return experiment.GroupSummary{}, errors.InvalidInput("standard deviations must be provided for mean type tests")
		}
		summary.StdDev = *in.StdDev
	}
	return summary, nil
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
