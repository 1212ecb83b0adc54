package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"abstat/adapters/excel"
	"abstat/app"
	"abstat/internal/config"
	"abstat/internal/container"
	"abstat/internal/report"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := newRootCmd(loadContainer)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadContainer() (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(cfg)
}

type loader func() (*container.Container, error)

func newRootCmd(load loader) *cobra.Command {
	var c *container.Container

	rootCmd := &cobra.Command{
		Use:           "abstat",
		Short:         "A/B test significance and sample size calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			c, err = load()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c != nil {
				c.Close()
			}
		},
	}
	// Accept --test_value as well as --test-value
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	get := func() *container.Container { return c }
	rootCmd.AddCommand(
		newSignificanceCmd(get),
		newSampleSizeCmd(get),
		newBatchCmd(get),
	)
	return rootCmd
}

func newSignificanceCmd(get func() *container.Container) *cobra.Command {
	var (
		req                   app.SignificanceRequest
		testValue, controlVal float64
		nTest, nControl       int
		stdTest, stdControl   float64
		confidence            float64
		pooled                bool
		testObs, controlObs   []float64
		format                string
	)

	cmd := &cobra.Command{
		Use:   "significance",
		Short: "Run a two-sample z-test for proportions or means",
		Long: `Run a two-sample z-test on summary statistics.

Examples:
  abstat significance --test-type proportion --tail two --test-value 0.507 --control-value 0.4728 --n-test 25000 --n-control 25000 --confidence 0.95
  abstat significance --test-type mean --tail one --test-value 50 --control-value 45 --std-test 10 --std-control 10 --n-test 25000 --n-control 25000 --confidence 0.90`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			req.Test = app.GroupInput{Observations: testObs}
			req.Control = app.GroupInput{Observations: controlObs}
			if flags.Changed("test-value") || flags.Changed("n-test") {
				req.Test.Value, req.Test.SampleSize = &testValue, &nTest
			}
			if flags.Changed("control-value") || flags.Changed("n-control") {
				req.Control.Value, req.Control.SampleSize = &controlVal, &nControl
			}
			if flags.Changed("std-test") {
				req.Test.StdDev = &stdTest
			}
			if flags.Changed("std-control") {
				req.Control.StdDev = &stdControl
			}
			if flags.Changed("confidence") {
				req.ConfidenceLevel = &confidence
			}
			if flags.Changed("pooled") {
				req.Pooled = &pooled
			}

			out, err := get().Experiments.AnalyzeSignificance(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, out.Report, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.TestType, "test-type", "", "Type of test: proportion or mean")
	flags.StringVar(&req.Tail, "tail", "", "one or two (default from ABSTAT_TAIL)")
	flags.Float64Var(&testValue, "test-value", 0, "Test group proportion or mean")
	flags.Float64Var(&controlVal, "control-value", 0, "Control group proportion or mean")
	flags.IntVar(&nTest, "n-test", 0, "Sample size for the test group")
	flags.IntVar(&nControl, "n-control", 0, "Sample size for the control group")
	flags.Float64Var(&stdTest, "std-test", 0, "Standard deviation of the test group (mean tests)")
	flags.Float64Var(&stdControl, "std-control", 0, "Standard deviation of the control group (mean tests)")
	flags.Float64Var(&confidence, "confidence", 0.95, "Confidence level")
	flags.BoolVar(&pooled, "pooled", true, "Use the pooled standard error for proportions")
	flags.StringVar(&req.OneTailedMode, "one-tailed-mode", "", "agnostic or directional")
	flags.Float64SliceVar(&testObs, "test-observations", nil, "Raw test group observations, instead of --test-value/--n-test")
	flags.Float64SliceVar(&controlObs, "control-observations", nil, "Raw control group observations, instead of --control-value/--n-control")
	flags.StringVar(&format, "format", "text", "Output format: text, markdown or json")
	_ = cmd.MarkFlagRequired("test-type")

	return cmd
}

func newSampleSizeCmd(get func() *container.Container) *cobra.Command {
	var (
		req                            app.SampleSizeRequest
		baseline, target, delta, sigma float64
		alpha, power, splitRatio       float64
		format                         string
	)

	cmd := &cobra.Command{
		Use:     "samplesize",
		Aliases: []string{"sample-size"},
		Short:   "Compute the sample size needed to detect an effect",
		Long: `Compute the total and per-group sample size for a planned test.

Examples:
  abstat samplesize --type proportion --tail two --baseline 0.10 --target 0.15 --alpha 0.05 --power 0.8 --split-ratio 0.5
  abstat samplesize --type mean --tail one --delta 5 --sigma 20 --alpha 0.05 --power 0.8 --split-ratio 0.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			optional := func(name string, v *float64) *float64 {
				if flags.Changed(name) {
					return v
				}
				return nil
			}
			req.Baseline = optional("baseline", &baseline)
			req.Target = optional("target", &target)
			if req.Target == nil {
				req.Target = optional("effect-size", &target)
			}
			req.Delta = optional("delta", &delta)
			req.Sigma = optional("sigma", &sigma)
			req.Alpha = optional("alpha", &alpha)
			req.Power = optional("power", &power)
			req.SplitRatio = optional("split-ratio", &splitRatio)

			out, err := get().Experiments.PlanSampleSize(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, out.Report, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.TestType, "type", "", "Type of test: proportion or mean")
	flags.StringVar(&req.Tail, "tail", "", "one or two (default from ABSTAT_TAIL)")
	flags.Float64Var(&baseline, "baseline", 0, "Baseline proportion (proportion tests)")
	flags.Float64Var(&target, "target", 0, "Desired proportion in the test group (proportion tests)")
	flags.Float64Var(&target, "effect-size", 0, "Alias for --target")
	flags.Float64Var(&delta, "delta", 0, "Minimum detectable difference in means (mean tests)")
	flags.Float64Var(&sigma, "sigma", 0, "Population standard deviation (mean tests)")
	flags.Float64Var(&alpha, "alpha", 0.05, "Significance level")
	flags.Float64Var(&power, "power", 0.8, "Statistical power")
	flags.Float64Var(&splitRatio, "split-ratio", 0.5, "Fraction of the sample allocated to the control group")
	flags.StringVar(&format, "format", "text", "Output format: text, markdown or json")
	_ = cmd.MarkFlagRequired("type")
	cmd.MarkFlagsMutuallyExclusive("target", "effect-size")

	return cmd
}

func newBatchCmd(get func() *container.Container) *cobra.Command {
	var inPath, outPath string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate every experiment in a spreadsheet",
		Long: `Read experiments from an xlsx or csv file, one per row, and write
z-scores, p-values and decisions to an xlsx file. A failing row is
reported in the error column and does not stop the run.

Example: abstat batch --in experiments.xlsx --out results.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := get()
			if !cmd.Flags().Changed("concurrency") {
				concurrency = c.Config.Batch.Concurrency
			}

			summary, err := c.Experiments.RunBatch(cmd.Context(), c.ExperimentSheet(inPath), excel.NewResultWriter(outPath), concurrency)
			if err != nil {
				return err
			}
			c.Logger.Info("batch complete",
				zap.String("run_id", summary.RunID),
				zap.Int("total", summary.Total),
				zap.Int("failed", summary.Failed))

			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d experiments (%d succeeded, %d failed), results written to %s\n",
				summary.Total, summary.Succeeded, summary.Failed, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "Input xlsx or csv file")
	cmd.Flags().StringVar(&outPath, "out", "results.xlsx", "Output xlsx file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Rows evaluated in parallel (default from BATCH_CONCURRENCY)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func render(w io.Writer, format string, r report.Report, payload interface{}) error {
	switch format {
	case "text":
		_, err := fmt.Fprintln(w, r.Text())
		return err
	case "markdown", "md":
		_, err := fmt.Fprintln(w, r.Markdown())
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	default:
		return fmt.Errorf("unknown format %q (use text, markdown or json)", format)
	}
}
