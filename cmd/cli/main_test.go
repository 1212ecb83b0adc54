package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"abstat/app"
	"abstat/internal/config"
	"abstat/internal/container"
	"abstat/internal/errors"
)

func testLoader() (*container.Container, error) {
	return container.New(&config.Config{
		Defaults: app.BuiltinDefaults(),
		Server:   config.ServerConfig{Port: "0", GinMode: "test"},
		UI:       config.UIConfig{Port: "0"},
		Batch:    config.BatchConfig{Concurrency: 2},
		Logging:  config.LoggingConfig{Level: "error", Format: "json"},
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(testLoader)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignificanceCommand_Proportion(t *testing.T) {
	out, err := execute(t, "significance",
		"--test-type", "proportion", "--tail", "two",
		"--test-value", "0.507", "--control-value", "0.4728",
		"--n-test", "25000", "--n-control", "25000", "--confidence", "0.95")
	require.NoError(t, err)

	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "Significant: Yes")
}

func TestSignificanceCommand_UnderscoreFlags(t *testing.T) {
	out, err := execute(t, "significance",
		"--test_type", "mean", "--tail", "one",
		"--test_value", "50", "--control_value", "45",
		"--std_test", "10", "--std_control", "10",
		"--n_test", "25000", "--n_control", "25000", "--confidence", "0.90")
	require.NoError(t, err)
	assert.Contains(t, out, "Significant: Yes")
}

func TestSignificanceCommand_MeanNeedsStdDev(t *testing.T) {
	_, err := execute(t, "significance",
		"--test-type", "mean", "--test-value", "50", "--control-value", "45",
		"--n-test", "100", "--n-control", "100")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidInput))
}

func TestSampleSizeCommand(t *testing.T) {
	out, err := execute(t, "samplesize",
		"--type", "proportion", "--tail", "two", "--baseline", "0.10", "--effect_size", "0.15")
	require.NoError(t, err)
	assert.Contains(t, out, "\nSample Size Calculation Report\n")
	assert.NotContains(t, out, "Report:")
	assert.Contains(t, out, "2732")
}

func TestSampleSizeCommand_SplitRatioIsControlShare(t *testing.T) {
	out, err := execute(t, "samplesize",
		"--type", "proportion", "--baseline", "0.10", "--target", "0.15", "--split-ratio", "0.3", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_size": 3252`)
	assert.Contains(t, out, `"control_size": 976`)
	assert.Contains(t, out, `"test_size": 2277`)

	help := newSampleSizeCmd(nil).Flags().Lookup("split-ratio").Usage
	assert.Contains(t, help, "control group")
}

func TestSampleSizeCommand_JSON(t *testing.T) {
	out, err := execute(t, "samplesize",
		"--type", "mean", "--tail", "one", "--delta", "5", "--sigma", "20", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_size": 792`)
}

func TestSampleSizeCommand_InvalidAlpha(t *testing.T) {
	_, err := execute(t, "samplesize",
		"--type", "mean", "--delta", "5", "--sigma", "20", "--alpha", "1.5")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParameter))
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "experiments.csv")
	out := filepath.Join(dir, "results.xlsx")
	require.NoError(t, os.WriteFile(in, []byte(
		"name,test_type,test_value,control_value,n_test,n_control,std_test,std_control\n"+
			"checkout,proportion,0.12,0.10,10000,10000,,\n"+
			"flat,mean,5,5,100,100,0,0\n"), 0o600))

	stdout, err := execute(t, "batch", "--in", in, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Processed 2 experiments (1 succeeded, 1 failed)")

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSignificanceCommand_RawObservations(t *testing.T) {
	out, err := execute(t, "significance", "--test-type", "proportion",
		"--test-observations", "1,1,1,1,0,1,1,1,1,1",
		"--control-observations", "0,0,1,0,0,0,1,0,0,0",
		"--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"sample_size": 10`)
}

func TestSignificanceCommand_MissingGroup(t *testing.T) {
	_, err := execute(t, "significance", "--test-type", "proportion",
		"--test-value", "0.5", "--n-test", "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "control group value and sample size must be provided")
}
