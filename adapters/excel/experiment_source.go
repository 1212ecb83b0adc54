package excel

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"abstat/domain/experiment"
	"abstat/internal/config"
	"abstat/internal/errors"
	"abstat/ports"
)

// ExperimentSheet reads significance tests, one per row, from xlsx or csv.
// Empty tail/confidence/pooled/one_tailed_mode cells take the defaults.
type ExperimentSheet struct {
	reader   *DataReader
	defaults config.DefaultsConfig
}

var _ ports.ExperimentSource = (*ExperimentSheet)(nil)

// NewExperimentSheet creates a source for filePath
func NewExperimentSheet(filePath string, defaults config.DefaultsConfig, logger *zap.Logger) *ExperimentSheet {
	return &ExperimentSheet{
		reader:   NewDataReader(filePath, logger),
		defaults: defaults,
	}
}

// ReadExperiments parses every data row. A malformed row is returned with
// ParseError set rather than failing the whole sheet.
func (s *ExperimentSheet) ReadExperiments(ctx context.Context) ([]ports.ExperimentRow, error) {
	data, err := s.reader.ReadData()
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to read experiment sheet")
	}

	rows := make([]ports.ExperimentRow, 0, len(data.Rows))
	for i, raw := range data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := ports.ExperimentRow{Row: data.RowNumbers[i], Name: raw.Get(ColumnName)}
		if row.Name == "" {
			row.Name = "row " + strconv.Itoa(row.Row)
		}
		row.Parameters, row.Test, row.Control, row.ParseError = s.parseRow(raw)
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *ExperimentSheet) parseRow(raw RawRowData) (experiment.TestParameters, experiment.GroupSummary, experiment.GroupSummary, error) {
	var (
		params        experiment.TestParameters
		test, control experiment.GroupSummary
		err           error
	)
	p := cellParser{row: raw}

	params.TestKind, err = experiment.ParseTestKind(raw.Get(ColumnTestType))
	if err != nil {
		return params, test, control, errors.InvalidInput(err.Error())
	}

	params.TailKind = s.defaults.TailKind
	if v := raw.Get(ColumnTail); v != "" {
		if params.TailKind, err = experiment.ParseTailKind(v); err != nil {
			return params, test, control, errors.InvalidInput(err.Error())
		}
	}
	params.OneTailedMode = s.defaults.OneTailedMode
	if v := raw.Get(ColumnOneTailedMode); v != "" {
		if params.OneTailedMode, err = experiment.ParseOneTailedMode(v); err != nil {
			return params, test, control, errors.InvalidInput(err.Error())
		}
	}
	params.ConfidenceLevel = p.floatOr(ColumnConfidence, s.defaults.ConfidenceLevel)
	params.Pooled = p.boolOr(ColumnPooled, s.defaults.Pooled)

	test.Value = p.float(ColumnTestValue)
	control.Value = p.float(ColumnControlValue)
	test.SampleSize = p.int(ColumnNTest)
	control.SampleSize = p.int(ColumnNControl)
	if params.TestKind == experiment.TestKindMean {
		if raw.Get(ColumnStdTest) == "" || raw.Get(ColumnStdControl) == "" {
			return params, test, control, errors.InvalidInput("standard deviations must be provided for mean type tests")
		}
		test.StdDev = p.float(ColumnStdTest)
		control.StdDev = p.float(ColumnStdControl)
	}

	return params, test, control, p.err
}

// cellParser converts cells, keeping the first failure
type cellParser struct {
	row RawRowData
	err error
}

func (p *cellParser) float(col string) float64 {
	raw := p.row.Get(col)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(col, raw)
	}
	return v
}

func (p *cellParser) floatOr(col string, fallback float64) float64 {
	if p.row.Get(col) == "" {
		return fallback
	}
	return p.float(col)
}

func (p *cellParser) int(col string) int {
	raw := p.row.Get(col)
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(col, raw)
	}
	return v
}

func (p *cellParser) boolOr(col string, fallback bool) bool {
	raw := p.row.Get(col)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		if p.err == nil {
			p.err = errors.InvalidInput(col + " must be true or false, got " + strconv.Quote(raw))
		}
		return fallback
	}
	return v
}

func (p *cellParser) fail(col, raw string) {
	if p.err == nil {
		p.err = errors.InvalidInput(col + " must be a number, got " + strconv.Quote(raw))
	}
}
