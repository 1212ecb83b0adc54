package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"abstat/internal/report"
	"abstat/ports"
)

const resultSheet = "Results"

// ResultWriter writes batch outcomes to an xlsx workbook
type ResultWriter struct {
	filePath string
}

var _ ports.ResultSink = (*ResultWriter)(nil)

// NewResultWriter creates a sink writing to filePath
func NewResultWriter(filePath string) *ResultWriter {
	return &ResultWriter{filePath: filePath}
}

// WriteResults writes one row per experiment: the inputs, then z, p,
// significance and any error message.
func (w *ResultWriter) WriteResults(ctx context.Context, rows []ports.ExperimentResultRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{
		ColumnName, ColumnTestType, ColumnTail, ColumnTestValue, ColumnControlValue,
		ColumnNTest, ColumnNControl, ColumnStdTest, ColumnStdControl, ColumnConfidence,
	}
	for _, col := range resultColumns {
		header = append(header, col)
	}
	if err := f.SetSheetRow(resultSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		values := []interface{}{
			r.Name, string(r.Parameters.TestKind), string(r.Parameters.TailKind),
			r.Test.Value, r.Control.Value, r.Test.SampleSize, r.Control.SampleSize,
			r.Test.StdDev, r.Control.StdDev, r.Parameters.ConfidenceLevel,
		}
		switch {
		case r.Err != nil:
			values = append(values, nil, nil, nil, r.Err.Error())
		case r.Result != nil:
			values = append(values, r.Result.ZScore, r.Result.PValue, report.YesNo(r.Result.IsSignificant), nil)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.Row, err)
		}
	}

	if err := f.SaveAs(w.filePath); err != nil {
		return fmt.Errorf("failed to save %s: %w", w.filePath, err)
	}
	return nil
}
