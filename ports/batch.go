package ports

import (
	"context"

	"abstat/domain/experiment"
)

// ExperimentRow is one significance test read from a batch sheet
type ExperimentRow struct {
	Row        int // 1-based sheet row as shown in the spreadsheet; the header is row 1
	Name       string
	Parameters experiment.TestParameters
	Test       experiment.GroupSummary
	Control    experiment.GroupSummary
	ParseError error // Set when the row could not be read; the row is still reported
}

// ExperimentResultRow pairs an input row with its outcome
type ExperimentResultRow struct {
	ExperimentRow
	Result *experiment.SignificanceResult
	Err    error
}

// ExperimentSource reads batch experiment definitions
type ExperimentSource interface {
	ReadExperiments(ctx context.Context) ([]ExperimentRow, error)
}

// ResultSink persists batch outcomes
type ResultSink interface {
	WriteResults(ctx context.Context, rows []ExperimentResultRow) error
}
